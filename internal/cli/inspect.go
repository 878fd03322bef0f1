package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tsubasa-dev/gofer/internal/app"
	"github.com/tsubasa-dev/gofer/internal/domain"
	"github.com/tsubasa-dev/gofer/internal/usecase"
)

// newTasksCommand creates the tasks command.
func newTasksCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks <backlog-id>",
		Short: "Show a backlog's tasks as reconstructed from the event log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid backlog id %q", args[0])
			}
			out, err := c.ShowTasksUseCase().Execute(cmd.Context(), usecase.ShowTasksInput{BacklogID: id})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "#%d %s\n", out.Backlog.ID, out.Backlog.Title)
			if len(out.Tasks) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No tasks planned yet.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NUM\tSTATUS\tTEST\tDESCRIPTION")
			for _, t := range out.Tasks {
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.TaskNumber, t.Status, t.TestCommand, t.Description)
			}
			return tw.Flush()
		},
	}
}

// newEventsCommand creates the events command.
func newEventsCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Action string
		Limit  int
	}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the event log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			events, err := c.ShowEventsUseCase().Execute(cmd.Context(), usecase.ShowEventsInput{
				Action: domain.EventAction(opts.Action),
				Limit:  opts.Limit,
			})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range events {
				detail := e.Description
				if e.TaskNumber > 0 {
					detail = fmt.Sprintf("task %d  %s", e.TaskNumber, detail)
				}
				if e.Error != "" {
					detail += "  error: " + e.Error
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n",
					e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, detail)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&opts.Action, "action", "", "Only show events with this action")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Only show the most recent N events")
	return cmd
}
