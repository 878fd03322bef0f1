package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tsubasa-dev/gofer/internal/app"
	"github.com/tsubasa-dev/gofer/internal/usecase"
)

// newBacklogCommand creates the backlog command group.
func newBacklogCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backlog",
		Short: "Inspect and manage the backlog store",
	}
	cmd.AddCommand(
		newBacklogListCommand(c),
		newBacklogAddCommand(c),
		newBacklogResetCommand(c),
		newBacklogImportCommand(c),
		newBacklogExportCommand(c),
	)
	return cmd
}

// newBacklogListCommand creates the backlog list command.
func newBacklogListCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backlogs with status and task progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ListBacklogsUseCase().Execute(cmd.Context())
			if err != nil {
				return err
			}

			if out.ProjectSummary != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", out.ProjectSummary)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tSTATUS\tTASKS\tTITLE")
			for _, item := range out.Items {
				b := item.Backlog
				progress := "-"
				if item.TasksTotal > 0 {
					progress = fmt.Sprintf("%d/%d", item.TasksCompleted, item.TasksTotal)
				}
				title := b.Title
				if len(item.UnmetDeps) > 0 {
					title += fmt.Sprintf("  (blocked on %v)", item.UnmetDeps)
				}
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", b.ID, b.Status.Display(), progress, title)
			}
			return tw.Flush()
		},
	}
}

// newBacklogAddCommand creates the backlog add command.
func newBacklogAddCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Description  string
		Priority     string
		Dependencies []int
	}

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a backlog without the planning role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := c.AddBacklogUseCase().Execute(cmd.Context(), usecase.AddBacklogInput{
				Title:        args[0],
				Description:  opts.Description,
				Priority:     opts.Priority,
				Dependencies: opts.Dependencies,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added backlog #%d %q\n", created.ID, created.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Description, "description", "", "Backlog description (the requirement text)")
	cmd.Flags().StringVar(&opts.Priority, "priority", "", "Priority label")
	cmd.Flags().IntSliceVar(&opts.Dependencies, "depends-on", nil, "Backlog ids that must complete first")
	return cmd
}

// newBacklogResetCommand creates the backlog reset command.
func newBacklogResetCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <id>",
		Short: "Return a backlog to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid backlog id %q", args[0])
			}
			if err := c.ResetBacklogUseCase().Execute(cmd.Context(), usecase.ResetBacklogInput{BacklogID: id}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Backlog #%d reset to pending\n", id)
			return nil
		},
	}
}

// newBacklogImportCommand creates the backlog import command.
func newBacklogImportCommand(c *app.Container) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import backlogs from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			out, err := c.ImportBacklogsUseCase().Execute(cmd.Context(), usecase.ImportBacklogsInput{
				Content: string(content),
				Replace: replace,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d backlogs\n", out.Imported)
			return nil
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Replace the existing backlog set instead of appending")
	return cmd
}

// newBacklogExportCommand creates the backlog export command.
func newBacklogExportCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the backlog store as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ExportBacklogsUseCase().Execute(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
