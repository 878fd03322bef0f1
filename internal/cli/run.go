package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tsubasa-dev/gofer/internal/app"
	"github.com/tsubasa-dev/gofer/internal/usecase"
)

// newRunCommand creates the run command.
func newRunCommand(c *app.Container) *cobra.Command {
	var runAll bool

	cmd := &cobra.Command{
		Use:   "run [backlog-id]",
		Short: "Run the next backlog (or a specific one) through the pipeline",
		Long: `Run a backlog through the plan, build, test pipeline.

Without arguments the scheduler picks the next backlog: an in-progress
one is resumed first, otherwise the first pending backlog whose
dependencies are all completed. With an id that backlog is run directly.

Examples:
  gofer run        # next runnable backlog
  gofer run 3      # backlog #3
  gofer run --all  # keep going until done or blocked`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			if len(args) == 1 {
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid backlog id %q", args[0])
				}
				out, err := c.RunBacklogUseCase().Execute(cmd.Context(), usecase.RunBacklogInput{BacklogID: id})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(w, "Backlog #%d complete (%d/%d tasks)\n", id, out.TasksCompleted, out.TasksTotal)
				return nil
			}

			for {
				out, err := c.RunNextUseCase().Execute(cmd.Context())
				if err != nil {
					return err
				}
				switch {
				case out.AllDone:
					_, _ = fmt.Fprintln(w, "All backlogs completed.")
					return nil
				case out.Backlog == nil:
					_, _ = fmt.Fprintln(w, "No runnable backlog:")
					for _, b := range out.Blocked {
						_, _ = fmt.Fprintf(w, "  #%d %s blocked on %v\n", b.ID, b.Title, b.UnmetDeps)
					}
					return nil
				default:
					_, _ = fmt.Fprintf(w, "Backlog #%d %q complete (%d/%d tasks)\n",
						out.Backlog.ID, out.Backlog.Title, out.Run.TasksCompleted, out.Run.TasksTotal)
				}
				if !runAll {
					return nil
				}
			}
		},
	}

	cmd.Flags().BoolVar(&runAll, "all", false, "Keep running backlogs until all are done or blocked")
	return cmd
}

// newTestCommand creates the test command.
func newTestCommand(c *app.Container) *cobra.Command {
	var command string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the project's test command and record the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.RunTestsUseCase().Execute(cmd.Context(), usecase.RunTestsInput{Command: command})
			if out != nil {
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprint(w, out.Output)
				_, _ = fmt.Fprintf(w, "\n%s\n", out.Diagnosis.Summary())
				for _, f := range out.Diagnosis.Findings {
					_, _ = fmt.Fprintf(w, "  %s: %s\n    try: %s\n", f.Category, f.Detail, f.Suggestion)
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&command, "command", "", "Override the configured [test] command")
	return cmd
}
