package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tsubasa-dev/gofer/internal/app"
	"github.com/tsubasa-dev/gofer/internal/usecase"
)

// newPlanCommand creates the plan command.
func newPlanCommand(c *app.Container) *cobra.Command {
	var fromFile string

	cmd := &cobra.Command{
		Use:   "plan [description]",
		Short: "Ask the agent to break a project description into backlogs",
		Long: `Ask the agent to break a project description into feature-sized
backlogs with dependency edges, and write them to the backlog store.

Examples:
  gofer plan "a todo list web service with user accounts"
  gofer plan --from requirements.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var description string
			switch {
			case fromFile != "":
				content, err := os.ReadFile(fromFile)
				if err != nil {
					return fmt.Errorf("read %s: %w", fromFile, err)
				}
				description = string(content)
			case len(args) == 1:
				description = args[0]
			default:
				return errors.New("provide a project description or --from <file>")
			}
			if strings.TrimSpace(description) == "" {
				return errors.New("project description is empty")
			}

			out, err := c.PlanBacklogsUseCase().Execute(cmd.Context(), usecase.PlanBacklogsInput{
				ProjectDescription: description,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out.ProjectSummary != "" {
				_, _ = fmt.Fprintf(w, "%s\n\n", out.ProjectSummary)
			}
			for _, b := range out.Backlogs {
				deps := ""
				if len(b.Dependencies) > 0 {
					deps = fmt.Sprintf("  (after %v)", b.Dependencies)
				}
				_, _ = fmt.Fprintf(w, "#%d  %s%s\n", b.ID, b.Title, deps)
			}
			_, _ = fmt.Fprintf(w, "\nPlanned %d backlogs. Run 'gofer run' to start.\n", len(out.Backlogs))
			return nil
		},
	}

	cmd.Flags().StringVar(&fromFile, "from", "", "Read the project description from a file")
	return cmd
}
