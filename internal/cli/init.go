package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tsubasa-dev/gofer/internal/app"
)

// newInitCommand creates the init command.
func newInitCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the project for gofer",
		Long: `Initialize the current project for gofer.

This command creates the .gofer/ directory with:
- backlog.json: empty backlog store
- events.jsonl: created on first run
- logs/: directory for log files

Error conditions:
- Already initialized: "gofer already initialized"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.InitProjectUseCase().Execute(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Initialized gofer in %s\n", c.Paths.GoferDir)
			return nil
		},
	}
}
