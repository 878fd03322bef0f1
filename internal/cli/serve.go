package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tsubasa-dev/gofer/internal/app"
)

// newServeCommand creates the serve command.
func newServeCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the configured serve command and keep it alive",
		Long: `Start the [serve] command from the configuration and wait.

On SIGINT or SIGTERM the child's process group is terminated
best-effort before gofer exits.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.ServeUseCase().Execute(ctx)
		},
	}
}
