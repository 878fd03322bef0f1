// Package executor provides external command execution.
package executor

import (
	"context"
	"os/exec"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// Client implements domain.CommandExecutor. Commands run through the
// shell so configured test and install commands keep their pipes and
// arguments.
type Client struct{}

// NewClient creates a new command executor client.
func NewClient() *Client {
	return &Client{}
}

// Ensure Client implements domain.CommandExecutor.
var _ domain.CommandExecutor = (*Client)(nil)

// Run executes a shell command in dir and returns its combined output.
// Only the exit status and output text are consumed by callers; command
// internals are outside the core's concern.
func (c *Client) Run(ctx context.Context, dir, command string) ([]byte, error) {
	// G204: commands come from the user's own config.
	cmd := exec.CommandContext(ctx, "sh", "-c", command) //nolint:gosec
	if dir != "" {
		cmd.Dir = dir
	}
	return cmd.CombinedOutput()
}
