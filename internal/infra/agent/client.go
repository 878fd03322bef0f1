package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// Client implements domain.AgentClient by invoking the configured agent
// command as a synchronous subprocess. The prompt is delivered on stdin;
// the agent's stdout is the response. There is no cooperative
// cancellation mid-call: the context deadline terminates the process
// outright and the result feeds the retry/failure decision.
type Client struct {
	logger *slog.Logger
	cfg    domain.AgentConfig
	dir    string
}

// NewClient creates a new agent client running in dir.
func NewClient(cfg domain.AgentConfig, dir string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, dir: dir, logger: logger}
}

// Ensure Client implements domain.AgentClient.
var _ domain.AgentClient = (*Client)(nil)

// Invoke runs the agent once with a role-specific prompt and classifies
// failures into the transient sentinels the retry policy acts on.
func (c *Client) Invoke(ctx context.Context, role domain.AgentRole, prompt string) (string, error) {
	if c.cfg.Command == "" {
		return "", errors.New("agent command not configured")
	}

	if c.cfg.Timeout() > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout())
		defer cancel()
	}

	command := c.cfg.Command
	if c.cfg.Args != "" {
		command += " " + c.cfg.Args
	}
	if c.cfg.Model != "" {
		command += " --model " + c.cfg.Model
	}

	c.logger.Debug("invoking agent", "role", string(role), "command", command)

	// G204: the agent command comes from the user's own config.
	cmd := exec.CommandContext(ctx, "sh", "-c", command) //nolint:gosec
	cmd.Dir = c.dir
	cmd.Stdin = strings.NewReader(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	response := stdout.String()

	if err != nil {
		return "", c.classify(ctx, err, stderr.String())
	}
	if strings.TrimSpace(response) == "" {
		return "", fmt.Errorf("role %s: %w", role, domain.ErrEmptyResponse)
	}
	return response, nil
}

// classify maps a failed invocation onto the error taxonomy: timeouts
// and connection resets are transient, everything else surfaces as-is.
func (c *Client) classify(ctx context.Context, err error, stderr string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("after %s: %w", c.cfg.Timeout(), domain.ErrAgentTimeout)
	}
	lower := strings.ToLower(stderr)
	if strings.Contains(lower, "connection reset") || strings.Contains(lower, "econnreset") {
		return fmt.Errorf("%s: %w", strings.TrimSpace(stderr), domain.ErrConnectionReset)
	}
	if stderr != "" {
		return fmt.Errorf("agent command failed: %w: %s", err, strings.TrimSpace(stderr))
	}
	return fmt.Errorf("agent command failed: %w", err)
}
