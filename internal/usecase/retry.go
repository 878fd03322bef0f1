package usecase

import (
	"context"
	"fmt"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// invokeWithRetry calls the agent with a bounded retry policy. Only
// transient failures (timeout, connection reset, empty response) are
// retried; anything else, including an explicit FAILURE envelope later
// in parsing, surfaces immediately. The delay between attempts is fixed.
func invokeWithRetry(
	ctx context.Context,
	agent domain.AgentClient,
	role domain.AgentRole,
	prompt string,
	retry domain.RetryConfig,
	sleeper domain.Sleeper,
	logger domain.Logger,
) (string, error) {
	attempts := retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		response, err := agent.Invoke(ctx, role, prompt)
		if err == nil {
			return response, nil
		}
		if !domain.IsTransient(err) {
			return "", err
		}
		lastErr = err
		if logger != nil {
			logger.Warn("transient agent error",
				"role", string(role), "attempt", attempt, "error", err.Error())
		}
		if attempt < attempts {
			sleeper.Sleep(retry.Delay())
		}
	}

	return "", fmt.Errorf("%w after %d attempts (%s): %w",
		domain.ErrRetriesExhausted, attempts, role, lastErr)
}
