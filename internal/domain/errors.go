package domain

import "errors"

// Domain errors.
var (
	ErrNotInitialized     = errors.New("gofer not initialized (run 'gofer init' first)")
	ErrAlreadyInitialized = errors.New("gofer already initialized")
	ErrBacklogNotFound    = errors.New("backlog not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrNoBacklogs         = errors.New("no backlogs defined")
	ErrAgentFailure       = errors.New("agent reported failure")
	ErrEmptyResponse      = errors.New("agent returned an empty response")
	ErrRetriesExhausted   = errors.New("agent retries exhausted")
	ErrNoTasksPlanned     = errors.New("planning produced no tasks")
	ErrTestsFailed        = errors.New("test run failed")
	ErrInstallFailed      = errors.New("dependency install failed")
	ErrEmptyTitle         = errors.New("title cannot be empty")
)

// IsTransient reports whether an agent call error belongs to the
// transient class (timeout, connection reset, empty response) and is
// therefore worth a bounded retry. Everything else surfaces immediately.
func IsTransient(err error) bool {
	return errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrAgentTimeout) || errors.Is(err, ErrConnectionReset)
}

// Transient agent error sentinels, wrapped by the agent client when it
// classifies a failed invocation.
var (
	ErrAgentTimeout    = errors.New("agent call timed out")
	ErrConnectionReset = errors.New("agent connection reset")
)
