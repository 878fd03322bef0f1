package domain

import (
	"context"
	"time"
)

// EventLog is the durable, append-only record of state-changing actions.
type EventLog interface {
	// Append writes one record. It must be durable before the next
	// external call is issued, so a crash loses at most the in-flight
	// call, never prior history.
	Append(event Event) error

	// Replay returns the full ordered event sequence. Calling it many
	// times yields identical results. An unreadable or corrupt log is
	// treated as empty, never as a fatal error.
	Replay() ([]Event, error)
}

// BacklogRepository manages the whole-file backlog store.
type BacklogRepository interface {
	// Load reads the current backlog file.
	Load() (*BacklogFile, error)

	// Update applies fn under an exclusive lock and persists the result.
	Update(fn func(*BacklogFile) error) error

	// Initialize creates an empty store file if it doesn't exist.
	Initialize() error

	// IsInitialized checks if the store file exists.
	IsInitialized() bool
}

// AgentRole selects the prompt shape for an agent invocation.
type AgentRole string

const (
	RolePlanBacklogs AgentRole = "plan_backlogs"
	RolePlanTasks    AgentRole = "plan_tasks"
	RoleBuildTask    AgentRole = "build_task"
	RoleReview       AgentRole = "review"
	RoleFixTests     AgentRole = "fix_tests"
)

// AgentClient invokes the external text-generation agent. The call is an
// opaque synchronous exchange: one prompt in, one block of text out.
type AgentClient interface {
	// Invoke runs the agent with a role-specific prompt. Timeouts,
	// connection resets and empty output are classified as transient
	// sentinels so the caller can apply its retry policy.
	Invoke(ctx context.Context, role AgentRole, prompt string) (string, error)
}

// PromptBuilder renders role-specific prompts for agent invocations.
type PromptBuilder interface {
	PlanBacklogs(projectDescription string) string
	PlanTasks(backlog *Backlog, projectSummary string) string
	BuildTask(task *Task, backlog *Backlog, completed []*Task) string
	Review(backlog *Backlog, files []string) string
	FixTests(testCommand, output string) string
}

// ResponseParser turns one agent response into a structured result,
// trying the structured envelope first and free-text patterns as
// fallback. It never fails on malformed input; irrecoverable ambiguity
// yields an empty result.
type ResponseParser interface {
	Parse(response string) (*ParseResult, error)
}

// CommandExecutor runs external commands (test runner, installs).
type CommandExecutor interface {
	// Run executes a shell command in dir and returns its combined
	// output. The error carries the exit status.
	Run(ctx context.Context, dir, command string) ([]byte, error)
}

// ChildProcess is an owned keep-alive child with an explicit handle.
type ChildProcess interface {
	// Terminate best-effort stops the child's process group.
	Terminate() error
}

// ChildStarter starts detached keep-alive processes.
type ChildStarter interface {
	Start(dir, command string) (ChildProcess, error)
}

// WorkspaceWriter applies agent-declared file changes under the project
// root.
type WorkspaceWriter interface {
	// WriteFiles writes each change and returns the relative paths
	// written, in input order.
	WriteFiles(files []FileChange) ([]string, error)
}

// Committer wraps version-control commits of written files.
type Committer interface {
	// Commit stages the given relative paths and commits them.
	Commit(message string, paths []string) error
}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (project + global).
	Load() (*Config, error)
}

// Logger is the minimal logging surface use cases depend on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Sleeper provides the fixed inter-retry delay, injectable for tests.
type Sleeper interface {
	Sleep(d time.Duration)
}

// RealSleeper implements Sleeper with time.Sleep.
type RealSleeper struct{}

// Sleep blocks for the given duration.
func (RealSleeper) Sleep(d time.Duration) {
	time.Sleep(d)
}
