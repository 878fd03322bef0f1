// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// MockSleeper records requested delays without sleeping.
type MockSleeper struct {
	Slept []time.Duration
}

// Sleep records the duration and returns immediately.
func (m *MockSleeper) Sleep(d time.Duration) {
	m.Slept = append(m.Slept, d)
}

// MockEventLog is an in-memory test double for domain.EventLog.
type MockEventLog struct {
	Events    []domain.Event
	AppendErr error
	ReplayErr error
}

// Append records the event in memory.
func (m *MockEventLog) Append(event domain.Event) error {
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.Events = append(m.Events, event)
	return nil
}

// Replay returns a copy of the recorded events.
func (m *MockEventLog) Replay() ([]domain.Event, error) {
	if m.ReplayErr != nil {
		return nil, m.ReplayErr
	}
	out := make([]domain.Event, len(m.Events))
	copy(out, m.Events)
	return out, nil
}

// Actions returns the action of every recorded event, in order.
func (m *MockEventLog) Actions() []domain.EventAction {
	actions := make([]domain.EventAction, 0, len(m.Events))
	for _, e := range m.Events {
		actions = append(actions, e.Action)
	}
	return actions
}

// MockBacklogRepository is an in-memory test double for
// domain.BacklogRepository.
type MockBacklogRepository struct {
	File        *domain.BacklogFile
	LoadErr     error
	UpdateErr   error
	Initialized bool
}

// NewMockBacklogRepository creates a repository seeded with an empty file.
func NewMockBacklogRepository() *MockBacklogRepository {
	return &MockBacklogRepository{
		File:        &domain.BacklogFile{},
		Initialized: true,
	}
}

// Load returns the in-memory backlog file.
func (m *MockBacklogRepository) Load() (*domain.BacklogFile, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if !m.Initialized {
		return nil, domain.ErrNotInitialized
	}
	return m.File, nil
}

// Update applies fn to the in-memory file.
func (m *MockBacklogRepository) Update(fn func(*domain.BacklogFile) error) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if !m.Initialized {
		return domain.ErrNotInitialized
	}
	return fn(m.File)
}

// Initialize marks the repository as initialized.
func (m *MockBacklogRepository) Initialize() error {
	m.Initialized = true
	return nil
}

// IsInitialized returns the configured value.
func (m *MockBacklogRepository) IsInitialized() bool {
	return m.Initialized
}

// MockAgentClient replays scripted responses in call order.
// Fields are ordered to minimize memory padding.
type MockAgentClient struct {
	// Responses are returned in order; once exhausted Invoke returns
	// the last one again.
	Responses []string
	// Errs pairs with Responses by index; a nil entry means success.
	Errs    []error
	Prompts []string
	Roles   []domain.AgentRole
	calls   int
}

// Invoke records the call and returns the next scripted response.
func (m *MockAgentClient) Invoke(_ context.Context, role domain.AgentRole, prompt string) (string, error) {
	m.Roles = append(m.Roles, role)
	m.Prompts = append(m.Prompts, prompt)
	i := m.calls
	m.calls++
	if i < len(m.Errs) && m.Errs[i] != nil {
		return "", m.Errs[i]
	}
	if len(m.Responses) == 0 {
		return "", domain.ErrEmptyResponse
	}
	if i >= len(m.Responses) {
		i = len(m.Responses) - 1
	}
	return m.Responses[i], nil
}

// Calls returns the number of Invoke calls made.
func (m *MockAgentClient) Calls() int {
	return m.calls
}

// StubPrompts is a minimal domain.PromptBuilder whose output names the
// role so tests can assert which prompt was built.
type StubPrompts struct{}

// PlanBacklogs returns a recognizable planning prompt.
func (StubPrompts) PlanBacklogs(desc string) string { return "plan backlogs: " + desc }

// PlanTasks returns a recognizable task-planning prompt.
func (StubPrompts) PlanTasks(b *domain.Backlog, _ string) string { return "plan tasks: " + b.Title }

// BuildTask returns a recognizable build prompt.
func (StubPrompts) BuildTask(t *domain.Task, _ *domain.Backlog, _ []*domain.Task) string {
	return fmt.Sprintf("build task %d: %s", t.TaskNumber, t.Description)
}

// Review returns a recognizable review prompt.
func (StubPrompts) Review(b *domain.Backlog, _ []string) string { return "review: " + b.Title }

// FixTests returns a recognizable fix prompt.
func (StubPrompts) FixTests(cmd, _ string) string { return "fix tests: " + cmd }

// MockExecutor is a test double for domain.CommandExecutor.
// Outputs and Errs pair with calls by index; a call past the end of a
// scripted slice falls back to the fixed Output and RunErr.
type MockExecutor struct {
	Output   []byte
	Outputs  [][]byte
	RunErr   error
	Errs     []error
	Commands []string
	Dirs     []string
}

// Run records the command and returns the scripted result for this call.
func (m *MockExecutor) Run(_ context.Context, dir, command string) ([]byte, error) {
	i := len(m.Commands)
	m.Dirs = append(m.Dirs, dir)
	m.Commands = append(m.Commands, command)
	out, err := m.Output, m.RunErr
	if i < len(m.Outputs) {
		out = m.Outputs[i]
	}
	if i < len(m.Errs) {
		err = m.Errs[i]
	}
	return out, err
}

// MockWorkspaceWriter is a test double for domain.WorkspaceWriter.
type MockWorkspaceWriter struct {
	Written  []domain.FileChange
	WriteErr error
}

// WriteFiles records the changes and returns their paths.
func (m *MockWorkspaceWriter) WriteFiles(files []domain.FileChange) ([]string, error) {
	if m.WriteErr != nil {
		return nil, m.WriteErr
	}
	m.Written = append(m.Written, files...)
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	return paths, nil
}

// MockCommitter is a test double for domain.Committer.
type MockCommitter struct {
	Messages  [][2]any
	CommitErr error
}

// Commit records the message and paths.
func (m *MockCommitter) Commit(message string, paths []string) error {
	if m.CommitErr != nil {
		return m.CommitErr
	}
	m.Messages = append(m.Messages, [2]any{message, paths})
	return nil
}

// MockConfigLoader is a test double for domain.ConfigLoader.
type MockConfigLoader struct {
	Config  *domain.Config
	LoadErr error
}

// Load returns the configured config, defaulting when unset.
func (m *MockConfigLoader) Load() (*domain.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Config == nil {
		return domain.NewDefaultConfig(), nil
	}
	return m.Config, nil
}

// MockChildProcess is a test double for domain.ChildProcess.
type MockChildProcess struct {
	Terminated   bool
	TerminateErr error
}

// Terminate marks the child as terminated.
func (m *MockChildProcess) Terminate() error {
	m.Terminated = true
	return m.TerminateErr
}

// MockChildStarter is a test double for domain.ChildStarter.
type MockChildStarter struct {
	Child    *MockChildProcess
	StartErr error
	Commands []string
}

// Start records the command and returns the configured child.
func (m *MockChildStarter) Start(_, command string) (domain.ChildProcess, error) {
	if m.StartErr != nil {
		return nil, m.StartErr
	}
	m.Commands = append(m.Commands, command)
	if m.Child == nil {
		m.Child = &MockChildProcess{}
	}
	return m.Child, nil
}

// NopLogger discards all log output.
type NopLogger struct{}

// Debug discards the message.
func (NopLogger) Debug(string, ...any) {}

// Info discards the message.
func (NopLogger) Info(string, ...any) {}

// Warn discards the message.
func (NopLogger) Warn(string, ...any) {}

// Error discards the message.
func (NopLogger) Error(string, ...any) {}

// CaptureLogger records formatted log lines for assertions.
type CaptureLogger struct {
	Lines []string
}

func (l *CaptureLogger) record(level, msg string, args []any) {
	line := level + " " + msg
	if len(args) > 0 {
		line += fmt.Sprintf(" %v", args)
	}
	l.Lines = append(l.Lines, line)
}

// Debug records a debug line.
func (l *CaptureLogger) Debug(msg string, args ...any) { l.record("DEBUG", msg, args) }

// Info records an info line.
func (l *CaptureLogger) Info(msg string, args ...any) { l.record("INFO", msg, args) }

// Warn records a warn line.
func (l *CaptureLogger) Warn(msg string, args ...any) { l.record("WARN", msg, args) }

// Error records an error line.
func (l *CaptureLogger) Error(msg string, args ...any) { l.record("ERROR", msg, args) }
