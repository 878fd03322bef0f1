package domain

import "time"

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Agent    AgentConfig   // [agent] settings
	Retry    RetryConfig   // [retry] settings
	Test     TestConfig    // [test] settings
	Install  InstallConfig // [install] settings
	Git      GitConfig     // [git] settings
	Serve    ServeConfig   // [serve] settings
	Log      LogConfig     // [log] settings
	Warnings []string      // Unknown-key warnings collected while loading
}

// AgentConfig holds agent invocation settings from the [agent] section.
type AgentConfig struct {
	Command        string // Agent executable (e.g. "claude")
	Args           string // Extra arguments appended to the command
	Model          string // Model name passed through to the agent
	TimeoutSeconds int    // Per-call timeout; 0 means no timeout
}

// Timeout returns the per-call timeout as a duration.
func (a AgentConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// RetryConfig holds the bounded-retry policy from the [retry] section.
// Retries apply only to transient failure classes.
type RetryConfig struct {
	MaxAttempts  int // Total attempts per agent call, including the first
	DelaySeconds int // Fixed delay between attempts
}

// Delay returns the fixed inter-retry delay as a duration.
func (r RetryConfig) Delay() time.Duration {
	return time.Duration(r.DelaySeconds) * time.Second
}

// TestConfig holds test-runner settings from the [test] section.
type TestConfig struct {
	Command string // Command run after all tasks complete
}

// InstallConfig holds dependency-install settings from the [install] section.
type InstallConfig struct {
	Command string // Command run before tests when runtime requirements exist
}

// GitConfig holds commit-wrapping settings from the [git] section.
type GitConfig struct {
	AutoCommit bool // Commit written files after each task
}

// ServeConfig holds keep-alive settings from the [serve] section.
type ServeConfig struct {
	Command string // Child process started by `gofer serve`
}

// LogConfig holds logging settings from the [log] section.
type LogConfig struct {
	Level string // Log level: debug, info, warn, error
}

// NewDefaultConfig returns the configuration defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Command:        "claude",
			Args:           "-p",
			TimeoutSeconds: 600,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			DelaySeconds: 5,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
