// Package logging provides file-based logging for gofer.
// It writes to .gofer/logs/gofer.log through a slog handler so the
// pipeline's diagnostics survive the run that produced them.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// Ensure Logger implements domain.Logger.
var _ domain.Logger = (*Logger)(nil)

// Logger wraps a slog.Logger writing to the gofer log file. If goferDir
// is empty, logging is disabled.
// Fields are ordered to minimize memory padding.
type Logger struct {
	file     *os.File
	slogger  *slog.Logger
	goferDir string
	mu       sync.Mutex
	level    slog.Level
}

// New creates a Logger writing to the gofer log directory.
func New(goferDir string, level slog.Level) *Logger {
	return &Logger{
		goferDir: goferDir,
		level:    level,
	}
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Slog returns the underlying slog.Logger for infra components that take
// one directly. A disabled Logger returns a discard logger.
func (l *Logger) Slog() *slog.Logger {
	if s := l.ensure(); s != nil {
		return s
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ensure lazily opens the log file and handler.
func (l *Logger) ensure() *slog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.slogger != nil {
		return l.slogger
	}
	if l.goferDir == "" {
		return nil
	}
	if err := os.MkdirAll(domain.LogsDir(l.goferDir), 0o750); err != nil {
		return nil
	}

	path := domain.GlobalLogPath(l.goferDir)
	// G302: log files stay readable by repository users.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec
	if err != nil {
		return nil
	}
	l.file = f
	l.slogger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: l.level}))
	return l.slogger
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.slogger = nil
	if err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	if s := l.ensure(); s != nil {
		s.Debug(msg, args...)
	}
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	if s := l.ensure(); s != nil {
		s.Info(msg, args...)
	}
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	if s := l.ensure(); s != nil {
		s.Warn(msg, args...)
	}
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	if s := l.ensure(); s != nil {
		s.Error(msg, args...)
	}
}
