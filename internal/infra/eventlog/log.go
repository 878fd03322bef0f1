// Package eventlog provides the append-only JSONL implementation of
// domain.EventLog.
package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// Log implements domain.EventLog using one JSON object per line.
// Records are only ever appended, never edited or deleted; every other
// view of project state is recomputed from this file.
type Log struct {
	logger   *slog.Logger
	path     string
	lockPath string
}

// New creates a Log for the given file path. The file does not need to
// exist; it is created on first append.
func New(path string, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{
		path:     path,
		lockPath: path + ".lock",
		logger:   logger,
	}
}

// Ensure Log implements domain.EventLog.
var _ domain.EventLog = (*Log)(nil)

// Append writes one event record and syncs it to disk before returning,
// so a crash after Append loses at most the in-flight external call.
func (l *Log) Append(event domain.Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	lock, err := l.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer l.releaseLock(lock)

	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	// G302: the log is the project's audit trail and stays group-readable.
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync event log: %w", err)
	}
	return nil
}

// Replay returns the ordered full event sequence. A missing file is an
// empty log; unparseable lines are skipped with a warning so a corrupt
// log degrades instead of halting the process.
func (l *Log) Replay() ([]domain.Event, error) {
	lock, err := l.acquireLock(syscall.LOCK_SH)
	if err != nil {
		return nil, err
	}
	defer l.releaseLock(lock)

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		l.logger.Warn("event log unreadable, treating as empty", "path", l.path, "error", err)
		return nil, nil
	}
	defer func() { _ = f.Close() }()

	var events []domain.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e domain.Event
		if err := json.Unmarshal(line, &e); err != nil {
			l.logger.Warn("skipping corrupt event log line", "line", lineNo, "error", err)
			continue
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		l.logger.Warn("event log truncated while scanning", "line", lineNo, "error", err)
	}
	return events, nil
}

func (l *Log) acquireLock(lockType int) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(l.lockPath), 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock, err := os.OpenFile(l.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	return lock, nil
}

func (l *Log) releaseLock(lock *os.File) {
	_ = syscall.Flock(int(lock.Fd()), syscall.LOCK_UN)
	_ = lock.Close()
}
