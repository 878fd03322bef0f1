// Package usecase contains application use cases.
package usecase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tsubasa-dev/gofer/internal/domain"
)

// ProjectState stamps and appends events and tracks the task-number
// counter. The counter is a cache over the log, re-derived on demand
// and never trusted across restarts.
// Fields are ordered to minimize memory padding.
type ProjectState struct {
	events  domain.EventLog
	clock   domain.Clock
	runID   string
	counter int
	synced  bool
}

// NewProjectState creates a ProjectState with a fresh run ID.
func NewProjectState(events domain.EventLog, clock domain.Clock) *ProjectState {
	return &ProjectState{
		events: events,
		clock:  clock,
		runID:  uuid.NewString(),
	}
}

// RunID returns the identifier stamped on this run's events.
func (s *ProjectState) RunID() string {
	return s.runID
}

// Append stamps the schema version, timestamp and run ID on the event
// and writes it durably.
func (s *ProjectState) Append(event domain.Event) error {
	event.Version = domain.EventSchemaVersion
	event.Timestamp = s.clock.Now()
	event.RunID = s.runID
	if err := s.events.Append(event); err != nil {
		return fmt.Errorf("append %s event: %w", event.Action, err)
	}
	return nil
}

// Replay returns the full ordered event sequence.
func (s *ProjectState) Replay() ([]domain.Event, error) {
	return s.events.Replay()
}

// SyncCounter re-derives the task-number counter from the log. Out of
// order or duplicate historical entries only ever raise it.
func (s *ProjectState) SyncCounter() error {
	events, err := s.events.Replay()
	if err != nil {
		return fmt.Errorf("replay for counter sync: %w", err)
	}
	if max := domain.MaxTaskNumber(events); max > s.counter {
		s.counter = max
	}
	s.synced = true
	return nil
}

// NextTaskNumber returns the next globally unique task number, syncing
// the counter from the log on first use.
func (s *ProjectState) NextTaskNumber() (int, error) {
	if !s.synced {
		if err := s.SyncCounter(); err != nil {
			return 0, err
		}
	}
	s.counter++
	return s.counter, nil
}
