package usecase

import (
	"context"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// ShowEventsInput contains the parameters for listing logged events.
type ShowEventsInput struct {
	// Action filters to one action kind when non-empty.
	Action domain.EventAction
	// Limit keeps only the most recent N events when positive.
	Limit int
}

// ShowEvents lists the event log, newest last.
type ShowEvents struct {
	state *ProjectState
}

// NewShowEvents creates a new ShowEvents use case.
func NewShowEvents(state *ProjectState) *ShowEvents {
	return &ShowEvents{state: state}
}

// Execute returns the filtered event sequence in log order.
func (uc *ShowEvents) Execute(_ context.Context, in ShowEventsInput) ([]domain.Event, error) {
	events, err := uc.state.Replay()
	if err != nil {
		return nil, err
	}

	if in.Action != "" {
		filtered := events[:0:0]
		for _, e := range events {
			if e.Action == in.Action {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	if in.Limit > 0 && len(events) > in.Limit {
		events = events[len(events)-in.Limit:]
	}
	return events, nil
}
