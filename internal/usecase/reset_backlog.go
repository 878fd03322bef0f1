package usecase

import (
	"context"
	"fmt"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// ResetBacklogInput contains the parameters for resetting a backlog.
type ResetBacklogInput struct {
	BacklogID int
}

// ResetBacklog is the use case for manually returning a backlog to
// pending. The completion timestamp is cleared; logged task history is
// append-only and stays in the event log.
type ResetBacklog struct {
	backlogs domain.BacklogRepository
	logger   domain.Logger
}

// NewResetBacklog creates a new ResetBacklog use case.
func NewResetBacklog(backlogs domain.BacklogRepository, logger domain.Logger) *ResetBacklog {
	return &ResetBacklog{backlogs: backlogs, logger: logger}
}

// Execute resets the backlog's status to pending.
func (uc *ResetBacklog) Execute(_ context.Context, in ResetBacklogInput) error {
	err := uc.backlogs.Update(func(f *domain.BacklogFile) error {
		b := f.Get(in.BacklogID)
		if b == nil {
			return fmt.Errorf("backlog %d: %w", in.BacklogID, domain.ErrBacklogNotFound)
		}
		if b.Status == domain.BacklogPending {
			return nil
		}
		if !b.Status.CanTransitionTo(domain.BacklogPending) {
			return fmt.Errorf("backlog %d is %s: %w",
				in.BacklogID, b.Status, domain.ErrInvalidTransition)
		}
		b.Status = domain.BacklogPending
		b.CompletedAt = nil
		return nil
	})
	if err != nil {
		return err
	}

	uc.logger.Info("backlog reset", "id", in.BacklogID)
	return nil
}
