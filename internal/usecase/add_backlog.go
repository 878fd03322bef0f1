package usecase

import (
	"context"
	"fmt"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// AddBacklogInput contains the parameters for adding a backlog by hand.
type AddBacklogInput struct {
	Title        string
	Description  string
	Priority     string
	Dependencies []int
}

// AddBacklog is the use case for appending one backlog without the
// planning role.
type AddBacklog struct {
	backlogs domain.BacklogRepository
	clock    domain.Clock
	logger   domain.Logger
}

// NewAddBacklog creates a new AddBacklog use case.
func NewAddBacklog(backlogs domain.BacklogRepository, clock domain.Clock, logger domain.Logger) *AddBacklog {
	return &AddBacklog{backlogs: backlogs, clock: clock, logger: logger}
}

// Execute adds the backlog and returns it with its assigned ID.
func (uc *AddBacklog) Execute(_ context.Context, in AddBacklogInput) (*domain.Backlog, error) {
	if in.Title == "" {
		return nil, domain.ErrEmptyTitle
	}

	var created *domain.Backlog
	err := uc.backlogs.Update(func(f *domain.BacklogFile) error {
		for _, dep := range in.Dependencies {
			if f.Get(dep) == nil {
				return fmt.Errorf("dependency %d: %w", dep, domain.ErrBacklogNotFound)
			}
		}
		created = &domain.Backlog{
			ID:           f.NextID(),
			Title:        in.Title,
			Description:  in.Description,
			Priority:     in.Priority,
			Dependencies: in.Dependencies,
			Status:       domain.BacklogPending,
			CreatedAt:    uc.clock.Now(),
		}
		f.Backlogs = append(f.Backlogs, created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("backlog added", "id", created.ID, "title", created.Title)
	return created, nil
}
