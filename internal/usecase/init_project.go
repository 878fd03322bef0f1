package usecase

import (
	"context"
	"fmt"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// InitProject is the use case for initializing the project state
// directory.
type InitProject struct {
	backlogs domain.BacklogRepository
	logger   domain.Logger
}

// NewInitProject creates a new InitProject use case.
func NewInitProject(backlogs domain.BacklogRepository, logger domain.Logger) *InitProject {
	return &InitProject{backlogs: backlogs, logger: logger}
}

// Execute creates the state directory and an empty backlog store.
func (uc *InitProject) Execute(_ context.Context) error {
	if uc.backlogs.IsInitialized() {
		return domain.ErrAlreadyInitialized
	}

	if err := uc.backlogs.Initialize(); err != nil {
		return fmt.Errorf("initialize backlog store: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info("project initialized")
	}
	return nil
}
