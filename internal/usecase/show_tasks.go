package usecase

import (
	"context"
	"fmt"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// ShowTasksInput contains the parameters for listing a backlog's tasks.
type ShowTasksInput struct {
	BacklogID int
}

// ShowTasksOutput contains the reconstructed task list.
type ShowTasksOutput struct {
	Backlog *domain.Backlog
	Tasks   []*domain.Task
}

// ShowTasks reconstructs one backlog's task list from the event log.
type ShowTasks struct {
	backlogs domain.BacklogRepository
	state    *ProjectState
}

// NewShowTasks creates a new ShowTasks use case.
func NewShowTasks(backlogs domain.BacklogRepository, state *ProjectState) *ShowTasks {
	return &ShowTasks{backlogs: backlogs, state: state}
}

// Execute returns the backlog's current task list with derived status.
func (uc *ShowTasks) Execute(_ context.Context, in ShowTasksInput) (*ShowTasksOutput, error) {
	file, err := uc.backlogs.Load()
	if err != nil {
		return nil, err
	}
	backlog := file.Get(in.BacklogID)
	if backlog == nil {
		return nil, fmt.Errorf("backlog %d: %w", in.BacklogID, domain.ErrBacklogNotFound)
	}

	events, err := uc.state.Replay()
	if err != nil {
		return nil, err
	}
	return &ShowTasksOutput{
		Backlog: backlog,
		Tasks:   domain.ReconstructTasks(events, backlog.Description),
	}, nil
}
