package usecase

import (
	"context"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// BacklogProgress pairs a backlog with its task progress derived from
// the event log.
// Fields are ordered to minimize memory padding.
type BacklogProgress struct {
	Backlog        *domain.Backlog
	UnmetDeps      []int
	TasksCompleted int
	TasksTotal     int
}

// ListBacklogsOutput contains the backlog set with per-backlog progress.
type ListBacklogsOutput struct {
	ProjectSummary string
	Items          []BacklogProgress
}

// ListBacklogs is the use case for the status listing: every backlog
// with its task progress and unmet dependencies.
type ListBacklogs struct {
	backlogs domain.BacklogRepository
	state    *ProjectState
}

// NewListBacklogs creates a new ListBacklogs use case.
func NewListBacklogs(backlogs domain.BacklogRepository, state *ProjectState) *ListBacklogs {
	return &ListBacklogs{backlogs: backlogs, state: state}
}

// Execute returns the backlog set with derived progress.
func (uc *ListBacklogs) Execute(_ context.Context) (*ListBacklogsOutput, error) {
	file, err := uc.backlogs.Load()
	if err != nil {
		return nil, err
	}
	events, err := uc.state.Replay()
	if err != nil {
		return nil, err
	}

	done := make(map[int]bool)
	for _, b := range file.Backlogs {
		if b.Status == domain.BacklogCompleted {
			done[b.ID] = true
		}
	}

	out := &ListBacklogsOutput{ProjectSummary: file.ProjectSummary}
	for _, b := range file.Backlogs {
		tasks := domain.ReconstructTasks(events, b.Description)
		completed := 0
		for _, t := range tasks {
			if t.Done() {
				completed++
			}
		}
		var unmet []int
		for _, dep := range b.Dependencies {
			if !done[dep] {
				unmet = append(unmet, dep)
			}
		}
		out.Items = append(out.Items, BacklogProgress{
			Backlog:        b,
			UnmetDeps:      unmet,
			TasksCompleted: completed,
			TasksTotal:     len(tasks),
		})
	}
	return out, nil
}
