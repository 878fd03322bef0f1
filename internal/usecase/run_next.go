package usecase

import (
	"context"
	"fmt"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// RunNextOutput contains the result of a scheduled run.
// Fields are ordered to minimize memory padding.
type RunNextOutput struct {
	Run     *RunBacklogOutput
	Backlog *domain.Backlog
	Blocked []domain.BlockedBacklog
	AllDone bool
	Resumed bool
}

// RunNext selects the next runnable backlog and drives it through the
// pipeline. Selection resumes any in_progress backlog first, then takes
// the first pending backlog whose dependencies are all completed.
type RunNext struct {
	backlogs domain.BacklogRepository
	runner   *RunBacklog
	logger   domain.Logger
}

// NewRunNext creates a new RunNext use case.
func NewRunNext(backlogs domain.BacklogRepository, runner *RunBacklog, logger domain.Logger) *RunNext {
	return &RunNext{backlogs: backlogs, runner: runner, logger: logger}
}

// Execute picks and runs the next backlog, or reports why none can run.
func (uc *RunNext) Execute(ctx context.Context) (*RunNextOutput, error) {
	file, err := uc.backlogs.Load()
	if err != nil {
		return nil, err
	}
	if len(file.Backlogs) == 0 {
		return nil, domain.ErrNoBacklogs
	}

	sel := domain.SelectNext(file.Backlogs)
	for _, id := range sel.ExtraInProgress {
		// Single-writer invariant violated somewhere upstream; resume
		// the first and leave the rest untouched.
		uc.logger.Warn("multiple backlogs in progress", "ignored", id)
	}

	if sel.Next == nil {
		if len(sel.Blocked) == 0 {
			uc.logger.Info("all backlogs completed")
			return &RunNextOutput{AllDone: true}, nil
		}
		for _, b := range sel.Blocked {
			uc.logger.Warn("backlog blocked", "id", b.ID, "title", b.Title,
				"unmet", fmt.Sprint(b.UnmetDeps))
		}
		return &RunNextOutput{Blocked: sel.Blocked}, nil
	}

	if sel.Resumed {
		uc.logger.Info("resuming backlog", "id", sel.Next.ID, "title", sel.Next.Title)
	} else {
		uc.logger.Info("starting backlog", "id", sel.Next.ID, "title", sel.Next.Title)
	}

	run, err := uc.runner.Execute(ctx, RunBacklogInput{BacklogID: sel.Next.ID})
	return &RunNextOutput{
		Run:     run,
		Backlog: sel.Next,
		Resumed: sel.Resumed,
	}, err
}
