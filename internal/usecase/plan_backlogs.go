package usecase

import (
	"context"
	"fmt"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// PlanBacklogsInput contains the parameters for planning the backlog set.
type PlanBacklogsInput struct {
	ProjectDescription string
}

// PlanBacklogsOutput contains the planned backlogs as stored.
type PlanBacklogsOutput struct {
	ProjectSummary string
	Backlogs       []*domain.Backlog
}

// PlanBacklogs is the use case for the top-level planning role: the
// agent proposes the backlog set, which is written to the store.
type PlanBacklogs struct {
	backlogs     domain.BacklogRepository
	agent        domain.AgentClient
	parser       domain.ResponseParser
	prompts      domain.PromptBuilder
	state        *ProjectState
	configLoader domain.ConfigLoader
	clock        domain.Clock
	sleeper      domain.Sleeper
	logger       domain.Logger
}

// NewPlanBacklogs creates a new PlanBacklogs use case.
func NewPlanBacklogs(
	backlogs domain.BacklogRepository,
	agent domain.AgentClient,
	parser domain.ResponseParser,
	prompts domain.PromptBuilder,
	state *ProjectState,
	configLoader domain.ConfigLoader,
	clock domain.Clock,
	sleeper domain.Sleeper,
	logger domain.Logger,
) *PlanBacklogs {
	return &PlanBacklogs{
		backlogs:     backlogs,
		agent:        agent,
		parser:       parser,
		prompts:      prompts,
		state:        state,
		configLoader: configLoader,
		clock:        clock,
		sleeper:      sleeper,
		logger:       logger,
	}
}

// Execute asks the agent for a backlog breakdown and persists it.
func (uc *PlanBacklogs) Execute(ctx context.Context, in PlanBacklogsInput) (*PlanBacklogsOutput, error) {
	if !uc.backlogs.IsInitialized() {
		return nil, domain.ErrNotInitialized
	}

	config, err := uc.configLoader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	prompt := uc.prompts.PlanBacklogs(in.ProjectDescription)
	response, err := invokeWithRetry(ctx, uc.agent, domain.RolePlanBacklogs, prompt,
		config.Retry, uc.sleeper, uc.logger)
	if err != nil {
		return nil, err
	}

	result, err := uc.parser.Parse(response)
	if err != nil {
		return nil, err
	}
	if len(result.Backlogs) == 0 {
		return nil, fmt.Errorf("planning produced no backlogs: %w", domain.ErrNoBacklogs)
	}
	uc.logger.Debug("backlog plan parsed", "mode", result.Mode.String(), "count", len(result.Backlogs))

	now := uc.clock.Now()
	var stored []*domain.Backlog
	err = uc.backlogs.Update(func(f *domain.BacklogFile) error {
		if result.ProjectSummary != "" {
			f.ProjectSummary = result.ProjectSummary
		}
		if len(result.RuntimeRequirements) > 0 {
			f.RuntimeRequirements = result.RuntimeRequirements
		}
		if len(result.TechnicalConsiderations) > 0 {
			f.TechnicalConsiderations = result.TechnicalConsiderations
		}

		// The agent references dependencies by zero-based position in
		// its own list; remap to the ids assigned here.
		firstID := f.NextID()
		for i, b := range result.Backlogs {
			if b.Title == "" {
				return domain.ErrEmptyTitle
			}
			b.ID = firstID + i
			b.Status = domain.BacklogPending
			b.CreatedAt = now
			b.CompletedAt = nil

			var deps []int
			for _, pos := range b.Dependencies {
				if pos >= 0 && pos < i {
					deps = append(deps, firstID+pos)
				}
			}
			b.Dependencies = deps

			f.Backlogs = append(f.Backlogs, b)
			stored = append(stored, b)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store planned backlogs: %w", err)
	}

	if err := uc.state.Append(domain.Event{
		Action:      domain.ActionBacklogsPlanned,
		Description: fmt.Sprintf("planned %d backlogs", len(stored)),
	}); err != nil {
		return nil, err
	}

	uc.logger.Info("backlogs planned", "count", len(stored))
	return &PlanBacklogsOutput{
		ProjectSummary: result.ProjectSummary,
		Backlogs:       stored,
	}, nil
}
