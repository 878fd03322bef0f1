package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// RunBacklogInput contains the parameters for running one backlog.
type RunBacklogInput struct {
	BacklogID int
}

// RunBacklogOutput contains the result of a backlog run.
// Fields are ordered to minimize memory padding.
type RunBacklogOutput struct {
	TestOutput     string
	TasksCompleted int
	TasksTotal     int
	Planned        bool
	Resumed        bool
}

// RunBacklog is the pipeline driver: plan the backlog's tasks when the
// log holds none, then build each pending task in order, then install
// declared dependencies and run the test command. Every state change is
// an event append, so an interrupted run resumes exactly where it
// stopped.
type RunBacklog struct {
	backlogs     domain.BacklogRepository
	agent        domain.AgentClient
	parser       domain.ResponseParser
	prompts      domain.PromptBuilder
	state        *ProjectState
	workspace    domain.WorkspaceWriter
	executor     domain.CommandExecutor
	committer    domain.Committer
	configLoader domain.ConfigLoader
	clock        domain.Clock
	sleeper      domain.Sleeper
	logger       domain.Logger
	workDir      string
}

// NewRunBacklog creates a new RunBacklog use case. committer may be nil
// when commit wrapping is unavailable.
func NewRunBacklog(
	backlogs domain.BacklogRepository,
	agent domain.AgentClient,
	parser domain.ResponseParser,
	prompts domain.PromptBuilder,
	state *ProjectState,
	workspace domain.WorkspaceWriter,
	executor domain.CommandExecutor,
	committer domain.Committer,
	configLoader domain.ConfigLoader,
	clock domain.Clock,
	sleeper domain.Sleeper,
	logger domain.Logger,
	workDir string,
) *RunBacklog {
	return &RunBacklog{
		backlogs:     backlogs,
		agent:        agent,
		parser:       parser,
		prompts:      prompts,
		state:        state,
		workspace:    workspace,
		executor:     executor,
		committer:    committer,
		configLoader: configLoader,
		clock:        clock,
		sleeper:      sleeper,
		logger:       logger,
		workDir:      workDir,
	}
}

// Execute runs the backlog to completion or to the first failure.
func (uc *RunBacklog) Execute(ctx context.Context, in RunBacklogInput) (*RunBacklogOutput, error) {
	config, err := uc.configLoader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	file, err := uc.backlogs.Load()
	if err != nil {
		return nil, err
	}
	backlog := file.Get(in.BacklogID)
	if backlog == nil {
		return nil, fmt.Errorf("backlog %d: %w", in.BacklogID, domain.ErrBacklogNotFound)
	}

	if err := uc.markInProgress(backlog); err != nil {
		return nil, err
	}

	if err := uc.state.Append(domain.Event{
		Action:      domain.ActionRunStarted,
		Requirement: backlog.Description,
		Description: backlog.Title,
	}); err != nil {
		return nil, err
	}

	events, err := uc.state.Replay()
	if err != nil {
		return nil, fmt.Errorf("replay events: %w", err)
	}
	tasks := domain.ReconstructTasks(events, backlog.Description)

	out := &RunBacklogOutput{}
	if len(tasks) == 0 {
		tasks, err = uc.planTasks(ctx, backlog, file.ProjectSummary, config)
		if err != nil {
			return nil, err
		}
		out.Planned = true
	} else {
		out.Resumed = true
		uc.review(ctx, backlog, events, tasks, config)
	}
	out.TasksTotal = len(tasks)

	start := domain.ResumeIndex(tasks)
	out.TasksCompleted = start
	for i := start; i < len(tasks); i++ {
		if err := uc.buildTask(ctx, backlog, tasks, i, config); err != nil {
			return out, err
		}
		tasks[i].Status = domain.TaskCompleted
		out.TasksCompleted = i + 1
	}

	if err := uc.install(ctx, file, config); err != nil {
		return out, err
	}

	testOutput, err := uc.runTests(ctx, backlog, config)
	out.TestOutput = testOutput
	if err != nil {
		return out, err
	}

	if err := uc.state.Append(domain.Event{
		Action:      domain.ActionBacklogComplete,
		Requirement: backlog.Description,
		Description: backlog.Title,
	}); err != nil {
		return out, err
	}
	if err := uc.markCompleted(backlog.ID); err != nil {
		return out, err
	}

	uc.logger.Info("backlog complete", "id", backlog.ID, "title", backlog.Title,
		"tasks", out.TasksTotal)
	return out, nil
}

// markInProgress transitions the backlog to in_progress when needed.
func (uc *RunBacklog) markInProgress(backlog *domain.Backlog) error {
	if backlog.Status == domain.BacklogInProgress {
		return nil
	}
	if !backlog.Status.CanTransitionTo(domain.BacklogInProgress) {
		return fmt.Errorf("backlog %d is %s: %w",
			backlog.ID, backlog.Status, domain.ErrInvalidTransition)
	}
	backlog.Status = domain.BacklogInProgress
	return uc.backlogs.Update(func(f *domain.BacklogFile) error {
		b := f.Get(backlog.ID)
		if b == nil {
			return domain.ErrBacklogNotFound
		}
		b.Status = domain.BacklogInProgress
		return nil
	})
}

// markCompleted transitions the backlog to completed with a timestamp.
func (uc *RunBacklog) markCompleted(id int) error {
	now := uc.clock.Now()
	return uc.backlogs.Update(func(f *domain.BacklogFile) error {
		b := f.Get(id)
		if b == nil {
			return domain.ErrBacklogNotFound
		}
		if !b.Status.CanTransitionTo(domain.BacklogCompleted) {
			return fmt.Errorf("backlog %d is %s: %w", id, b.Status, domain.ErrInvalidTransition)
		}
		b.Status = domain.BacklogCompleted
		b.CompletedAt = &now
		return nil
	})
}

// planTasks asks the agent for the backlog's task breakdown and records
// it: one task_created per task, then a planning_complete carrying the
// full list as the authoritative boundary for later replays.
func (uc *RunBacklog) planTasks(ctx context.Context, backlog *domain.Backlog, projectSummary string, config *domain.Config) ([]*domain.Task, error) {
	if err := uc.state.Append(domain.Event{
		Action:      domain.ActionPlanningStarted,
		Requirement: backlog.Description,
	}); err != nil {
		return nil, err
	}

	prompt := uc.prompts.PlanTasks(backlog, projectSummary)
	response, err := invokeWithRetry(ctx, uc.agent, domain.RolePlanTasks, prompt,
		config.Retry, uc.sleeper, uc.logger)
	if err != nil {
		return nil, err
	}

	result, err := uc.parser.Parse(response)
	if err != nil {
		return nil, err
	}
	if len(result.Tasks) == 0 {
		return nil, fmt.Errorf("backlog %d: %w", backlog.ID, domain.ErrNoTasksPlanned)
	}
	uc.logger.Debug("task plan parsed", "mode", result.Mode.String(), "count", len(result.Tasks))

	planned := make([]domain.PlannedTask, 0, len(result.Tasks))
	tasks := make([]*domain.Task, 0, len(result.Tasks))
	for _, pt := range result.Tasks {
		number, err := uc.state.NextTaskNumber()
		if err != nil {
			return nil, err
		}
		if pt.TestCommand == "" {
			pt.TestCommand = "verify manually"
		}
		pt.TaskNumber = number

		if err := uc.state.Append(domain.Event{
			Action:      domain.ActionTaskCreated,
			TaskNumber:  number,
			Description: pt.Description,
			TestCommand: pt.TestCommand,
			Requirement: backlog.Description,
		}); err != nil {
			return nil, err
		}

		planned = append(planned, pt)
		tasks = append(tasks, &domain.Task{
			TaskNumber:  number,
			Description: pt.Description,
			TestCommand: pt.TestCommand,
			Requirement: backlog.Description,
			Status:      domain.TaskPending,
		})
	}

	if err := uc.state.Append(domain.Event{
		Action:      domain.ActionPlanningComplete,
		Requirement: backlog.Description,
		Tasks:       planned,
		TotalTasks:  len(planned),
	}); err != nil {
		return nil, err
	}

	uc.logger.Info("tasks planned", "backlog", backlog.ID, "count", len(planned))
	return tasks, nil
}

// review runs one advisory review pass on resume. Its outcome is logged
// and recorded but never blocks the run.
func (uc *RunBacklog) review(ctx context.Context, backlog *domain.Backlog, events []domain.Event, tasks []*domain.Task, config *domain.Config) {
	if domain.ResumeIndex(tasks) == 0 {
		return // nothing built yet, nothing to review
	}

	var files []string
	for _, e := range events {
		if e.Action == domain.ActionFilesWritten && e.Requirement == backlog.Description {
			files = append(files, e.FilesModified...)
		}
	}

	prompt := uc.prompts.Review(backlog, files)
	response, err := invokeWithRetry(ctx, uc.agent, domain.RoleReview, prompt,
		config.Retry, uc.sleeper, uc.logger)
	if err != nil {
		uc.logger.Warn("advisory review skipped", "error", err.Error())
		return
	}
	result, err := uc.parser.Parse(response)
	if err != nil {
		uc.logger.Warn("advisory review unparseable", "error", err.Error())
		return
	}

	if err := uc.state.Append(domain.Event{
		Action:      domain.ActionReviewComplete,
		Requirement: backlog.Description,
		Description: result.Recommendation,
	}); err != nil {
		uc.logger.Warn("advisory review not recorded", "error", err.Error())
		return
	}
	uc.logger.Info("advisory review", "recommendation", result.Recommendation,
		"refactor_tasks", len(result.RefactorTasks))
}

// buildTask runs one task's build: agent call, file writes, optional
// commit, completion event. Any failure appends task_failed with the
// task's index and aborts, leaving completion contiguous from task 1.
func (uc *RunBacklog) buildTask(ctx context.Context, backlog *domain.Backlog, tasks []*domain.Task, index int, config *domain.Config) error {
	task := tasks[index]

	if err := uc.state.Append(domain.Event{
		Action:      domain.ActionTaskStarted,
		TaskNumber:  task.TaskNumber,
		TaskIndex:   index,
		TotalTasks:  len(tasks),
		Description: task.Description,
		Requirement: backlog.Description,
	}); err != nil {
		return err
	}
	uc.logger.Info("task started", "number", task.TaskNumber,
		"index", index+1, "total", len(tasks))

	var completed []*domain.Task
	for _, t := range tasks[:index] {
		if t.Done() {
			completed = append(completed, t)
		}
	}

	prompt := uc.prompts.BuildTask(task, backlog, completed)
	response, err := invokeWithRetry(ctx, uc.agent, domain.RoleBuildTask, prompt,
		config.Retry, uc.sleeper, uc.logger)
	if err != nil {
		return uc.failTask(backlog, task, index, len(tasks), err)
	}

	result, err := uc.parser.Parse(response)
	if err != nil {
		return uc.failTask(backlog, task, index, len(tasks), err)
	}

	if len(result.Files) > 0 {
		paths, err := uc.workspace.WriteFiles(result.Files)
		if err != nil {
			return uc.failTask(backlog, task, index, len(tasks), err)
		}
		if err := uc.state.Append(domain.Event{
			Action:        domain.ActionFilesWritten,
			TaskNumber:    task.TaskNumber,
			Requirement:   backlog.Description,
			FilesModified: paths,
		}); err != nil {
			return err
		}
		uc.commit(config, task, paths)
	}

	if err := uc.state.Append(domain.Event{
		Action:      domain.ActionTaskComplete,
		TaskNumber:  task.TaskNumber,
		TaskIndex:   index,
		Requirement: backlog.Description,
	}); err != nil {
		return err
	}
	return nil
}

// failTask records the failure with the task's index and returns the
// build error for the caller to abort with.
func (uc *RunBacklog) failTask(backlog *domain.Backlog, task *domain.Task, index, total int, cause error) error {
	if err := uc.state.Append(domain.Event{
		Action:      domain.ActionTaskFailed,
		TaskNumber:  task.TaskNumber,
		TaskIndex:   index,
		TotalTasks:  total,
		Requirement: backlog.Description,
		Error:       cause.Error(),
	}); err != nil {
		uc.logger.Error("task failure not recorded", "error", err.Error())
	}
	uc.logger.Error("task failed", "number", task.TaskNumber, "error", cause.Error())
	return fmt.Errorf("task %d failed: %w", task.TaskNumber, cause)
}

// commit wraps written files in a commit when auto-commit is on. Commit
// failure is logged, never fatal.
func (uc *RunBacklog) commit(config *domain.Config, task *domain.Task, paths []string) {
	if !config.Git.AutoCommit || uc.committer == nil {
		return
	}
	message := fmt.Sprintf("gofer: task %d: %s", task.TaskNumber, task.Description)
	if err := uc.committer.Commit(message, paths); err != nil {
		uc.logger.Warn("auto-commit failed", "task", task.TaskNumber, "error", err.Error())
		return
	}
	uc.logger.Debug("auto-committed", "task", task.TaskNumber, "files", len(paths))
}

// install runs the configured install command when the backlog file
// declares runtime requirements.
func (uc *RunBacklog) install(ctx context.Context, file *domain.BacklogFile, config *domain.Config) error {
	if len(file.RuntimeRequirements) == 0 || config.Install.Command == "" {
		return nil
	}
	output, err := uc.executor.Run(ctx, uc.workDir, config.Install.Command)
	if err != nil {
		uc.logger.Error("install failed", "command", config.Install.Command,
			"output", string(output))
		return fmt.Errorf("%w: %s", domain.ErrInstallFailed, err)
	}
	uc.logger.Info("dependencies installed", "command", config.Install.Command)
	return nil
}

// runTests runs the configured test command. One failing run gets a
// single repair pass: the agent sees the output, its changed files are
// applied, and the command runs once more. A second failure is final.
func (uc *RunBacklog) runTests(ctx context.Context, backlog *domain.Backlog, config *domain.Config) (string, error) {
	if config.Test.Command == "" {
		return "", nil
	}

	output, err := uc.runTestCommand(ctx, config.Test.Command)
	if err == nil || !errors.Is(err, domain.ErrTestsFailed) {
		return output, err
	}

	if fixErr := uc.fixTests(ctx, backlog, config, output); fixErr != nil {
		uc.logger.Warn("test repair skipped", "error", fixErr.Error())
		return output, err
	}
	return uc.runTestCommand(ctx, config.Test.Command)
}

// runTestCommand executes the test command once, records a tests_run
// event and surfaces diagnosis findings on failure.
func (uc *RunBacklog) runTestCommand(ctx context.Context, command string) (string, error) {
	output, runErr := uc.executor.Run(ctx, uc.workDir, command)
	diagnosis := DiagnoseTestOutput(output)

	event := domain.Event{
		Action:      domain.ActionTestsRun,
		Description: fmt.Sprintf("%s: %s", command, diagnosis.Summary()),
	}
	if runErr != nil {
		event.Error = runErr.Error()
	}
	if err := uc.state.Append(event); err != nil {
		return string(output), err
	}

	if runErr != nil {
		for _, f := range diagnosis.Findings {
			uc.logger.Warn("test failure finding",
				"category", f.Category, "suggestion", f.Suggestion)
		}
		return string(output), fmt.Errorf("%w: %s", domain.ErrTestsFailed, diagnosis.Summary())
	}
	uc.logger.Info("tests passed", "summary", diagnosis.Summary())
	return string(output), nil
}

// fixTests asks the agent to repair a failing test run and applies the
// returned files. A repair with no file changes is reported as an error
// so the caller keeps the original failure instead of re-running.
func (uc *RunBacklog) fixTests(ctx context.Context, backlog *domain.Backlog, config *domain.Config, output string) error {
	prompt := uc.prompts.FixTests(config.Test.Command, output)
	response, err := invokeWithRetry(ctx, uc.agent, domain.RoleFixTests, prompt,
		config.Retry, uc.sleeper, uc.logger)
	if err != nil {
		return err
	}
	result, err := uc.parser.Parse(response)
	if err != nil {
		return err
	}
	if len(result.Files) == 0 {
		return errors.New("repair response contains no file changes")
	}

	paths, err := uc.workspace.WriteFiles(result.Files)
	if err != nil {
		return err
	}
	if err := uc.state.Append(domain.Event{
		Action:        domain.ActionFilesWritten,
		Requirement:   backlog.Description,
		FilesModified: paths,
	}); err != nil {
		return err
	}
	uc.logger.Info("test repair applied",
		"files", len(paths), "fixed_tests", len(result.FixedTests))
	return nil
}
