package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsubasa-dev/gofer/internal/domain"
	"github.com/tsubasa-dev/gofer/internal/infra/agent"
	"github.com/tsubasa-dev/gofer/internal/testutil"
)

const planTasksResponse = "```json\n" +
	`{"status": "SUCCESS", "tasks": [
		{"description": "Create the data model", "test_command": "go test ./model/..."},
		{"description": "Create the store"}
	]}` + "\n```"

const buildTaskResponse = "```json\n" +
	`{"status": "SUCCESS", "files": [
		{"path": "model/model.go", "content": "package model\n"}
	]}` + "\n```"

const reviewResponse = "```json\n" +
	`{"status": "SUCCESS", "recommendation": "continue"}` + "\n```"

const fixTestsResponse = "```json\n" +
	`{"status": "SUCCESS", "files": [
		{"path": "model/model_test.go", "content": "package model\n"}
	], "fixed_tests": ["TestModel"]}` + "\n```"

// runBacklogFixture wires a RunBacklog with mock ports and the real
// response parser.
type runBacklogFixture struct {
	repo      *testutil.MockBacklogRepository
	agent     *testutil.MockAgentClient
	log       *testutil.MockEventLog
	workspace *testutil.MockWorkspaceWriter
	executor  *testutil.MockExecutor
	committer *testutil.MockCommitter
	config    *domain.Config
	uc        *RunBacklog
}

func newRunBacklogFixture(backlog *domain.Backlog) *runBacklogFixture {
	f := &runBacklogFixture{
		repo:      testutil.NewMockBacklogRepository(),
		agent:     &testutil.MockAgentClient{},
		log:       &testutil.MockEventLog{},
		workspace: &testutil.MockWorkspaceWriter{},
		executor:  &testutil.MockExecutor{},
		committer: &testutil.MockCommitter{},
		config:    domain.NewDefaultConfig(),
	}
	f.repo.File.Backlogs = []*domain.Backlog{backlog}

	state := NewProjectState(f.log, &testutil.MockClock{NowTime: time.Unix(1700000000, 0)})
	f.uc = NewRunBacklog(
		f.repo,
		f.agent,
		agent.NewParser(nil),
		testutil.StubPrompts{},
		state,
		f.workspace,
		f.executor,
		f.committer,
		&testutil.MockConfigLoader{Config: f.config},
		&testutil.MockClock{NowTime: time.Unix(1700000100, 0)},
		&testutil.MockSleeper{},
		testutil.NopLogger{},
		"/tmp/project",
	)
	return f
}

func (f *runBacklogFixture) eventsOf(action domain.EventAction) []domain.Event {
	var out []domain.Event
	for _, e := range f.log.Events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func TestRunBacklog_PlansAndBuildsAllTasks(t *testing.T) {
	backlog := &domain.Backlog{ID: 1, Title: "Data layer", Description: "Build the data layer", Status: domain.BacklogPending}
	f := newRunBacklogFixture(backlog)
	f.agent.Responses = []string{planTasksResponse, buildTaskResponse, buildTaskResponse}
	f.config.Test.Command = "go test ./..."

	out, err := f.uc.Execute(context.Background(), RunBacklogInput{BacklogID: 1})

	require.NoError(t, err)
	assert.True(t, out.Planned)
	assert.False(t, out.Resumed)
	assert.Equal(t, 2, out.TasksTotal)
	assert.Equal(t, 2, out.TasksCompleted)

	// Planning recorded one creation per task plus the boundary
	created := f.eventsOf(domain.ActionTaskCreated)
	require.Len(t, created, 2)
	assert.Equal(t, 1, created[0].TaskNumber)
	assert.Equal(t, 2, created[1].TaskNumber)
	assert.Equal(t, "go test ./model/...", created[0].TestCommand)
	assert.Equal(t, "verify manually", created[1].TestCommand)
	assert.Equal(t, "Build the data layer", created[0].Requirement)

	boundaries := f.eventsOf(domain.ActionPlanningComplete)
	require.Len(t, boundaries, 1)
	assert.Len(t, boundaries[0].Tasks, 2)

	assert.Len(t, f.eventsOf(domain.ActionTaskComplete), 2)
	assert.Len(t, f.eventsOf(domain.ActionTestsRun), 1)
	assert.Len(t, f.eventsOf(domain.ActionBacklogComplete), 1)

	// Files landed in the workspace
	require.Len(t, f.workspace.Written, 2)
	assert.Equal(t, "model/model.go", f.workspace.Written[0].Path)

	// Store reflects completion with a timestamp
	b := f.repo.File.Get(1)
	assert.Equal(t, domain.BacklogCompleted, b.Status)
	require.NotNil(t, b.CompletedAt)

	// Roles: plan once, build twice
	assert.Equal(t, []domain.AgentRole{
		domain.RolePlanTasks, domain.RoleBuildTask, domain.RoleBuildTask,
	}, f.agent.Roles)
}

func TestRunBacklog_ResumesAtFailedTask(t *testing.T) {
	backlog := &domain.Backlog{ID: 1, Title: "Data layer", Description: "Build the data layer", Status: domain.BacklogInProgress}
	f := newRunBacklogFixture(backlog)

	// History: three tasks planned, 1 and 2 complete, 3 failed mid-run.
	f.log.Events = []domain.Event{
		{Action: domain.ActionPlanningComplete, Requirement: "Build the data layer", Tasks: []domain.PlannedTask{
			{Description: "Task one", TestCommand: "t1", TaskNumber: 1},
			{Description: "Task two", TestCommand: "t2", TaskNumber: 2},
			{Description: "Task three", TestCommand: "t3", TaskNumber: 3},
		}},
		{Action: domain.ActionFilesWritten, Requirement: "Build the data layer", FilesModified: []string{"a.go"}},
		{Action: domain.ActionTaskComplete, TaskNumber: 1},
		{Action: domain.ActionTaskComplete, TaskNumber: 2},
		{Action: domain.ActionTaskFailed, TaskNumber: 3, TaskIndex: 2},
	}
	f.agent.Responses = []string{reviewResponse, buildTaskResponse}

	out, err := f.uc.Execute(context.Background(), RunBacklogInput{BacklogID: 1})

	require.NoError(t, err)
	assert.True(t, out.Resumed)
	assert.False(t, out.Planned)
	assert.Equal(t, 3, out.TasksTotal)
	assert.Equal(t, 3, out.TasksCompleted)

	// No re-planning happened
	assert.Empty(t, f.eventsOf(domain.ActionPlanningStarted))
	assert.Empty(t, f.eventsOf(domain.ActionTaskCreated))

	// Advisory review ran and was recorded
	reviews := f.eventsOf(domain.ActionReviewComplete)
	require.Len(t, reviews, 1)
	assert.Equal(t, "continue", reviews[0].Description)

	// Exactly one build, for task 3
	require.Equal(t, []domain.AgentRole{domain.RoleReview, domain.RoleBuildTask}, f.agent.Roles)
	assert.Contains(t, f.agent.Prompts[1], "build task 3")

	completes := f.eventsOf(domain.ActionTaskComplete)
	require.Len(t, completes, 1)
	assert.Equal(t, 3, completes[0].TaskNumber)
}

func TestRunBacklog_TaskFailureAbortsWithIndex(t *testing.T) {
	backlog := &domain.Backlog{ID: 1, Title: "Data layer", Description: "Build the data layer", Status: domain.BacklogPending}
	f := newRunBacklogFixture(backlog)
	failure := "```json\n" + `{"status": "FAILURE", "error": "requirement is ambiguous"}` + "\n```"
	f.agent.Responses = []string{planTasksResponse, failure}

	out, err := f.uc.Execute(context.Background(), RunBacklogInput{BacklogID: 1})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAgentFailure)
	assert.Equal(t, 0, out.TasksCompleted)

	failed := f.eventsOf(domain.ActionTaskFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].TaskNumber)
	assert.Equal(t, 0, failed[0].TaskIndex)
	assert.Equal(t, 2, failed[0].TotalTasks)
	assert.Contains(t, failed[0].Error, "requirement is ambiguous")

	// No completion, no backlog_complete, store stays in_progress
	assert.Empty(t, f.eventsOf(domain.ActionTaskComplete))
	assert.Empty(t, f.eventsOf(domain.ActionBacklogComplete))
	assert.Equal(t, domain.BacklogInProgress, f.repo.File.Get(1).Status)
}

func TestRunBacklog_CrashResume_SkipsCompletedWork(t *testing.T) {
	// First run fails at task 2 of 2; the second run with the same log
	// resumes exactly there and finishes.
	backlog := &domain.Backlog{ID: 1, Title: "Data layer", Description: "Build the data layer", Status: domain.BacklogPending}
	f := newRunBacklogFixture(backlog)
	f.agent.Responses = []string{planTasksResponse, buildTaskResponse, ""}
	f.agent.Errs = []error{nil, nil, domain.ErrAgentTimeout, domain.ErrAgentTimeout, domain.ErrAgentTimeout}

	_, err := f.uc.Execute(context.Background(), RunBacklogInput{BacklogID: 1})
	require.ErrorIs(t, err, domain.ErrRetriesExhausted)

	// Second invocation over the same event log.
	f2 := newRunBacklogFixture(f.repo.File.Get(1))
	f2.log.Events = f.log.Events
	f2.agent.Responses = []string{reviewResponse, buildTaskResponse}

	out, err := f2.uc.Execute(context.Background(), RunBacklogInput{BacklogID: 1})
	require.NoError(t, err)
	assert.True(t, out.Resumed)
	assert.Equal(t, 2, out.TasksCompleted)

	// The resumed run never re-planned and never rebuilt task 1.
	assert.Empty(t, f2.eventsOf(domain.ActionTaskCreated))
	require.Equal(t, []domain.AgentRole{domain.RoleReview, domain.RoleBuildTask}, f2.agent.Roles)
	assert.Contains(t, f2.agent.Prompts[1], "build task 2")
}

func TestRunBacklog_AutoCommit(t *testing.T) {
	backlog := &domain.Backlog{ID: 1, Title: "Data layer", Description: "Build the data layer", Status: domain.BacklogPending}
	f := newRunBacklogFixture(backlog)
	f.agent.Responses = []string{planTasksResponse, buildTaskResponse, buildTaskResponse}
	f.config.Git.AutoCommit = true

	_, err := f.uc.Execute(context.Background(), RunBacklogInput{BacklogID: 1})

	require.NoError(t, err)
	require.Len(t, f.committer.Messages, 2)
	message, _ := f.committer.Messages[0][0].(string)
	assert.Contains(t, message, "task 1")
}

func TestRunBacklog_CommitFailureIsNotFatal(t *testing.T) {
	backlog := &domain.Backlog{ID: 1, Title: "Data layer", Description: "Build the data layer", Status: domain.BacklogPending}
	f := newRunBacklogFixture(backlog)
	f.agent.Responses = []string{planTasksResponse, buildTaskResponse, buildTaskResponse}
	f.config.Git.AutoCommit = true
	f.committer.CommitErr = errors.New("nothing to commit")

	_, err := f.uc.Execute(context.Background(), RunBacklogInput{BacklogID: 1})

	require.NoError(t, err)
	assert.Equal(t, domain.BacklogCompleted, f.repo.File.Get(1).Status)
}

func TestRunBacklog_InstallFailure(t *testing.T) {
	backlog := &domain.Backlog{ID: 1, Title: "Data layer", Description: "Build the data layer", Status: domain.BacklogPending}
	f := newRunBacklogFixture(backlog)
	f.agent.Responses = []string{planTasksResponse, buildTaskResponse, buildTaskResponse}
	f.repo.File.RuntimeRequirements = []string{"postgresql"}
	f.config.Install.Command = "make deps"
	f.executor.RunErr = errors.New("exit status 1")

	_, err := f.uc.Execute(context.Background(), RunBacklogInput{BacklogID: 1})

	assert.ErrorIs(t, err, domain.ErrInstallFailed)
	assert.Equal(t, []string{"make deps"}, f.executor.Commands)
	assert.Empty(t, f.eventsOf(domain.ActionBacklogComplete))
}

func TestRunBacklog_TestFailure(t *testing.T) {
	// Repair is attempted once; when the re-run fails too, the failure
	// is final with no second repair.
	backlog := &domain.Backlog{ID: 1, Title: "Data layer", Description: "Build the data layer", Status: domain.BacklogPending}
	f := newRunBacklogFixture(backlog)
	f.agent.Responses = []string{planTasksResponse, buildTaskResponse, buildTaskResponse, fixTestsResponse}
	f.config.Test.Command = "go test ./..."
	f.executor.Output = []byte("--- FAIL: TestModel\nFAIL\n")
	f.executor.RunErr = errors.New("exit status 1")

	_, err := f.uc.Execute(context.Background(), RunBacklogInput{BacklogID: 1})

	assert.ErrorIs(t, err, domain.ErrTestsFailed)
	runs := f.eventsOf(domain.ActionTestsRun)
	require.Len(t, runs, 2)
	assert.NotEmpty(t, runs[0].Error)
	assert.NotEmpty(t, runs[1].Error)

	// Exactly one repair call, then no more
	require.Equal(t, []domain.AgentRole{
		domain.RolePlanTasks, domain.RoleBuildTask, domain.RoleBuildTask, domain.RoleFixTests,
	}, f.agent.Roles)

	// Tasks stay complete; only the test stage failed
	assert.Len(t, f.eventsOf(domain.ActionTaskComplete), 2)
	assert.Equal(t, domain.BacklogInProgress, f.repo.File.Get(1).Status)
}

func TestRunBacklog_TestFailureRepairedByAgent(t *testing.T) {
	backlog := &domain.Backlog{ID: 1, Title: "Data layer", Description: "Build the data layer", Status: domain.BacklogPending}
	f := newRunBacklogFixture(backlog)
	f.agent.Responses = []string{planTasksResponse, buildTaskResponse, buildTaskResponse, fixTestsResponse}
	f.config.Test.Command = "go test ./..."
	f.executor.Outputs = [][]byte{[]byte("--- FAIL: TestModel\nFAIL\n"), []byte("ok  \tmodel\t0.1s\n")}
	f.executor.Errs = []error{errors.New("exit status 1"), nil}

	out, err := f.uc.Execute(context.Background(), RunBacklogInput{BacklogID: 1})

	require.NoError(t, err)
	assert.Contains(t, out.TestOutput, "ok")

	// The repair role saw the failing command and its files were applied
	require.Equal(t, []domain.AgentRole{
		domain.RolePlanTasks, domain.RoleBuildTask, domain.RoleBuildTask, domain.RoleFixTests,
	}, f.agent.Roles)
	assert.Equal(t, "fix tests: go test ./...", f.agent.Prompts[3])
	require.Len(t, f.workspace.Written, 3)
	assert.Equal(t, "model/model_test.go", f.workspace.Written[2].Path)

	// One tests_run per execution, the repaired file recorded in between
	runs := f.eventsOf(domain.ActionTestsRun)
	require.Len(t, runs, 2)
	assert.NotEmpty(t, runs[0].Error)
	assert.Empty(t, runs[1].Error)
	written := f.eventsOf(domain.ActionFilesWritten)
	require.Len(t, written, 3)
	assert.Equal(t, []string{"model/model_test.go"}, written[2].FilesModified)

	assert.Equal(t, []string{"go test ./...", "go test ./..."}, f.executor.Commands)
	assert.Equal(t, domain.BacklogCompleted, f.repo.File.Get(1).Status)
}

func TestRunBacklog_TestRepairSkippedOnAgentError(t *testing.T) {
	backlog := &domain.Backlog{ID: 1, Title: "Data layer", Description: "Build the data layer", Status: domain.BacklogPending}
	f := newRunBacklogFixture(backlog)
	f.agent.Responses = []string{planTasksResponse, buildTaskResponse, buildTaskResponse, ""}
	f.agent.Errs = []error{nil, nil, nil, domain.ErrAgentFailure}
	f.config.Test.Command = "go test ./..."
	f.executor.Output = []byte("--- FAIL: TestModel\nFAIL\n")
	f.executor.RunErr = errors.New("exit status 1")

	_, err := f.uc.Execute(context.Background(), RunBacklogInput{BacklogID: 1})

	// The original failure surfaces and the command never re-runs
	assert.ErrorIs(t, err, domain.ErrTestsFailed)
	assert.Len(t, f.eventsOf(domain.ActionTestsRun), 1)
	assert.Equal(t, []string{"go test ./..."}, f.executor.Commands)
	assert.Equal(t, domain.RoleFixTests, f.agent.Roles[3])
	assert.Equal(t, domain.BacklogInProgress, f.repo.File.Get(1).Status)
}

func TestRunBacklog_UnknownBacklog(t *testing.T) {
	f := newRunBacklogFixture(&domain.Backlog{ID: 1, Title: "x", Status: domain.BacklogPending})

	_, err := f.uc.Execute(context.Background(), RunBacklogInput{BacklogID: 42})

	assert.ErrorIs(t, err, domain.ErrBacklogNotFound)
}

func TestRunBacklog_ReviewFailureDoesNotBlock(t *testing.T) {
	backlog := &domain.Backlog{ID: 1, Title: "Data layer", Description: "Build the data layer", Status: domain.BacklogInProgress}
	f := newRunBacklogFixture(backlog)
	f.log.Events = []domain.Event{
		{Action: domain.ActionPlanningComplete, Requirement: "Build the data layer", Tasks: []domain.PlannedTask{
			{Description: "Task one", TaskNumber: 1},
			{Description: "Task two", TaskNumber: 2},
		}},
		{Action: domain.ActionTaskComplete, TaskNumber: 1},
	}
	// Review call fails outright; the build still proceeds.
	f.agent.Responses = []string{"", buildTaskResponse}
	f.agent.Errs = []error{errors.New("review exploded"), nil}

	out, err := f.uc.Execute(context.Background(), RunBacklogInput{BacklogID: 1})

	require.NoError(t, err)
	assert.Equal(t, 2, out.TasksCompleted)
	assert.Empty(t, f.eventsOf(domain.ActionReviewComplete))
}
