package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evt(action EventAction, number int) Event {
	return Event{
		Version:    EventSchemaVersion,
		Timestamp:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Action:     action,
		TaskNumber: number,
	}
}

func created(number int, desc, req string) Event {
	e := evt(ActionTaskCreated, number)
	e.Description = desc
	e.Requirement = req
	return e
}

func planningComplete(req string, tasks ...PlannedTask) Event {
	e := evt(ActionPlanningComplete, 0)
	e.Requirement = req
	e.Tasks = tasks
	e.TotalTasks = len(tasks)
	return e
}

func TestReconstructTasks_ResumePoint(t *testing.T) {
	// Create tasks 1-5, complete 1, 2, 4, fail 3: reconstruction must
	// report {1,2,4} completed, 3 as the resume point, 5 pending.
	events := []Event{
		planningComplete("auth",
			PlannedTask{TaskNumber: 1, Description: "one"},
			PlannedTask{TaskNumber: 2, Description: "two"},
			PlannedTask{TaskNumber: 3, Description: "three"},
			PlannedTask{TaskNumber: 4, Description: "four"},
			PlannedTask{TaskNumber: 5, Description: "five"},
		),
		evt(ActionTaskComplete, 1),
		evt(ActionTaskComplete, 2),
		evt(ActionTaskFailed, 3),
		evt(ActionTaskComplete, 4),
	}

	tasks := ReconstructTasks(events, "auth")
	require.Len(t, tasks, 5)

	assert.Equal(t, TaskCompleted, tasks[0].Status)
	assert.Equal(t, TaskCompleted, tasks[1].Status)
	assert.Equal(t, TaskFailed, tasks[2].Status)
	assert.Equal(t, TaskCompleted, tasks[3].Status)
	assert.Equal(t, TaskPending, tasks[4].Status)

	assert.Equal(t, 2, ResumeIndex(tasks), "resume point must be task 3")
}

func TestReconstructTasks_CompleteAfterFailedClearsResumePoint(t *testing.T) {
	events := []Event{
		planningComplete("x",
			PlannedTask{TaskNumber: 1, Description: "one"},
		),
		evt(ActionTaskFailed, 1),
		evt(ActionTaskComplete, 1),
	}

	tasks := ReconstructTasks(events, "")
	require.Len(t, tasks, 1)
	assert.Equal(t, TaskCompleted, tasks[0].Status)
	assert.Equal(t, 1, ResumeIndex(tasks))
}

func TestReconstructTasks_Deterministic(t *testing.T) {
	events := []Event{
		created(1, "stale", "auth"),
		planningComplete("auth",
			PlannedTask{TaskNumber: 2, Description: "two"},
		),
		created(3, "three", "auth"),
		evt(ActionTaskComplete, 2),
	}

	first := ReconstructTasks(events, "auth")
	second := ReconstructTasks(events, "auth")
	require.Equal(t, first, second, "replaying the same log twice must be identical")

	// The boundary excludes pre-planning creations and includes later ones.
	require.Len(t, first, 2)
	assert.Equal(t, 2, first[0].TaskNumber)
	assert.Equal(t, 3, first[1].TaskNumber)
}

func TestReconstructTasks_MostRecentBoundaryWins(t *testing.T) {
	events := []Event{
		planningComplete("auth", PlannedTask{TaskNumber: 1, Description: "old"}),
		evt(ActionTaskComplete, 1),
		planningComplete("auth",
			PlannedTask{TaskNumber: 2, Description: "new one"},
			PlannedTask{TaskNumber: 3, Description: "new two"},
		),
		evt(ActionTaskComplete, 2),
	}

	tasks := ReconstructTasks(events, "auth")
	require.Len(t, tasks, 2)
	assert.Equal(t, TaskCompleted, tasks[0].Status)
	assert.Equal(t, TaskPending, tasks[1].Status)
}

func TestReconstructTasks_RequirementFilterSelectsBoundary(t *testing.T) {
	events := []Event{
		planningComplete("auth", PlannedTask{TaskNumber: 1, Description: "auth task"}),
		planningComplete("billing", PlannedTask{TaskNumber: 2, Description: "billing task"}),
	}

	tasks := ReconstructTasks(events, "auth")
	require.Len(t, tasks, 1)
	assert.Equal(t, "auth task", tasks[0].Description)
}

func TestReconstructTasks_LegacyFallback(t *testing.T) {
	// No planning_complete boundary: scan task_created filtered by
	// requirement. Weaker guarantee for older logs.
	events := []Event{
		created(1, "one", "auth"),
		created(2, "two", "billing"),
		created(3, "three", "auth"),
		evt(ActionTaskComplete, 1),
	}

	tasks := ReconstructTasks(events, "auth")
	require.Len(t, tasks, 2)
	assert.Equal(t, TaskCompleted, tasks[0].Status)
	assert.Equal(t, TaskPending, tasks[1].Status)
}

func TestReconstructTasks_EmptyLog(t *testing.T) {
	assert.Empty(t, ReconstructTasks(nil, ""))
	assert.Empty(t, ReconstructTasks([]Event{}, "anything"))
}

func TestMaxTaskNumber(t *testing.T) {
	events := []Event{
		created(3, "a", ""),
		created(7, "b", ""),
		created(7, "duplicate", ""),
		created(2, "out of order", ""),
		evt(ActionTaskComplete, 99), // not a creation, ignored
	}

	assert.Equal(t, 7, MaxTaskNumber(events))
	assert.Equal(t, 0, MaxTaskNumber(nil))
}
