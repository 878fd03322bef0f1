// Package domain contains core business entities and interfaces.
package domain

import "time"

// EventSchemaVersion is stamped on every new event record.
// Records without a version field are the legacy single-task-list shape
// and are only understood by the degraded replay path.
const EventSchemaVersion = 2

// EventAction identifies the kind of state change an event records.
type EventAction string

const (
	ActionRunStarted       EventAction = "run_started"
	ActionBacklogsPlanned  EventAction = "backlogs_planned"
	ActionPlanningStarted  EventAction = "planning_started"
	ActionTaskCreated      EventAction = "task_created"
	ActionPlanningComplete EventAction = "planning_complete"
	ActionTaskStarted      EventAction = "task_started"
	ActionTaskComplete     EventAction = "task_complete"
	ActionTaskFailed       EventAction = "task_failed"
	ActionFilesWritten     EventAction = "files_written"
	ActionTestsRun         EventAction = "tests_run"
	ActionReviewComplete   EventAction = "review_complete"
	ActionBacklogComplete  EventAction = "backlog_complete"
)

// Event is one immutable record in the append-only log. The log is the
// single source of truth; task lists and statuses are always recomputed
// from it, never stored elsewhere. Readers must ignore unknown fields.
// Fields are ordered to minimize memory padding.
type Event struct {
	Timestamp     time.Time     `json:"timestamp"`
	Action        EventAction   `json:"action"`
	RunID         string        `json:"run_id,omitempty"`
	Description   string        `json:"description,omitempty"`
	TestCommand   string        `json:"test_command,omitempty"`
	Requirement   string        `json:"requirement,omitempty"`
	Error         string        `json:"error,omitempty"`
	FilesModified []string      `json:"files_modified,omitempty"`
	Tasks         []PlannedTask `json:"tasks,omitempty"`
	Version       int           `json:"v,omitempty"`
	TaskNumber    int           `json:"task_number,omitempty"`
	TaskIndex     int           `json:"task_index,omitempty"`
	TotalTasks    int           `json:"total_tasks,omitempty"`
}

// PlannedTask is a task as proposed by the planning role, before it is
// materialized into task_created events.
type PlannedTask struct {
	Description string `json:"description" yaml:"description"`
	TestCommand string `json:"test_command,omitempty" yaml:"test_command,omitempty"`
	TaskNumber  int    `json:"task_number,omitempty" yaml:"task_number,omitempty"`
}
