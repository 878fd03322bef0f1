package domain

// TaskStatus is the completion state of a task as inferred from log replay.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Task is the smallest independently verifiable unit of work. Tasks are
// never persisted as first-class records; existence and status are always
// inferred by replaying the event log.
// Fields are ordered to minimize memory padding.
type Task struct {
	Description string     // What to build
	TestCommand string     // How to verify it
	Requirement string     // Backlog description the task was planned for
	Status      TaskStatus // Derived from task_complete / task_failed events
	TaskNumber  int        // Globally unique, monotonically increasing
}

// Done reports whether the task needs no further work.
func (t *Task) Done() bool {
	return t.Status == TaskCompleted
}
