package domain

import "time"

// BacklogStatus is the lifecycle state of a backlog.
type BacklogStatus string

const (
	BacklogPending    BacklogStatus = "pending"
	BacklogInProgress BacklogStatus = "in_progress"
	BacklogCompleted  BacklogStatus = "completed"
)

// backlogTransitions defines the allowed status transitions.
// Flow: pending → in_progress → completed
//
//	↑___________|  (manual reset only)
var backlogTransitions = map[BacklogStatus][]BacklogStatus{
	BacklogPending:    {BacklogInProgress},
	BacklogInProgress: {BacklogCompleted, BacklogPending},
	BacklogCompleted:  {BacklogPending},
}

// CanTransitionTo returns true if the status can transition to the target.
func (s BacklogStatus) CanTransitionTo(target BacklogStatus) bool {
	for _, t := range backlogTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsValid returns true if the status is a known value.
func (s BacklogStatus) IsValid() bool {
	switch s {
	case BacklogPending, BacklogInProgress, BacklogCompleted:
		return true
	default:
		return false
	}
}

// Display returns a human-readable representation of the status.
func (s BacklogStatus) Display() string {
	switch s {
	case BacklogPending:
		return "Pending"
	case BacklogInProgress:
		return "In Progress"
	case BacklogCompleted:
		return "Completed"
	default:
		return string(s)
	}
}

// Backlog is a coarse, feature-sized unit of work composed of multiple
// tasks, with dependency edges to other backlogs. IDs form a dense
// increasing sequence assigned at creation and are never reused, even
// after deletion or reset.
// Fields are ordered to minimize memory padding.
type Backlog struct {
	CreatedAt       time.Time     `json:"created_at" yaml:"created_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Title           string        `json:"title" yaml:"title"`
	Description     string        `json:"description" yaml:"description"`
	Priority        string        `json:"priority" yaml:"priority"`
	EstimatedEffort string        `json:"estimated_effort" yaml:"estimated_effort"`
	Status          BacklogStatus `json:"status" yaml:"status"`
	Dependencies    []int         `json:"dependencies" yaml:"dependencies"`
	ID              int           `json:"id" yaml:"id"`
}

// BacklogFile is the whole-file shape of the backlog store.
// Fields are ordered to minimize memory padding.
type BacklogFile struct {
	ProjectSummary          string     `json:"project_summary" yaml:"project_summary"`
	RuntimeRequirements     []string   `json:"runtime_requirements" yaml:"runtime_requirements"`
	TechnicalConsiderations []string   `json:"technical_considerations" yaml:"technical_considerations"`
	Backlogs                []*Backlog `json:"backlogs" yaml:"backlogs"`
}

// Get returns the backlog with the given ID, or nil.
func (f *BacklogFile) Get(id int) *Backlog {
	for _, b := range f.Backlogs {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// NextID returns the next ID in the dense increasing sequence.
// IDs are derived from the maximum ever assigned so they survive deletion.
func (f *BacklogFile) NextID() int {
	max := 0
	for _, b := range f.Backlogs {
		if b.ID > max {
			max = b.ID
		}
	}
	return max + 1
}
