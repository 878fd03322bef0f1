package domain

// ReconstructTasks rebuilds the current task list and per-task status
// purely from the replayed event stream. The result depends only on the
// log's own ordering, so replaying the same log twice yields identical
// output.
//
// The most recent planning_complete event is the authoritative boundary:
// it carries the full task list as it existed when planning finished.
// Task_created events after the boundary join the current set in log
// order. Completion status is overlaid from task_complete events matched
// by task number; a task_failed with no later task_complete for the same
// number marks the resume point and stays non-completed.
//
// requirement optionally filters which planning boundary (and, in the
// degraded path, which task_created events) apply. An empty requirement
// matches everything.
func ReconstructTasks(events []Event, requirement string) []*Task {
	boundary := planningBoundary(events, requirement)
	if boundary < 0 {
		return reconstructLegacy(events, requirement)
	}

	byNumber := make(map[int]*Task)
	var tasks []*Task

	add := func(number int, description, testCommand, req string) {
		if number <= 0 {
			return
		}
		if existing, ok := byNumber[number]; ok {
			// Duplicate creation for the same number: later wins for
			// metadata, position stays.
			existing.Description = description
			existing.TestCommand = testCommand
			return
		}
		t := &Task{
			TaskNumber:  number,
			Description: description,
			TestCommand: testCommand,
			Requirement: req,
			Status:      TaskPending,
		}
		byNumber[number] = t
		tasks = append(tasks, t)
	}

	// Seed from the boundary's authoritative list.
	be := events[boundary]
	for _, pt := range be.Tasks {
		add(pt.TaskNumber, pt.Description, pt.TestCommand, be.Requirement)
	}

	// Everything after the boundary is part of the current set.
	for _, e := range events[boundary+1:] {
		switch e.Action {
		case ActionTaskCreated:
			add(e.TaskNumber, e.Description, e.TestCommand, e.Requirement)
		case ActionTaskComplete:
			if t, ok := byNumber[e.TaskNumber]; ok {
				t.Status = TaskCompleted
			}
		case ActionTaskFailed:
			if t, ok := byNumber[e.TaskNumber]; ok {
				t.Status = TaskFailed
			}
		}
	}

	return tasks
}

// planningBoundary returns the index of the most recent planning_complete
// event matching the requirement filter, or -1.
func planningBoundary(events []Event, requirement string) int {
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		if e.Action != ActionPlanningComplete {
			continue
		}
		if requirement != "" && e.Requirement != requirement {
			continue
		}
		return i
	}
	return -1
}

// reconstructLegacy handles logs without a planning_complete boundary
// (older or corrupted logs). It scans all task_created events filtered by
// the requirement string. This is a weaker guarantee: tasks from earlier,
// abandoned planning rounds for the same requirement are not excluded.
func reconstructLegacy(events []Event, requirement string) []*Task {
	byNumber := make(map[int]*Task)
	var tasks []*Task

	for _, e := range events {
		switch e.Action {
		case ActionTaskCreated:
			if e.TaskNumber <= 0 {
				continue
			}
			if requirement != "" && e.Requirement != requirement {
				continue
			}
			if existing, ok := byNumber[e.TaskNumber]; ok {
				existing.Description = e.Description
				existing.TestCommand = e.TestCommand
				continue
			}
			t := &Task{
				TaskNumber:  e.TaskNumber,
				Description: e.Description,
				TestCommand: e.TestCommand,
				Requirement: e.Requirement,
				Status:      TaskPending,
			}
			byNumber[e.TaskNumber] = t
			tasks = append(tasks, t)
		case ActionTaskComplete:
			if t, ok := byNumber[e.TaskNumber]; ok {
				t.Status = TaskCompleted
			}
		case ActionTaskFailed:
			if t, ok := byNumber[e.TaskNumber]; ok {
				t.Status = TaskFailed
			}
		}
	}

	return tasks
}

// ResumeIndex returns the index of the first task that still needs work,
// or len(tasks) when all tasks are completed. A failed task is the resume
// point; it and everything after it are re-entered.
func ResumeIndex(tasks []*Task) int {
	for i, t := range tasks {
		if !t.Done() {
			return i
		}
	}
	return len(tasks)
}

// MaxTaskNumber returns the highest task number observed in any
// task-creation event across the whole log, or 0 for an empty or corrupt
// log. The in-memory counter is resynced from this on demand and never
// trusted blindly after a restart.
func MaxTaskNumber(events []Event) int {
	max := 0
	for _, e := range events {
		if e.Action != ActionTaskCreated {
			continue
		}
		if e.TaskNumber > max {
			max = e.TaskNumber
		}
	}
	return max
}
