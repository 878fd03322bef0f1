package domain

// BlockedBacklog describes a pending backlog that cannot be selected
// because some of its dependencies are not yet completed.
// Fields are ordered to minimize memory padding.
type BlockedBacklog struct {
	Title     string
	UnmetDeps []int
	ID        int
}

// SelectNext picks the next backlog to work on.
//
// Selection order:
//  1. Any in_progress backlog is resumed. More than one in_progress is a
//     violated single-writer invariant; the first by listed order wins and
//     the caller should log a warning (ExtraInProgress reports the rest).
//  2. Otherwise the first pending backlog whose every dependency is
//     completed is selected.
//  3. Otherwise the run is blocked; Blocked lists each pending backlog's
//     unmet dependency IDs and no state is changed.
//
// The receiver slice is never mutated; transitions are the caller's job.
type Selection struct {
	Next            *Backlog
	Blocked         []BlockedBacklog
	ExtraInProgress []int
	Resumed         bool
}

// SelectNext applies the scheduler's selection algorithm to the backlog set.
func SelectNext(backlogs []*Backlog) Selection {
	var sel Selection

	for _, b := range backlogs {
		if b.Status != BacklogInProgress {
			continue
		}
		if sel.Next == nil {
			sel.Next = b
			sel.Resumed = true
		} else {
			sel.ExtraInProgress = append(sel.ExtraInProgress, b.ID)
		}
	}
	if sel.Next != nil {
		return sel
	}

	done := make(map[int]bool)
	for _, b := range backlogs {
		if b.Status == BacklogCompleted {
			done[b.ID] = true
		}
	}

	for _, b := range backlogs {
		if b.Status != BacklogPending {
			continue
		}
		var unmet []int
		for _, dep := range b.Dependencies {
			if !done[dep] {
				unmet = append(unmet, dep)
			}
		}
		if len(unmet) == 0 {
			sel.Next = b
			sel.Blocked = nil
			return sel
		}
		sel.Blocked = append(sel.Blocked, BlockedBacklog{
			ID:        b.ID,
			Title:     b.Title,
			UnmetDeps: unmet,
		})
	}

	return sel
}
