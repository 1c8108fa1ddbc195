package planner

import (
	"sort"

	"github.com/studydeck/studydeck/pkg/timeutil"
)

// Progress maps a task id to the set of date keys on which the task was
// marked done. The stored JSON shape is a map of arrays; insertion order is
// irrelevant and a date appears at most once per task.
type Progress map[string][]string

// MarkDone records that a task was completed on the given date key.
// Idempotent: marking the same (task, date) twice keeps a single entry.
func (p Progress) MarkDone(taskID, date string) {
	for _, d := range p[taskID] {
		if d == date {
			return
		}
	}
	p[taskID] = append(p[taskID], date)
}

// UnmarkDone removes a completion entry. No-op when the entry is absent.
func (p Progress) UnmarkDone(taskID, date string) {
	dates, ok := p[taskID]
	if !ok {
		return
	}
	kept := dates[:0]
	for _, d := range dates {
		if d != date {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		delete(p, taskID)
		return
	}
	p[taskID] = kept
}

// IsDone reports whether the task was marked done on the given date key.
func (p Progress) IsDone(taskID, date string) bool {
	for _, d := range p[taskID] {
		if d == date {
			return true
		}
	}
	return false
}

// RemoveTask drops all completion entries for a task. Used when the task
// itself is deleted so no orphaned progress remains.
func (p Progress) RemoveTask(taskID string) {
	delete(p, taskID)
}

// DoneDates returns the task's completion date keys sorted ascending.
func (p Progress) DoneDates(taskID string) []string {
	dates := make([]string, len(p[taskID]))
	copy(dates, p[taskID])
	// Lexicographic order of YYYY-MM-DD keys is date order.
	sort.Strings(dates)
	return dates
}

// ActiveDates returns every distinct date key with at least one completion,
// sorted ascending. Input for streak recomputation.
func (p Progress) ActiveDates() []string {
	seen := make(map[string]struct{})
	for _, dates := range p {
		for _, d := range dates {
			if _, err := timeutil.ParseDay(d); err != nil {
				continue
			}
			seen[d] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the progress map.
func (p Progress) Clone() Progress {
	if p == nil {
		return nil
	}
	out := make(Progress, len(p))
	for taskID, dates := range p {
		out[taskID] = append([]string(nil), dates...)
	}
	return out
}
