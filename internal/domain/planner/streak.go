package planner

import (
	"sort"
	"time"

	"github.com/studydeck/studydeck/pkg/timeutil"
)

// Streak tracks consecutive days of completion activity for one task.
type Streak struct {
	TaskID    string `json:"task_id"`
	Current   int    `json:"current"`
	Best      int    `json:"best"`
	UpdatedAt string `json:"updated_at"`
}

// ComputeStreak derives a task's streak from its completion date keys.
// Current counts the run of consecutive days ending today or yesterday
// (a run ending before yesterday is broken); Best is the longest run ever.
func ComputeStreak(taskID string, doneDates []string, today time.Time) Streak {
	s := Streak{TaskID: taskID, UpdatedAt: timeutil.DayKey(today)}

	days := make([]time.Time, 0, len(doneDates))
	for _, key := range doneDates {
		d, err := timeutil.ParseDay(key)
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	if len(days) == 0 {
		return s
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	run := 1
	best := 1
	for i := 1; i < len(days); i++ {
		switch timeutil.DaysBetween(days[i-1], days[i]) {
		case 0:
			// Duplicate day, keep the run.
		case 1:
			run++
		default:
			run = 1
		}
		if run > best {
			best = run
		}
	}
	s.Best = best

	// The trailing run only counts as current if it reaches today or
	// yesterday; otherwise it is already broken.
	last := days[len(days)-1]
	if gap := timeutil.DaysBetween(last, timeutil.StartOfDay(today)); gap <= 1 && gap >= 0 {
		s.Current = run
	}
	return s
}

// RebuildStreaks recomputes the streak list for every task with progress.
// Tasks are ordered by id for a stable stored shape.
func RebuildStreaks(tasks []Task, progress Progress, today time.Time) []Streak {
	streaks := make([]Streak, 0, len(tasks))
	for _, t := range tasks {
		dates := progress.DoneDates(t.ID)
		if len(dates) == 0 {
			continue
		}
		streaks = append(streaks, ComputeStreak(t.ID, dates, today))
	}
	sort.Slice(streaks, func(i, j int) bool { return streaks[i].TaskID < streaks[j].TaskID })
	return streaks
}
