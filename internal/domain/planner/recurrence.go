package planner

import (
	"time"

	"github.com/studydeck/studydeck/pkg/timeutil"
)

// AppliesOn reports whether the rule schedules a task on the given calendar
// day. Pure and deterministic: only the date component of day is considered.
func (r RecurrenceRule) AppliesOn(day time.Time) bool {
	switch r.Freq {
	case FreqDaily:
		return true
	case FreqOnce:
		return r.Date == timeutil.DayKey(day)
	case FreqWeekly:
		idx := timeutil.WeekdayIndex(day)
		for _, wd := range r.Weekdays {
			if wd == idx {
				return true
			}
		}
		return false
	case FreqSpecific:
		key := timeutil.DayKey(day)
		for _, d := range r.Dates {
			if d == key {
				return true
			}
		}
		return false
	}
	return false
}

// AppliesOnKey is AppliesOn for a date key; malformed keys never apply
// except under a daily rule, which ignores the date entirely.
func (r RecurrenceRule) AppliesOnKey(key string) bool {
	if r.Freq == FreqDaily {
		return true
	}
	day, err := timeutil.ParseDay(key)
	if err != nil {
		return false
	}
	return r.AppliesOn(day)
}
