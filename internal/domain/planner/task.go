// Package planner implements the task-planning core of StudyDeck:
// recurring tasks, completion progress, consistency windows and streaks.
//
// Key components:
//   - Task / RecurrenceRule: what is scheduled and when it applies
//   - Progress: which tasks were done on which dates
//   - Consistency windows: daily/weekly/monthly completion ratios
//   - Streak: consecutive-day completion tracking
package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/studydeck/studydeck/pkg/timeutil"
)

// Frequency is the recurrence variant tag of a task.
type Frequency string

const (
	// FreqDaily applies on every date.
	FreqDaily Frequency = "daily"
	// FreqOnce applies on exactly one date.
	FreqOnce Frequency = "once"
	// FreqWeekly applies on a set of weekdays (Monday = 0).
	FreqWeekly Frequency = "weekly"
	// FreqSpecific applies on an explicit set of dates.
	FreqSpecific Frequency = "specific"
)

// Validation errors for recurrence rules.
var (
	ErrUnknownFrequency = errors.New("planner: unknown frequency")
	ErrRuleShape        = errors.New("planner: rule fields do not match frequency")
	ErrWeekdayRange     = errors.New("planner: weekday index out of range 0..6")
	ErrEmptyTaskName    = errors.New("planner: task name cannot be empty")
)

// RecurrenceRule decides on which calendar dates a task is scheduled.
// Exactly one variant is active, selected by Freq; the optional fields
// belong to their variant only. The flat JSON shape matches the stored
// record: {"freq":"weekly","weekdays":[0,2]}.
type RecurrenceRule struct {
	Freq Frequency `json:"freq"`

	// Date is the single date key for FreqOnce.
	Date string `json:"date,omitempty"`

	// Weekdays are dashboard weekday indices (Monday = 0) for FreqWeekly.
	Weekdays []int `json:"weekdays,omitempty"`

	// Dates are explicit date keys for FreqSpecific.
	Dates []string `json:"dates,omitempty"`
}

// Daily returns a rule that applies every day.
func Daily() RecurrenceRule {
	return RecurrenceRule{Freq: FreqDaily}
}

// Once returns a rule that applies on a single date key.
func Once(date string) RecurrenceRule {
	return RecurrenceRule{Freq: FreqOnce, Date: date}
}

// Weekly returns a rule that applies on the given weekday indices (Monday = 0).
func Weekly(weekdays ...int) RecurrenceRule {
	return RecurrenceRule{Freq: FreqWeekly, Weekdays: weekdays}
}

// OnDates returns a rule that applies on the given explicit date keys.
func OnDates(dates ...string) RecurrenceRule {
	return RecurrenceRule{Freq: FreqSpecific, Dates: dates}
}

// Validate checks that the rule carries exactly one well-formed variant.
func (r RecurrenceRule) Validate() error {
	switch r.Freq {
	case FreqDaily:
		if r.Date != "" || len(r.Weekdays) > 0 || len(r.Dates) > 0 {
			return fmt.Errorf("%w: daily rule carries variant fields", ErrRuleShape)
		}
	case FreqOnce:
		if r.Date == "" {
			return fmt.Errorf("%w: once rule requires a date", ErrRuleShape)
		}
		if len(r.Weekdays) > 0 || len(r.Dates) > 0 {
			return fmt.Errorf("%w: once rule carries extra fields", ErrRuleShape)
		}
		if _, err := timeutil.ParseDay(r.Date); err != nil {
			return err
		}
	case FreqWeekly:
		if r.Date != "" || len(r.Dates) > 0 {
			return fmt.Errorf("%w: weekly rule carries extra fields", ErrRuleShape)
		}
		for _, wd := range r.Weekdays {
			if wd < 0 || wd > 6 {
				return fmt.Errorf("%w: got %d", ErrWeekdayRange, wd)
			}
		}
	case FreqSpecific:
		if r.Date != "" || len(r.Weekdays) > 0 {
			return fmt.Errorf("%w: specific rule carries extra fields", ErrRuleShape)
		}
		for _, d := range r.Dates {
			if _, err := timeutil.ParseDay(d); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFrequency, r.Freq)
	}
	return nil
}

// Task is a recurring to-do item owned by a single user record.
type Task struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	RecurrenceRule
}

// UnmarshalJSON decodes a stored task and validates its rule, so a
// malformed rule is rejected at the document boundary rather than
// surfacing later as a task that silently never applies.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if err := decoded.RecurrenceRule.Validate(); err != nil {
		return fmt.Errorf("task %q: %w", decoded.ID, err)
	}
	*t = Task(decoded)
	return nil
}

// Clone returns a copy of the task whose rule slices are independent of
// the original.
func (t Task) Clone() Task {
	t.Weekdays = append([]int(nil), t.Weekdays...)
	t.Dates = append([]string(nil), t.Dates...)
	return t
}

// NewTask creates a task with a fresh id and a validated rule.
func NewTask(name string, rule RecurrenceRule) (Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Task{}, ErrEmptyTaskName
	}
	if err := rule.Validate(); err != nil {
		return Task{}, err
	}
	return Task{
		ID:             uuid.NewString(),
		Name:           name,
		RecurrenceRule: rule,
	}, nil
}

// Rename changes the task name, rejecting blank names.
func (t *Task) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyTaskName
	}
	t.Name = name
	return nil
}
