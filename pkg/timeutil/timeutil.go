// Package timeutil provides calendar-date helpers for StudyDeck.
// The dashboard stores every date as a plain "YYYY-MM-DD" key with no time
// component, so this package centralizes key formatting, parsing, weekday
// indexing (Monday = 0) and ISO week numbering.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// Common date/time formats.
const (
	// FormatDate is the standard date key format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatMonthDay is the short label used on daily consistency points (MM-DD).
	FormatMonthDay = "01-02"
	// FormatMonthAbbrev is the label used on monthly consistency points (Jan).
	FormatMonthAbbrev = "Jan"
)

// DayKey formats a time as a date key (YYYY-MM-DD) in its own location.
func DayKey(t time.Time) string {
	return t.Format(FormatDate)
}

// TodayKey returns today's date key in UTC.
func TodayKey() string {
	return DayKey(time.Now().UTC())
}

// ParseDay parses a date key (YYYY-MM-DD) into a UTC midnight time.
func ParseDay(key string) (time.Time, error) {
	t, err := time.ParseInLocation(FormatDate, key, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", key, err)
	}
	return t, nil
}

// MustDay parses a date key and panics on failure. For tests and literals.
func MustDay(key string) time.Time {
	t, err := ParseDay(key)
	if err != nil {
		panic(err)
	}
	return t
}

// Date creates a UTC midnight time for the given calendar date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// StartOfDay truncates a time to UTC midnight of the same calendar day.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfMonth returns the first day of the month containing t.
func StartOfMonth(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of calendar days in the month containing t.
func DaysInMonth(t time.Time) int {
	start := StartOfMonth(t)
	return start.AddDate(0, 1, -1).Day()
}

// WeekdayIndex maps a date to the dashboard weekday index: Monday = 0,
// Sunday = 6. Go's native index has Sunday = 0, hence the +6 shift.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WeekdayNames are the full weekday names used as timetable keys,
// in dashboard index order (Monday first).
var WeekdayNames = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// WeekdayName returns the timetable key for the date's weekday.
func WeekdayName(t time.Time) string {
	return WeekdayNames[WeekdayIndex(t)]
}

// ISOWeek returns the ISO 8601 week number for the given date using the
// Thursday-anchored algorithm: shift the date to the Thursday of its week,
// then count weeks from January 1 of that Thursday's year.
func ISOWeek(t time.Time) int {
	day := StartOfDay(t)

	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	thursday := day.AddDate(0, 0, 4-weekday)

	jan1 := time.Date(thursday.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	days := int(thursday.Sub(jan1).Hours()/24) + 1

	return (days + 6) / 7
}

// DaysBetween returns the number of calendar days from a to b.
// Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}

// IsSameDay checks if two times fall on the same UTC calendar day.
func IsSameDay(t1, t2 time.Time) bool {
	a, b := t1.UTC(), t2.UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// DayLabel returns a human label for a date key relative to a reference day:
// "Today", "Tomorrow", or the full weekday name.
func DayLabel(key string, today time.Time) string {
	day, err := ParseDay(key)
	if err != nil {
		return key
	}
	switch DaysBetween(today, day) {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	default:
		return WeekdayName(day)
	}
}
