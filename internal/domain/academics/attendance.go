package academics

import (
	"errors"
	"math"
	"strings"

	"github.com/studydeck/studydeck/pkg/timeutil"
)

// Status is the outcome of one attendance entry.
type Status string

const (
	// StatusPresent counts toward both attended and held classes.
	StatusPresent Status = "present"
	// StatusAbsent counts toward held classes only.
	StatusAbsent Status = "absent"
	// StatusNoClass is excluded from percentage math entirely.
	StatusNoClass Status = "noclass"
)

// GoodThreshold is the attendance percentage considered safe. Informational
// only; nothing is enforced below it.
const GoodThreshold = 75

// Attendance errors.
var (
	ErrUnknownStatus   = errors.New("academics: unknown attendance status")
	ErrEntryOutOfRange = errors.New("academics: attendance entry index out of range")
)

// ParseStatus normalizes a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPresent:
		return StatusPresent, nil
	case StatusAbsent:
		return StatusAbsent, nil
	case StatusNoClass:
		return StatusNoClass, nil
	default:
		return "", ErrUnknownStatus
	}
}

// Entry is one attendance record for a subject on a date. Multiple classes
// of the same subject on one day produce multiple entries, append-ordered.
type Entry struct {
	Status Status `json:"status"`
}

// SubjectHistory maps date keys to that day's ordered attendance entries.
type SubjectHistory map[string][]Entry

// AttendanceLog maps subject ids to their histories.
type AttendanceLog map[string]SubjectHistory

// Stats aggregates attendance counts. Total counts held classes
// (present + absent); noclass entries appear in neither counter.
type Stats struct {
	Present int `json:"present"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// Good reports whether the percentage meets the safe threshold.
func (s Stats) Good() bool {
	return s.Percent >= GoodThreshold
}

// finalize computes the percentage, 0 for an empty denominator.
func (s Stats) finalize() Stats {
	if s.Total > 0 {
		s.Percent = int(math.Round(float64(s.Present) / float64(s.Total) * 100))
	}
	return s
}

// SubjectStats flattens all dated entry lists of one subject's history
// into present/total counts and a percentage.
func SubjectStats(history SubjectHistory) Stats {
	var s Stats
	for _, entries := range history {
		for _, e := range entries {
			switch e.Status {
			case StatusPresent:
				s.Present++
				s.Total++
			case StatusAbsent:
				s.Total++
			}
		}
	}
	return s.finalize()
}

// OverallStats sums subject stats across all subjects, then applies the
// same percentage formula. Subjects without history contribute nothing;
// history of deleted subjects is ignored.
func OverallStats(subjects []Subject, log AttendanceLog) Stats {
	var s Stats
	for _, sub := range subjects {
		sub := SubjectStats(log[sub.ID])
		s.Present += sub.Present
		s.Total += sub.Total
	}
	return s.finalize()
}

// Append records one more entry for a subject on a date.
func (l AttendanceLog) Append(subjectID, date string, status Status) {
	hist, ok := l[subjectID]
	if !ok {
		hist = SubjectHistory{}
		l[subjectID] = hist
	}
	hist[date] = append(hist[date], Entry{Status: status})
}

// UpdateEntry changes the status of the index-th entry for a date.
func (l AttendanceLog) UpdateEntry(subjectID, date string, index int, status Status) error {
	entries := l[subjectID][date]
	if index < 0 || index >= len(entries) {
		return ErrEntryOutOfRange
	}
	entries[index].Status = status
	return nil
}

// DeleteEntry removes the index-th entry for a date. Emptied date lists and
// subject histories are dropped so no hollow keys linger in the record.
func (l AttendanceLog) DeleteEntry(subjectID, date string, index int) error {
	hist := l[subjectID]
	entries := hist[date]
	if index < 0 || index >= len(entries) {
		return ErrEntryOutOfRange
	}
	entries = append(entries[:index], entries[index+1:]...)
	if len(entries) == 0 {
		delete(hist, date)
	} else {
		hist[date] = entries
	}
	if len(hist) == 0 {
		delete(l, subjectID)
	}
	return nil
}

// RemoveSubject drops a subject's entire history. Called when the subject
// is deleted so no orphaned attendance remains.
func (l AttendanceLog) RemoveSubject(subjectID string) {
	delete(l, subjectID)
}

// MonthDay is one calendar day of a subject's month view.
type MonthDay struct {
	Date    string  `json:"date"`
	Entries []Entry `json:"entries"`
}

// MonthView returns the subject's entries for the given month, ordered by
// date. Days without entries are omitted.
func (l AttendanceLog) MonthView(subjectID string, year int, month int) []MonthDay {
	first := timeutil.Date(year, month, 1)
	var days []MonthDay
	for d := 0; d < timeutil.DaysInMonth(first); d++ {
		key := timeutil.DayKey(first.AddDate(0, 0, d))
		if entries := l[subjectID][key]; len(entries) > 0 {
			days = append(days, MonthDay{Date: key, Entries: entries})
		}
	}
	return days
}

// Clone returns an independent copy of the log, entries included.
func (l AttendanceLog) Clone() AttendanceLog {
	if l == nil {
		return nil
	}
	out := make(AttendanceLog, len(l))
	for subjectID, history := range l {
		h := make(SubjectHistory, len(history))
		for date, entries := range history {
			h[date] = append([]Entry(nil), entries...)
		}
		out[subjectID] = h
	}
	return out
}
