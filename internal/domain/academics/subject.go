// Package academics implements the marks and attendance core of StudyDeck:
// subjects with five fixed assessment slots, and an attendance log with
// per-subject and overall statistics.
package academics

import (
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
)

// SlotKey identifies one of the five fixed assessment slots.
type SlotKey string

const (
	SlotUT1    SlotKey = "ut1"
	SlotUT2    SlotKey = "ut2"
	SlotTA1    SlotKey = "ta1"
	SlotTA2    SlotKey = "ta2"
	SlotEndSem SlotKey = "end"
)

// SlotKeys lists all assessment slots in display order.
var SlotKeys = []SlotKey{SlotUT1, SlotUT2, SlotTA1, SlotTA2, SlotEndSem}

// SlotLabels maps slot keys to their display labels.
var SlotLabels = map[SlotKey]string{
	SlotUT1:    "UT 1",
	SlotUT2:    "UT 2",
	SlotTA1:    "TA 1",
	SlotTA2:    "TA 2",
	SlotEndSem: "End Sem",
}

// Validation errors.
var (
	ErrEmptySubjectName = errors.New("academics: subject name cannot be empty")
	ErrUnknownSlot      = errors.New("academics: unknown assessment slot")
	ErrNegativeScore    = errors.New("academics: scores cannot be negative")
)

// Score holds the marks for one assessment slot. The short JSON keys match
// the stored record shape.
type Score struct {
	Obtained float64 `json:"m"`
	Total    float64 `json:"t"`
}

// Subject is one course with per-slot scores.
type Subject struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Scores map[SlotKey]Score `json:"scores"`
}

// Academics is the subjects collection of a user record.
type Academics struct {
	Subjects []Subject `json:"subjects"`
}

// emptyScores returns a zeroed score map covering every slot.
func emptyScores() map[SlotKey]Score {
	scores := make(map[SlotKey]Score, len(SlotKeys))
	for _, k := range SlotKeys {
		scores[k] = Score{}
	}
	return scores
}

// NewSubject creates a subject with a fresh id and zeroed slots.
func NewSubject(name string) (Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Subject{}, ErrEmptySubjectName
	}
	return Subject{
		ID:     uuid.NewString(),
		Name:   name,
		Scores: emptyScores(),
	}, nil
}

// EnsureScores backfills a missing or partial scores block. Records written
// by older dashboard versions carried subjects without it.
func (s *Subject) EnsureScores() {
	if s.Scores == nil {
		s.Scores = emptyScores()
		return
	}
	for _, k := range SlotKeys {
		if _, ok := s.Scores[k]; !ok {
			s.Scores[k] = Score{}
		}
	}
}

// SetScore updates one slot's marks.
func (s *Subject) SetScore(slot SlotKey, obtained, total float64) error {
	if _, ok := SlotLabels[slot]; !ok {
		return ErrUnknownSlot
	}
	if obtained < 0 || total < 0 {
		return ErrNegativeScore
	}
	s.EnsureScores()
	s.Scores[slot] = Score{Obtained: obtained, Total: total}
	return nil
}

// Totals sums obtained and total marks across all slots.
func (s Subject) Totals() (obtained, total float64) {
	for _, sc := range s.Scores {
		obtained += sc.Obtained
		total += sc.Total
	}
	return obtained, total
}

// Percent returns the subject's overall mark percentage, 0 when no totals
// have been entered yet.
func (s Subject) Percent() int {
	obtained, total := s.Totals()
	if total <= 0 {
		return 0
	}
	return int(math.Round(obtained / total * 100))
}

// FindSubject returns a pointer to the subject with the given id.
func (a *Academics) FindSubject(id string) *Subject {
	for i := range a.Subjects {
		if a.Subjects[i].ID == id {
			return &a.Subjects[i]
		}
	}
	return nil
}

// RemoveSubject deletes the subject with the given id and reports whether
// it was present. Attendance cascade is the record's responsibility.
func (a *Academics) RemoveSubject(id string) bool {
	for i := range a.Subjects {
		if a.Subjects[i].ID == id {
			a.Subjects = append(a.Subjects[:i], a.Subjects[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the subject list and score maps.
func (a Academics) Clone() Academics {
	if a.Subjects == nil {
		return Academics{}
	}
	subjects := make([]Subject, len(a.Subjects))
	for i, s := range a.Subjects {
		if s.Scores != nil {
			scores := make(map[SlotKey]Score, len(s.Scores))
			for slot, score := range s.Scores {
				scores[slot] = score
			}
			s.Scores = scores
		}
		subjects[i] = s
	}
	return Academics{Subjects: subjects}
}
