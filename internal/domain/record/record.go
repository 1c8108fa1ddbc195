// Package record defines the persisted per-user document shape and the
// cross-collection rules that keep it consistent: default structure,
// backfill for records written by older dashboard versions, and the
// cascades that run when a task or subject is deleted.
package record

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/studydeck/studydeck/internal/domain/academics"
	"github.com/studydeck/studydeck/internal/domain/planner"
	"github.com/studydeck/studydeck/pkg/timeutil"
)

// Validation errors.
var (
	ErrEmptyEventName   = errors.New("record: event name cannot be empty")
	ErrEmptyExamSubject = errors.New("record: exam subject cannot be empty")
	ErrEmptyClassFields = errors.New("record: class time and subject cannot be empty")
	ErrUnknownWeekday   = errors.New("record: unknown weekday name")
	ErrClassOutOfRange  = errors.New("record: class index out of range")
)

// Class is one timetable slot.
type Class struct {
	Time    string `json:"time"`
	Subject string `json:"subject"`
	Room    string `json:"room,omitempty"`
}

// Timetable maps weekday names (Monday..Sunday) to that day's ordered
// class list.
type Timetable map[string][]Class

// AddClass appends a class to the named weekday's list.
func (t Timetable) AddClass(weekday string, c Class) error {
	if !validWeekday(weekday) {
		return ErrUnknownWeekday
	}
	if strings.TrimSpace(c.Time) == "" || strings.TrimSpace(c.Subject) == "" {
		return ErrEmptyClassFields
	}
	t[weekday] = append(t[weekday], c)
	return nil
}

// RemoveClass deletes the class at index from the named weekday's list.
func (t Timetable) RemoveClass(weekday string, index int) error {
	classes, ok := t[weekday]
	if !ok || index < 0 || index >= len(classes) {
		return ErrClassOutOfRange
	}
	t[weekday] = append(classes[:index], classes[index+1:]...)
	if len(t[weekday]) == 0 {
		delete(t, weekday)
	}
	return nil
}

// DayClasses returns the class list for a weekday index (Monday = 0).
func (t Timetable) DayClasses(weekday int) []Class {
	if weekday < 0 || weekday >= len(timeutil.WeekdayNames) {
		return nil
	}
	return t[timeutil.WeekdayNames[weekday]]
}

func validWeekday(name string) bool {
	for _, w := range timeutil.WeekdayNames {
		if w == name {
			return true
		}
	}
	return false
}

// Event is a dated one-off entry (fest, deadline, holiday).
type Event struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Date string `json:"date"`
}

// NewEvent creates an event with a fresh id.
func NewEvent(name, date string) (Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Event{}, ErrEmptyEventName
	}
	if _, err := timeutil.ParseDay(date); err != nil {
		return Event{}, err
	}
	return Event{ID: uuid.NewString(), Name: name, Date: date}, nil
}

// Exam is a scheduled examination.
type Exam struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Time    string `json:"time,omitempty"`
	Venue   string `json:"venue,omitempty"`
}

// NewExam creates an exam with a fresh id.
func NewExam(subject, date, at, venue string) (Exam, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return Exam{}, ErrEmptyExamSubject
	}
	if _, err := timeutil.ParseDay(date); err != nil {
		return Exam{}, err
	}
	return Exam{ID: uuid.NewString(), Subject: subject, Date: date, Time: at, Venue: venue}, nil
}

// UserRecord is one user's whole dashboard state as stored in the
// document bin.
type UserRecord struct {
	Tasks      []planner.Task          `json:"tasks"`
	Progress   planner.Progress        `json:"progress"`
	Streaks    []planner.Streak        `json:"streaks"`
	Timetable  Timetable               `json:"timetable"`
	Events     []Event                 `json:"events"`
	Exams      []Exam                  `json:"exams"`
	Attendance academics.AttendanceLog `json:"attendance"`
	Academics  academics.Academics     `json:"academics"`
}

// Document is the whole stored bin: usernames mapped to their records.
type Document map[string]*UserRecord

// Default returns a fresh empty record.
func Default() *UserRecord {
	return &UserRecord{
		Tasks:      []planner.Task{},
		Progress:   planner.Progress{},
		Streaks:    []planner.Streak{},
		Timetable:  Timetable{},
		Events:     []Event{},
		Exams:      []Exam{},
		Attendance: academics.AttendanceLog{},
		Academics:  academics.Academics{Subjects: []academics.Subject{}},
	}
}

// Normalize backfills collections missing from records written by older
// dashboard versions. Present data is never touched.
func (r *UserRecord) Normalize() {
	if r.Tasks == nil {
		r.Tasks = []planner.Task{}
	}
	if r.Progress == nil {
		r.Progress = planner.Progress{}
	}
	if r.Streaks == nil {
		r.Streaks = []planner.Streak{}
	}
	if r.Timetable == nil {
		r.Timetable = Timetable{}
	}
	if r.Events == nil {
		r.Events = []Event{}
	}
	if r.Exams == nil {
		r.Exams = []Exam{}
	}
	if r.Attendance == nil {
		r.Attendance = academics.AttendanceLog{}
	}
	if r.Academics.Subjects == nil {
		r.Academics.Subjects = []academics.Subject{}
	}
	for i := range r.Academics.Subjects {
		r.Academics.Subjects[i].EnsureScores()
	}
}

// Ensure returns the record for a user, creating and storing a default
// one when absent, and normalizes it either way.
func (d Document) Ensure(userID string) *UserRecord {
	rec, ok := d[userID]
	if !ok || rec == nil {
		rec = Default()
		d[userID] = rec
		return rec
	}
	rec.Normalize()
	return rec
}

// Clone returns a deep copy of the record. Mutating the copy never
// reaches the original's collections.
func (r *UserRecord) Clone() *UserRecord {
	if r == nil {
		return nil
	}
	out := &UserRecord{
		Progress:   r.Progress.Clone(),
		Attendance: r.Attendance.Clone(),
		Academics:  r.Academics.Clone(),
	}
	if r.Tasks != nil {
		out.Tasks = make([]planner.Task, len(r.Tasks))
		for i, t := range r.Tasks {
			out.Tasks[i] = t.Clone()
		}
	}
	if r.Streaks != nil {
		out.Streaks = append([]planner.Streak{}, r.Streaks...)
	}
	if r.Timetable != nil {
		out.Timetable = make(Timetable, len(r.Timetable))
		for day, classes := range r.Timetable {
			out.Timetable[day] = append([]Class(nil), classes...)
		}
	}
	if r.Events != nil {
		out.Events = append([]Event{}, r.Events...)
	}
	if r.Exams != nil {
		out.Exams = append([]Exam{}, r.Exams...)
	}
	return out
}

// Clone returns a deep copy of the whole document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for userID, rec := range d {
		out[userID] = rec.Clone()
	}
	return out
}

// RemoveTask deletes a task and cascades into its progress entries and
// streak row. Reports whether the task existed.
func (r *UserRecord) RemoveTask(taskID string) bool {
	found := false
	for i := range r.Tasks {
		if r.Tasks[i].ID == taskID {
			r.Tasks = append(r.Tasks[:i], r.Tasks[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return false
	}
	r.Progress.RemoveTask(taskID)
	for i := range r.Streaks {
		if r.Streaks[i].TaskID == taskID {
			r.Streaks = append(r.Streaks[:i], r.Streaks[i+1:]...)
			break
		}
	}
	return true
}

// RemoveSubject deletes a subject and cascades into its attendance
// history. Reports whether the subject existed.
func (r *UserRecord) RemoveSubject(subjectID string) bool {
	if !r.Academics.RemoveSubject(subjectID) {
		return false
	}
	r.Attendance.RemoveSubject(subjectID)
	return true
}

// FindTask returns a pointer to the task with the given id.
func (r *UserRecord) FindTask(taskID string) *planner.Task {
	for i := range r.Tasks {
		if r.Tasks[i].ID == taskID {
			return &r.Tasks[i]
		}
	}
	return nil
}

// upcomingWindowDays bounds the home view's look-ahead.
const upcomingWindowDays = 7

// withinWeek reports whether date falls today through seven days out.
func withinWeek(date, today string) bool {
	day, err := timeutil.ParseDay(date)
	if err != nil {
		return false
	}
	now, err := timeutil.ParseDay(today)
	if err != nil {
		return false
	}
	diff := timeutil.DaysBetween(now, day)
	return diff >= 0 && diff <= upcomingWindowDays
}

// UpcomingEvents returns events dated today through seven days out,
// in stored order.
func (r *UserRecord) UpcomingEvents(today string) []Event {
	var out []Event
	for _, e := range r.Events {
		if withinWeek(e.Date, today) {
			out = append(out, e)
		}
	}
	return out
}

// UpcomingExams returns exams dated today through seven days out,
// in stored order.
func (r *UserRecord) UpcomingExams(today string) []Exam {
	var out []Exam
	for _, e := range r.Exams {
		if withinWeek(e.Date, today) {
			out = append(out, e)
		}
	}
	return out
}

// RemoveEvent deletes the event with the given id.
func (r *UserRecord) RemoveEvent(id string) bool {
	for i := range r.Events {
		if r.Events[i].ID == id {
			r.Events = append(r.Events[:i], r.Events[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveExam deletes the exam with the given id.
func (r *UserRecord) RemoveExam(id string) bool {
	for i := range r.Exams {
		if r.Exams[i].ID == id {
			r.Exams = append(r.Exams[:i], r.Exams[i+1:]...)
			return true
		}
	}
	return false
}
