package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studydeck/studydeck/internal/domain/academics"
	"github.com/studydeck/studydeck/internal/domain/planner"
)

func TestDefaultShape(t *testing.T) {
	rec := Default()

	// Empty collections must serialize as [] / {}, not null, so the
	// stored document stays readable by older dashboard versions.
	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"tasks": [],
		"progress": {},
		"streaks": [],
		"timetable": {},
		"events": [],
		"exams": [],
		"attendance": {},
		"academics": {"subjects": []}
	}`, string(raw))
}

func TestNormalizeBackfillsMissingCollections(t *testing.T) {
	// A record written before exams and attendance existed.
	var rec UserRecord
	require.NoError(t, json.Unmarshal([]byte(`{
		"tasks": [{"id": "t1", "name": "Read", "freq": "daily"}],
		"progress": {"t1": ["2024-01-01"]}
	}`), &rec))

	rec.Normalize()

	require.Len(t, rec.Tasks, 1)
	assert.Equal(t, []string{"2024-01-01"}, rec.Progress["t1"])
	assert.NotNil(t, rec.Streaks)
	assert.NotNil(t, rec.Timetable)
	assert.NotNil(t, rec.Events)
	assert.NotNil(t, rec.Exams)
	assert.NotNil(t, rec.Attendance)
	assert.NotNil(t, rec.Academics.Subjects)
}

func TestNormalizeBackfillsSubjectScores(t *testing.T) {
	rec := UserRecord{Academics: academics.Academics{Subjects: []academics.Subject{
		{ID: "s1", Name: "Maths"},
	}}}
	rec.Normalize()
	assert.Len(t, rec.Academics.Subjects[0].Scores, len(academics.SlotKeys))
}

func TestDocumentEnsure(t *testing.T) {
	doc := Document{}

	rec := doc.Ensure("alice")
	require.NotNil(t, rec)
	assert.Same(t, rec, doc["alice"])

	// Subsequent calls return the stored record, normalized.
	doc["bob"] = &UserRecord{Tasks: []planner.Task{{ID: "t1", Name: "Read"}}}
	rec = doc.Ensure("bob")
	assert.Len(t, rec.Tasks, 1)
	assert.NotNil(t, rec.Attendance)
}

func TestDocumentCloneIsDeep(t *testing.T) {
	doc := Document{"alice": Default()}
	rec := doc["alice"]
	rec.Tasks = append(rec.Tasks, planner.Task{ID: "t1", Name: "Read", RecurrenceRule: planner.Weekly(0, 2)})
	rec.Progress.MarkDone("t1", "2024-01-01")
	require.NoError(t, rec.Timetable.AddClass("Monday", Class{Time: "09:00", Subject: "Maths"}))
	rec.Attendance.Append("s1", "2024-01-01", academics.StatusPresent)
	rec.Academics.Subjects = append(rec.Academics.Subjects, academics.Subject{ID: "s1", Name: "Maths"})

	clone := doc.Clone()
	mutated := clone["alice"]
	mutated.Progress.MarkDone("t1", "2024-01-02")
	mutated.Tasks[0].Weekdays[0] = 6
	mutated.Tasks = append(mutated.Tasks, planner.Task{ID: "t2", Name: "Gym"})
	require.NoError(t, mutated.Timetable.AddClass("Monday", Class{Time: "11:00", Subject: "Physics"}))
	mutated.Attendance.Append("s1", "2024-01-01", academics.StatusAbsent)

	assert.False(t, rec.Progress.IsDone("t1", "2024-01-02"))
	assert.Equal(t, []int{0, 2}, rec.Tasks[0].Weekdays)
	assert.Len(t, rec.Tasks, 1)
	assert.Len(t, rec.Timetable["Monday"], 1)
	assert.Len(t, rec.Attendance["s1"]["2024-01-01"], 1)
}

func TestCloneKeepsEmptyCollectionsMarshalable(t *testing.T) {
	clone := Document{"alice": Default()}.Clone()

	raw, err := json.Marshal(clone["alice"])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"tasks": [], "progress": {}, "streaks": [], "timetable": {},
		"events": [], "exams": [], "attendance": {},
		"academics": {"subjects": []}
	}`, string(raw))
}

func TestRemoveTaskCascades(t *testing.T) {
	rec := Default()
	rec.Tasks = []planner.Task{{ID: "t1", Name: "Read"}, {ID: "t2", Name: "Gym"}}
	rec.Progress.MarkDone("t1", "2024-01-01")
	rec.Progress.MarkDone("t2", "2024-01-01")
	rec.Streaks = []planner.Streak{{TaskID: "t1", Current: 3}, {TaskID: "t2", Current: 1}}

	assert.True(t, rec.RemoveTask("t1"))

	require.Len(t, rec.Tasks, 1)
	assert.Equal(t, "t2", rec.Tasks[0].ID)
	assert.False(t, rec.Progress.IsDone("t1", "2024-01-01"))
	assert.True(t, rec.Progress.IsDone("t2", "2024-01-01"))
	require.Len(t, rec.Streaks, 1)
	assert.Equal(t, "t2", rec.Streaks[0].TaskID)

	assert.False(t, rec.RemoveTask("t1"))
}

func TestRemoveSubjectCascades(t *testing.T) {
	rec := Default()
	rec.Academics.Subjects = []academics.Subject{{ID: "s1", Name: "Maths"}}
	rec.Attendance.Append("s1", "2024-01-01", academics.StatusPresent)

	assert.True(t, rec.RemoveSubject("s1"))
	assert.Empty(t, rec.Academics.Subjects)
	assert.Empty(t, rec.Attendance)

	assert.False(t, rec.RemoveSubject("s1"))
}

func TestTimetableAddRemove(t *testing.T) {
	tt := Timetable{}

	require.NoError(t, tt.AddClass("Monday", Class{Time: "09:00", Subject: "Maths", Room: "101"}))
	require.NoError(t, tt.AddClass("Monday", Class{Time: "10:00", Subject: "Physics"}))
	require.Len(t, tt["Monday"], 2)

	assert.ErrorIs(t, tt.AddClass("Funday", Class{Time: "09:00", Subject: "Maths"}), ErrUnknownWeekday)
	assert.ErrorIs(t, tt.AddClass("Monday", Class{Time: " ", Subject: "Maths"}), ErrEmptyClassFields)

	require.NoError(t, tt.RemoveClass("Monday", 0))
	assert.Equal(t, "Physics", tt["Monday"][0].Subject)

	assert.ErrorIs(t, tt.RemoveClass("Monday", 5), ErrClassOutOfRange)
	assert.ErrorIs(t, tt.RemoveClass("Tuesday", 0), ErrClassOutOfRange)

	// Removing the last class drops the weekday key.
	require.NoError(t, tt.RemoveClass("Monday", 0))
	_, ok := tt["Monday"]
	assert.False(t, ok)
}

func TestTimetableDayClasses(t *testing.T) {
	tt := Timetable{"Wednesday": {{Time: "09:00", Subject: "Maths"}}}
	assert.Len(t, tt.DayClasses(2), 1)
	assert.Nil(t, tt.DayClasses(0))
	assert.Nil(t, tt.DayClasses(7))
}

func TestNewEventValidation(t *testing.T) {
	e, err := NewEvent("  Tech Fest ", "2024-03-01")
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "Tech Fest", e.Name)

	_, err = NewEvent("  ", "2024-03-01")
	assert.ErrorIs(t, err, ErrEmptyEventName)
	_, err = NewEvent("Fest", "01-03-2024")
	assert.Error(t, err)
}

func TestNewExamValidation(t *testing.T) {
	e, err := NewExam("Maths", "2024-03-01", "09:00", "Hall A")
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "Hall A", e.Venue)

	_, err = NewExam("", "2024-03-01", "", "")
	assert.ErrorIs(t, err, ErrEmptyExamSubject)
	_, err = NewExam("Maths", "bad", "", "")
	assert.Error(t, err)
}

func TestUpcomingWindow(t *testing.T) {
	rec := Default()
	rec.Events = []Event{
		{ID: "e1", Name: "Yesterday", Date: "2024-01-09"},
		{ID: "e2", Name: "Today", Date: "2024-01-10"},
		{ID: "e3", Name: "Week edge", Date: "2024-01-17"},
		{ID: "e4", Name: "Too far", Date: "2024-01-18"},
	}
	rec.Exams = []Exam{
		{ID: "x1", Subject: "Maths", Date: "2024-01-12"},
		{ID: "x2", Subject: "Physics", Date: "2024-02-01"},
	}

	events := rec.UpcomingEvents("2024-01-10")
	require.Len(t, events, 2)
	assert.Equal(t, "e2", events[0].ID)
	assert.Equal(t, "e3", events[1].ID)

	exams := rec.UpcomingExams("2024-01-10")
	require.Len(t, exams, 1)
	assert.Equal(t, "x1", exams[0].ID)
}

func TestRemoveEventAndExam(t *testing.T) {
	rec := Default()
	rec.Events = []Event{{ID: "e1"}, {ID: "e2"}}
	rec.Exams = []Exam{{ID: "x1"}}

	assert.True(t, rec.RemoveEvent("e1"))
	require.Len(t, rec.Events, 1)
	assert.False(t, rec.RemoveEvent("e1"))

	assert.True(t, rec.RemoveExam("x1"))
	assert.Empty(t, rec.Exams)
	assert.False(t, rec.RemoveExam("x1"))
}
