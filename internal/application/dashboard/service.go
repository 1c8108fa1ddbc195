// Package dashboard contains the application service behind the HTTP API
// and the studyctl CLI. It composes the domain packages with the record
// repository: every operation is one fetch-mutate-replace cycle (or a
// plain read) against the bound user's record.
package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/studydeck/studydeck/internal/domain/academics"
	"github.com/studydeck/studydeck/internal/domain/planner"
	"github.com/studydeck/studydeck/internal/domain/record"
	"github.com/studydeck/studydeck/internal/infrastructure/repository"
	"github.com/studydeck/studydeck/pkg/logger"
	"github.com/studydeck/studydeck/pkg/timeutil"
)

// Service errors.
var (
	ErrTaskNotFound    = errors.New("dashboard: task not found")
	ErrSubjectNotFound = errors.New("dashboard: subject not found")
	ErrEventNotFound   = errors.New("dashboard: event not found")
	ErrExamNotFound    = errors.New("dashboard: exam not found")
)

// upcomingDays bounds the upcoming-task grouping on the home view.
const upcomingDays = 7

// Service executes dashboard operations for one user.
type Service struct {
	repo   *repository.RecordRepository
	logger *logger.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewService creates a service bound to one user's repository.
func NewService(repo *repository.RecordRepository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		repo:   repo,
		logger: log.With(logger.Component("dashboard"), logger.UserID(repo.UserID())),
		now:    time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() time.Time {
	return timeutil.StartOfDay(s.now().UTC())
}

func (s *Service) todayKey() string {
	return timeutil.DayKey(s.now().UTC())
}

// ═══ Tasks ═══

// TaskView is a task with its completion state for a given day.
type TaskView struct {
	planner.Task
	Done   bool            `json:"done"`
	Streak *planner.Streak `json:"streak,omitempty"`
}

// AddTask creates a task from a name and recurrence rule.
func (s *Service) AddTask(ctx context.Context, name string, rule planner.RecurrenceRule) (planner.Task, error) {
	task, err := planner.NewTask(name, rule)
	if err != nil {
		return planner.Task{}, err
	}
	_, err = s.repo.WithRecord(ctx, func(rec *record.UserRecord) error {
		rec.Tasks = append(rec.Tasks, task)
		return nil
	})
	if err != nil {
		return planner.Task{}, err
	}
	s.logger.Info("task added", logger.TaskID(task.ID))
	return task, nil
}

// RenameTask changes a task's name.
func (s *Service) RenameTask(ctx context.Context, taskID, name string) error {
	_, err := s.repo.WithRecord(ctx, func(rec *record.UserRecord) error {
		task := rec.FindTask(taskID)
		if task == nil {
			return ErrTaskNotFound
		}
		return task.Rename(name)
	})
	return err
}

// DeleteTask removes a task and its progress and streak entries.
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	_, err := s.repo.WithRecord(ctx, func(rec *record.UserRecord) error {
		if !rec.RemoveTask(taskID) {
			return ErrTaskNotFound
		}
		return nil
	})
	if err == nil {
		s.logger.Info("task deleted", logger.TaskID(taskID))
	}
	return err
}

// ListTasks returns every task with its done state for today.
func (s *Service) ListTasks(ctx context.Context) ([]TaskView, error) {
	rec, err := s.repo.Record(ctx)
	if err != nil {
		return nil, err
	}
	return s.taskViews(rec, rec.Tasks), nil
}

// TasksForToday returns today's applicable tasks with done states.
func (s *Service) TasksForToday(ctx context.Context) ([]TaskView, error) {
	rec, err := s.repo.Record(ctx)
	if err != nil {
		return nil, err
	}
	due := planner.TasksForToday(rec.Tasks, s.today())
	return s.taskViews(rec, due), nil
}

func (s *Service) taskViews(rec *record.UserRecord, tasks []planner.Task) []TaskView {
	key := s.todayKey()
	views := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		view := TaskView{Task: task, Done: rec.Progress.IsDone(task.ID, key)}
		for i := range rec.Streaks {
			if rec.Streaks[i].TaskID == task.ID {
				view.Streak = &rec.Streaks[i]
				break
			}
		}
		views = append(views, view)
	}
	return views
}

// ═══ Progress ═══

// MarkDone records a completion for a date (today when empty) and
// rebuilds streaks. Safe to repeat.
func (s *Service) MarkDone(ctx context.Context, taskID, date string) error {
	return s.toggleDone(ctx, taskID, date, true)
}

// UnmarkDone removes a completion. A no-op when the completion is absent.
func (s *Service) UnmarkDone(ctx context.Context, taskID, date string) error {
	return s.toggleDone(ctx, taskID, date, false)
}

func (s *Service) toggleDone(ctx context.Context, taskID, date string, done bool) error {
	if date == "" {
		date = s.todayKey()
	} else if _, err := timeutil.ParseDay(date); err != nil {
		return err
	}
	_, err := s.repo.WithRecord(ctx, func(rec *record.UserRecord) error {
		if rec.FindTask(taskID) == nil {
			return ErrTaskNotFound
		}
		if done {
			rec.Progress.MarkDone(taskID, date)
		} else {
			rec.Progress.UnmarkDone(taskID, date)
		}
		rec.Streaks = planner.RebuildStreaks(rec.Tasks, rec.Progress, s.today())
		return nil
	})
	return err
}

// ═══ Consistency ═══

// Consistency returns the chart points for a granularity, oldest first.
func (s *Service) Consistency(ctx context.Context, g planner.Granularity) ([]planner.Point, error) {
	rec, err := s.repo.Record(ctx)
	if err != nil {
		return nil, err
	}
	return planner.Points(g, rec.Tasks, rec.Progress, s.today()), nil
}

// Upcoming groups non-daily tasks due in the next week by date.
func (s *Service) Upcoming(ctx context.Context) ([]planner.UpcomingDay, error) {
	rec, err := s.repo.Record(ctx)
	if err != nil {
		return nil, err
	}
	return planner.UpcomingByDate(rec.Tasks, s.today(), upcomingDays), nil
}

// ═══ Academics ═══

// SubjectView is a subject with derived mark totals.
type SubjectView struct {
	academics.Subject
	Obtained float64 `json:"obtained"`
	Total    float64 `json:"total"`
	Percent  int     `json:"percent"`
}

// ListSubjects returns all subjects with totals.
func (s *Service) ListSubjects(ctx context.Context) ([]SubjectView, error) {
	a, err := s.repo.Academics(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]SubjectView, 0, len(a.Subjects))
	for _, subject := range a.Subjects {
		obtained, total := subject.Totals()
		views = append(views, SubjectView{
			Subject:  subject,
			Obtained: obtained,
			Total:    total,
			Percent:  subject.Percent(),
		})
	}
	return views, nil
}

// AddSubject creates a subject with zeroed score slots.
func (s *Service) AddSubject(ctx context.Context, name string) (academics.Subject, error) {
	subject, err := academics.NewSubject(name)
	if err != nil {
		return academics.Subject{}, err
	}
	_, err = s.repo.WithRecord(ctx, func(rec *record.UserRecord) error {
		rec.Academics.Subjects = append(rec.Academics.Subjects, subject)
		return nil
	})
	if err != nil {
		return academics.Subject{}, err
	}
	return subject, nil
}

// DeleteSubject removes a subject and its attendance history.
func (s *Service) DeleteSubject(ctx context.Context, subjectID string) error {
	_, err := s.repo.WithRecord(ctx, func(rec *record.UserRecord) error {
		if !rec.RemoveSubject(subjectID) {
			return ErrSubjectNotFound
		}
		return nil
	})
	if err == nil {
		s.logger.Info("subject deleted", logger.SubjectID(subjectID))
	}
	return err
}

// SetScore updates one assessment slot of a subject.
func (s *Service) SetScore(ctx context.Context, subjectID string, slot academics.SlotKey, obtained, total float64) error {
	_, err := s.repo.WithRecord(ctx, func(rec *record.UserRecord) error {
		subject := rec.Academics.FindSubject(subjectID)
		if subject == nil {
			return ErrSubjectNotFound
		}
		return subject.SetScore(slot, obtained, total)
	})
	return err
}

// ═══ Attendance ═══

// SubjectAttendance pairs a subject with its attendance stats.
type SubjectAttendance struct {
	Subject academics.Subject `json:"subject"`
	Stats   academics.Stats   `json:"stats"`
}

// AttendanceReport is the attendance page payload.
type AttendanceReport struct {
	Overall  academics.Stats     `json:"overall"`
	Subjects []SubjectAttendance `json:"subjects"`
}

// AttendanceStats computes per-subject and overall attendance.
func (s *Service) AttendanceStats(ctx context.Context) (AttendanceReport, error) {
	rec, err := s.repo.Record(ctx)
	if err != nil {
		return AttendanceReport{}, err
	}
	report := AttendanceReport{
		Overall:  academics.OverallStats(rec.Academics.Subjects, rec.Attendance),
		Subjects: make([]SubjectAttendance, 0, len(rec.Academics.Subjects)),
	}
	for _, subject := range rec.Academics.Subjects {
		report.Subjects = append(report.Subjects, SubjectAttendance{
			Subject: subject,
			Stats:   academics.SubjectStats(rec.Attendance[subject.ID]),
		})
	}
	return report, nil
}

// AddAttendance appends an entry for a subject on a date (today when empty).
func (s *Service) AddAttendance(ctx context.Context, subjectID, date string, status academics.Status) error {
	if date == "" {
		date = s.todayKey()
	} else if _, err := timeutil.ParseDay(date); err != nil {
		return err
	}
	_, err := s.repo.WithRecord(ctx, func(rec *record.UserRecord) error {
		if rec.Academics.FindSubject(subjectID) == nil {
			return ErrSubjectNotFound
		}
		rec.Attendance.Append(subjectID, date, status)
		return nil
	})
	return err
}

// UpdateAttendance rewrites the status of one entry.
func (s *Service) UpdateAttendance(ctx context.Context, subjectID, date string, index int, status academics.Status) error {
	_, err := s.repo.WithRecord(ctx, func(rec *record.UserRecord) error {
		return rec.Attendance.UpdateEntry(subjectID, date, index, status)
	})
	return err
}

// DeleteAttendance removes one entry.
func (s *Service) DeleteAttendance(ctx context.Context, subjectID, date string, index int) error {
	_, err := s.repo.WithRecord(ctx, func(rec *record.UserRecord) error {
		return rec.Attendance.DeleteEntry(subjectID, date, index)
	})
	return err
}

// AttendanceMonth returns a subject's entries for one month, day ordered.
func (s *Service) AttendanceMonth(ctx context.Context, subjectID string, year int, month int) ([]academics.MonthDay, error) {
	rec, err := s.repo.Record(ctx)
	if err != nil {
		return nil, err
	}
	if rec.Academics.FindSubject(subjectID) == nil {
		return nil, ErrSubjectNotFound
	}
	return rec.Attendance.MonthView(subjectID, year, month), nil
}

// ═══ Timetable ═══

// Timetable returns the whole weekly timetable.
func (s *Service) Timetable(ctx context.Context) (record.Timetable, error) {
	return s.repo.Timetable(ctx)
}

// AddClass appends a class to a weekday.
func (s *Service) AddClass(ctx context.Context, weekday string, c record.Class) error {
	_, err := s.repo.WithRecord(ctx, func(rec *record.UserRecord) error {
		return rec.Timetable.AddClass(weekday, c)
	})
	return err
}

// RemoveClass deletes a class by weekday and position.
func (s *Service) RemoveClass(ctx context.Context, weekday string, index int) error {
	_, err := s.repo.WithRecord(ctx, func(rec *record.UserRecord) error {
		return rec.Timetable.RemoveClass(weekday, index)
	})
	return err
}

// ═══ Events and exams ═══

// AddEvent creates a dated event.
func (s *Service) AddEvent(ctx context.Context, name, date string) (record.Event, error) {
	event, err := record.NewEvent(name, date)
	if err != nil {
		return record.Event{}, err
	}
	_, err = s.repo.WithRecord(ctx, func(rec *record.UserRecord) error {
		rec.Events = append(rec.Events, event)
		return nil
	})
	if err != nil {
		return record.Event{}, err
	}
	return event, nil
}

// DeleteEvent removes an event by id.
func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	_, err := s.repo.WithRecord(ctx, func(rec *record.UserRecord) error {
		if !rec.RemoveEvent(id) {
			return ErrEventNotFound
		}
		return nil
	})
	return err
}

// AddExam creates a scheduled exam.
func (s *Service) AddExam(ctx context.Context, subject, date, at, venue string) (record.Exam, error) {
	exam, err := record.NewExam(subject, date, at, venue)
	if err != nil {
		return record.Exam{}, err
	}
	_, err = s.repo.WithRecord(ctx, func(rec *record.UserRecord) error {
		rec.Exams = append(rec.Exams, exam)
		return nil
	})
	if err != nil {
		return record.Exam{}, err
	}
	return exam, nil
}

// DeleteExam removes an exam by id.
func (s *Service) DeleteExam(ctx context.Context, id string) error {
	_, err := s.repo.WithRecord(ctx, func(rec *record.UserRecord) error {
		if !rec.RemoveExam(id) {
			return ErrExamNotFound
		}
		return nil
	})
	return err
}

// ═══ Overview ═══

// Overview is the home page payload.
type Overview struct {
	Date       string                `json:"date"`
	DayLabel   string                `json:"day_label"`
	Tasks      []TaskView            `json:"tasks"`
	Upcoming   []planner.UpcomingDay `json:"upcoming"`
	Classes    []record.Class        `json:"classes"`
	Events     []record.Event        `json:"events"`
	Exams      []record.Exam         `json:"exams"`
	Attendance academics.Stats       `json:"attendance"`
}

// Overview assembles the home view in one fetch.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	rec, err := s.repo.Record(ctx)
	if err != nil {
		return Overview{}, err
	}
	today := s.today()
	key := s.todayKey()
	return Overview{
		Date:       key,
		DayLabel:   timeutil.DayLabel(key, today),
		Tasks:      s.taskViews(rec, planner.TasksForToday(rec.Tasks, today)),
		Upcoming:   planner.UpcomingByDate(rec.Tasks, today, upcomingDays),
		Classes:    rec.Timetable.DayClasses(timeutil.WeekdayIndex(today)),
		Events:     rec.UpcomingEvents(key),
		Exams:      rec.UpcomingExams(key),
		Attendance: academics.OverallStats(rec.Academics.Subjects, rec.Attendance),
	}, nil
}

// RebuildStreaks recomputes every task's streak from progress. Used by the
// scheduled refresh.
func (s *Service) RebuildStreaks(ctx context.Context) error {
	_, err := s.repo.WithRecord(ctx, func(rec *record.UserRecord) error {
		rec.Streaks = planner.RebuildStreaks(rec.Tasks, rec.Progress, s.today())
		return nil
	})
	return err
}
