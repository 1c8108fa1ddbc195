// Package repository mediates between the domain and the document store.
// A RecordRepository is constructed per user and serializes whole-document
// read-modify-write cycles for that user's record.
package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/studydeck/studydeck/internal/domain/academics"
	"github.com/studydeck/studydeck/internal/domain/planner"
	"github.com/studydeck/studydeck/internal/domain/record"
	"github.com/studydeck/studydeck/internal/infrastructure/docstore"
	"github.com/studydeck/studydeck/pkg/logger"
)

// RecordRepository reads and mutates one user's sub-record inside the
// shared document.
type RecordRepository struct {
	store  docstore.Store
	userID string
	logger *logger.Logger

	mu sync.Mutex
	// cached is the last document successfully fetched or saved. A failed
	// save never advances it.
	cached record.Document
}

// New creates a repository bound to one user id.
func New(store docstore.Store, userID string, log *logger.Logger) *RecordRepository {
	if log == nil {
		log = logger.Default()
	}
	return &RecordRepository{
		store:  store,
		userID: userID,
		logger: log.With(logger.Component("repository"), logger.UserID(userID)),
	}
}

// UserID returns the bound user id.
func (r *RecordRepository) UserID() string {
	return r.userID
}

// fetch loads the whole document and refreshes the cache. The store may
// hand back a structure it still owns (in-memory backends do), so the
// cache always holds its own deep copy. Callers hold mu.
func (r *RecordRepository) fetch(ctx context.Context) (record.Document, error) {
	doc, err := r.store.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	doc = doc.Clone()
	r.cached = doc
	return doc, nil
}

// Record returns the user's record, fetching the document and creating
// the default sub-record when absent.
func (r *RecordRepository) Record(ctx context.Context) (*record.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Ensure(r.userID), nil
}

// Cached returns the user's record from the last fetched document without
// touching the store, or false when nothing has been fetched yet.
func (r *RecordRepository) Cached() (*record.UserRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached == nil {
		return nil, false
	}
	rec, ok := r.cached[r.userID]
	return rec, ok
}

// WithRecord runs a fetch-ensure-mutate-replace cycle and returns the
// mutated record. The cache advances only after the replace succeeds, so
// a failed save leaves the last fetched state intact.
func (r *RecordRepository) WithRecord(ctx context.Context, mutate func(*record.UserRecord) error) (*record.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.store.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	// Mutate a private copy so a failed replace leaves both the cache
	// and the store's own structure untouched.
	doc = doc.Clone()
	rec := doc.Ensure(r.userID)
	if err := mutate(rec); err != nil {
		return nil, err
	}
	if err := r.store.Replace(ctx, doc); err != nil {
		return nil, fmt.Errorf("replace document: %w", err)
	}
	r.cached = doc
	return rec, nil
}

// ─── Typed reads ───

func (r *RecordRepository) Tasks(ctx context.Context) ([]planner.Task, error) {
	rec, err := r.Record(ctx)
	if err != nil {
		return nil, err
	}
	return rec.Tasks, nil
}

func (r *RecordRepository) Progress(ctx context.Context) (planner.Progress, error) {
	rec, err := r.Record(ctx)
	if err != nil {
		return nil, err
	}
	return rec.Progress, nil
}

func (r *RecordRepository) Streaks(ctx context.Context) ([]planner.Streak, error) {
	rec, err := r.Record(ctx)
	if err != nil {
		return nil, err
	}
	return rec.Streaks, nil
}

func (r *RecordRepository) Timetable(ctx context.Context) (record.Timetable, error) {
	rec, err := r.Record(ctx)
	if err != nil {
		return nil, err
	}
	return rec.Timetable, nil
}

func (r *RecordRepository) Events(ctx context.Context) ([]record.Event, error) {
	rec, err := r.Record(ctx)
	if err != nil {
		return nil, err
	}
	return rec.Events, nil
}

func (r *RecordRepository) Exams(ctx context.Context) ([]record.Exam, error) {
	rec, err := r.Record(ctx)
	if err != nil {
		return nil, err
	}
	return rec.Exams, nil
}

func (r *RecordRepository) Academics(ctx context.Context) (academics.Academics, error) {
	rec, err := r.Record(ctx)
	if err != nil {
		return academics.Academics{}, err
	}
	return rec.Academics, nil
}

func (r *RecordRepository) Attendance(ctx context.Context) (academics.AttendanceLog, error) {
	rec, err := r.Record(ctx)
	if err != nil {
		return nil, err
	}
	return rec.Attendance, nil
}

// ─── Typed saves. Each routes through WithRecord so the whole document
// is persisted atomically. ───

func (r *RecordRepository) SaveTasks(ctx context.Context, tasks []planner.Task) error {
	_, err := r.WithRecord(ctx, func(rec *record.UserRecord) error {
		rec.Tasks = tasks
		return nil
	})
	return err
}

func (r *RecordRepository) SaveProgress(ctx context.Context, progress planner.Progress) error {
	_, err := r.WithRecord(ctx, func(rec *record.UserRecord) error {
		rec.Progress = progress
		return nil
	})
	return err
}

func (r *RecordRepository) SaveStreaks(ctx context.Context, streaks []planner.Streak) error {
	_, err := r.WithRecord(ctx, func(rec *record.UserRecord) error {
		rec.Streaks = streaks
		return nil
	})
	return err
}

func (r *RecordRepository) SaveTimetable(ctx context.Context, tt record.Timetable) error {
	_, err := r.WithRecord(ctx, func(rec *record.UserRecord) error {
		rec.Timetable = tt
		return nil
	})
	return err
}

func (r *RecordRepository) SaveEvents(ctx context.Context, events []record.Event) error {
	_, err := r.WithRecord(ctx, func(rec *record.UserRecord) error {
		rec.Events = events
		return nil
	})
	return err
}

func (r *RecordRepository) SaveExams(ctx context.Context, exams []record.Exam) error {
	_, err := r.WithRecord(ctx, func(rec *record.UserRecord) error {
		rec.Exams = exams
		return nil
	})
	return err
}

func (r *RecordRepository) SaveAcademics(ctx context.Context, a academics.Academics) error {
	_, err := r.WithRecord(ctx, func(rec *record.UserRecord) error {
		rec.Academics = a
		return nil
	})
	return err
}

func (r *RecordRepository) SaveAttendance(ctx context.Context, log academics.AttendanceLog) error {
	_, err := r.WithRecord(ctx, func(rec *record.UserRecord) error {
		rec.Attendance = log
		return nil
	})
	return err
}
