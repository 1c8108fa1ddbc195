package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studydeck/studydeck/internal/domain/planner"
	"github.com/studydeck/studydeck/internal/domain/record"
)

// fakeStore is an in-memory docstore with switchable failure modes.
type fakeStore struct {
	doc        record.Document
	fetchErr   error
	replaceErr error
	fetches    int
	replaces   int
}

func (f *fakeStore) Fetch(ctx context.Context) (record.Document, error) {
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.doc == nil {
		return record.Document{}, nil
	}
	return f.doc, nil
}

func (f *fakeStore) Replace(ctx context.Context, doc record.Document) error {
	f.replaces++
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.doc = doc
	return nil
}

func TestRecordCreatesDefault(t *testing.T) {
	store := &fakeStore{}
	repo := New(store, "alice", nil)

	rec, err := repo.Record(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, rec.Tasks)
	assert.NotNil(t, rec.Progress)
	assert.NotNil(t, rec.Academics.Subjects)
}

func TestRecordNormalizesExisting(t *testing.T) {
	store := &fakeStore{doc: record.Document{
		"alice": {Tasks: []planner.Task{{ID: "t1", Name: "Read"}}},
	}}
	repo := New(store, "alice", nil)

	rec, err := repo.Record(context.Background())
	require.NoError(t, err)
	require.Len(t, rec.Tasks, 1)
	assert.NotNil(t, rec.Attendance)
	assert.NotNil(t, rec.Events)
}

func TestWithRecordPersistsMutation(t *testing.T) {
	store := &fakeStore{}
	repo := New(store, "alice", nil)

	rec, err := repo.WithRecord(context.Background(), func(rec *record.UserRecord) error {
		rec.Progress.MarkDone("t1", "2024-01-01")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, rec.Progress.IsDone("t1", "2024-01-01"))

	// The mutation landed in the stored document and the cache advanced.
	assert.True(t, store.doc["alice"].Progress.IsDone("t1", "2024-01-01"))
	assert.Equal(t, 1, store.replaces)
	cached, ok := repo.Cached()
	require.True(t, ok)
	assert.True(t, cached.Progress.IsDone("t1", "2024-01-01"))
}

func TestWithRecordMutatorErrorSkipsSave(t *testing.T) {
	store := &fakeStore{}
	repo := New(store, "alice", nil)

	boom := errors.New("boom")
	_, err := repo.WithRecord(context.Background(), func(rec *record.UserRecord) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.replaces)
}

func TestWithRecordFailedSaveKeepsCache(t *testing.T) {
	store := &fakeStore{doc: record.Document{"alice": record.Default()}}
	repo := New(store, "alice", nil)

	// Prime the cache with a clean fetch.
	_, err := repo.Record(context.Background())
	require.NoError(t, err)

	store.replaceErr = errors.New("write failed")
	_, err = repo.WithRecord(context.Background(), func(rec *record.UserRecord) error {
		rec.Progress.MarkDone("t1", "2024-01-01")
		return nil
	})
	require.Error(t, err)

	// Cache still reflects the last successful fetch, and the store's
	// own structure was not written through either.
	cached, ok := repo.Cached()
	require.True(t, ok)
	assert.False(t, cached.Progress.IsDone("t1", "2024-01-01"))
	assert.False(t, store.doc["alice"].Progress.IsDone("t1", "2024-01-01"))
}

func TestMutatorCannotReachCacheThroughSharedPointers(t *testing.T) {
	// An in-memory store returns the same *UserRecord on every fetch, so
	// without copying, a mutator would write into the cached document
	// before the save even ran.
	rec := record.Default()
	store := &fakeStore{doc: record.Document{"alice": rec}}
	repo := New(store, "alice", nil)

	_, err := repo.Record(context.Background())
	require.NoError(t, err)

	store.replaceErr = errors.New("write failed")
	_, err = repo.WithRecord(context.Background(), func(r *record.UserRecord) error {
		r.Progress.MarkDone("t1", "2024-01-01")
		r.Tasks = append(r.Tasks, planner.Task{ID: "t9", Name: "Sneak"})
		return nil
	})
	require.Error(t, err)

	cached, ok := repo.Cached()
	require.True(t, ok)
	assert.False(t, cached.Progress.IsDone("t1", "2024-01-01"))
	assert.Empty(t, cached.Tasks)
	assert.Empty(t, rec.Tasks)
}

func TestCachedBeforeFetch(t *testing.T) {
	repo := New(&fakeStore{}, "alice", nil)
	_, ok := repo.Cached()
	assert.False(t, ok)
}

func TestTypedSaveRoundTrip(t *testing.T) {
	store := &fakeStore{}
	repo := New(store, "alice", nil)
	ctx := context.Background()

	tasks := []planner.Task{{ID: "t1", Name: "Read", RecurrenceRule: planner.Daily()}}
	require.NoError(t, repo.SaveTasks(ctx, tasks))

	got, err := repo.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Read", got[0].Name)
}

func TestRepositoriesIsolateUsers(t *testing.T) {
	store := &fakeStore{}
	ctx := context.Background()

	alice := New(store, "alice", nil)
	bob := New(store, "bob", nil)

	require.NoError(t, alice.SaveTasks(ctx, []planner.Task{{ID: "t1", Name: "Read"}}))
	require.NoError(t, bob.SaveTasks(ctx, []planner.Task{{ID: "t2", Name: "Gym"}}))

	aliceTasks, err := alice.Tasks(ctx)
	require.NoError(t, err)
	bobTasks, err := bob.Tasks(ctx)
	require.NoError(t, err)

	require.Len(t, aliceTasks, 1)
	require.Len(t, bobTasks, 1)
	assert.Equal(t, "t1", aliceTasks[0].ID)
	assert.Equal(t, "t2", bobTasks[0].ID)
}

func TestFetchErrorPropagates(t *testing.T) {
	store := &fakeStore{fetchErr: errors.New("down")}
	repo := New(store, "alice", nil)

	_, err := repo.Record(context.Background())
	assert.Error(t, err)
	_, err = repo.WithRecord(context.Background(), func(rec *record.UserRecord) error { return nil })
	assert.Error(t, err)
}
