package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fetchd/internal/fileset"
	"fetchd/internal/jobs"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRecord(id jobs.GID, finishedAt time.Time) jobs.FinishedRecord {
	return jobs.FinishedRecord{
		ID:              id,
		Result:          jobs.ResultComplete,
		TotalLength:     384,
		CompletedLength: 384,
		Dir:             "/sink",
		Files:           []string{"/sink/aria2-0.8.2.tar.bz2"},
		URIs:            []string{"http://localhost/aria2-0.8.2.tar.bz2"},
		FollowedBy:      []jobs.GID{id + 10, id + 11},
		BelongsTo:       2,
		FinishedAt:      finishedAt,
	}
}

func TestSaveAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	finished := time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC)

	if err := store.Save(ctx, sampleRecord(5, finished)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Get(ctx, 5)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected record")
	}
	if got.Result != jobs.ResultComplete || got.Dir != "/sink" || got.BelongsTo != 2 {
		t.Fatalf("unexpected record %#v", got)
	}
	if len(got.FollowedBy) != 2 || got.FollowedBy[0] != 15 || got.FollowedBy[1] != 16 {
		t.Fatalf("unexpected followedBy %v", got.FollowedBy)
	}
	if len(got.Files) != 1 || got.Files[0] != "/sink/aria2-0.8.2.tar.bz2" {
		t.Fatalf("unexpected files %v", got.Files)
	}
	if !got.FinishedAt.Equal(finished) {
		t.Fatalf("unexpected finishedAt %s", got.FinishedAt)
	}

	missing, err := store.Get(ctx, 99)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing record, got %#v %v", missing, err)
	}
	if err := store.Save(ctx, jobs.FinishedRecord{}); err == nil {
		t.Fatal("expected error for record without gid")
	}
}

func TestSaveReplacesExisting(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	rec := sampleRecord(3, time.Now())
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	rec.Result = jobs.ResultRemoved
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	n, err := store.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected one row, got %d %v", n, err)
	}
	got, _ := store.Get(ctx, 3)
	if got.Result != jobs.ResultRemoved {
		t.Fatalf("expected replaced result, got %s", got.Result)
	}
}

func TestRecentReturnsNewestOldestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		if err := store.Save(ctx, sampleRecord(jobs.GID(i), base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	recent, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 3 || recent[0].ID != 3 || recent[2].ID != 5 {
		t.Fatalf("unexpected recent ids %v", recordIDs(recent))
	}
	all, err := store.Recent(ctx, 0)
	if err != nil || len(all) != 5 {
		t.Fatalf("expected all records, got %d %v", len(all), err)
	}
}

func TestPruneBefore(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	_ = store.Save(ctx, sampleRecord(1, now.Add(-48*time.Hour)))
	_ = store.Save(ctx, sampleRecord(2, now.Add(-time.Hour)))

	removed, err := store.PruneBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneBefore: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one pruned row, got %d", removed)
	}
	if got, _ := store.Get(ctx, 1); got != nil {
		t.Fatal("old record survived prune")
	}
	if got, _ := store.Get(ctx, 2); got == nil {
		t.Fatal("recent record was pruned")
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = store.Close()

	if _, err := OpenPath(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestRestoreFillsRegistry(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := 1; i <= 3; i++ {
		_ = store.Save(ctx, sampleRecord(jobs.GID(i), base.Add(time.Duration(i)*time.Second)))
	}
	reg := jobs.NewRegistry()
	n, err := Restore(ctx, store, reg, 2)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 restored, got %d", n)
	}
	stopped := reg.ListFinished()
	if len(stopped) != 2 || stopped[0].ID != 2 || stopped[1].ID != 3 {
		t.Fatalf("unexpected restored ids %v", recordIDs(stopped))
	}
	if id := reg.AddPending(jobs.NewTask(fileset.Set{}, nil)); id != 4 {
		t.Fatalf("expected id counter past restored records, got %d", id)
	}
}

func recordIDs(records []jobs.FinishedRecord) []jobs.GID {
	ids := make([]jobs.GID, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	return ids
}
