package history

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"fetchd/internal/config"
	"fetchd/internal/jobs"
	"fetchd/internal/logging"
)

type memoryArchive struct {
	mu    sync.Mutex
	saved []jobs.GID
	fail  bool
}

func (m *memoryArchive) Save(_ context.Context, rec jobs.FinishedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("disk full")
	}
	m.saved = append(m.saved, rec.ID)
	return nil
}

func (m *memoryArchive) ids() []jobs.GID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]jobs.GID(nil), m.saved...)
}

type memoryMirror struct {
	mu        sync.Mutex
	published []jobs.GID
	closed    bool
}

func (m *memoryMirror) Publish(_ context.Context, rec jobs.FinishedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, rec.ID)
	return nil
}

func (m *memoryMirror) Close() error {
	m.closed = true
	return nil
}

func TestWriterArchivesAndMirrorsInOrder(t *testing.T) {
	archive := &memoryArchive{}
	mirror := &memoryMirror{}
	w := NewWriter(archive, mirror, logging.NewNop(), 0)
	for i := 1; i <= 5; i++ {
		w.Record(jobs.FinishedRecord{ID: jobs.GID(i), Result: jobs.ResultComplete})
	}
	w.Close()

	saved := archive.ids()
	if len(saved) != 5 || saved[0] != 1 || saved[4] != 5 {
		t.Fatalf("unexpected archived ids %v", saved)
	}
	if len(mirror.published) != 5 {
		t.Fatalf("unexpected mirrored ids %v", mirror.published)
	}

	w.Record(jobs.FinishedRecord{ID: 6})
	w.Close()
	if len(archive.ids()) != 5 {
		t.Fatal("record accepted after close")
	}
}

func TestWriterKeepsMirroringWhenArchiveFails(t *testing.T) {
	archive := &memoryArchive{fail: true}
	mirror := &memoryMirror{}
	w := NewWriter(archive, mirror, nil, 4)
	w.Record(jobs.FinishedRecord{ID: 1})
	w.Close()
	if len(mirror.published) != 1 {
		t.Fatalf("expected mirror publish despite archive failure, got %v", mirror.published)
	}
}

type blockingArchive struct {
	release chan struct{}
}

func (b *blockingArchive) Save(context.Context, jobs.FinishedRecord) error {
	<-b.release
	return nil
}

func TestWriterDropsWhenFull(t *testing.T) {
	archive := &blockingArchive{release: make(chan struct{})}
	var logs bytes.Buffer
	w := NewWriter(archive, nil, slog.New(slog.NewJSONHandler(&logs, nil)), 1)

	deadline := time.Now().Add(2 * time.Second)
	for w.Dropped() == 0 && time.Now().Before(deadline) {
		w.Record(jobs.FinishedRecord{ID: 1})
	}
	if w.Dropped() == 0 {
		t.Fatal("expected records to be dropped while the archive is blocked")
	}
	close(archive.release)
	w.Close()
	if !strings.Contains(logs.String(), `"alert":"history_backpressure"`) {
		t.Fatalf("drop warning missing alert field: %s", logs.String())
	}
}

func TestMirrorFields(t *testing.T) {
	rec := sampleRecord(7, time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC))
	fields, err := MirrorFields(rec)
	if err != nil {
		t.Fatalf("MirrorFields: %v", err)
	}
	expect := map[string]string{
		"gid":          "7",
		"status":       "complete",
		"total_length": "384",
		"dir":          "/sink",
		"followed_by":  `["17","18"]`,
		"belongs_to":   "2",
		"finished_at":  "2026-02-03T04:05:06Z",
	}
	for key, want := range expect {
		if got, _ := fields[key].(string); got != want {
			t.Fatalf("field %s = %q, want %q", key, got, want)
		}
	}

	bare, _ := MirrorFields(jobs.FinishedRecord{ID: 1, Result: jobs.ResultRemoved})
	for _, key := range []string{"dir", "files", "followed_by", "belongs_to"} {
		if _, ok := bare[key]; ok {
			t.Fatalf("expected %s omitted for empty record", key)
		}
	}
	if MirrorKey(42) != "fetchd:finished:42" {
		t.Fatalf("unexpected key %s", MirrorKey(42))
	}
}

func TestNewRedisMirrorDisabledWithoutAddress(t *testing.T) {
	mirror, err := NewRedisMirror(context.Background(), config.History{})
	if err != nil || mirror != nil {
		t.Fatalf("expected disabled mirror, got %v %v", mirror, err)
	}
	if err := mirror.Close(); err != nil {
		t.Fatalf("Close on nil mirror: %v", err)
	}
}

func TestPruner(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	_ = store.Save(ctx, sampleRecord(1, now.Add(-40*24*time.Hour)))
	_ = store.Save(ctx, sampleRecord(2, now.Add(-2*24*time.Hour)))

	p, err := NewPruner(store, "@daily", 30, logging.NewNop())
	if err != nil {
		t.Fatalf("NewPruner: %v", err)
	}
	p.now = func() time.Time { return now }
	removed, err := p.PruneNow(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("expected one pruned row, got %d %v", removed, err)
	}
	p.Start()
	p.Stop()

	if disabled, err := NewPruner(store, "@daily", 0, nil); err != nil || disabled != nil {
		t.Fatalf("expected disabled pruner, got %v %v", disabled, err)
	}
	if _, err := NewPruner(store, "not a schedule", 30, nil); err == nil {
		t.Fatal("expected invalid schedule error")
	}
}
