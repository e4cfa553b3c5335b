package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fetchd/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fetchd.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")
	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "b" || result.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset != 6 {
		t.Fatalf("expected offset at end of file, got %d", result.Offset)
	}
}

func TestTailMissingFile(t *testing.T) {
	result, err := logs.Tail(context.Background(), filepath.Join(t.TempDir(), "absent.log"), logs.TailOptions{Offset: -1, Limit: 5})
	if err != nil || len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("expected empty result, got %#v %v", result, err)
	}
}

func TestTailFromOffset(t *testing.T) {
	path := writeLog(t, "one\ntwo\nthree\n")
	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: 4})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "two" {
		t.Fatalf("unexpected lines %#v", result.Lines)
	}
	result, err = logs.Tail(context.Background(), path, logs.TailOptions{Offset: 1000})
	if err != nil || len(result.Lines) != 0 || result.Offset != 14 {
		t.Fatalf("expected clamp to end, got %#v %v", result, err)
	}
}

func TestTailMatchGID(t *testing.T) {
	path := writeLog(t, ""+
		"2026-01-01 10:00:00 INFO [rpc] GID #3 (fetchd.addUri) - task queued\n"+
		"2026-01-01 10:00:01 INFO [rpc] GID #31 (fetchd.addUri) - task queued\n"+
		`{"msg":"task removed","gid":3,"component":"rpc"}`+"\n"+
		`{"msg":"task removed","gid":30,"component":"rpc"}`+"\n"+
		"2026-01-01 10:00:02 INFO [daemon] - fetchd daemon started\n")
	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 10, Match: logs.MatchGID(3)})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("expected two lines for gid 3, got %#v", result.Lines)
	}

	result, _ = logs.Tail(context.Background(), path, logs.TailOptions{Offset: 0, Match: logs.MatchText("daemon started")})
	if len(result.Lines) != 1 {
		t.Fatalf("expected one matching line, got %#v", result.Lines)
	}
}

func TestTailFollowWaits(t *testing.T) {
	path := writeLog(t, "start\n")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}
	if len(result.Lines) != 1 {
		t.Fatalf("expected initial line, got %#v", result.Lines)
	}

	done := make(chan struct{})
	go func(offset int64) {
		defer close(done)
		res, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
		if err != nil {
			t.Errorf("follow tail error: %v", err)
		}
		if len(res.Lines) != 1 || res.Lines[0] != "later" {
			t.Errorf("unexpected follow lines: %#v", res.Lines)
		}
	}(result.Offset)

	time.Sleep(200 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("tail follow did not return")
	}
}
