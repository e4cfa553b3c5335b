package preflight

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fetchd/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSocket(t *testing.T) {
	dir := t.TempDir()

	t.Run("available", func(t *testing.T) {
		result := CheckSocket(filepath.Join(dir, "free.sock"))
		if !result.Passed || !strings.Contains(result.Detail, "available") {
			t.Fatalf("unexpected result %+v", result)
		}
	})

	t.Run("regular file", func(t *testing.T) {
		path := filepath.Join(dir, "file.sock")
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		if result := CheckSocket(path); result.Passed {
			t.Fatalf("expected failure for regular file, got %+v", result)
		}
	})

	t.Run("listening", func(t *testing.T) {
		path := filepath.Join(dir, "live.sock")
		listener, err := net.Listen("unix", path)
		if err != nil {
			t.Skipf("unix sockets unavailable: %v", err)
		}
		defer listener.Close()
		result := CheckSocket(path)
		if !result.Passed || !strings.Contains(result.Detail, "daemon listening") {
			t.Fatalf("unexpected result %+v", result)
		}
	})
}

func TestCheckListen(t *testing.T) {
	if result := CheckListen(""); !result.Passed {
		t.Fatalf("disabled endpoint should pass: %+v", result)
	}
	if result := CheckListen("127.0.0.1:0"); !result.Passed {
		t.Fatalf("ephemeral port should bind: %+v", result)
	}

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("tcp listen unavailable: %v", err)
	}
	defer busy.Close()
	if result := CheckListen(busy.Addr().String()); result.Passed {
		t.Fatalf("expected failure for bound port, got %+v", result)
	}
}

func TestCheckRedis(t *testing.T) {
	if result := CheckRedis(context.Background(), config.History{}); !result.Passed {
		t.Fatalf("disabled mirror should pass: %+v", result)
	}

	// Reserve a port then release it so nothing is listening.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("tcp listen unavailable: %v", err)
	}
	addr := listener.Addr().String()
	_ = listener.Close()

	if result := CheckRedis(context.Background(), config.History{RedisAddr: addr}); result.Passed {
		t.Fatalf("expected failure for unreachable redis, got %+v", result)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, Options{}); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = base
	cfg.Paths.LogDir = base
	cfg.Paths.SocketPath = filepath.Join(base, "fetchd.sock")
	cfg.Download.Dir = base
	cfg.RPC.Listen = "127.0.0.1:0"
	cfg.History.Enabled = false

	results := RunAll(context.Background(), &cfg, Options{Bind: true})
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d: %+v", len(results), results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}

	cfg.Download.Dir = filepath.Join(base, "missing")
	failed := Failed(RunAll(context.Background(), &cfg, Options{}))
	if len(failed) != 1 || failed[0].Name != "Download directory" {
		t.Fatalf("expected download directory failure, got %+v", failed)
	}
}
