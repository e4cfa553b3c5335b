package daemonctl

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestLaunchOptionsArgs(t *testing.T) {
	tests := []struct {
		name string
		opts LaunchOptions
		want []string
	}{
		{name: "bare", want: []string{"daemon"}},
		{
			name: "all",
			opts: LaunchOptions{SocketPath: "/tmp/f.sock", ConfigPath: " /etc/fetchd.toml ", LogLevel: "debug"},
			want: []string{"daemon", "--socket", "/tmp/f.sock", "--config", "/etc/fetchd.toml", "--log-level", "debug"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.opts.Args(); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Args() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLaunchRejectsEmptyExecutable(t *testing.T) {
	if err := Launch("  ", LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable")
	}
}

func TestProcessInfoMissingSocket(t *testing.T) {
	alive, pid, err := ProcessInfo(filepath.Join(t.TempDir(), "missing.sock"))
	if err != nil {
		t.Fatalf("ProcessInfo: %v", err)
	}
	if alive || pid != 0 {
		t.Fatalf("expected dead daemon, got alive=%v pid=%d", alive, pid)
	}
}

func TestStopAndTerminateNotRunning(t *testing.T) {
	_, err := StopAndTerminate(filepath.Join(t.TempDir(), "missing.sock"), nil, time.Second)
	if !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestWaitForShutdownMissingSocket(t *testing.T) {
	if err := WaitForShutdown(filepath.Join(t.TempDir(), "missing.sock"), time.Second); err != nil {
		t.Fatalf("WaitForShutdown: %v", err)
	}
}

func TestWaitForClientTimesOut(t *testing.T) {
	_, err := WaitForClient(filepath.Join(t.TempDir(), "missing.sock"), 300*time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "daemon failed to start") {
		t.Fatalf("expected start failure, got %v", err)
	}
}

func TestForceKillProcessRefusesCurrentProcess(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "fetchd.pid")
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	_, err := ForceKillProcess(pidPath, filepath.Join(dir, "fetchd.lock"), 0)
	if err == nil || !strings.Contains(err.Error(), "refusing") {
		t.Fatalf("expected refusal, got %v", err)
	}
	if _, statErr := os.Stat(pidPath); statErr != nil {
		t.Fatalf("pid file should be kept: %v", statErr)
	}
}

func TestForceKillProcessWithoutPID(t *testing.T) {
	dir := t.TempDir()
	_, err := ForceKillProcess(filepath.Join(dir, "fetchd.pid"), "", 0)
	if err == nil || !strings.Contains(err.Error(), "unable to determine daemon pid") {
		t.Fatalf("expected pid error, got %v", err)
	}
}
