package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fetchd/internal/config"
	"fetchd/internal/daemon"
	"fetchd/internal/ipc"
	"fetchd/internal/logging"
	"fetchd/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	socketPath string
	configPath string
	baseDir    string
	shutdown   chan struct{}
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithoutHTTP(), testsupport.WithoutHistory())
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	configPath := filepath.Join(base, "fetchd.toml")
	writeTestConfig(t, configPath, cfg)

	reg, dispatcher := testsupport.NewDispatcher(t, cfg)
	logger := logging.NewNop()
	d, err := daemon.New(cfg, reg, dispatcher, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon start: %v", err)
	}

	shutdown := make(chan struct{}, 1)
	srv, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger, func() { shutdown <- struct{}{} })
	if err != nil {
		cancel()
		_ = d.Close()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	t.Cleanup(func() {
		cancel()
		srv.Close()
		_ = d.Close()
	})

	return &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		socketPath: cfg.Paths.SocketPath,
		configPath: configPath,
		baseDir:    base,
		shutdown:   shutdown,
	}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runCLI(t, args, e.socketPath, e.configPath)
	return out, err
}

func (e *cliTestEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("fetchd %s: %v\noutput: %s", strings.Join(args, " "), err, out)
	}
	return out
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
state_dir = %q
log_dir = %q
socket_path = %q

[rpc]
listen = ""

[download]
dir = %q

[history]
enabled = false
`,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Paths.SocketPath,
		cfg.Download.Dir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
