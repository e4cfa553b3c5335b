package ipc_test

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"fetchd/internal/config"
	"fetchd/internal/daemon"
	"fetchd/internal/ipc"
	"fetchd/internal/logging"
	"fetchd/internal/rpc"
	"fetchd/internal/testsupport"
)

func startServer(t *testing.T, shutdown func()) (*config.Config, *ipc.Client) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithoutHTTP())
	reg, dispatcher := testsupport.NewDispatcher(t, cfg)
	logger := logging.NewNop()
	d, err := daemon.New(cfg, reg, dispatcher, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	srv, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger, shutdown)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	client, err := ipc.Dial(cfg.Paths.SocketPath)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return cfg, client
}

func TestIPCCall(t *testing.T) {
	_, client := startServer(t, nil)

	resp, err := client.Call(rpc.MethodAddURI, []string{"http://example.com/a.iso"})
	if err != nil {
		t.Fatalf("Call addUri: %v", err)
	}
	if resp.Fault || string(resp.Result) != `"1"` {
		t.Fatalf("unexpected addUri response %+v (%s)", resp, resp.Result)
	}

	resp, err = client.Call(rpc.MethodTellStatus, "1")
	if err != nil {
		t.Fatalf("Call tellStatus: %v", err)
	}
	var status map[string]any
	if err := json.Unmarshal(resp.Result, &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status["gid"] != "1" || status["status"] != "waiting" {
		t.Fatalf("unexpected status %v", status)
	}

	resp, err = client.Call(rpc.MethodTellStatus, "99")
	if err != nil {
		t.Fatalf("Call tellStatus: %v", err)
	}
	if !resp.Fault || resp.FaultString == "" {
		t.Fatalf("expected fault for unknown gid, got %+v", resp)
	}

	resp, err = client.CallRaw(rpc.MethodGetVersion, nil)
	if err != nil || resp.Fault {
		t.Fatalf("getVersion: %+v %v", resp, err)
	}
	if !strings.Contains(string(resp.Result), testsupport.Version) {
		t.Fatalf("version missing from %s", resp.Result)
	}
}

func TestIPCCallRejectsBadParams(t *testing.T) {
	_, client := startServer(t, nil)

	tests := []struct {
		name   string
		params string
	}{
		{name: "malformed", params: `[`},
		{name: "object", params: `{"uris":["http://example.com"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := client.CallRaw(rpc.MethodAddURI, json.RawMessage(tt.params)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestIPCStatus(t *testing.T) {
	cfg, client := startServer(t, nil)
	if _, err := client.Call(rpc.MethodAddURI, []string{"http://example.com/a.iso"}); err != nil {
		t.Fatalf("addUri: %v", err)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.NumWaiting != 1 || status.PID != os.Getpid() {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.DatabasePath != cfg.DatabasePath() || status.LogPath != cfg.LogPath() {
		t.Fatalf("unexpected paths %+v", status)
	}
}

func TestIPCLogTail(t *testing.T) {
	cfg, client := startServer(t, nil)
	content := "" +
		"2026-01-01 10:00:00 INFO [rpc] GID #2 (fetchd.addUri) - task queued\n" +
		"2026-01-01 10:00:01 INFO [rpc] GID #3 (fetchd.addUri) - task queued\n" +
		"2026-01-01 10:00:02 INFO [rpc] GID #2 (fetchd.remove) - task removed\n"
	testsupport.WriteFile(t, cfg.LogPath(), []byte(content))

	resp, err := client.LogTail(ipc.LogTailRequest{Offset: -1, Limit: 10, GID: 2})
	if err != nil {
		t.Fatalf("LogTail: %v", err)
	}
	if len(resp.Lines) != 2 || !strings.Contains(resp.Lines[1], "task removed") {
		t.Fatalf("unexpected lines %#v", resp.Lines)
	}
	if resp.Offset != int64(len(content)) {
		t.Fatalf("offset = %d, want %d", resp.Offset, len(content))
	}

	resp, err = client.LogTail(ipc.LogTailRequest{Offset: resp.Offset, Follow: true, WaitMillis: 100})
	if err != nil {
		t.Fatalf("LogTail follow: %v", err)
	}
	if len(resp.Lines) != 0 {
		t.Fatalf("expected no new lines, got %#v", resp.Lines)
	}
}

func TestIPCShutdown(t *testing.T) {
	called := make(chan struct{})
	_, client := startServer(t, func() { close(called) })

	resp, err := client.Shutdown()
	if err != nil || !resp.Accepted {
		t.Fatalf("Shutdown: %+v %v", resp, err)
	}
	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown callback not invoked")
	}
}

func TestIPCShutdownUnsupported(t *testing.T) {
	_, client := startServer(t, nil)
	if _, err := client.Shutdown(); err == nil {
		t.Fatal("expected error without shutdown hook")
	}
}
