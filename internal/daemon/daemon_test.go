package daemon_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fetchd/internal/config"
	"fetchd/internal/daemon"
	"fetchd/internal/jobs"
	"fetchd/internal/logging"
	"fetchd/internal/rpc"
	"fetchd/internal/testsupport"
	"fetchd/internal/variant"
)

func startDaemon(t *testing.T, cfg *config.Config) (*daemon.Daemon, *jobs.Registry) {
	t.Helper()
	reg, dispatcher := testsupport.NewDispatcher(t, cfg)
	d, err := daemon.New(cfg, reg, dispatcher, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		_ = d.Close()
	})
	return d, reg
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutHTTP())
	d, _ := startDaemon(t, cfg)
	ctx := context.Background()

	status := d.Status(ctx)
	if !status.Running || status.SessionID == "" || status.LockFilePath != cfg.LockPath() {
		t.Fatalf("unexpected status %+v", status)
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	reg, dispatcher := testsupport.NewDispatcher(t, cfg)
	other, err := daemon.New(cfg, reg, dispatcher, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := other.Start(ctx); err == nil {
		other.Stop()
		t.Fatal("expected lock contention error")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
	if _, err := d.Call(ctx, &rpc.Request{Method: rpc.MethodGetVersion}); err == nil {
		t.Fatal("expected call on stopped daemon to fail")
	}
	if err := other.Start(ctx); err != nil {
		t.Fatalf("expected lock to be free after stop: %v", err)
	}
	other.Stop()
}

func TestDaemonCallDispatchesOnControlLoop(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutHTTP())
	d, reg := startDaemon(t, cfg)
	ctx := context.Background()

	resp, err := d.Call(ctx, &rpc.Request{Method: rpc.MethodAddURI, Params: []variant.Value{variant.TextList("http://localhost/a")}})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp.IsFault() {
		t.Fatalf("unexpected fault %s", resp.FaultString())
	}
	status := d.Status(ctx)
	if status.Stats.NumWaiting != 1 {
		t.Fatalf("expected one waiting task, got %+v", status.Stats)
	}
	if pending := len(reg.ListPending()); pending != 1 {
		t.Fatalf("expected registry to hold the task, got %d", pending)
	}
}

func postJSON(t *testing.T, h http.Handler, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHTTPJSONRPC(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := startDaemon(t, cfg)
	h := d.Handler()
	if h == nil {
		t.Fatal("expected HTTP handler")
	}

	w := postJSON(t, h, "/jsonrpc", `{"jsonrpc":"2.0","id":1,"method":"fetchd.addUri","params":[["http://localhost/file"]]}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected correlation id header")
	}
	var single struct {
		ID     int    `json:"id"`
		Result string `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &single); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if single.ID != 1 || single.Result != "1" {
		t.Fatalf("unexpected response %s", w.Body.String())
	}

	w = postJSON(t, h, "/jsonrpc", `[{"jsonrpc":"2.0","id":"a","method":"fetchd.tellStatus","params":["1"]},{"jsonrpc":"2.0","id":"b","method":"make.hamburger"}]`, nil)
	var batch []struct {
		ID     string          `json:"id"`
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &batch); err != nil {
		t.Fatalf("decode batch: %v: %s", err, w.Body.String())
	}
	if len(batch) != 2 || batch[0].Error != nil || batch[1].Error == nil {
		t.Fatalf("unexpected batch response %s", w.Body.String())
	}
	if batch[1].Error.Code != 1 || batch[1].Error.Message != "No such method: make.hamburger" {
		t.Fatalf("unexpected batch fault %+v", batch[1].Error)
	}

	w = postJSON(t, h, "/jsonrpc", `{not json`, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"error"`) {
		t.Fatalf("expected fault body for malformed request, got %d %s", w.Code, w.Body.String())
	}
}

func TestHTTPXMLRPC(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := startDaemon(t, cfg)
	h := d.Handler()

	torrent := base64.StdEncoding.EncodeToString(testsupport.TorrentBytes("aria2-0.8.2.tar.bz2", 384))
	body := `<?xml version="1.0"?><methodCall><methodName>fetchd.addTorrent</methodName><params>` +
		`<param><value><base64>` + torrent + `</base64></value></param></params></methodCall>`
	w := postJSON(t, h, "/rpc", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	want := `<?xml version="1.0"?><methodResponse><params><param><value><string>1</string></value></param></params></methodResponse>`
	if w.Body.String() != want {
		t.Fatalf("unexpected XML response %s", w.Body.String())
	}

	w = postJSON(t, h, "/rpc", `<methodCall><methodName>make.hamburger</methodName></methodCall>`, nil)
	if !strings.Contains(w.Body.String(), "<string>No such method: make.hamburger</string>") {
		t.Fatalf("unexpected fault XML %s", w.Body.String())
	}
}

func TestHTTPRequiresSecret(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSecret("s3cret"))
	d, _ := startDaemon(t, cfg)
	h := d.Handler()
	body := `{"jsonrpc":"2.0","id":1,"method":"fetchd.getVersion"}`

	if w := postJSON(t, h, "/jsonrpc", body, nil); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"message":"unauthorized"`) {
		t.Fatalf("expected unauthorized fault without secret, got %d %s", w.Code, w.Body.String())
	}
	health := httptest.NewRecorder()
	h.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w := health; w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for health without bearer, got %d", w.Code)
	}
	wrong := http.Header{"Authorization": []string{"Bearer nope"}}
	if w := postJSON(t, h, "/jsonrpc", body, wrong); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
	right := http.Header{"Authorization": []string{"Bearer s3cret"}}
	w := postJSON(t, h, "/jsonrpc", body, right)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), testsupport.Version) {
		t.Fatalf("expected version response, got %d %s", w.Code, w.Body.String())
	}
}

func TestHTTPTokenParam(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSecret("s3cret"))
	d, reg := startDaemon(t, cfg)
	h := d.Handler()

	w := postJSON(t, h, "/jsonrpc", `{"jsonrpc":"2.0","id":1,"method":"fetchd.addUri","params":["token:s3cret",["http://localhost/file"]]}`, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"result":"1"`) {
		t.Fatalf("expected addUri result, got %d %s", w.Code, w.Body.String())
	}

	w = postJSON(t, h, "/jsonrpc", `{"jsonrpc":"2.0","id":2,"method":"fetchd.addUri","params":["token:nope",["http://localhost/file"]]}`, nil)
	if !strings.Contains(w.Body.String(), `"message":"unauthorized"`) {
		t.Fatalf("expected unauthorized fault, got %s", w.Body.String())
	}
	if n := len(reg.ListPending()); n != 1 {
		t.Fatalf("rejected call queued a task: %d pending", n)
	}

	xml := `<methodCall><methodName>fetchd.getVersion</methodName><params>` +
		`<param><value><string>token:s3cret</string></value></param></params></methodCall>`
	w = postJSON(t, h, "/rpc", xml, nil)
	if !strings.Contains(w.Body.String(), testsupport.Version) {
		t.Fatalf("expected XML version response, got %s", w.Body.String())
	}
}

func TestHTTPXMLDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.RPC.EnableXML = false
	d, _ := startDaemon(t, cfg)
	w := postJSON(t, d.Handler(), "/rpc", `<methodCall><methodName>fetchd.getVersion</methodName></methodCall>`, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with XML disabled, got %d", w.Code)
	}
}
