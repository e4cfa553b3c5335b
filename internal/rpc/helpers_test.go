package rpc_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"

	"fetchd/internal/buildinfo"
	"fetchd/internal/fileset"
	"fetchd/internal/jobs"
	"fetchd/internal/logging"
	"fetchd/internal/options"
	"fetchd/internal/rpc"
	"fetchd/internal/variant"
)

const testVersion = "1.0.0-test"

func newTestDispatcher(t *testing.T) (*rpc.Dispatcher, *rpc.Env) {
	t.Helper()
	env := &rpc.Env{
		Registry: jobs.NewRegistry(),
		Files:    fileset.NewResolver("/tmp"),
		Features: buildinfo.New(buildinfo.FeatureBitTorrent, buildinfo.FeatureMetalink),
		Version:  testVersion,
		Options:  options.NewValidator(),
		Logger:   logging.NewNop(),
	}
	return rpc.NewDispatcher(rpc.StandardMethods(), env), env
}

func call(d *rpc.Dispatcher, method string, params ...variant.Value) rpc.Response {
	return d.Dispatch(context.Background(), &rpc.Request{Method: method, Params: params})
}

func mustSucceed(t *testing.T, resp rpc.Response) variant.Value {
	t.Helper()
	if resp.IsFault() {
		t.Fatalf("unexpected fault: %s", resp.FaultString())
	}
	return resp.Value
}

func mustFault(t *testing.T, resp rpc.Response) string {
	t.Helper()
	if resp.Code != rpc.FaultCode {
		t.Fatalf("expected fault, got code %d value %s", resp.Code, resp.Value)
	}
	code, _ := resp.Value.Get("faultCode")
	if n, err := code.AsInt(); err != nil || n != 1 {
		t.Fatalf("unexpected faultCode %s", code)
	}
	return resp.FaultString()
}

func text(t *testing.T, v variant.Value) string {
	t.Helper()
	s, err := v.AsText()
	if err != nil {
		t.Fatalf("expected text, got %s: %v", v, err)
	}
	return s
}

func member(t *testing.T, v variant.Value, key string) variant.Value {
	t.Helper()
	m, ok := v.Get(key)
	if !ok {
		t.Fatalf("missing member %q in %s", key, v)
	}
	return m
}

func opts(pairs ...string) variant.Value {
	out := variant.Map()
	for i := 0; i+1 < len(pairs); i += 2 {
		out.MustSet(pairs[i], variant.Text(pairs[i+1]))
	}
	return out
}

func pendingIDs(env *rpc.Env) []string {
	var ids []string
	for _, task := range env.Registry.ListPending() {
		ids = append(ids, task.ID.String())
	}
	return ids
}

func bstr(s string) string {
	return fmt.Sprintf("%d:%s", len(s), s)
}

func torrentBase64(name string) string {
	info := "d" + bstr("length") + "i384e" + bstr("name") + bstr(name) +
		bstr("piece length") + "i128e" + bstr("pieces") + bstr("aaaaaaaaaaaaaaaaaaaa") + "e"
	return base64.StdEncoding.EncodeToString([]byte("d" + bstr("info") + info + "e"))
}

const twoFilesMetalink = `<?xml version="1.0" encoding="UTF-8"?>
<metalink version="3.0" xmlns="http://www.metalinker.org/">
  <files>
    <file name="aria2-5.0.0.tar.bz2">
      <resources><url type="http">http://localhost/aria2-5.0.0.tar.bz2</url></resources>
    </file>
    <file name="aria2-5.0.0.deb">
      <resources><url type="http">http://localhost/aria2-5.0.0.deb</url></resources>
    </file>
  </files>
</metalink>`

func metalinkBase64() string {
	return base64.StdEncoding.EncodeToString([]byte(twoFilesMetalink))
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
