package testsupport

import (
	"testing"

	"fetchd/internal/buildinfo"
	"fetchd/internal/config"
	"fetchd/internal/fileset"
	"fetchd/internal/history"
	"fetchd/internal/jobs"
	"fetchd/internal/logging"
	"fetchd/internal/options"
	"fetchd/internal/rpc"
)

// Version is reported by dispatchers built here.
const Version = "0.0.0-test"

// MustOpenStore opens a history.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewDispatcher builds a registry and a dispatcher over it using cfg's
// download defaults.
func NewDispatcher(t testing.TB, cfg *config.Config) (*jobs.Registry, *rpc.Dispatcher) {
	t.Helper()

	validator := options.NewValidator()
	defaults, err := validator.Validate(options.Task, cfg.TaskDefaults())
	if err != nil {
		t.Fatalf("validate task defaults: %v", err)
	}
	reg := jobs.NewRegistry()
	env := &rpc.Env{
		Registry: reg,
		Files:    fileset.NewResolver(cfg.Download.Dir),
		Features: buildinfo.Default(),
		Version:  Version,
		Options:  validator,
		Defaults: defaults,
		Logger:   logging.NewNop(),
	}
	return reg, rpc.NewDispatcher(rpc.StandardMethods(), env)
}

// AddURI queues a pending task for uri directly on reg.
func AddURI(t testing.TB, reg *jobs.Registry, dir, uri string) jobs.GID {
	t.Helper()

	files, err := fileset.NewResolver(dir).FromURIs([]string{uri}, nil)
	if err != nil {
		t.Fatalf("FromURIs(%q): %v", uri, err)
	}
	return reg.AddPending(jobs.NewTask(files, nil))
}
