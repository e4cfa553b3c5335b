package preflight

import (
	"context"

	"fetchd/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects the checks that only make sense before a daemon binds.
type Options struct {
	// Bind includes the HTTP listen check; skip it while a daemon is running.
	Bind bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.Download.Dir != "" {
		results = append(results, CheckDirectoryAccess("Download directory", cfg.Download.Dir))
	}
	results = append(results, CheckSocket(cfg.Paths.SocketPath))
	if opts.Bind {
		results = append(results, CheckListen(cfg.RPC.Listen))
	}
	if cfg.History.Enabled {
		results = append(results, CheckRedis(ctx, cfg.History))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
