// Package logging assembles structured slog loggers and formatting helpers used
// across fetchd.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so RPC code can automatically
// tag log lines with task gids, method names, and correlation IDs. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
package logging
