// Package history archives finished download records.
//
// Store persists records to SQLite so the stopped list survives restarts.
// RedisMirror optionally publishes the same records as Redis hashes with a
// TTL for external dashboards. Writer moves both off the control goroutine,
// and Pruner trims old rows on a cron schedule.
package history
