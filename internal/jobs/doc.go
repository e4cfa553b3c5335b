// Package jobs owns download task state.
//
// The Registry keeps three disjoint collections: pending (ordered and
// externally reorderable), active (engine managed) and finished (immutable
// FinishedRecord snapshots). It also owns the process-wide transfer caps and
// global option overlay.
//
// Registry is not safe for concurrent use. Callers funnel every access
// through a single goroutine (see daemon.Control).
package jobs
