// Package preflight validates the environment before the daemon starts and
// backs `fetchd doctor`.
//
// Checks never fail hard: each returns a Result and callers decide whether a
// failed check is fatal. Directory checks use access(2) so permission
// problems surface with the daemon's own credentials.
package preflight
