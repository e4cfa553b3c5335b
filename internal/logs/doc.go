// Package logs tails the daemon log file for the CLI.
//
// Negative offsets return the last N lines; non-negative offsets read forward
// from a byte position, optionally waiting for new lines in follow mode. A
// Match function narrows output to one task or one request, for example
// `fetchd logs --gid 3`.
package logs
