// Package daemon coordinates the long-running fetchd process.
//
// The job registry is not safe for concurrent use, so the daemon owns it on a
// single control goroutine: the IPC server and the HTTP endpoint submit calls
// through Control.Do and wait for them, which makes every dispatch (a whole
// multicall included) atomic with respect to every other. The daemon also
// holds the flock that keeps a second instance from starting against the same
// state directory.
package daemon
