// Package daemonrun assembles and runs the fetchd daemon process.
//
// Build wires the registry, the finished-record archive and its Redis
// mirror, the pruning schedule, the dispatcher and the daemon itself. Run
// adds per-run log files, preflight reporting, the CLI socket and signal
// handling around it.
package daemonrun
