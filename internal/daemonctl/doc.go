// Package daemonctl starts, stops and restarts a background fetchd daemon on
// behalf of the CLI.
//
// Liveness is judged by the CLI socket: a daemon is running when the socket
// accepts connections and answers Status. Stopping asks politely over the
// socket first and falls back to killing the pid recorded in the state
// directory.
package daemonctl
