// Command fetchd runs the download-manager daemon and talks to it over the
// local socket.
//
// `fetchd daemon` runs the daemon in the foreground, and `fetchd daemon start`
// launches it in the background. Every other command
// dials the socket and issues calls through the same dispatcher that serves
// the HTTP JSON-RPC and XML-RPC endpoint, so `fetchd call` accepts any method
// name the endpoint does. Pass --json for machine-readable output.
package main
