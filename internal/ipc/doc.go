// Package ipc exposes the daemon to the local CLI over a Unix domain socket.
//
// The socket speaks net/rpc with the JSON codec under the service name
// "Fetchd". Call forwards a method call through the daemon's control loop
// using JSON-encoded parameters, so the CLI shares the dispatcher with the
// HTTP endpoint. Status and LogTail serve `fetchd daemon status` and
// `fetchd logs`.
package ipc
