// Package rpc decodes remote calls into operations on the job registry.
//
// A call is a method name plus an ordered list of variant.Value parameters.
// Methods resolves the name to a Method, the Dispatcher runs it and turns any
// failure into a fault Response, and system.multicall drives the dispatcher
// once per descriptor with per-slot fault isolation. XML-RPC and JSON-RPC
// codecs translate Requests and Responses to and from the wire.
//
// Nothing here is safe for concurrent use: Dispatch mutates the registry and
// must be called from the daemon's control goroutine.
package rpc
