// Package services defines the shared error taxonomy and context helpers used
// by the control plane and its adapters.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper so every failure raised
//     while executing a remote call can be classified with errors.Is and
//     rendered with enough context (key, id, method) to diagnose it.
//   - Context helpers that stamp task GIDs, method names, and correlation
//     identifiers for logging.
//
// Use these helpers in new handlers so faults stay uniform across the call
// surface.
package services
