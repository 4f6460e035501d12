// Package audit defines the audit event model and the sink implementations
// shared by the root package.
//
// # Architecture boundaries
//
// This package owns the Event shape and how sinks consume it. When events are
// emitted, and with what metadata, is decided by the session dispatcher in
// the root package.
//
// # What this package must NOT do
//
//   - Import goSession or snapshot.
//   - Block session operations: sinks receive events from a buffered
//     dispatcher, never inline from an operation's critical path.
package audit
