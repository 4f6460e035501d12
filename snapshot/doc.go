// Package snapshot defines the serializable representation of an
// authenticated session and a Redis-backed store for it.
//
// # Snapshot format
//
// Versioned JSON. The schema version is embedded in the payload and checked
// on decode; decoding a snapshot written by a newer schema fails rather than
// silently dropping fields.
//
// # Architecture boundaries
//
// This package owns the snapshot model, its codec, and persistence. Session
// semantics (when a snapshot is taken, what invalidation means) are the
// root package's concern.
//
// # What this package must NOT do
//
//   - Import goSession (the root package imports snapshot, never the reverse).
//   - Interpret token expiry or validity. It stores what it is given.
package snapshot
