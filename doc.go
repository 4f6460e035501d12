// Package goSession manages the client-side lifecycle of one authenticated
// session: cached profile fields, the linked-provider list, and the
// access/refresh token pair, with strict consistency under concurrent access.
//
// A [Session] is constructed through [Builder.Build] from a previously
// established identity snapshot and a set of collaborator services
// (token exchange, account mutation, identity verification, profile lookup).
// After construction, all Session methods are safe to call from multiple
// goroutines: mutating operations run their network call outside any lock and
// apply results in a single atomic merge step, so readers never observe a
// partially-applied state.
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Session], [Builder], [Config],
// the collaborator interfaces, and value types (TokenResult,
// ProfileChangeRequest, MetricsSnapshot). Audit event modelling lives under
// internal/ and is re-exported as type aliases; the snapshot model and its
// Redis-backed store live in the snapshot sub-package.
//
// # What this package must NOT do
//
//   - Implement the wire protocol to the identity backend. Every remote call
//     goes through a collaborator interface supplied at build time.
//   - Verify token signatures. ID tokens are opaque strings; claim decoding
//     for [Session.IDTokenResult] is unverified bookkeeping only.
//   - Decide which user is "current" for an application. Hosts observe the
//     one-shot invalidation notification and react themselves.
//   - Retry failed operations. Transient collaborator errors pass through to
//     the caller unmodified.
//
// # Performance contract
//
// IDToken with a warm cache is the hot path: it must complete without a
// network round-trip and without blocking behind unrelated mutations.
// Concurrent refresh requests for the same session coalesce into exactly one
// outstanding token exchange regardless of caller count.
package goSession
