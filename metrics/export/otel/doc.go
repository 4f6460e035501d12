// Package otel bridges session metrics into OpenTelemetry using observable
// instruments: the SDK pulls a snapshot on each collection cycle instead of
// the session pushing samples on its hot path.
//
// # Architecture boundaries
//
// Depends on the OpenTelemetry metric API only, never the SDK. The host
// owns meter provider setup and export pipelines.
//
// # What this package must NOT do
//
//   - No synchronous instruments on session operations.
//   - No mutation of session state.
package otel
