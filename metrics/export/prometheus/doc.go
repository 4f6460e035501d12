// Package prometheus exposes session metrics in Prometheus text exposition
// format without pulling in the Prometheus client library. The exporter
// renders directly from a metrics snapshot, so a scrape never contends with
// the session's hot path.
//
// # Architecture boundaries
//
// Reads only the public MetricsSnapshot and AuditDropped surface. It never
// reaches into session internals.
//
// # What this package must NOT do
//
//   - No push-based delivery; this is a pull endpoint only.
//   - No mutation of session state.
package prometheus
