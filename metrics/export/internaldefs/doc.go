// Package internaldefs holds the shared metric export tables used by the
// Prometheus and OpenTelemetry exporters. It exists so both exporters render
// identical metric names, help strings, and bucket layouts from one source
// of truth.
//
// # Architecture boundaries
//
// This package depends only on the core goSession package. Exporters depend
// on it; nothing else should.
//
// # What this package must NOT do
//
//   - No I/O, no rendering, no backend client code.
//   - No mutable state. The tables are written once and read forever.
package internaldefs
