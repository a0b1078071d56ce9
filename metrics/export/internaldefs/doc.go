// Package internaldefs holds the shared counter catalog the exporters render
// from. It exists so the Prometheus and OpenTelemetry exporters agree on
// metric names and help strings without depending on each other.
package internaldefs
