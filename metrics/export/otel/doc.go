// Package otel bridges the gateway counters into an OpenTelemetry meter via
// observable instruments. Counter values are read on collection; nothing is
// pushed on the request path.
package otel
