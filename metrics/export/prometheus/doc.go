// Package prometheus renders the gateway counters in Prometheus text
// exposition format. It reads point-in-time snapshots from the engine; it
// never holds its own counter state.
package prometheus
