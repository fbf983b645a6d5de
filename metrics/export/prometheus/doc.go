// Package prometheus provides Prometheus collectors for devcred metrics.
//
// [NewPrometheusExporter] accepts an [devcred.Engine] and exposes an [http.Handler]
// that renders all devcred counters and histograms in Prometheus text exposition format.
// Counter names are prefixed devcred_*_total; the single histogram is
// devcred_authenticate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
