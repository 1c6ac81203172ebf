// Package prommetrics implements the repository.MetricsCollector interface on top of
// the Prometheus client library.
//
// Metric vectors are created on first use with the label names of that first call,
// so every metric name must always be recorded with the same label set. Calls with
// a different label set are dropped and counted in metrics_dropped_total (prefixed with the namespace).
package prommetrics
