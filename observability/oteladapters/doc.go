// Package oteladapters connects the repository observability interfaces to OpenTelemetry.
//
// MetricsCollector records repository, store and search metrics through an
// OpenTelemetry Meter. TracingCollector starts repository and store spans on a Tracer.
// Logger emits log records through the otelslog bridge, or writes to any slog.Handler
// and adds the trace and span id of the active span itself.
package oteladapters
