package repository

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"
)

// Logger interface for operational logging, warnings, and error reporting.
// *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger interface for context-aware logging, e.g. with trace correlation.
// It takes precedence over Logger when both are configured.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MetricsCollector interface for collecting repository performance and operational metrics.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector extends MetricsCollector with context-aware methods.
// The Repository uses them when available.
type ContextualMetricsCollector interface {
	MetricsCollector
	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
	RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
}

// SpanContext represents an active tracing span that can be updated with a status and attributes.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector interface for collecting distributed tracing information from repository
// and store operations. oteladapters.TracingCollector implements it on OpenTelemetry.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}

const (
	MetricOperationDuration   = "repository_operation_duration_seconds"
	MetricOperationsTotal     = "repository_operations_total"
	MetricConcurrencyConflict = "repository_concurrency_conflicts_total"
	MetricObserverFailures    = "repository_observer_failures_total"
	MetricRetryAttempts       = "repository_retry_attempts_total"
	MetricRetryDelay          = "repository_retry_delay_seconds"
	MetricRetriesExhausted    = "repository_retries_exhausted_total"

	LabelOperation  = "operation"
	LabelStatus     = "status"
	LabelRepository = "repository"
	LabelErrorType  = "error_type"

	StatusSuccess  = "success"
	StatusError    = "error"
	StatusConflict = "conflict"

	SpanAttrRepository = "repository"
	SpanAttrOperation  = "operation"
	SpanAttrDocumentID = "document_id"
	SpanAttrVersion    = "version"
	SpanAttrCount      = "document_count"
	SpanAttrErrorType  = "error_type"
	SpanAttrDurationMS = "duration_ms"

	spanNamePrefix = "repository."

	logMsgOperation        = "repository operation: "
	logMsgObserverPanicked = "update observer panicked"
	logMsgVetoed           = "update vetoed by before-update observer"
	logMsgConflictRetry    = "concurrency conflict, retrying write"
	logAttrError           = "error"
	logAttrDocumentID      = "document_id"
	logAttrVersion         = "version"
	logAttrDurationMS      = "duration_ms"
	logAttrRepository      = "repository"
	logAttrAttempt         = "attempt"
)

// observability bundles the optional logging and metrics sinks shared by Repository and retries.
type observability struct {
	name             string
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// startSpan starts a span for operation if a tracing collector is configured.
// The returned SpanContext is nil otherwise.
func (o observability) startSpan(ctx context.Context, operation string, attrs map[string]string) (context.Context, SpanContext) {
	if o.tracingCollector == nil {
		return ctx, nil
	}

	spanAttrs := map[string]string{
		SpanAttrRepository: o.name,
		SpanAttrOperation:  operation,
	}
	for key, value := range attrs {
		spanAttrs[key] = value
	}

	return o.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, spanAttrs)
}

// finishSpan ends span with a status derived from err.
func (o observability) finishSpan(span SpanContext, duration time.Duration, err error, attrs map[string]string) {
	if o.tracingCollector == nil || span == nil {
		return
	}

	finalAttrs := map[string]string{
		SpanAttrDurationMS: strconv.FormatFloat(toMilliseconds(duration), 'f', 3, 64),
	}
	for key, value := range attrs {
		finalAttrs[key] = value
	}

	status := StatusSuccess
	switch {
	case errors.Is(err, ErrConcurrencyConflict):
		status = StatusConflict
	case err != nil:
		status = StatusError
		finalAttrs[SpanAttrErrorType] = errorType(err)
	}

	o.tracingCollector.FinishSpan(span, status, finalAttrs)
}

func (o observability) logInfo(ctx context.Context, msg string, args ...any) {
	args = append([]any{logAttrRepository, o.name}, args...)

	if o.contextualLogger != nil {
		o.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if o.logger != nil {
		o.logger.Info(msg, args...)
	}
}

func (o observability) logWarn(ctx context.Context, msg string, args ...any) {
	args = append([]any{logAttrRepository, o.name}, args...)

	if o.contextualLogger != nil {
		o.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}

	if o.logger != nil {
		o.logger.Warn(msg, args...)
	}
}

func (o observability) logError(ctx context.Context, msg string, err error, args ...any) {
	args = append([]any{logAttrRepository, o.name, logAttrError, err.Error()}, args...)

	if o.contextualLogger != nil {
		o.contextualLogger.ErrorContext(ctx, msg, args...)
		return
	}

	if o.logger != nil {
		o.logger.Error(msg, args...)
	}
}

func (o observability) labels(operation, status string) map[string]string {
	return map[string]string{
		LabelRepository: o.name,
		LabelOperation:  operation,
		LabelStatus:     status,
	}
}

func (o observability) recordOperation(ctx context.Context, operation string, duration time.Duration, err error) {
	if o.metricsCollector == nil {
		return
	}

	status := StatusSuccess
	if err != nil {
		status = StatusError
	}

	labels := o.labels(operation, status)

	if contextual, ok := o.metricsCollector.(ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, MetricOperationDuration, duration, labels)
		contextual.IncrementCounterContext(ctx, MetricOperationsTotal, labels)
		return
	}

	o.metricsCollector.RecordDuration(MetricOperationDuration, duration, labels)
	o.metricsCollector.IncrementCounter(MetricOperationsTotal, labels)
}

func (o observability) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if o.metricsCollector == nil {
		return
	}

	if contextual, ok := o.metricsCollector.(ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	o.metricsCollector.IncrementCounter(metric, labels)
}

func (o observability) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if o.metricsCollector == nil {
		return
	}

	if contextual, ok := o.metricsCollector.(ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	o.metricsCollector.RecordDuration(metric, duration, labels)
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
