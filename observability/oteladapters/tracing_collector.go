package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/trc-platform/trc/repository"
)

// TracingCollector implements repository.TracingCollector on an OpenTelemetry Tracer.
// Spans started by it are children of the span in the context, so store spans nest
// under repository spans.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a TracingCollector starting spans with tracer.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan implements repository.TracingCollector.
func (t *TracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, repository.SpanContext) {
	spanCtx, span := t.tracer.Start(ctx, name, trace.WithAttributes(toAttributes(attrs)...))

	return spanCtx, &SpanContext{span: span}
}

// FinishSpan implements repository.TracingCollector.
func (t *TracingCollector) FinishSpan(spanCtx repository.SpanContext, status string, attrs map[string]string) {
	otelSpan, ok := spanCtx.(*SpanContext)
	if !ok {
		return
	}

	otelSpan.span.SetAttributes(toAttributes(attrs)...)
	otelSpan.SetStatus(status)
	otelSpan.span.End()
}

// SpanContext implements repository.SpanContext on an OpenTelemetry span.
type SpanContext struct {
	span trace.Span
}

// SetStatus maps repository status values to span status codes.
// Unknown values are kept as a "status" attribute.
func (s *SpanContext) SetStatus(status string) {
	switch status {
	case repository.StatusSuccess:
		s.span.SetStatus(codes.Ok, "")
	case repository.StatusError:
		s.span.SetStatus(codes.Error, "operation failed")
	case repository.StatusConflict:
		s.span.SetStatus(codes.Error, "concurrency conflict")
	default:
		s.span.SetAttributes(attribute.String("status", status))
	}
}

// AddAttribute implements repository.SpanContext.
func (s *SpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

func toAttributes(attrs map[string]string) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for key, value := range attrs {
		kvs = append(kvs, attribute.String(key, value))
	}

	return kvs
}

var (
	_ repository.TracingCollector = (*TracingCollector)(nil)
	_ repository.SpanContext      = (*SpanContext)(nil)
)
