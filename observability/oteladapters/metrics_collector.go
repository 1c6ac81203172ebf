package oteladapters

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/trc-platform/trc/repository"
)

// MetricsCollector implements repository.ContextualMetricsCollector on the OpenTelemetry metrics API:
//   - RecordDuration -> Float64Histogram in seconds
//   - IncrementCounter -> Int64Counter
//   - RecordValue -> Float64Gauge
//
// Instruments are created on first use. Observations for instruments the meter
// refuses to create are dropped.
type MetricsCollector struct {
	meter      metric.Meter
	histograms *xsync.MapOf[string, metric.Float64Histogram]
	counters   *xsync.MapOf[string, metric.Int64Counter]
	gauges     *xsync.MapOf[string, metric.Float64Gauge]
}

// NewMetricsCollector creates a collector creating its instruments from meter.
func NewMetricsCollector(meter metric.Meter) *MetricsCollector {
	return &MetricsCollector{
		meter:      meter,
		histograms: xsync.NewMapOf[string, metric.Float64Histogram](),
		counters:   xsync.NewMapOf[string, metric.Int64Counter](),
		gauges:     xsync.NewMapOf[string, metric.Float64Gauge](),
	}
}

// RecordDuration implements repository.MetricsCollector.
func (m *MetricsCollector) RecordDuration(name string, duration time.Duration, labels map[string]string) {
	m.RecordDurationContext(context.Background(), name, duration, labels)
}

// RecordDurationContext implements repository.ContextualMetricsCollector.
func (m *MetricsCollector) RecordDurationContext(ctx context.Context, name string, duration time.Duration, labels map[string]string) {
	histogram, ok := instrument(m.histograms, name, func() (metric.Float64Histogram, error) {
		return m.meter.Float64Histogram(name, metric.WithDescription("trc operation duration"), metric.WithUnit("s"))
	})
	if !ok {
		return
	}

	histogram.Record(ctx, duration.Seconds(), metric.WithAttributes(attributes(labels)...))
}

// IncrementCounter implements repository.MetricsCollector.
func (m *MetricsCollector) IncrementCounter(name string, labels map[string]string) {
	m.IncrementCounterContext(context.Background(), name, labels)
}

// IncrementCounterContext implements repository.ContextualMetricsCollector.
func (m *MetricsCollector) IncrementCounterContext(ctx context.Context, name string, labels map[string]string) {
	counter, ok := instrument(m.counters, name, func() (metric.Int64Counter, error) {
		return m.meter.Int64Counter(name, metric.WithDescription("trc operation counter"))
	})
	if !ok {
		return
	}

	counter.Add(ctx, 1, metric.WithAttributes(attributes(labels)...))
}

// RecordValue implements repository.MetricsCollector.
func (m *MetricsCollector) RecordValue(name string, value float64, labels map[string]string) {
	m.RecordValueContext(context.Background(), name, value, labels)
}

// RecordValueContext implements repository.ContextualMetricsCollector.
func (m *MetricsCollector) RecordValueContext(ctx context.Context, name string, value float64, labels map[string]string) {
	gauge, ok := instrument(m.gauges, name, func() (metric.Float64Gauge, error) {
		return m.meter.Float64Gauge(name, metric.WithDescription("trc current value"))
	})
	if !ok {
		return
	}

	gauge.Record(ctx, value, metric.WithAttributes(attributes(labels)...))
}

func instrument[I any](cache *xsync.MapOf[string, I], name string, create func() (I, error)) (I, bool) {
	if existing, ok := cache.Load(name); ok {
		return existing, true
	}

	created, err := create()
	if err != nil {
		return created, false
	}

	actual, _ := cache.LoadOrStore(name, created)

	return actual, true
}

func attributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for key, value := range labels {
		attrs = append(attrs, attribute.String(key, value))
	}

	return attrs
}

var _ repository.ContextualMetricsCollector = (*MetricsCollector)(nil)
