package oteladapters_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/trc-platform/trc/observability/oteladapters"
	"github.com/trc-platform/trc/repository"
)

func givenCollector() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("trc")), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics), "error collecting metrics")

	return resourceMetrics
}

func findMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Aggregation {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				return m.Data
			}
		}
	}

	t.Fatalf("metric %s not found", name)

	return nil
}

func Test_MetricsCollector_RecordDuration(t *testing.T) {
	// setup
	collector, reader := givenCollector()
	labels := map[string]string{repository.LabelOperation: "edit", repository.LabelStatus: repository.StatusSuccess}

	// act
	collector.RecordDuration(repository.MetricOperationDuration, 150*time.Millisecond, labels)

	// assert
	histogram, ok := findMetric(t, collect(t, reader), repository.MetricOperationDuration).(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, histogram.DataPoints, 1)
	assert.Equal(t, uint64(1), histogram.DataPoints[0].Count)
	assert.InDelta(t, 0.15, histogram.DataPoints[0].Sum, 0.001)

	operation, ok := histogram.DataPoints[0].Attributes.Value(attribute.Key(repository.LabelOperation))
	assert.True(t, ok)
	assert.Equal(t, "edit", operation.AsString())
}

func Test_MetricsCollector_IncrementCounter(t *testing.T) {
	// setup
	collector, reader := givenCollector()
	ctx := context.Background()
	labels := map[string]string{repository.LabelStatus: repository.StatusError}

	// act
	collector.IncrementCounter(repository.MetricConcurrencyConflict, labels)
	collector.IncrementCounterContext(ctx, repository.MetricConcurrencyConflict, labels)

	// assert
	sum, ok := findMetric(t, collect(t, reader), repository.MetricConcurrencyConflict).(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
	assert.True(t, sum.IsMonotonic)
}

func Test_MetricsCollector_RecordValue(t *testing.T) {
	collector, reader := givenCollector()

	collector.RecordValue("search_batch_size", 40, nil)
	collector.RecordValueContext(context.Background(), "search_batch_size", 25, nil)

	gauge, ok := findMetric(t, collect(t, reader), "search_batch_size").(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, 25.0, gauge.DataPoints[0].Value)
}

// failingMeter refuses to create counters.
type failingMeter struct {
	metric.Meter
}

func (m failingMeter) Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return nil, errors.New("counter creation failed")
}

func Test_MetricsCollector_When_InstrumentCannotBeCreated(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	collector := oteladapters.NewMetricsCollector(failingMeter{Meter: provider.Meter("trc")})

	assert.NotPanics(t, func() {
		collector.IncrementCounter(repository.MetricOperationsTotal, nil)
	})
	assert.Empty(t, collect(t, reader).ScopeMetrics)
}
