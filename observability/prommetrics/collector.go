package prommetrics

import (
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/puzpuzpuz/xsync/v3"
)

const helpPrefix = "trc metric "

// Option configures a Collector.
type Option func(*Collector)

// WithNamespace prefixes every metric name with namespace.
func WithNamespace(namespace string) Option {
	return func(c *Collector) {
		c.namespace = namespace
	}
}

// WithBuckets sets the histogram buckets used for durations, in seconds.
func WithBuckets(buckets []float64) Option {
	return func(c *Collector) {
		if len(buckets) > 0 {
			c.buckets = buckets
		}
	}
}

// Collector records durations as histograms, counters as counters and values as gauges.
type Collector struct {
	factory    promauto.Factory
	namespace  string
	buckets    []float64
	histograms *xsync.MapOf[string, *prometheus.HistogramVec]
	counters   *xsync.MapOf[string, *prometheus.CounterVec]
	gauges     *xsync.MapOf[string, *prometheus.GaugeVec]
	dropped    prometheus.Counter
}

// New creates a Collector registering its metrics with registerer.
func New(registerer prometheus.Registerer, options ...Option) *Collector {
	c := &Collector{
		factory:    promauto.With(registerer),
		buckets:    prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		histograms: xsync.NewMapOf[string, *prometheus.HistogramVec](),
		counters:   xsync.NewMapOf[string, *prometheus.CounterVec](),
		gauges:     xsync.NewMapOf[string, *prometheus.GaugeVec](),
	}

	for _, option := range options {
		option(c)
	}

	c.dropped = c.factory.NewCounter(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      "metrics_dropped_total",
		Help:      "Metric observations dropped because of inconsistent label names",
	})

	return c
}

// RecordDuration implements repository.MetricsCollector.
func (c *Collector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	vec, _ := c.histograms.LoadOrCompute(metric, func() *prometheus.HistogramVec {
		return c.factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: c.namespace,
			Name:      metric,
			Help:      helpPrefix + metric,
			Buckets:   c.buckets,
		}, labelNames(labels))
	})

	observer, err := vec.GetMetricWith(labels)
	if err != nil {
		c.dropped.Inc()
		return
	}

	observer.Observe(duration.Seconds())
}

// IncrementCounter implements repository.MetricsCollector.
func (c *Collector) IncrementCounter(metric string, labels map[string]string) {
	vec, _ := c.counters.LoadOrCompute(metric, func() *prometheus.CounterVec {
		return c.factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      metric,
			Help:      helpPrefix + metric,
		}, labelNames(labels))
	})

	counter, err := vec.GetMetricWith(labels)
	if err != nil {
		c.dropped.Inc()
		return
	}

	counter.Inc()
}

// RecordValue implements repository.MetricsCollector.
func (c *Collector) RecordValue(metric string, value float64, labels map[string]string) {
	vec, _ := c.gauges.LoadOrCompute(metric, func() *prometheus.GaugeVec {
		return c.factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: c.namespace,
			Name:      metric,
			Help:      helpPrefix + metric,
		}, labelNames(labels))
	})

	gauge, err := vec.GetMetricWith(labels)
	if err != nil {
		c.dropped.Inc()
		return
	}

	gauge.Set(value)
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	slices.SortFunc(names, strings.Compare)

	return names
}
