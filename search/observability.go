package search

import (
	"context"
	"math"
	"time"

	"github.com/trc-platform/trc/repository"
)

const (
	MetricIndexDuration = "search_index_duration_seconds"
	MetricIndexTotal    = "search_index_operations_total"

	LabelCore      = "core"
	LabelOperation = "operation"
	LabelStatus    = "status"

	StatusSuccess = "success"
	StatusError   = "error"

	operationIndex   = "index"
	operationDelete  = "delete"
	operationReindex = "reindex"

	logMsgIndexFailed     = "search indexing failed"
	logMsgAdaptFailed     = "adapting document for search failed"
	logMsgIndexed         = "documents indexed"
	logMsgReindexFinished = "reindex finished"

	logAttrCore       = "core"
	logAttrOperation  = "operation"
	logAttrDocumentID = "document_id"
	logAttrCount      = "count"
	logAttrError      = "error"
	logAttrDurationMS = "duration_ms"
)

func (m *Mediator[T]) logDebug(ctx context.Context, msg string, args ...any) {
	if m.contextualLogger != nil {
		m.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}

	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}

func (m *Mediator[T]) logInfo(ctx context.Context, msg string, args ...any) {
	if m.contextualLogger != nil {
		m.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if m.logger != nil {
		m.logger.Info(msg, args...)
	}
}

func (m *Mediator[T]) logError(ctx context.Context, msg string, err error, args ...any) {
	args = append(args, logAttrError, err.Error())

	if m.contextualLogger != nil {
		m.contextualLogger.ErrorContext(ctx, msg, args...)
		return
	}

	if m.logger != nil {
		m.logger.Error(msg, args...)
	}
}

// recordOperation records duration and outcome of one indexer call.
func (m *Mediator[T]) recordOperation(ctx context.Context, operation string, duration time.Duration, err error) {
	if m.metricsCollector == nil {
		return
	}

	status := StatusSuccess
	if err != nil {
		status = StatusError
	}

	labels := map[string]string{
		LabelCore:      m.core,
		LabelOperation: operation,
		LabelStatus:    status,
	}

	if contextual, ok := m.metricsCollector.(repository.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, MetricIndexDuration, duration, labels)
		contextual.IncrementCounterContext(ctx, MetricIndexTotal, labels)
		return
	}

	m.metricsCollector.RecordDuration(MetricIndexDuration, duration, labels)
	m.metricsCollector.IncrementCounter(MetricIndexTotal, labels)
}

func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
