package postgresstore

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/trc-platform/trc/repository"
)

const (
	logMsgBuildQueryFailed    = "failed to build query"
	logMsgDBQueryFailed       = "database query execution failed"
	logMsgDBExecFailed        = "database execution failed"
	logMsgCloseRowsFailed     = "failed to close database rows"
	logMsgScanRowFailed       = "failed to scan database row"
	logMsgRowsAffectedFailed  = "failed to get rows affected count"
	logMsgCreateSchemaFailed  = "failed to create schema"
	logMsgSchemaCreated       = "schema created"
	logMsgQueryCompleted      = "query completed"
	logMsgDocumentInserted    = "document inserted"
	logMsgDocumentUpdated     = "document updated"
	logMsgDocumentDeleted     = "document deleted"
	logMsgDuplicateID         = "duplicate document id"
	logMsgConcurrencyConflict = "concurrency conflict detected"
	logMsgSQLExecuted         = "executed sql for: "
	logMsgOperation           = "document store operation: "

	logAttrError           = "error"
	logAttrQuery           = "query"
	logAttrTable           = "table"
	logAttrDocumentID      = "document_id"
	logAttrDocumentCount   = "document_count"
	logAttrVersion         = "version"
	logAttrExpectedVersion = "expected_version"
	logAttrDurationMS      = "duration_ms"

	metricQueryDuration        = "documentstore_operation_duration_seconds"
	metricDatabaseErrors       = "documentstore_database_errors_total"
	metricConcurrencyConflicts = "documentstore_concurrency_conflicts_total"

	labelOperation = "operation"
	labelStatus    = "status"
	labelTable     = "table"
	labelErrorType = "error_type"

	statusSuccess = "success"
	statusError   = "error"

	errorTypeDatabaseQuery = "database_query"
	errorTypeDatabaseExec  = "database_exec"
	errorTypeRowScan       = "row_scan"
	errorTypeRowsAffected  = "rows_affected"

	spanNamePrefix     = "documentstore."
	spanAttrTable      = "db.table"
	spanAttrOperation  = "db.operation"
	spanAttrDocumentID = "document_id"
)

// logQueryWithDuration logs SQL queries with execution time at debug level if a logger is configured.
func (s *Store) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, logAttrDurationMS, s.toMilliseconds(duration), logAttrQuery, sqlQuery)
		return
	}

	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, s.toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (s *Store) logOperation(ctx context.Context, action string, args ...any) {
	args = append([]any{logAttrTable, s.tableName}, args...)

	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
		return
	}

	if s.logger != nil {
		s.logger.Info(logMsgOperation+action, args...)
	}
}

// logWarn logs non-critical issues at warn level if a logger is configured.
func (s *Store) logWarn(ctx context.Context, message string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, message, args...)
		return
	}

	if s.logger != nil {
		s.logger.Warn(message, args...)
	}
}

// logError logs error information at the error level if a logger is configured.
func (s *Store) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error(), logAttrTable, s.tableName}
	allArgs = append(allArgs, args...)

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, message, allArgs...)
		return
	}

	if s.logger != nil {
		s.logger.Error(message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (s *Store) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// recordDurationMetrics records the duration of an operation if a metrics collector is configured.
func (s *Store) recordDurationMetrics(ctx context.Context, operation string, duration time.Duration, err error) {
	if s.metricsCollector == nil {
		return
	}

	status := statusSuccess
	if err != nil {
		status = statusError
	}

	labels := map[string]string{
		labelTable:     s.tableName,
		labelOperation: operation,
		labelStatus:    status,
	}

	if contextual, ok := s.metricsCollector.(repository.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metricQueryDuration, duration, labels)
		return
	}

	s.metricsCollector.RecordDuration(metricQueryDuration, duration, labels)
}

// recordErrorMetrics counts database errors if a metrics collector is configured.
func (s *Store) recordErrorMetrics(ctx context.Context, operation, errorType string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		labelTable:     s.tableName,
		labelOperation: operation,
		labelStatus:    statusError,
		labelErrorType: errorType,
	}

	if contextual, ok := s.metricsCollector.(repository.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metricDatabaseErrors, labels)
		return
	}

	s.metricsCollector.IncrementCounter(metricDatabaseErrors, labels)
}

// recordConcurrencyConflictMetrics counts lost optimistic writes if a metrics collector is configured.
func (s *Store) recordConcurrencyConflictMetrics(ctx context.Context, operation string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		labelTable:      s.tableName,
		labelOperation:  operation,
		"conflict_type": "concurrency",
	}

	if contextual, ok := s.metricsCollector.(repository.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metricConcurrencyConflicts, labels)
		return
	}

	s.metricsCollector.IncrementCounter(metricConcurrencyConflicts, labels)
}

// startSpan starts a span for a store operation if a tracing collector is configured.
func (s *Store) startSpan(ctx context.Context, operation, id string) (context.Context, repository.SpanContext) {
	if s.tracingCollector == nil {
		return ctx, nil
	}

	attrs := map[string]string{
		spanAttrTable:     s.tableName,
		spanAttrOperation: operation,
	}

	if id != "" {
		attrs[spanAttrDocumentID] = id
	}

	return s.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, attrs)
}

// finishSpan ends span, marking lost optimistic writes as conflicts.
func (s *Store) finishSpan(span repository.SpanContext, err error) {
	if s.tracingCollector == nil || span == nil {
		return
	}

	status := statusSuccess
	switch {
	case errors.Is(err, repository.ErrConcurrencyConflict):
		status = repository.StatusConflict
	case err != nil:
		status = statusError
	}

	s.tracingCollector.FinishSpan(span, status, nil)
}
