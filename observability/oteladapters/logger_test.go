package oteladapters_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/trc-platform/trc/observability/oteladapters"
	"github.com/trc-platform/trc/testutil"
)

func givenSpanContext(t *testing.T) context.Context {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	spanContext := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})

	return trace.ContextWithSpanContext(context.Background(), spanContext)
}

func attrValue(record slog.Record, key string) (string, bool) {
	var value string
	found := false

	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == key {
			value, found = attr.Value.String(), true
			return false
		}

		return true
	})

	return value, found
}

func Test_Logger_AddsTraceCorrelation(t *testing.T) {
	// setup
	spy := testutil.NewLogHandlerSpy(false)
	logger := oteladapters.NewLogger(spy)

	// act
	logger.InfoContext(givenSpanContext(t), "repository operation: edit", "document_id", "w1")

	// assert
	require.Equal(t, 1, spy.RecordCount())
	record := spy.Records()[0]

	traceID, ok := attrValue(record, "trace_id")
	assert.True(t, ok)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", traceID)

	spanID, ok := attrValue(record, "span_id")
	assert.True(t, ok)
	assert.Equal(t, "00f067aa0ba902b7", spanID)

	documentID, _ := attrValue(record, "document_id")
	assert.Equal(t, "w1", documentID)
}

func Test_Logger_When_ContextHasNoSpan(t *testing.T) {
	spy := testutil.NewLogHandlerSpy(false)
	logger := oteladapters.NewLogger(spy)

	logger.WarnContext(context.Background(), "concurrency conflict, retrying write")
	logger.Error("search indexing failed", "core", "works")

	assert.True(t, spy.HasLog(slog.LevelWarn, "concurrency conflict, retrying write"))
	assert.False(t, spy.HasLogWithAttr(slog.LevelWarn, "concurrency conflict, retrying write", "trace_id"))
	assert.True(t, spy.HasLogWithAttr(slog.LevelError, "search indexing failed", "core"))
}

type exportedLog struct {
	body     string
	severity otellog.Severity
	traceID  trace.TraceID
	attrs    map[string]string
}

// recordingExporter keeps the exported log records.
type recordingExporter struct {
	mu   sync.Mutex
	logs []exportedLog
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, record := range records {
		exported := exportedLog{
			body:     record.Body().AsString(),
			severity: record.Severity(),
			traceID:  record.TraceID(),
			attrs:    make(map[string]string),
		}

		record.WalkAttributes(func(kv otellog.KeyValue) bool {
			exported.attrs[kv.Key] = kv.Value.String()
			return true
		})

		e.logs = append(e.logs, exported)
	}

	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func (e *recordingExporter) exported() []exportedLog {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]exportedLog(nil), e.logs...)
}

func givenBridgeLogger(level slog.Level) (*oteladapters.Logger, *recordingExporter) {
	exporter := &recordingExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))

	return oteladapters.NewBridgeLogger("trc", provider, level), exporter
}

func Test_BridgeLogger_CorrelatesWithSpan(t *testing.T) {
	// setup
	logger, exporter := givenBridgeLogger(slog.LevelInfo)
	ctx := givenSpanContext(t)

	// act
	logger.InfoContext(ctx, "repository operation: edit", "document_id", "w1")

	// assert
	logs := exporter.exported()
	require.Len(t, logs, 1)
	assert.Equal(t, "repository operation: edit", logs[0].body)
	assert.Equal(t, otellog.SeverityInfo, logs[0].severity)
	assert.Equal(t, trace.SpanContextFromContext(ctx).TraceID(), logs[0].traceID)
	assert.Equal(t, "w1", logs[0].attrs["document_id"])
	assert.NotContains(t, logs[0].attrs, "trace_id", "the bridge carries the trace id on the record")
}

func Test_BridgeLogger_DropsRecordsBelowLevel(t *testing.T) {
	// setup
	logger, exporter := givenBridgeLogger(slog.LevelWarn)

	// act
	logger.Debug("executed sql for: get")
	logger.InfoContext(context.Background(), "document store operation: document inserted")
	logger.Error("search indexing failed", "core", "works")

	// assert
	logs := exporter.exported()
	require.Len(t, logs, 1)
	assert.Equal(t, "search indexing failed", logs[0].body)
	assert.Equal(t, otellog.SeverityError, logs[0].severity)
	assert.Equal(t, "works", logs[0].attrs["core"])
}
