package oteladapters

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/trc-platform/trc/repository"
)

const (
	logAttrTraceID = "trace_id"
	logAttrSpanID  = "span_id"
)

// Logger implements repository.Logger and repository.ContextualLogger.
//
// Loggers from NewBridgeLogger emit OpenTelemetry log records through the slog bridge;
// the bridge correlates them with the span in the context. Loggers from NewLogger write
// to a plain slog.Handler and add trace_id and span_id attributes themselves.
type Logger struct {
	logger    *slog.Logger
	correlate bool
}

// NewBridgeLogger creates a Logger emitting to provider under the instrumentation scope name.
// Records below level are dropped.
func NewBridgeLogger(name string, provider log.LoggerProvider, level slog.Leveler) *Logger {
	handler := otelslog.NewHandler(name, otelslog.WithLoggerProvider(provider))

	return &Logger{logger: slog.New(&levelHandler{Handler: handler, level: level})}
}

// NewLogger creates a Logger writing to handler, e.g. a JSON handler when no
// OpenTelemetry log pipeline is configured.
func NewLogger(handler slog.Handler) *Logger {
	return &Logger{logger: slog.New(handler), correlate: true}
}

// Debug implements repository.Logger.
func (l *Logger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// Info implements repository.Logger.
func (l *Logger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// Warn implements repository.Logger.
func (l *Logger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Error implements repository.Logger.
func (l *Logger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// DebugContext implements repository.ContextualLogger.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, l.withTrace(ctx, args)...)
}

// InfoContext implements repository.ContextualLogger.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, l.withTrace(ctx, args)...)
}

// WarnContext implements repository.ContextualLogger.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, l.withTrace(ctx, args)...)
}

// ErrorContext implements repository.ContextualLogger.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, l.withTrace(ctx, args)...)
}

func (l *Logger) withTrace(ctx context.Context, args []any) []any {
	if !l.correlate {
		return args
	}

	spanContext := trace.SpanContextFromContext(ctx)
	if !spanContext.IsValid() {
		return args
	}

	return append(args[:len(args):len(args)],
		logAttrTraceID, spanContext.TraceID().String(),
		logAttrSpanID, spanContext.SpanID().String())
}

// levelHandler drops records below level before they reach the bridge.
type levelHandler struct {
	slog.Handler
	level slog.Leveler
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level() && h.Handler.Enabled(ctx, level)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{Handler: h.Handler.WithAttrs(attrs), level: h.level}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{Handler: h.Handler.WithGroup(name), level: h.level}
}

var (
	_ repository.Logger           = (*Logger)(nil)
	_ repository.ContextualLogger = (*Logger)(nil)
)
