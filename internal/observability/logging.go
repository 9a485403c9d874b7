// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// CorrelationID is the context key for the per-request correlation ID.
const CorrelationID LogContextKey = "correlation_id"

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id := ctx.Value(CorrelationID); id != nil {
		return id.(string)
	}
	return ""
}

// QueryLogger provides structured logging for content store operations.
type QueryLogger struct {
	operation string
	logger    *Logger
}

// NewQueryLogger creates a new QueryLogger for the given named query.
func NewQueryLogger(operation string) *QueryLogger {
	return &QueryLogger{
		operation: operation,
		logger:    GlobalLogger,
	}
}

// LogFetch logs a content store fetch.
func (l *QueryLogger) LogFetch(ctx context.Context, fields map[string]interface{}) {
	attrs := []any{
		slog.String("operation", l.operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "content store fetch", attrs...)
}

// LogError logs a content store failure.
func (l *QueryLogger) LogError(ctx context.Context, err error) {
	l.logger.ErrorContext(ctx, "content store error",
		slog.String("operation", l.operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
		slog.String("error", err.Error()),
	)
}

// LogSectionDegraded records that a page section is being served empty
// because its query failed.
func LogSectionDegraded(ctx context.Context, section string, err error) {
	GlobalLogger.WarnContext(ctx, "section degraded",
		slog.String("section", section),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
		slog.String("error", err.Error()),
	)
}
