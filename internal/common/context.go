package common

import (
	"context"
	"log/slog"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyJobID     contextKey = "job_id"
	ContextKeyLogger    contextKey = "logger"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, ContextKeyJobID, jobID)
}

func JobIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyJobID).(string); ok {
		return id
	}
	return ""
}

// WithLogger stores a request-scoped logger.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ContextKeyLogger, l)
}

// LoggerFromContext returns the stored logger or fallback, decorated with
// whatever ids the context carries.
func LoggerFromContext(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	l, ok := ctx.Value(ContextKeyLogger).(*slog.Logger)
	if !ok || l == nil {
		l = fallback
	}
	if l == nil {
		l = slog.Default()
	}
	if id := RequestIDFromContext(ctx); id != "" {
		l = l.With("request_id", id)
	}
	if id := JobIDFromContext(ctx); id != "" {
		l = l.With("job_id", id)
	}
	return l
}
