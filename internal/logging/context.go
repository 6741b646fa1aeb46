package logging

import (
	"context"
	"log/slog"
	"strings"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID stores a per-file request identifier on the context so nested
// components can attach it to their log lines.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request identifier stored on the context, if any.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}

// WithContext decorates the logger with context-scoped attributes.
// A nil logger yields a no-op logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if id := RequestID(ctx); id != "" {
		logger = logger.With(String(FieldRequestID, id))
	}
	return logger
}
