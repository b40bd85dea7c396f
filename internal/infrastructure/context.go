package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// GenerateTraceID creates a new unique trace ID using UUID v4
func GenerateTraceID() string {
	return uuid.New().String()
}

// GenerateRunID creates a time-ordered run ID (UUID v7) so run directories
// and log lines sort chronologically
func GenerateRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// ContextWithTraceID creates a new context with a generated trace ID
func ContextWithTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, GenerateTraceID())
}

// EnsureTraceID ensures the context has a trace ID, generating one if needed
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) == "" {
		return ContextWithTraceID(ctx)
	}
	return ctx
}

// NewRunContext tags ctx with a fresh run ID and trace ID and returns the run ID
func NewRunContext(ctx context.Context) (context.Context, string) {
	runID := GenerateRunID()
	return EnsureTraceID(WithRunID(ctx, runID)), runID
}

// WithComponent tags a logger with the component emitting records
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	return logger.With(slog.String("component", component))
}
