package common

import (
	"context"
	"log/slog"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRunID    contextKey = "run_id"
	ContextKeyFilePath contextKey = "file_path"
)

// WithRunID tags the context with the id of one pipeline invocation.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ContextKeyRunID, runID)
}

// RunIDFromContext extracts the run ID from context
func RunIDFromContext(ctx context.Context) string {
	if runID, ok := ctx.Value(ContextKeyRunID).(string); ok {
		return runID
	}
	return ""
}

func WithFilePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, ContextKeyFilePath, path)
}

func FilePathFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(ContextKeyFilePath).(string); ok {
		return p
	}
	return ""
}

// LoggerFromContext returns logger enriched with the run id and file path carried by ctx.
func LoggerFromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if id := RunIDFromContext(ctx); id != "" {
		logger = logger.With("run_id", id)
	}
	if p := FilePathFromContext(ctx); p != "" {
		logger = logger.With("file_path", p)
	}
	return logger
}
