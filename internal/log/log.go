package log

import (
	"context"
	"log/slog"
	"time"

	slogcontext "github.com/veqryn/slog-context"
)

var Base = slog.With(slog.String("realm", "artifact"))

// FromContext returns the logger carried by ctx (see slog-context), scoped to
// the artifact realm. Without a logger in ctx the default logger is used.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return Base
	}
	return slogcontext.FromCtx(ctx).With(slog.String("realm", "artifact"))
}

// WithAttrs returns a context whose logger carries the given attributes.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return slogcontext.With(ctx, args...)
}

// Operation is a helper function to log operations with timing and error handling.
func Operation(ctx context.Context, operation string, fields ...slog.Attr) func(error) {
	start := time.Now()
	attrs := make([]any, 0, len(fields)+1)
	attrs = append(attrs, slog.String("operation", operation))
	for _, field := range fields {
		attrs = append(attrs, field)
	}
	logger := FromContext(ctx).With(attrs...)
	logger.Log(ctx, slog.LevelDebug, "starting operation")
	return func(err error) {
		if err != nil {
			logger.Log(ctx, slog.LevelError, "operation failed", slog.Duration("duration", time.Since(start)), slog.String("error", err.Error()))
		} else {
			logger.Log(ctx, slog.LevelDebug, "operation completed", slog.Duration("duration", time.Since(start)))
		}
	}
}

// LocationAttr creates a log attribute for a resource location.
func LocationAttr(location string) slog.Attr {
	return slog.String("location", location)
}
