package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into stores l as the request logger of ctx.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// With derives a logger carrying fields from the one in ctx and stores it.
func With(ctx context.Context, fields ...any) context.Context {
	return Into(ctx, From(ctx).With(fields...))
}

// From returns the request logger, or the process logger when ctx has none.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return LoggerWrapper()
}
