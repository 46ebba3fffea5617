package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ContextWithLogger stores a logger in the context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts a logger from the context.
// Returns zap.NewNop() if no logger is found.
func FromContext(ctx context.Context) *zap.Logger {
	return FromContextOr(ctx, zap.NewNop())
}

// FromContextOr extracts a logger from the context, or returns fallback.
// The SDK passes its client logger here so a caller's request logger wins.
func FromContextOr(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return fallback
}

// WithLookup scopes the context logger to one application field, so every
// strategy, cache and ambiguity line of that lookup names what was resolved.
func WithLookup(ctx context.Context, appName, fieldName string) context.Context {
	l := FromContext(ctx).With(
		zap.String("application", appName),
		zap.String("field", fieldName),
	)
	return ContextWithLogger(ctx, l)
}
