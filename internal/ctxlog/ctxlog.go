// Package ctxlog carries the request-scoped slog.Logger in a
// context.Context, so renders, handlers and workers log with the same
// attributes without passing a logger around.
package ctxlog

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// discard is returned for contexts without a logger; tests and library
// callers can then use a bare context.
var discard = slog.New(slog.DiscardHandler)

// WithLogger returns a copy of ctx that carries logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored in ctx, or one that drops every
// record.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return discard
}
