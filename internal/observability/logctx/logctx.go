// Package logctx carries the request-scoped logger through context.Context so
// adapters called deep in a use case log with the same request fields.
package logctx

import (
	"context"

	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability"
)

type loggerKey struct{}

// With stores logger on ctx. A nil ctx or logger leaves ctx unchanged.
func With(ctx context.Context, logger observability.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// From returns the logger stored on ctx, or nil.
func From(ctx context.Context) observability.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerKey{}).(observability.Logger)
	return logger
}

// FromOr is From with a fallback for contexts that carry no logger.
func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	if logger := From(ctx); logger != nil {
		return logger
	}
	if fallback == nil {
		return observability.NopLogger()
	}
	return fallback
}

// WithFields derives a logger with fields from the one on ctx (or fallback)
// and stores it back, so later calls that only receive ctx see the fields too.
func WithFields(ctx context.Context, fallback observability.Logger, fields ...observability.Field) (context.Context, observability.Logger) {
	logger := FromOr(ctx, fallback).With(fields...)
	return With(ctx, logger), logger
}
