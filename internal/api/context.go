package api

import (
	"context"

	"github.com/rs/zerolog"
)

// WithLogger attaches a request scoped logger.
func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}

// LoggerFromContext returns the request logger, or a disabled logger when none is attached.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
