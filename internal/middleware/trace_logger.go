// Package middleware holds small net/http middleware shared by every route
// on both the landing listener and the bridge listener.
package middleware

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type loggerKey struct{}

// WithTraceLogger attaches a zap logger pre-populated with the request's
// trace and span IDs (when a span is active) to the request context, so
// handlers and the packages they call can log with correlation fields
// without threading a logger through every function signature.
func WithTraceLogger(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := base
			span := trace.SpanFromContext(r.Context())
			if sc := span.SpanContext(); sc.IsValid() {
				logger = logger.With(
					zap.String("trace_id", sc.TraceID().String()),
					zap.String("span_id", sc.SpanID().String()),
				)
			}
			ctx := context.WithValue(r.Context(), loggerKey{}, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggerFromContext returns the trace-aware logger stashed by
// WithTraceLogger, falling back to the global logger if none was attached
// (e.g. in unit tests that call a handler directly).
func LoggerFromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return logger
	}
	return zap.L()
}

// LoggerFromRequest is a convenience wrapper around LoggerFromContext.
func LoggerFromRequest(r *http.Request) *zap.Logger {
	return LoggerFromContext(r.Context())
}
