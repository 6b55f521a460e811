// Package kit holds the transport-agnostic endpoint type shared by the HTTP
// API, the MCP tools and the CLI, plus the request context keys they set.
package kit

import (
	"context"
	"log/slog"
	"time"
)

// Endpoint is one operation, independent of the transport that invokes it.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware decorates an Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares; the first one is the outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// Logging logs every call of the endpoint named name at debug level, and
// failures at warn level, with the transport and trace ID from ctx.
func Logging(logger *slog.Logger, name string) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			l := Logger(ctx, logger).With(
				"endpoint", name,
				"transport", GetTransport(ctx),
				"duration", time.Since(start),
			)
			if id := GetTraceID(ctx); id != "" {
				l = l.With("trace_id", id)
			}
			if err != nil {
				l.Warn("endpoint failed", "error", err)
			} else {
				l.Debug("endpoint done")
			}
			return resp, err
		}
	}
}
