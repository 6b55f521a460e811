// Package shield provides the HTTP middleware stack of the legaldoc API:
// HEAD handling, security headers, upload body caps and request tracing.
//
// Usage:
//
//	r := chi.NewRouter()
//	for _, mw := range shield.DefaultStack(shield.StackConfig{MaxBody: 500 << 20}) {
//	    r.Use(mw)
//	}
package shield

import (
	"log/slog"
	"net/http"
)

// StackConfig configures DefaultStack.
type StackConfig struct {
	// MaxBody caps every request body in bytes (0 = no cap).
	MaxBody int64

	// Logger is the base of the per-request loggers (default: slog.Default()).
	Logger *slog.Logger
}

// DefaultStack returns the standard middleware stack for the API, ordered
// HeadToGet → SecurityHeaders → MaxBody → TraceID.
func DefaultStack(cfg StackConfig) []func(http.Handler) http.Handler {
	stack := []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
	}
	if cfg.MaxBody > 0 {
		stack = append(stack, MaxBody(cfg.MaxBody))
	}
	return append(stack, TraceID(cfg.Logger))
}

// HeadToGet lets routes registered with r.Get answer HEAD requests;
// net/http drops the body of HEAD responses.
func HeadToGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			r.Method = http.MethodGet
		}
		next.ServeHTTP(w, r)
	})
}
