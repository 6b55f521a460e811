package shield

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/legaldoc/kit"
)

// TraceID returns middleware that gives each request a random trace ID and
// a per-request logger derived from base (nil means slog.Default()).
// The ID is echoed in X-Trace-ID and stored with kit.WithTraceID; the
// logger is stored with kit.WithLogger.
func TraceID(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := make([]byte, 8)
			rand.Read(id)
			traceID := hex.EncodeToString(id)

			logger := base
			if logger == nil {
				logger = slog.Default()
			}
			logger = logger.With(
				"trace_id", traceID,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := kit.WithTraceID(r.Context(), traceID)
			ctx = kit.WithRemoteAddr(ctx, r.RemoteAddr)
			ctx = kit.WithTransport(ctx, "http")
			ctx = kit.WithLogger(ctx, logger)
			w.Header().Set("X-Trace-ID", traceID)
			logger.Debug("request", "remote_addr", r.RemoteAddr)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
