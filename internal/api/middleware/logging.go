package middleware

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const requestLogContextKey contextKey = "requestLog"

// requestLog collects fields that only become known further down the chain.
// The auth middleware fills in the identity once the session resolves.
type requestLog struct {
	identity string
}

// Logger returns middleware that writes one structured line per request. The
// line carries the caller's identity when the request passed through auth.
func Logger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			entry := &requestLog{}
			r = r.WithContext(context.WithValue(r.Context(), requestLogContextKey, entry))

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				evt := logger.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Str("request_id", chimw.GetReqID(r.Context())).
					Str("ip", RealIP(r))
				if entry.identity != "" {
					evt = evt.Str("identity", entry.identity)
				}
				evt.Msg("http request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// setLogIdentity records the resolved identity on the request's log entry.
// A no-op when the logger middleware is not installed.
func setLogIdentity(ctx context.Context, identity string) {
	if entry, ok := ctx.Value(requestLogContextKey).(*requestLog); ok {
		entry.identity = identity
	}
}
