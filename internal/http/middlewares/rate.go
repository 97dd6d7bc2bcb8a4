package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/codeenigma/linotp2/internal/http/errors"
	"github.com/codeenigma/linotp2/internal/observability/logger"
	"github.com/codeenigma/linotp2/internal/rate"
)

// clientIP extracts the client IP, proxy-aware.
func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// WithRateLimit applies a per-client-IP fixed-window limit under the given
// key prefix. A nil limiter disables the middleware.
func WithRateLimit(limiter rate.Limiter, prefix string) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := prefix + ":" + clientIP(r)
			res, err := limiter.Allow(r.Context(), key)
			if err != nil {
				// Limiter backend trouble must not lock users out.
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				if secs := int(res.RetryAfter.Seconds()); secs > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(secs))
				}
				errors.WriteError(w, errors.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
