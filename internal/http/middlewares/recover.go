package middlewares

import (
	"net/http"

	"github.com/codeenigma/linotp2/internal/http/errors"
	"github.com/codeenigma/linotp2/internal/observability/logger"
)

// WithRecover turns panics into a 500 instead of crashing the gateway.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log := logger.From(r.Context())
					log.Error("panic recovered",
						logger.Op("recover"),
						logger.Any("panic", rec),
					)
					errors.WriteError(w, errors.ErrInternalServerError.WithDetail("panic recovered"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
