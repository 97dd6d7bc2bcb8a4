// Package router assembles the gateway's route tree.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	otpctrl "github.com/codeenigma/linotp2/internal/http/controllers/otp"
	"github.com/codeenigma/linotp2/internal/http/middlewares"
	"github.com/codeenigma/linotp2/internal/rate"
)

// Deps contains everything the router mounts.
type Deps struct {
	Controllers *otpctrl.Controllers

	Session middlewares.SessionConfig

	// LoginLimiter / VerifyLimiter rate-limit the credential endpoints
	// per client IP. Nil disables limiting.
	LoginLimiter  rate.Limiter
	VerifyLimiter rate.Limiter

	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

// New builds the chi router with the standard middleware stack.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/otp/challenge", deps.Controllers.Challenge.Begin)
		r.With(middlewares.WithRateLimit(deps.VerifyLimiter, "verify")).
			Post("/otp/verify", deps.Controllers.Challenge.Verify)
		r.Post("/otp/logout", deps.Controllers.Logout.Logout)
		r.With(middlewares.WithRateLimit(deps.LoginLimiter, "login")).
			Post("/auth/login", deps.Controllers.Login.Login)
	})

	return middlewares.Chain(r,
		middlewares.WithRequestID(),
		middlewares.WithLogging(),
		middlewares.WithRecover(),
		middlewares.WithSecurityHeaders(),
		middlewares.WithSession(deps.Session),
	)
}
