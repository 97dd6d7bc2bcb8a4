package middlewares

import (
	"net/http"

	"github.com/codeenigma/linotp2/internal/session"
)

// SessionConfig controls the session cookie minted by WithSession.
type SessionConfig struct {
	MaxAge int  // seconds; session TTL
	Secure bool // set on HTTPS deployments
}

// WithSession ensures every request carries an opaque session cookie and
// injects the session id into the context. The session is what pairs
// cached OTP evidence with a browser.
func WithSession(cfg SessionConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(session.CookieName); err == nil && c.Value != "" {
				sid = c.Value
			}
			if sid == "" {
				sid = session.NewID()
				http.SetCookie(w, &http.Cookie{
					Name:     session.CookieName,
					Value:    sid,
					Path:     "/",
					MaxAge:   cfg.MaxAge,
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := setSessionID(r.Context(), sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
