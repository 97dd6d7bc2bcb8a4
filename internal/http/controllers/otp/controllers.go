// Package otp contains the HTTP controllers for the challenge, login and
// logout endpoints. Controllers parse and respond; the services decide.
package otp

import (
	"encoding/json"
	"errors"
	"net/http"

	httperrors "github.com/codeenigma/linotp2/internal/http/errors"
	svc "github.com/codeenigma/linotp2/internal/http/services/otp"

	"go.uber.org/zap"
)

const maxJSONBody = 64 << 10 // 64KB

// Controllers bundles the endpoint controllers for route registration.
type Controllers struct {
	Challenge *ChallengeController
	Login     *LoginController
	Logout    *LogoutController
}

// New wires all controllers.
func New(challenge svc.ChallengeService, login svc.LoginService, guard *svc.SessionGuard) *Controllers {
	return &Controllers{
		Challenge: NewChallengeController(challenge),
		Login:     NewLoginController(login),
		Logout:    NewLogoutController(guard),
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps service errors onto the HTTP error surface.
func writeServiceError(w http.ResponseWriter, err error, log *zap.Logger) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	case errors.Is(err, svc.ErrUnknownUsername):
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("no username under the configured uid attribute"))
	case errors.Is(err, svc.ErrInvalidState):
		httperrors.WriteError(w, httperrors.ErrInvalidState)
	case errors.Is(err, svc.ErrInvalidOTP):
		httperrors.WriteError(w, httperrors.ErrInvalidOTP)
	case errors.Is(err, svc.ErrTooManyAttempts):
		httperrors.WriteError(w, httperrors.ErrTooManyAttempts)
	case errors.Is(err, svc.ErrWrongCredentials):
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
	case errors.Is(err, svc.ErrValidationUnavailable):
		httperrors.WriteError(w, httperrors.ErrValidationUnavailable)
	default:
		log.Error("unhandled service error", zap.Error(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
