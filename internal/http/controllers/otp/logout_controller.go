package otp

import (
	"net/http"

	dto "github.com/codeenigma/linotp2/internal/http/dto/otp"
	httperrors "github.com/codeenigma/linotp2/internal/http/errors"
	"github.com/codeenigma/linotp2/internal/http/middlewares"
	svc "github.com/codeenigma/linotp2/internal/http/services/otp"
	"github.com/codeenigma/linotp2/internal/observability/logger"
)

// LogoutController exposes the logout hook: it purges session evidence so
// a re-authentication within the same session prompts for an OTP again.
type LogoutController struct {
	guard *svc.SessionGuard
}

// NewLogoutController creates the controller.
func NewLogoutController(g *svc.SessionGuard) *LogoutController {
	return &LogoutController{guard: g}
}

// Logout handles POST /v1/otp/logout. Idempotent: clearing absent
// evidence still answers 204.
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("otp.logout"))

	var req dto.LogoutRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.SourceID == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}

	if err := c.guard.Clear(ctx, middlewares.GetSessionID(ctx), req.SourceID); err != nil {
		log.Error("failed to clear session evidence", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
