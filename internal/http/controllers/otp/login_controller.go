package otp

import (
	"net/http"

	dto "github.com/codeenigma/linotp2/internal/http/dto/otp"
	httperrors "github.com/codeenigma/linotp2/internal/http/errors"
	svc "github.com/codeenigma/linotp2/internal/http/services/otp"
	"github.com/codeenigma/linotp2/internal/observability/logger"
)

// LoginController handles the primary username/password+OTP path.
type LoginController struct {
	service svc.LoginService
}

// NewLoginController creates the controller.
func NewLoginController(s svc.LoginService) *LoginController {
	return &LoginController{service: s}
}

// Login handles POST /v1/auth/login.
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("otp.login"))

	var req dto.LoginRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}

	attrs, err := c.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err, log)
		return
	}

	writeJSON(w, http.StatusOK, dto.LoginResponse{Attributes: attrs})
}
