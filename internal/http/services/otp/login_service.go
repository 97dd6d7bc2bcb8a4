package otp

import (
	"context"
	"strings"

	"github.com/codeenigma/linotp2/internal/linotp"
	"github.com/codeenigma/linotp2/internal/observability/logger"
)

type loginService struct {
	deps Deps
}

// NewLoginService creates the primary-auth adapter.
func NewLoginService(deps Deps) LoginService {
	if deps.Validate == nil {
		deps.Validate = linotp.NewValidator
	}
	return &loginService{deps: deps}
}

// Login validates (username, password) in a single synchronous call. The
// password is passed to the server verbatim; unlike the second-factor
// path it is not lowercased, since it may carry a static PIN prefix.
func (s *loginService) Login(ctx context.Context, username, password string) (map[string][]string, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("otp.login"))

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}

	validator := s.deps.Validate(s.deps.Validation)
	out := validator.Validate(ctx, username, password)

	switch out.Kind {
	case linotp.KindAllowed:
		log.Info("login accepted", logger.Username(username))
		return linotp.MapAttributes(out.Attributes, s.deps.AttributeMap), nil
	case linotp.KindDenied:
		log.Info("login rejected", logger.Username(username))
		return nil, ErrWrongCredentials
	default:
		log.Error("validation server error", logger.Err(out.Err))
		return nil, ErrValidationUnavailable
	}
}
