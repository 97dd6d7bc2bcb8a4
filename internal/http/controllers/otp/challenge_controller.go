package otp

import (
	"net/http"
	"strings"

	dto "github.com/codeenigma/linotp2/internal/http/dto/otp"
	httperrors "github.com/codeenigma/linotp2/internal/http/errors"
	"github.com/codeenigma/linotp2/internal/http/middlewares"
	svc "github.com/codeenigma/linotp2/internal/http/services/otp"
	"github.com/codeenigma/linotp2/internal/observability/logger"
)

// ChallengeController handles the two challenge phases.
type ChallengeController struct {
	service svc.ChallengeService
}

// NewChallengeController creates the controller.
func NewChallengeController(s svc.ChallengeService) *ChallengeController {
	return &ChallengeController{service: s}
}

// Begin handles POST /v1/otp/challenge.
//
// With matching session evidence it answers 200 {verified:true}; otherwise
// it issues a challenge and answers 302 with a Location pointing at the
// entry form, StateId attached, plus a JSON body for non-browser callers.
func (c *ChallengeController) Begin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("otp.challenge"))

	var req dto.ChallengeRequest
	if !readJSON(w, r, &req) {
		return
	}

	result, err := c.service.Begin(ctx, svc.BeginInput{
		SessionID:  middlewares.GetSessionID(ctx),
		SourceID:   req.SourceID,
		ReturnURL:  req.ReturnURL,
		Attributes: req.Attributes,
	})
	if err != nil {
		writeServiceError(w, err, log)
		return
	}

	if result.Verified {
		writeJSON(w, http.StatusOK, dto.ChallengeResponse{
			Verified:  true,
			ReturnURL: result.ReturnURL,
		})
		return
	}

	w.Header().Set("Location", result.EntryURL)
	writeJSON(w, http.StatusFound, dto.ChallengeResponse{
		StateID:  result.StateID,
		EntryURL: result.EntryURL,
	})
}

// Verify handles POST /v1/otp/verify, submitted by the entry form. It
// accepts JSON or a classic form post.
func (c *ChallengeController) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("otp.verify"))

	var req dto.VerifyRequest
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if strings.Contains(ct, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			httperrors.WriteError(w, httperrors.ErrBadRequest)
			return
		}
		req.StateID = r.PostFormValue("StateId")
		req.OTP = r.PostFormValue("otp")
	} else if !readJSON(w, r, &req) {
		return
	}

	result, err := c.service.Complete(ctx, middlewares.GetSessionID(ctx), req.StateID, req.OTP)
	if err != nil {
		writeServiceError(w, err, log)
		return
	}

	writeJSON(w, http.StatusOK, dto.VerifyResponse{
		ReturnURL:  result.ReturnURL,
		Attributes: result.Attributes,
	})
}
