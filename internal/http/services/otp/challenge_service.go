package otp

import (
	"context"
	"net/url"
	"strings"

	"github.com/codeenigma/linotp2/internal/linotp"
	"github.com/codeenigma/linotp2/internal/metrics"
	"github.com/codeenigma/linotp2/internal/observability/logger"
	"github.com/codeenigma/linotp2/internal/state"
)

type challengeService struct {
	deps Deps
}

// NewChallengeService creates the challenge state machine.
func NewChallengeService(deps Deps) ChallengeService {
	if deps.Validate == nil {
		deps.Validate = linotp.NewValidator
	}
	if deps.MaxAttempts <= 0 {
		deps.MaxAttempts = 5
	}
	return &challengeService{deps: deps}
}

func (s *challengeService) Begin(ctx context.Context, in BeginInput) (*BeginResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("otp.begin"))

	in.SourceID = strings.TrimSpace(in.SourceID)
	in.ReturnURL = strings.TrimSpace(in.ReturnURL)
	if in.SourceID == "" || in.ReturnURL == "" {
		return nil, ErrMissingFields
	}

	candidates := in.Attributes[s.deps.UIDAttribute]
	if len(candidates) == 0 || strings.TrimSpace(candidates[0]) == "" {
		log.Warn("no username candidates", logger.String("uid_attribute", s.deps.UIDAttribute))
		return nil, ErrUnknownUsername
	}

	// Already second-factor verified in this session: resume without a
	// challenge and without touching the network.
	if s.deps.Guard.Check(ctx, in.SessionID, in.SourceID, candidates) {
		metrics.ObserveChallenge("cached")
		return &BeginResult{Verified: true, ReturnURL: in.ReturnURL}, nil
	}

	username := candidates[0]
	id, err := s.deps.Store.Save(ctx, state.ChallengeContext{
		ReturnURL:  in.ReturnURL,
		Username:   username,
		SourceID:   in.SourceID,
		Validation: s.deps.Validation,
	}, state.TagChallengeInit)
	if err != nil {
		log.Error("failed to persist challenge context", logger.Err(err))
		return nil, err
	}

	log.Info("challenge issued", logger.StateID(id), logger.SourceID(in.SourceID), logger.Username(username))
	metrics.ObserveChallenge("issued")

	return &BeginResult{
		StateID:  id,
		EntryURL: entryURL(s.deps.EntryURL, id),
	}, nil
}

// entryURL appends the StateId parameter to the configured entry form URL.
func entryURL(base, stateID string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("StateId", stateID)
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *challengeService) Complete(ctx context.Context, sessionID, stateID, otp string) (*CompleteResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("otp.complete"), logger.StateID(stateID))

	otp = strings.TrimSpace(otp)
	if stateID == "" || otp == "" {
		return nil, ErrMissingFields
	}

	// Tag check happens before anything else; a context at the wrong
	// stage never reaches the validation server.
	c, err := s.deps.Store.Load(ctx, stateID, state.TagChallengeInit)
	if err != nil {
		log.Warn("challenge context rejected", logger.Err(err))
		return nil, ErrInvalidState
	}

	// The remote comparison is case-insensitive; normalise on this side.
	otp = strings.ToLower(otp)

	validator := s.deps.Validate(c.Validation)
	out := validator.Validate(ctx, c.Username, otp)

	switch out.Kind {
	case linotp.KindAllowed:
		if err := s.deps.Guard.Remember(ctx, sessionID, c.SourceID, c.Username); err != nil {
			log.Warn("failed to store session evidence", logger.Err(err))
		}
		// Consumed exactly once.
		if err := s.deps.Store.Delete(ctx, stateID); err != nil {
			log.Warn("failed to consume challenge state", logger.Err(err))
		}
		log.Info("challenge resumed", logger.SourceID(c.SourceID), logger.Username(c.Username))
		metrics.ObserveChallenge("resumed")
		return &CompleteResult{ReturnURL: c.ReturnURL, Attributes: out.Attributes}, nil

	case linotp.KindDenied:
		attempts, aerr := s.deps.Store.IncrementAttempts(ctx, stateID)
		if aerr != nil {
			log.Warn("failed to count attempt", logger.Err(aerr))
		}
		if attempts >= s.deps.MaxAttempts {
			// The state id is burned; the caller must start over.
			_ = s.deps.Store.Delete(ctx, stateID)
			log.Warn("attempt limit reached, challenge cancelled",
				logger.Int("attempts", attempts), logger.Username(c.Username))
			metrics.ObserveChallenge("failed")
			return nil, ErrTooManyAttempts
		}
		log.Info("invalid OTP", logger.Int("attempts", attempts), logger.Username(c.Username))
		metrics.ObserveChallenge("failed")
		return nil, ErrInvalidOTP

	default:
		log.Error("validation server error", logger.Err(out.Err))
		metrics.ObserveChallenge("error")
		return nil, ErrValidationUnavailable
	}
}
