package otp

import (
	"context"

	"github.com/codeenigma/linotp2/internal/observability/logger"
	"github.com/codeenigma/linotp2/internal/session"
)

// evidenceNamespace scopes the cached proof of a successful OTP check
// inside the session store.
const evidenceNamespace = "otp:auth"

// SessionGuard decides whether a session already holds evidence of a
// successful OTP check for a source, so repeat visits within one session
// are not re-prompted. Evidence is the previously validated username.
type SessionGuard struct {
	sessions *session.Manager
}

// NewSessionGuard creates the guard on top of the session collaborator.
func NewSessionGuard(m *session.Manager) *SessionGuard {
	return &SessionGuard{sessions: m}
}

// Check returns true iff stored evidence for (session, source) matches one
// of the current username candidates. Absence or mismatch means a new
// challenge is required.
func (g *SessionGuard) Check(ctx context.Context, sid, sourceID string, candidates []string) bool {
	if sid == "" || sourceID == "" {
		return false
	}
	stored, ok, err := g.sessions.GetData(ctx, sid, evidenceNamespace, sourceID)
	if err != nil {
		logger.From(ctx).Warn("session evidence lookup failed", logger.Err(err))
		return false
	}
	if !ok || stored == "" {
		return false
	}
	for _, c := range candidates {
		if c == stored {
			logger.From(ctx).Info("reusing previous OTP authentication",
				logger.SourceID(sourceID), logger.Username(stored))
			return true
		}
	}
	return false
}

// Remember stores evidence after a successful check. Last write wins.
func (g *SessionGuard) Remember(ctx context.Context, sid, sourceID, username string) error {
	if sid == "" || sourceID == "" {
		return nil
	}
	return g.sessions.SetData(ctx, sid, evidenceNamespace, sourceID, username)
}

// Clear purges evidence for a source. Idempotent; invoked on logout so a
// re-authentication within the same session is prompted again.
func (g *SessionGuard) Clear(ctx context.Context, sid, sourceID string) error {
	if sid == "" || sourceID == "" {
		return nil
	}
	logger.From(ctx).Info("clearing OTP session evidence", logger.SourceID(sourceID))
	return g.sessions.DeleteData(ctx, sid, evidenceNamespace, sourceID)
}
