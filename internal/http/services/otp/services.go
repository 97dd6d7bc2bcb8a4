// Package otp contains the challenge orchestration services: the
// two-phase challenge flow, the session evidence guard, and the
// primary-auth adapter. All verification is delegated to the validation
// server; these services only orchestrate.
package otp

import (
	"context"
	"fmt"

	"github.com/codeenigma/linotp2/internal/linotp"
	"github.com/codeenigma/linotp2/internal/state"
)

// Service errors. Controllers translate these into the HTTP error surface;
// the invalid-OTP / invalid-state / server-error distinction is load-bearing.
var (
	ErrMissingFields         = fmt.Errorf("missing required fields")
	ErrUnknownUsername       = fmt.Errorf("no username candidate under the configured uid attribute")
	ErrInvalidState          = fmt.Errorf("invalid or expired authentication state")
	ErrInvalidOTP            = fmt.Errorf("otp rejected by validation server")
	ErrTooManyAttempts       = fmt.Errorf("too many failed otp attempts")
	ErrWrongCredentials      = fmt.Errorf("wrong username or password")
	ErrValidationUnavailable = fmt.Errorf("validation server unavailable")
)

// BeginInput is phase one's input: the caller's in-flight authentication
// context.
type BeginInput struct {
	SessionID  string
	SourceID   string
	ReturnURL  string
	Attributes map[string][]string
}

// BeginResult reports either an immediate resume (session evidence hit)
// or an issued challenge.
type BeginResult struct {
	// Verified is true when cached evidence covered this identity and no
	// challenge was issued.
	Verified bool

	StateID  string
	EntryURL string

	ReturnURL string
}

// CompleteResult reports a successful phase two.
type CompleteResult struct {
	ReturnURL string

	// Attributes is the verified fixed attribute set (internal names;
	// the second-factor path confirms, it does not re-map).
	Attributes map[string][]string
}

// ChallengeService is the two-phase challenge state machine.
type ChallengeService interface {
	// Begin issues a challenge, or resumes immediately when session
	// evidence already covers the identity.
	Begin(ctx context.Context, in BeginInput) (*BeginResult, error)

	// Complete consumes a submitted OTP against a persisted context.
	Complete(ctx context.Context, sessionID, stateID, otp string) (*CompleteResult, error)
}

// LoginService is the primary-auth adapter: both credential parts arrive
// together, so there is no suspend/resume phase.
type LoginService interface {
	Login(ctx context.Context, username, password string) (map[string][]string, error)
}

// Deps wires the collaborators shared by the services.
type Deps struct {
	Store state.Store
	Guard *SessionGuard

	// Validate builds a validation client from a config snapshot.
	Validate linotp.Factory

	// Validation is the configured per-source validation config; Begin
	// snapshots it into each persisted context.
	Validation linotp.Config

	// AttributeMap renames internal attribute names on the primary path.
	AttributeMap map[string]string

	UIDAttribute string
	EntryURL     string
	MaxAttempts  int
}
