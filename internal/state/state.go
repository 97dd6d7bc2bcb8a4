// Package state persists pending challenge contexts across the
// redirect-and-resume gap. A suspended authentication is serialized under
// an opaque state id and a stage tag; resuming with the wrong tag fails
// before anything else happens.
package state

import (
	"context"
	"errors"

	"github.com/codeenigma/linotp2/internal/linotp"
)

// TagChallengeInit marks a context saved at challenge issuance. Phase two
// only accepts contexts carrying this tag.
const TagChallengeInit = "otp:init"

var (
	// ErrNotFound means the state id is unknown or expired.
	ErrNotFound = errors.New("state: not found")

	// ErrInvalidState means the context exists but was saved under a
	// different stage tag. Fatal to the request; never retried.
	ErrInvalidState = errors.New("state: context tag mismatch")
)

// ChallengeContext is the pure-data record bridging the two challenge
// phases. It references the suspended caller flow (ReturnURL) and carries
// everything needed to rebuild the validation client on resume; it holds
// no behavioral references.
type ChallengeContext struct {
	// ReturnURL identifies the suspended caller flow to resume. Owned by
	// the caller, referenced here.
	ReturnURL string `json:"return_url"`

	// Username is the identity to validate in phase two.
	Username string `json:"username"`

	// SourceID is the originating authentication-source identifier,
	// used as the session evidence key.
	SourceID string `json:"source_id"`

	// Validation is a snapshot of the per-source validation config.
	Validation linotp.Config `json:"validation"`
}

// Store is the persistence collaborator.
type Store interface {
	// Save serializes the context under the given stage tag and returns
	// a freshly minted opaque state id.
	Save(ctx context.Context, c ChallengeContext, tag string) (string, error)

	// Load returns the context for id. ErrNotFound for unknown/expired
	// ids; ErrInvalidState when the stored tag differs from expectedTag.
	Load(ctx context.Context, id, expectedTag string) (*ChallengeContext, error)

	// IncrementAttempts bumps the failed-attempt counter for id and
	// returns the new count.
	IncrementAttempts(ctx context.Context, id string) (int, error)

	// Delete consumes the state. Deleting an absent id is a no-op.
	Delete(ctx context.Context, id string) error
}
