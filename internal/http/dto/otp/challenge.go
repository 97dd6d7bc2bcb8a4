package otp

// ChallengeRequest begins the second-factor phase for a suspended caller flow.
type ChallengeRequest struct {
	// SourceID identifies the originating authentication source; it keys
	// the per-session evidence of a previous successful OTP check.
	SourceID string `json:"source_id"`

	// ReturnURL is where the caller's flow resumes after the OTP check.
	ReturnURL string `json:"return_url"`

	// Attributes is the caller's current attribute set; the configured
	// uid attribute supplies the username candidates.
	Attributes map[string][]string `json:"attributes"`
}

// ChallengeResponse is returned when a challenge is issued (or skipped).
type ChallengeResponse struct {
	Verified  bool   `json:"verified"`
	StateID   string `json:"state_id,omitempty"`
	EntryURL  string `json:"entry_url,omitempty"`
	ReturnURL string `json:"return_url,omitempty"`
}

// VerifyRequest completes the second-factor phase.
type VerifyRequest struct {
	StateID string `json:"state_id"`
	OTP     string `json:"otp"`
}

// VerifyResponse reports a successful resume.
type VerifyResponse struct {
	ReturnURL  string              `json:"return_url"`
	Attributes map[string][]string `json:"attributes"`
}

// LogoutRequest purges session evidence for a source.
type LogoutRequest struct {
	SourceID string `json:"source_id"`
}
