// Package linotp talks to a LinOTP-style validation server.
//
// The server is the single source of truth for whether a (username, OTP)
// pair is valid. This package reduces its HTTP/JSON answer to a tagged
// Outcome and extracts the verified identity attributes on success.
package linotp

import "time"

// Kind classifies the result of a validation call.
//
// The zero value is KindServerError on purpose: an outcome that was never
// explicitly resolved must read as a server error, not as allowed or denied.
type Kind int

const (
	// KindServerError means the server could not be reached, answered
	// garbage, or reported an internal error. Independent of credential
	// correctness.
	KindServerError Kind = iota

	// KindAllowed means the server accepted the credential.
	KindAllowed

	// KindDenied means the server explicitly rejected the credential.
	KindDenied
)

func (k Kind) String() string {
	switch k {
	case KindAllowed:
		return "allowed"
	case KindDenied:
		return "denied"
	default:
		return "server_error"
	}
}

// Outcome is the result of a validation call. Attributes is populated only
// for KindAllowed and then always carries the full fixed attribute set,
// each value wrapped as a one-element slice. Err carries the cause for
// KindServerError.
type Outcome struct {
	Kind       Kind
	Attributes map[string][]string
	Err        error
}

// Config holds the immutable per-source validation settings.
type Config struct {
	// ServerURL is the base URL of the validation server (required).
	ServerURL string `json:"server_url" yaml:"server"`

	// Realm is the tenant/namespace passed to the server. May be empty.
	Realm string `json:"realm" yaml:"realm"`

	// SSLVerifyHost enables hostname verification of the server
	// certificate. Defaults to false for self-signed test deployments;
	// production MUST set it to true.
	SSLVerifyHost bool `json:"ssl_verify_host" yaml:"ssl_verify_host"`

	// SSLVerifyPeer enables certificate-chain verification. Same
	// default and production requirement as SSLVerifyHost.
	SSLVerifyPeer bool `json:"ssl_verify_peer" yaml:"ssl_verify_peer"`

	// Timeout bounds the validation call. Zero means DefaultTimeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultTimeout bounds validation calls when Config.Timeout is unset.
// A timeout is a server error, never a denial.
const DefaultTimeout = 5 * time.Second
