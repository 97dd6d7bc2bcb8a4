package otp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeenigma/linotp2/internal/linotp"
)

func newLoginService(stub *stubValidator) LoginService {
	return NewLoginService(Deps{
		Validate:     stub.factory(),
		Validation:   linotp.Config{ServerURL: "https://otp.example.org", Realm: "corp"},
		AttributeMap: linotp.DefaultAttributeMap,
	})
}

func TestLoginAccepted(t *testing.T) {
	stub := &stubValidator{outcome: allowedOutcome("bob")}
	svc := newLoginService(stub)

	attrs, err := svc.Login(context.Background(), "bob", "pin123456")
	require.NoError(t, err)

	// The primary path maps attribute names for the caller.
	assert.Equal(t, []string{"bob"}, attrs["samlLoginName"])
	assert.NotContains(t, attrs, "username")

	// The password goes out verbatim: no trimming, no lowercasing, since
	// it may carry a static PIN prefix.
	assert.Equal(t, "pin123456", stub.gotOTP)
	assert.Equal(t, "bob", stub.gotUser)
}

func TestLoginPasswordCasePreserved(t *testing.T) {
	stub := &stubValidator{outcome: allowedOutcome("bob")}
	svc := newLoginService(stub)

	_, err := svc.Login(context.Background(), "bob", "PIN123")
	require.NoError(t, err)
	assert.Equal(t, "PIN123", stub.gotOTP)
}

func TestLoginRejected(t *testing.T) {
	stub := &stubValidator{outcome: linotp.Outcome{Kind: linotp.KindDenied}}
	svc := newLoginService(stub)

	_, err := svc.Login(context.Background(), "bob", "wrong")
	assert.ErrorIs(t, err, ErrWrongCredentials)
}

func TestLoginServerError(t *testing.T) {
	stub := &stubValidator{outcome: linotp.Outcome{Kind: linotp.KindServerError}}
	svc := newLoginService(stub)

	_, err := svc.Login(context.Background(), "bob", "123456")
	assert.ErrorIs(t, err, ErrValidationUnavailable)
}

func TestLoginMissingFields(t *testing.T) {
	stub := &stubValidator{outcome: allowedOutcome("bob")}
	svc := newLoginService(stub)

	_, err := svc.Login(context.Background(), "  ", "123456")
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Login(context.Background(), "bob", "")
	assert.ErrorIs(t, err, ErrMissingFields)

	assert.Zero(t, stub.calls)
}
