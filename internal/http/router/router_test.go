package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeenigma/linotp2/internal/cache"
	otpctrl "github.com/codeenigma/linotp2/internal/http/controllers/otp"
	otpsvc "github.com/codeenigma/linotp2/internal/http/services/otp"
	"github.com/codeenigma/linotp2/internal/linotp"
	"github.com/codeenigma/linotp2/internal/metrics"
	"github.com/codeenigma/linotp2/internal/rate"
	"github.com/codeenigma/linotp2/internal/session"
	"github.com/codeenigma/linotp2/internal/state"
)

type scriptedValidator struct {
	outcome linotp.Outcome
	calls   int
}

func (v *scriptedValidator) Validate(ctx context.Context, username, otp string) linotp.Outcome {
	v.calls++
	return v.outcome
}

type testGateway struct {
	handler http.Handler
	stub    *scriptedValidator
}

func newGateway(t *testing.T, outcome linotp.Outcome, deps Deps) *testGateway {
	t.Helper()
	c := cache.NewMemory("")
	t.Cleanup(func() { _ = c.Close() })

	stub := &scriptedValidator{outcome: outcome}
	svcDeps := otpsvc.Deps{
		Store: state.NewCacheStore(c, time.Minute),
		Guard: otpsvc.NewSessionGuard(session.NewManager(c, time.Hour)),
		Validate: func(linotp.Config) linotp.Validator {
			return stub
		},
		Validation:   linotp.Config{ServerURL: "https://otp.example.org"},
		UIDAttribute: "uid",
		EntryURL:     "https://gw.example.org/otp/enter",
		MaxAttempts:  3,
	}
	deps.Controllers = otpctrl.New(
		otpsvc.NewChallengeService(svcDeps),
		otpsvc.NewLoginService(svcDeps),
		svcDeps.Guard,
	)
	return &testGateway{handler: New(deps), stub: stub}
}

func (g *testGateway) postJSON(t *testing.T, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	g.handler.ServeHTTP(rec, req)
	return rec
}

func allowedOutcome() linotp.Outcome {
	attrs := map[string][]string{}
	for _, name := range linotp.AttributeNames {
		attrs[name] = []string{""}
	}
	attrs["username"] = []string{"bob"}
	return linotp.Outcome{Kind: linotp.KindAllowed, Attributes: attrs}
}

func challengeBody() map[string]any {
	return map[string]any{
		"source_id":  "corp-idp",
		"return_url": "https://sp.example.org/resume?id=42",
		"attributes": map[string][]string{"uid": {"bob"}},
	}
}

func TestHealthz(t *testing.T) {
	gw := newGateway(t, allowedOutcome(), Deps{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	gw.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	mh, err := metrics.Register(nil)
	require.NoError(t, err)
	gw := newGateway(t, allowedOutcome(), Deps{MetricsHandler: mh})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	gw.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChallengeFlowEndToEnd(t *testing.T) {
	gw := newGateway(t, allowedOutcome(), Deps{})

	// Phase one: the gateway issues a challenge and points the browser at
	// the entry form.
	rec := gw.postJSON(t, "/v1/otp/challenge", challengeBody(), nil)
	require.Equal(t, http.StatusFound, rec.Code)

	var begun struct {
		Verified bool   `json:"verified"`
		StateID  string `json:"state_id"`
		EntryURL string `json:"entry_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &begun))
	assert.False(t, begun.Verified)
	require.NotEmpty(t, begun.StateID)
	assert.Equal(t, rec.Header().Get("Location"), begun.EntryURL)

	loc, err := url.Parse(begun.EntryURL)
	require.NoError(t, err)
	assert.Equal(t, begun.StateID, loc.Query().Get("StateId"))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies, "phase one must mint a session cookie")

	// Phase two: the entry form posts the OTP back.
	rec = gw.postJSON(t, "/v1/otp/verify", map[string]string{
		"state_id": begun.StateID,
		"otp":      "123456",
	}, cookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var verified struct {
		ReturnURL  string              `json:"return_url"`
		Attributes map[string][]string `json:"attributes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verified))
	assert.Equal(t, "https://sp.example.org/resume?id=42", verified.ReturnURL)
	assert.Equal(t, []string{"bob"}, verified.Attributes["username"])
	assert.Equal(t, 1, gw.stub.calls)

	// Same session again: evidence short-circuits the challenge.
	rec = gw.postJSON(t, "/v1/otp/challenge", challengeBody(), cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	var again struct {
		Verified  bool   `json:"verified"`
		ReturnURL string `json:"return_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.True(t, again.Verified)
	assert.Equal(t, "https://sp.example.org/resume?id=42", again.ReturnURL)
	assert.Equal(t, 1, gw.stub.calls, "evidence hit must not call the validation server")

	// Logout clears the evidence; the next challenge is issued again.
	rec = gw.postJSON(t, "/v1/otp/logout", map[string]string{"source_id": "corp-idp"}, cookies)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = gw.postJSON(t, "/v1/otp/challenge", challengeBody(), cookies)
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestVerifyAcceptsFormPost(t *testing.T) {
	gw := newGateway(t, allowedOutcome(), Deps{})

	rec := gw.postJSON(t, "/v1/otp/challenge", challengeBody(), nil)
	require.Equal(t, http.StatusFound, rec.Code)
	var begun struct {
		StateID string `json:"state_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &begun))

	form := url.Values{}
	form.Set("StateId", begun.StateID)
	form.Set("otp", "123456")
	req := httptest.NewRequest(http.MethodPost, "/v1/otp/verify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec2 := httptest.NewRecorder()
	gw.handler.ServeHTTP(rec2, req)

	assert.Equal(t, http.StatusOK, rec2.Code, rec2.Body.String())
}

func TestVerifyInvalidOTP(t *testing.T) {
	gw := newGateway(t, linotp.Outcome{Kind: linotp.KindDenied}, Deps{})

	rec := gw.postJSON(t, "/v1/otp/challenge", challengeBody(), nil)
	require.Equal(t, http.StatusFound, rec.Code)
	var begun struct {
		StateID string `json:"state_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &begun))

	rec = gw.postJSON(t, "/v1/otp/verify", map[string]string{
		"state_id": begun.StateID,
		"otp":      "999999",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_OTP")
}

func TestVerifyUnknownState(t *testing.T) {
	gw := newGateway(t, allowedOutcome(), Deps{})

	rec := gw.postJSON(t, "/v1/otp/verify", map[string]string{
		"state_id": "no-such-id",
		"otp":      "123456",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_STATE")
	assert.Zero(t, gw.stub.calls)
}

func TestVerifyServerError(t *testing.T) {
	gw := newGateway(t, linotp.Outcome{Kind: linotp.KindServerError}, Deps{})

	rec := gw.postJSON(t, "/v1/otp/challenge", challengeBody(), nil)
	require.Equal(t, http.StatusFound, rec.Code)
	var begun struct {
		StateID string `json:"state_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &begun))

	rec = gw.postJSON(t, "/v1/otp/verify", map[string]string{
		"state_id": begun.StateID,
		"otp":      "123456",
	}, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "OTP_SERVER_ERROR")
}

func TestChallengeBadJSON(t *testing.T) {
	gw := newGateway(t, allowedOutcome(), Deps{})

	req := httptest.NewRequest(http.MethodPost, "/v1/otp/challenge", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	gw.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_JSON")
}

func TestLoginEndpoint(t *testing.T) {
	gw := newGateway(t, allowedOutcome(), Deps{})

	rec := gw.postJSON(t, "/v1/auth/login", map[string]string{
		"username": "bob",
		"password": "pin123456",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Attributes map[string][]string `json:"attributes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"bob"}, resp.Attributes["username"])
}

func TestLoginWrongCredentials(t *testing.T) {
	gw := newGateway(t, linotp.Outcome{Kind: linotp.KindDenied}, Deps{})

	rec := gw.postJSON(t, "/v1/auth/login", map[string]string{
		"username": "bob",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
}

func TestLoginRateLimited(t *testing.T) {
	gw := newGateway(t, linotp.Outcome{Kind: linotp.KindDenied}, Deps{
		LoginLimiter: rate.NewMemoryLimiter(2, time.Hour),
	})

	body := map[string]string{"username": "bob", "password": "wrong"}
	for i := 0; i < 2; i++ {
		rec := gw.postJSON(t, "/v1/auth/login", body, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := gw.postJSON(t, "/v1/auth/login", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
}

func TestSecurityHeaders(t *testing.T) {
	gw := newGateway(t, allowedOutcome(), Deps{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	gw.handler.ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
