package util

import (
	"net/url"
	"strings"
)

// sensitiveParams are query parameters whose values must never reach logs.
var sensitiveParams = map[string]bool{
	"pass":     true,
	"password": true,
	"otp":      true,
}

// RedactURL returns the URL with sensitive query values replaced by "***".
// Used when tracing requests to the validation server, which carries the
// OTP as a query parameter.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	q := u.Query()
	for k := range q {
		if sensitiveParams[strings.ToLower(k)] {
			q.Set(k, "***")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.IndexByte(s, '@')
	if i <= 0 {
		if s == "" {
			return ""
		}
		if len(s) <= 3 {
			return "***"
		}
		return s[:1] + "…" + s[len(s)-1:]
	}
	user, dom := s[:i], s[i+1:]
	if len(user) > 1 {
		user = user[:1] + "…"
	}
	dparts := strings.Split(dom, ".")
	if len(dparts) > 0 && len(dparts[0]) > 1 {
		dparts[0] = dparts[0][:1] + "…"
	}
	return user + "@" + strings.Join(dparts, ".")
}
