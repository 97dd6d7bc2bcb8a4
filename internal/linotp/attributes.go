package linotp

// AttributeNames is the fixed internal attribute vocabulary returned by
// the validation server on success.
var AttributeNames = []string{
	"username",
	"surname",
	"email",
	"givenname",
	"mobile",
	"phone",
}

// DefaultAttributeMap renames the internal vocabulary to the caller-facing
// names used when no map is configured.
var DefaultAttributeMap = map[string]string{
	"username":  "samlLoginName",
	"surname":   "surName",
	"givenname": "givenName",
	"email":     "emailAddress",
	"phone":     "telePhone",
	"mobile":    "mobilePhone",
}

// MapAttributes renames raw attribute keys through the configured map.
// Unmapped keys pass through unchanged; values are copied as-is, empty
// sequences included.
func MapAttributes(raw map[string][]string, configured map[string]string) map[string][]string {
	out := make(map[string][]string, len(raw))
	for name, values := range raw {
		key := name
		if mapped, ok := configured[name]; ok {
			key = mapped
		}
		out[key] = values
	}
	return out
}
