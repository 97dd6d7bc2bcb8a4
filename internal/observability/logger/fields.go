package logger

import (
	"time"

	"go.uber.org/zap"
)

// HTTP fields.

// RequestID creates a field for the request id.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method creates a field for the HTTP method.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path creates a field for the request path.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status creates a field for the HTTP status code.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// DurationMs creates a field for the request duration in milliseconds.
func DurationMs(v int64) zap.Field {
	return zap.Int64("duration_ms", v)
}

// Duration creates a field for a duration.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Bytes creates a field for response bytes written.
func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

// ClientIP creates a field for the client IP.
func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

// Domain fields.

// Username creates a field for the identity under validation.
func Username(v string) zap.Field {
	return zap.String("username", v)
}

// SourceID creates a field for the authentication-source identifier.
func SourceID(v string) zap.Field {
	return zap.String("source_id", v)
}

// StateID creates a field for the opaque challenge state id.
func StateID(v string) zap.Field {
	return zap.String("state_id", v)
}

// SessionID creates a field for the browser session id.
func SessionID(v string) zap.Field {
	return zap.String("session_id", v)
}

// Realm creates a field for the validation realm.
func Realm(v string) zap.Field {
	return zap.String("realm", v)
}

// Outcome creates a field for a validation outcome.
func Outcome(v string) zap.Field {
	return zap.String("outcome", v)
}

// System fields.

// Component creates a field for the component/module.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op creates a field for the current operation.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer creates a field for the layer (controller, service, store).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err creates a field for an error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Generic fields.

// String creates a generic string field.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int creates a generic int field.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

// Bool creates a generic bool field.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}

// Any creates a field for any value.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}
