// Package session is the browser-session collaborator: namespaced
// key/value data scoped to an opaque session id, backed by the cache.
package session

import (
	"context"
	"time"

	"github.com/codeenigma/linotp2/internal/cache"
	"github.com/google/uuid"
)

// CookieName is the session cookie set by the session middleware.
const CookieName = "otpgw_session"

// NewID mints an opaque session id.
func NewID() string {
	return uuid.NewString()
}

// Manager reads and writes session-scoped data. All writes share the
// session TTL; last write wins.
type Manager struct {
	cache cache.Client
	ttl   time.Duration
}

// NewManager creates a session manager. ttl is the session lifetime.
func NewManager(c cache.Client, ttl time.Duration) *Manager {
	return &Manager{cache: c, ttl: ttl}
}

func (m *Manager) key(sid, namespace, key string) string {
	return "sess:" + sid + ":" + namespace + ":" + key
}

// GetData returns the stored value, or ok=false when absent or expired.
func (m *Manager) GetData(ctx context.Context, sid, namespace, key string) (string, bool, error) {
	v, err := m.cache.Get(ctx, m.key(sid, namespace, key))
	if err != nil {
		if cache.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

// SetData stores a value under (session, namespace, key).
func (m *Manager) SetData(ctx context.Context, sid, namespace, key, value string) error {
	return m.cache.Set(ctx, m.key(sid, namespace, key), value, m.ttl)
}

// DeleteData removes a value. Deleting absent data is a no-op.
func (m *Manager) DeleteData(ctx context.Context, sid, namespace, key string) error {
	return m.cache.Delete(ctx, m.key(sid, namespace, key))
}
