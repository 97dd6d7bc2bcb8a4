package otp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeenigma/linotp2/internal/cache"
	"github.com/codeenigma/linotp2/internal/session"
)

func newGuard(t *testing.T) *SessionGuard {
	t.Helper()
	c := cache.NewMemory("")
	t.Cleanup(func() { _ = c.Close() })
	return NewSessionGuard(session.NewManager(c, time.Hour))
}

func TestGuardRememberAndCheck(t *testing.T) {
	g := newGuard(t)
	ctx := context.Background()

	assert.False(t, g.Check(ctx, "sess-1", "corp-idp", []string{"bob"}))

	require.NoError(t, g.Remember(ctx, "sess-1", "corp-idp", "bob"))

	assert.True(t, g.Check(ctx, "sess-1", "corp-idp", []string{"bob"}))
	// Any matching candidate counts.
	assert.True(t, g.Check(ctx, "sess-1", "corp-idp", []string{"alice", "bob"}))
}

func TestGuardEvidenceIsScopedToSessionAndSource(t *testing.T) {
	g := newGuard(t)
	ctx := context.Background()

	require.NoError(t, g.Remember(ctx, "sess-1", "corp-idp", "bob"))

	assert.False(t, g.Check(ctx, "sess-2", "corp-idp", []string{"bob"}),
		"another session must not inherit evidence")
	assert.False(t, g.Check(ctx, "sess-1", "other-idp", []string{"bob"}),
		"another source must not inherit evidence")
}

func TestGuardUsernameMismatch(t *testing.T) {
	g := newGuard(t)
	ctx := context.Background()

	require.NoError(t, g.Remember(ctx, "sess-1", "corp-idp", "bob"))

	assert.False(t, g.Check(ctx, "sess-1", "corp-idp", []string{"alice"}))
	assert.False(t, g.Check(ctx, "sess-1", "corp-idp", nil))
}

func TestGuardClear(t *testing.T) {
	g := newGuard(t)
	ctx := context.Background()

	require.NoError(t, g.Remember(ctx, "sess-1", "corp-idp", "bob"))
	require.NoError(t, g.Clear(ctx, "sess-1", "corp-idp"))

	assert.False(t, g.Check(ctx, "sess-1", "corp-idp", []string{"bob"}))

	// Clearing absent evidence is a no-op.
	assert.NoError(t, g.Clear(ctx, "sess-1", "corp-idp"))
}

func TestGuardEmptyIdentifiers(t *testing.T) {
	g := newGuard(t)
	ctx := context.Background()

	assert.False(t, g.Check(ctx, "", "corp-idp", []string{"bob"}))
	assert.False(t, g.Check(ctx, "sess-1", "", []string{"bob"}))
	assert.NoError(t, g.Remember(ctx, "", "corp-idp", "bob"))
	assert.NoError(t, g.Clear(ctx, "sess-1", ""))
}

func TestGuardLastWriteWins(t *testing.T) {
	g := newGuard(t)
	ctx := context.Background()

	require.NoError(t, g.Remember(ctx, "sess-1", "corp-idp", "bob"))
	require.NoError(t, g.Remember(ctx, "sess-1", "corp-idp", "alice"))

	assert.False(t, g.Check(ctx, "sess-1", "corp-idp", []string{"bob"}))
	assert.True(t, g.Check(ctx, "sess-1", "corp-idp", []string{"alice"}))
}
