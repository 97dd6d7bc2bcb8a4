package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeenigma/linotp2/internal/cache"
	"github.com/codeenigma/linotp2/internal/linotp"
)

func newStore(t *testing.T, ttl time.Duration) *CacheStore {
	t.Helper()
	c := cache.NewMemory("")
	t.Cleanup(func() { _ = c.Close() })
	return NewCacheStore(c, ttl)
}

func sampleContext() ChallengeContext {
	return ChallengeContext{
		ReturnURL: "https://sp.example.org/resume?id=42",
		Username:  "bob",
		SourceID:  "corp-idp",
		Validation: linotp.Config{
			ServerURL:     "https://otp.example.org",
			Realm:         "corp",
			SSLVerifyPeer: true,
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newStore(t, time.Minute)
	ctx := context.Background()

	id, err := s.Save(ctx, sampleContext(), TagChallengeInit)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.Load(ctx, id, TagChallengeInit)
	require.NoError(t, err)
	assert.Equal(t, sampleContext(), *got)
}

func TestSaveMintsDistinctIDs(t *testing.T) {
	s := newStore(t, time.Minute)
	ctx := context.Background()

	a, err := s.Save(ctx, sampleContext(), TagChallengeInit)
	require.NoError(t, err)
	b, err := s.Save(ctx, sampleContext(), TagChallengeInit)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLoadUnknownID(t *testing.T) {
	s := newStore(t, time.Minute)

	_, err := s.Load(context.Background(), "no-such-id", TagChallengeInit)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadTagMismatch(t *testing.T) {
	s := newStore(t, time.Minute)
	ctx := context.Background()

	id, err := s.Save(ctx, sampleContext(), "otp:other-stage")
	require.NoError(t, err)

	_, err = s.Load(ctx, id, TagChallengeInit)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestLoadExpired(t *testing.T) {
	s := newStore(t, 20*time.Millisecond)
	ctx := context.Background()

	id, err := s.Save(ctx, sampleContext(), TagChallengeInit)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, err = s.Load(ctx, id, TagChallengeInit)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIncrementAttempts(t *testing.T) {
	s := newStore(t, time.Minute)
	ctx := context.Background()

	id, err := s.Save(ctx, sampleContext(), TagChallengeInit)
	require.NoError(t, err)

	for want := 1; want <= 3; want++ {
		n, err := s.IncrementAttempts(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	// Counting must not disturb the context or its tag.
	got, err := s.Load(ctx, id, TagChallengeInit)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)
}

func TestIncrementAttemptsUnknownID(t *testing.T) {
	s := newStore(t, time.Minute)

	_, err := s.IncrementAttempts(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteConsumesState(t *testing.T) {
	s := newStore(t, time.Minute)
	ctx := context.Background()

	id, err := s.Save(ctx, sampleContext(), TagChallengeInit)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))

	_, err = s.Load(ctx, id, TagChallengeInit)
	assert.ErrorIs(t, err, ErrNotFound)

	// Second delete of the same id is a no-op.
	assert.NoError(t, s.Delete(ctx, id))
}
