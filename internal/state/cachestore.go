package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codeenigma/linotp2/internal/cache"
	"github.com/google/uuid"
)

// envelope is the stored record: the context plus its stage tag and
// failed-attempt counter.
type envelope struct {
	Tag      string           `json:"tag"`
	Attempts int              `json:"attempts"`
	Context  ChallengeContext `json:"context"`
}

// CacheStore keeps pending contexts in the cache backend (memory or
// redis). Expiry is the backend TTL; nothing here extends it.
type CacheStore struct {
	cache cache.Client
	ttl   time.Duration
}

var _ Store = (*CacheStore)(nil)

// NewCacheStore creates a cache-backed store. ttl bounds how long a
// suspended authentication may wait for its OTP.
func NewCacheStore(c cache.Client, ttl time.Duration) *CacheStore {
	return &CacheStore{cache: c, ttl: ttl}
}

func key(id string) string { return "otpstate:" + id }

func (s *CacheStore) Save(ctx context.Context, c ChallengeContext, tag string) (string, error) {
	id := uuid.NewString()
	b, err := json.Marshal(envelope{Tag: tag, Context: c})
	if err != nil {
		return "", fmt.Errorf("state: marshal context: %w", err)
	}
	if err := s.cache.Set(ctx, key(id), string(b), s.ttl); err != nil {
		return "", fmt.Errorf("state: save context: %w", err)
	}
	return id, nil
}

func (s *CacheStore) load(ctx context.Context, id string) (*envelope, error) {
	raw, err := s.cache.Get(ctx, key(id))
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("state: corrupt context: %w", err)
	}
	return &env, nil
}

func (s *CacheStore) Load(ctx context.Context, id, expectedTag string) (*ChallengeContext, error) {
	env, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if env.Tag != expectedTag {
		return nil, ErrInvalidState
	}
	c := env.Context
	return &c, nil
}

func (s *CacheStore) IncrementAttempts(ctx context.Context, id string) (int, error) {
	env, err := s.load(ctx, id)
	if err != nil {
		return 0, err
	}
	env.Attempts++
	b, err := json.Marshal(env)
	if err != nil {
		return 0, err
	}
	// Re-set refreshes the TTL; acceptable since the window only moves
	// while the user is actively retrying.
	if err := s.cache.Set(ctx, key(id), string(b), s.ttl); err != nil {
		return 0, err
	}
	return env.Attempts, nil
}

func (s *CacheStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, key(id))
}
