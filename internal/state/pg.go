package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore keeps pending contexts in Postgres so suspended authentications
// survive a gateway restart.
type PGStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

var _ Store = (*PGStore)(nil)

// NewPGStore connects and ensures the backing table exists.
func NewPGStore(ctx context.Context, dsn string, ttl time.Duration) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("state: connect postgres: %w", err)
	}
	s := &PGStore{pool: pool, ttl: ttl}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PGStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS otp_challenge_state (
			id         UUID PRIMARY KEY,
			tag        TEXT NOT NULL,
			attempts   INT NOT NULL DEFAULT 0,
			context    JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			expires_at TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

func (s *PGStore) Save(ctx context.Context, c ChallengeContext, tag string) (string, error) {
	id := uuid.New()
	payload, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("state: marshal context: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO otp_challenge_state (id, tag, context, expires_at)
		VALUES ($1, $2, $3, now() + $4)
	`, id, tag, payload, s.ttl)
	if err != nil {
		return "", fmt.Errorf("state: save context: %w", err)
	}
	return id.String(), nil
}

func (s *PGStore) Load(ctx context.Context, id, expectedTag string) (*ChallengeContext, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	row := s.pool.QueryRow(ctx, `
		SELECT tag, context FROM otp_challenge_state
		WHERE id = $1 AND expires_at > now()
	`, uid)

	var tag string
	var payload []byte
	if err := row.Scan(&tag, &payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if tag != expectedTag {
		return nil, ErrInvalidState
	}
	var c ChallengeContext
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("state: corrupt context: %w", err)
	}
	return &c, nil
}

func (s *PGStore) IncrementAttempts(ctx context.Context, id string) (int, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return 0, ErrNotFound
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE otp_challenge_state SET attempts = attempts + 1
		WHERE id = $1 AND expires_at > now()
		RETURNING attempts
	`, uid)
	var attempts int
	if err := row.Scan(&attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return attempts, nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	_, err = s.pool.Exec(ctx, `DELETE FROM otp_challenge_state WHERE id = $1`, uid)
	return err
}

// Cleanup removes expired rows. Call periodically.
func (s *PGStore) Cleanup(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM otp_challenge_state WHERE expires_at <= now()`)
	return err
}

// Close releases the connection pool.
func (s *PGStore) Close() {
	s.pool.Close()
}
