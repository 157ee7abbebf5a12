package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ambientdeck/ambientdeck/internal/core"
)

// GetRateLimit returns stored 429 state for an endpoint, or nil when the
// endpoint has never been throttled.
func (s *Store) GetRateLimit(ctx context.Context, endpoint string) (*core.RateLimitState, error) {
	if s == nil || s.DB == nil {
		return nil, ErrNotInitialized
	}

	if ctx == nil {
		ctx = context.Background()
	}

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("endpoint is required")
	}

	var (
		hits         int
		retryAfterMS int64
		last429At    sql.NullInt64
		backoffUntil sql.NullInt64
	)

	row := s.DB.QueryRowContext(ctx, `
		SELECT hits, retry_after_ms, last_429_at, backoff_until
		FROM rate_limits
		WHERE endpoint = ?
	`, endpoint)

	if err := row.Scan(&hits, &retryAfterMS, &last429At, &backoffUntil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch rate limit: %w", err)
	}

	state := buildRateLimitState(hits, retryAfterMS, last429At, backoffUntil)
	return &state, nil
}

// UpdateRateLimit persists 429 state for an endpoint.
func (s *Store) UpdateRateLimit(ctx context.Context, endpoint string, state *core.RateLimitState) error {
	if s == nil || s.DB == nil {
		return ErrNotInitialized
	}

	if ctx == nil {
		ctx = context.Background()
	}

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return errors.New("endpoint is required")
	}
	if state == nil {
		return errors.New("rate limit state is required")
	}

	var backoffUntil sql.NullInt64
	if state.BackoffUntil != nil {
		backoffUntil = sql.NullInt64{Int64: state.BackoffUntil.UTC().Unix(), Valid: true}
	}

	var last429At sql.NullInt64
	if state.Last429At != nil {
		last429At = sql.NullInt64{Int64: state.Last429At.UTC().Unix(), Valid: true}
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO rate_limits (endpoint, hits, retry_after_ms, last_429_at, backoff_until)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(endpoint) DO UPDATE SET
			hits = excluded.hits,
			retry_after_ms = excluded.retry_after_ms,
			last_429_at = excluded.last_429_at,
			backoff_until = excluded.backoff_until
	`, endpoint, state.Hits, state.RetryAfter.Milliseconds(), last429At, backoffUntil)
	if err != nil {
		return fmt.Errorf("store rate limit: %w", err)
	}

	return nil
}

func buildRateLimitState(hits int, retryAfterMS int64, last429At, backoffUntil sql.NullInt64) core.RateLimitState {
	state := core.RateLimitState{
		Hits:       hits,
		RetryAfter: time.Duration(retryAfterMS) * time.Millisecond,
	}
	if last429At.Valid {
		value := time.Unix(last429At.Int64, 0).UTC()
		state.Last429At = &value
	}
	if backoffUntil.Valid {
		value := time.Unix(backoffUntil.Int64, 0).UTC()
		state.BackoffUntil = &value
	}
	return state
}
