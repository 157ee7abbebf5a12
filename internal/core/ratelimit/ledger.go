package ratelimit

import (
	"context"
	"time"

	"github.com/ambientdeck/ambientdeck/internal/core"
)

// Store persists per-endpoint 429 state.
type Store interface {
	GetRateLimit(ctx context.Context, endpoint string) (*core.RateLimitState, error)
	UpdateRateLimit(ctx context.Context, endpoint string, state *core.RateLimitState) error
}

// Ledger records upstream 429 responses so later calls can see how long an
// endpoint asked to be left alone. A nil Ledger or nil Store is a no-op.
type Ledger struct {
	Store Store
	Clock func() time.Time
}

// Record429 bumps the hit count and sets the backoff deadline.
func (l *Ledger) Record429(ctx context.Context, endpoint string, retryAfter time.Duration) error {
	if l == nil || l.Store == nil {
		return nil
	}

	state, err := l.Store.GetRateLimit(ctx, endpoint)
	if err != nil {
		return err
	}
	if state == nil {
		state = &core.RateLimitState{}
	}

	now := l.now()
	state.Hits++
	state.Last429At = &now
	state.RetryAfter = retryAfter
	if retryAfter > 0 {
		until := now.Add(retryAfter)
		state.BackoffUntil = &until
	}

	return l.Store.UpdateRateLimit(ctx, endpoint, state)
}

// Backoff returns how long the endpoint is still backing off, or zero.
func (l *Ledger) Backoff(ctx context.Context, endpoint string) (time.Duration, error) {
	if l == nil || l.Store == nil {
		return 0, nil
	}

	state, err := l.Store.GetRateLimit(ctx, endpoint)
	if err != nil {
		return 0, err
	}
	now := l.now()
	if !state.Active(now) {
		return 0, nil
	}
	return state.BackoffUntil.Sub(now), nil
}

func (l *Ledger) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now().UTC()
}
