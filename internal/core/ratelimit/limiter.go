// Package ratelimit throttles outbound calls with a sliding-window log and
// tracks upstream 429 backoff per endpoint.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SleepFunc suspends for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Limiter admits at most MaxRequests calls in any window of length Window.
// Timestamps are the moment each call was admitted, after any wait.
type Limiter struct {
	maxRequests int
	window      time.Duration

	mu  sync.Mutex
	log []time.Time

	admitted uint64
	delayed  uint64

	clock    func() time.Time
	sleep    SleepFunc
	observer func(waited time.Duration)
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock.
func WithClock(clock func() time.Time) Option {
	return func(l *Limiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithSleep replaces the context-aware sleep used while waiting for a slot.
func WithSleep(sleep SleepFunc) Option {
	return func(l *Limiter) {
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

// WithObserver registers a callback invoked after every admission with the
// total time the caller waited.
func WithObserver(observer func(waited time.Duration)) Option {
	return func(l *Limiter) { l.observer = observer }
}

// New returns a limiter allowing maxRequests per window. Non-positive values
// fall back to one request per minute.
func New(maxRequests int, window time.Duration, opts ...Option) *Limiter {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	l := &Limiter{
		maxRequests: maxRequests,
		window:      window,
		log:         make([]time.Time, 0, maxRequests),
		clock:       time.Now,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit blocks until the call may proceed and records it. It returns the
// context error if ctx ends first; nothing is recorded in that case.
func (l *Limiter) Admit(ctx context.Context) error {
	var waited time.Duration
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.mu.Lock()
		now := l.clock()
		l.prune(now)
		if len(l.log) < l.maxRequests {
			l.log = append(l.log, now)
			l.admitted++
			if waited > 0 {
				l.delayed++
			}
			l.mu.Unlock()
			if l.observer != nil {
				l.observer(waited)
			}
			return nil
		}
		wait := l.window - now.Sub(l.log[0])
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
		waited += wait
	}
}

// prune drops timestamps that have left the window. Caller holds mu.
func (l *Limiter) prune(now time.Time) {
	keep := 0
	for keep < len(l.log) && now.Sub(l.log[keep]) >= l.window {
		keep++
	}
	if keep > 0 {
		l.log = append(l.log[:0], l.log[keep:]...)
	}
}

// Do admits a call and then runs fn, returning its result unchanged.
func Do[T any](ctx context.Context, l *Limiter, fn func(context.Context) (T, error)) (T, error) {
	if err := l.Admit(ctx); err != nil {
		var zero T
		return zero, fmt.Errorf("rate limiter: %w", err)
	}
	return fn(ctx)
}

// Stats is a point-in-time view of a limiter.
type Stats struct {
	MaxRequests int           `json:"max_requests"`
	Window      time.Duration `json:"window"`
	InWindow    int           `json:"in_window"`
	Admitted    uint64        `json:"admitted"`
	Delayed     uint64        `json:"delayed"`
	// Timestamps are the admissions still inside the window, oldest first.
	Timestamps []time.Time `json:"timestamps,omitempty"`
}

// Snapshot returns the current window contents and counters.
func (l *Limiter) Snapshot() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.clock())
	stamps := make([]time.Time, len(l.log))
	copy(stamps, l.log)
	return Stats{
		MaxRequests: l.maxRequests,
		Window:      l.window,
		InWindow:    len(l.log),
		Admitted:    l.admitted,
		Delayed:     l.delayed,
		Timestamps:  stamps,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
