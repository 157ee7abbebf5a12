package board

import "time"

// RateLimitEvent is published when the upstream answers 429.
type RateLimitEvent struct {
	Endpoint   string
	RetryAfter time.Duration
	Message    string
}

// ErrorEvent is published for every failed call, including 429s.
type ErrorEvent struct {
	Endpoint string
	Err      error
}

// SuccessEvent is published after a list call succeeds. Kind is "boards",
// "pins" or "search".
type SuccessEvent struct {
	Kind  string
	Count int
}
