package core

// Outcome classifies the result of an upstream query.
type Outcome string

const (
	// OutcomeOK means the call succeeded and returned data.
	OutcomeOK Outcome = "ok"
	// OutcomeEmpty means the call succeeded and legitimately returned nothing.
	OutcomeEmpty Outcome = "empty"
	// OutcomeFailed means the call failed; Err carries the cause.
	OutcomeFailed Outcome = "failed"
)

// Result lets callers tell "no data" apart from "could not get data".
type Result[T any] struct {
	Outcome Outcome
	Items   []T
	Err     error
}

// OK builds a successful result, classified as empty when items is empty.
func OK[T any](items []T) Result[T] {
	if len(items) == 0 {
		return Result[T]{Outcome: OutcomeEmpty, Items: []T{}}
	}
	return Result[T]{Outcome: OutcomeOK, Items: items}
}

// Failed builds a failed result carrying err.
func Failed[T any](err error) Result[T] {
	return Result[T]{Outcome: OutcomeFailed, Items: []T{}, Err: err}
}

// Ok reports whether data was returned.
func (r Result[T]) Ok() bool { return r.Outcome == OutcomeOK }

// Empty reports a successful call with no data.
func (r Result[T]) Empty() bool { return r.Outcome == OutcomeEmpty }

// Failed reports a failed call.
func (r Result[T]) Failed() bool { return r.Outcome == OutcomeFailed }
