package board

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultRetryAfter is used when a 429 response carries no usable Retry-After.
const DefaultRetryAfter = 60 * time.Second

// TransportError reports that the request never produced an HTTP response.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("board api %s: transport: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError reports a non-2xx response other than 429, or a body that
// could not be decoded.
type UpstreamError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("board api %s: %d %s: %v", e.Endpoint, e.Status, http.StatusText(e.Status), e.Err)
	}
	return fmt.Sprintf("board api %s: %d %s", e.Endpoint, e.Status, http.StatusText(e.Status))
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// RateLimitedError reports an HTTP 429. RetryAfter is never zero.
type RateLimitedError struct {
	Endpoint   string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("board api %s: rate limited, retry after %s", e.Endpoint, e.RetryAfter)
}

// retryAfterHeader parses Retry-After as delta seconds or an HTTP date.
func retryAfterHeader(resp *http.Response, now time.Time) time.Duration {
	if resp == nil || resp.Header == nil {
		return DefaultRetryAfter
	}

	retry := resp.Header.Get("Retry-After")
	if retry == "" {
		return DefaultRetryAfter
	}

	// Delta seconds are bare digits; "+7" or "5m" are not.
	if strings.Trim(retry, "0123456789") == "" {
		if seconds, err := strconv.Atoi(retry); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		return DefaultRetryAfter
	}
	if parsed, err := http.ParseTime(retry); err == nil {
		if wait := parsed.Sub(now); wait > 0 {
			return wait.Round(time.Second)
		}
	}

	return DefaultRetryAfter
}
