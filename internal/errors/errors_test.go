package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambientdeck/ambientdeck/internal/core/board"
	"github.com/ambientdeck/ambientdeck/internal/core/deck"
	"github.com/ambientdeck/ambientdeck/internal/core/slideshow"
	"github.com/ambientdeck/ambientdeck/internal/core/store"
	"github.com/ambientdeck/ambientdeck/internal/server/middleware"
)

func TestFromDomainClassifies(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"rate limited", &board.RateLimitedError{Endpoint: board.EndpointBoards, RetryAfter: 5 * time.Second}, CodeRateLimited, http.StatusTooManyRequests},
		{"unauthorized upstream", &board.UpstreamError{Endpoint: board.EndpointBoards, Status: http.StatusUnauthorized}, CodeUnauthorized, http.StatusUnauthorized},
		{"missing board", &board.UpstreamError{Endpoint: board.EndpointBoardPins, Status: http.StatusNotFound}, CodeNotFound, http.StatusNotFound},
		{"upstream 500", &board.UpstreamError{Endpoint: board.EndpointBoards, Status: 500}, CodeExternalService, http.StatusBadGateway},
		{"transport", &board.TransportError{Endpoint: board.EndpointBoards, Err: fmt.Errorf("dial")}, CodeExternalService, http.StatusBadGateway},
		{"timeout", &board.TransportError{Endpoint: board.EndpointBoards, Err: context.DeadlineExceeded}, CodeTimeout, http.StatusGatewayTimeout},
		{"missing token", deck.ErrMissingToken, CodeUnauthorized, http.StatusUnauthorized},
		{"missing board id", deck.ErrMissingBoardID, CodeInvalidInput, http.StatusBadRequest},
		{"no images", slideshow.ErrNoImages, CodeInvalidInput, http.StatusBadRequest},
		{"unknown setting", fmt.Errorf("%w: theme", store.ErrUnknownSetting), CodeInvalidInput, http.StatusBadRequest},
		{"no store", store.ErrNotInitialized, CodeServiceDown, http.StatusServiceUnavailable},
		{"other", fmt.Errorf("boom"), CodeInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := FromDomain(ctx, tc.err)
			require.NotNil(t, env)
			assert.Equal(t, tc.code, env.Code)
			assert.Equal(t, tc.status, HTTPStatusFromEnvelope(env))
			assert.NotEmpty(t, env.CorrelationID)
		})
	}
}

func TestFromDomainPassesEnvelopesThrough(t *testing.T) {
	original := NewNotFoundError("nope")
	assert.Same(t, original, FromDomain(context.Background(), original))
}

func TestRespondWithErrorRateLimited(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/boards", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDContextKey, "req-42"))
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, &board.RateLimitedError{Endpoint: board.EndpointBoards, RetryAfter: 1500 * time.Millisecond})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, CodeRateLimited, body.Error.Code)
	assert.Equal(t, "req-42", body.Error.RequestID)
	assert.EqualValues(t, 2, body.Error.Details["retry_after_seconds"])
}

func TestEnsureEnvelope(t *testing.T) {
	env := EnsureEnvelope(nil)
	assert.Equal(t, CodeInternal, env.Code)

	env = EnsureEnvelope(fmt.Errorf("plain"))
	assert.Equal(t, CodeInternal, env.Code)
	assert.Equal(t, "plain", env.Context["wrapped_error"])
}

func TestEnsureCorrelationIDFallback(t *testing.T) {
	env := EnsureCorrelationID(NewInternalError("x"), nil)
	assert.Contains(t, env.CorrelationID, "fallback-")
	assert.Nil(t, EnsureCorrelationID(nil, nil))
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 60, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, 30, retryAfterSeconds(30*time.Second))
}
