// Package board talks to the upstream board/pin API (Pinterest v5 shape).
package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/ambientdeck/ambientdeck/internal/core"
	"github.com/ambientdeck/ambientdeck/internal/core/events"
	"github.com/ambientdeck/ambientdeck/internal/core/ratelimit"
)

// DefaultPinLimit caps list and search results when the caller passes no limit.
const DefaultPinLimit = 25

// Endpoint labels used in events, metrics and the 429 ledger.
const (
	EndpointBoards     = "/me/boards"
	EndpointBoard      = "/boards/{id}"
	EndpointBoardPins  = "/boards/{id}/pins"
	EndpointSearchPins = "/search/pins"
)

// imageSizes is the rendition preference order for a pin's image.
var imageSizes = []string{"736x", "1200x", "original"}

// Client calls the board API. Every request goes through Limiter and carries
// the current bearer token. The token is held in memory only.
type Client struct {
	HTTP       *http.Client
	Limiter    *ratelimit.Limiter
	BaseURL    string
	APIVersion string
	Logger     *logging.Logger
	Clock      func() time.Time

	// Observer, when set, is told about every request outcome
	// ("ok", "empty", "failed", "rate_limited").
	Observer func(endpoint, outcome string, elapsed time.Duration)

	mu    sync.RWMutex
	token string

	rateLimited events.Bus[RateLimitEvent]
	failures    events.Bus[ErrorEvent]
	successes   events.Bus[SuccessEvent]
}

// New returns a client for baseURL/apiVersion.
func New(baseURL, apiVersion, token string, limiter *ratelimit.Limiter) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIVersion: apiVersion,
		Limiter:    limiter,
		token:      token,
	}
}

// SetToken replaces the bearer token used by subsequent calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// OnRateLimited subscribes to 429 notifications.
func (c *Client) OnRateLimited(handler func(RateLimitEvent)) (unsubscribe func()) {
	return c.rateLimited.Subscribe(handler)
}

// OnError subscribes to failed calls.
func (c *Client) OnError(handler func(ErrorEvent)) (unsubscribe func()) {
	return c.failures.Subscribe(handler)
}

// OnSuccess subscribes to successful list calls.
func (c *Client) OnSuccess(handler func(SuccessEvent)) (unsubscribe func()) {
	return c.successes.Subscribe(handler)
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}

type rawBoard struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PinCount    int    `json:"pin_count"`
}

type rawPin struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Link         string `json:"link"`
	CreativeType string `json:"creative_type"`
	Media        *struct {
		Images map[string]struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"media"`
}

func (b rawBoard) project() core.Board {
	return core.Board{ID: b.ID, Name: b.Name, Description: b.Description, PinCount: b.PinCount}
}

func (p rawPin) project() core.Pin {
	pin := core.Pin{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Link:         p.Link,
		CreativeType: p.CreativeType,
	}
	if p.Media != nil {
		for _, size := range imageSizes {
			if img, ok := p.Media.Images[size]; ok && img.URL != "" {
				pin.ImageURL = img.URL
				break
			}
		}
	}
	return pin
}

// ListBoards returns the boards of the token's owner.
func (c *Client) ListBoards(ctx context.Context) core.Result[core.Board] {
	var body listResponse[rawBoard]
	if err := c.get(ctx, EndpointBoards, "/me/boards", nil, &body); err != nil {
		return core.Failed[core.Board](err)
	}

	boards := make([]core.Board, 0, len(body.Items))
	for _, raw := range body.Items {
		boards = append(boards, raw.project())
	}
	c.successes.Publish(SuccessEvent{Kind: "boards", Count: len(boards)})
	return core.OK(boards)
}

// ListPins returns up to limit pins of a board; limit <= 0 means DefaultPinLimit.
func (c *Client) ListPins(ctx context.Context, boardID string, limit int) core.Result[core.Pin] {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return core.Failed[core.Pin](errors.New("board id is required"))
	}

	var body listResponse[rawPin]
	path := "/boards/" + url.PathEscape(boardID) + "/pins"
	if err := c.get(ctx, EndpointBoardPins, path, nil, &body); err != nil {
		return core.Failed[core.Pin](err)
	}

	pins := projectPins(body.Items, limit)
	c.successes.Publish(SuccessEvent{Kind: "pins", Count: len(pins)})
	return core.OK(pins)
}

// SearchPins runs a pin search; limit <= 0 means DefaultPinLimit.
func (c *Client) SearchPins(ctx context.Context, query string, limit int) core.Result[core.Pin] {
	query = strings.TrimSpace(query)
	if query == "" {
		return core.Failed[core.Pin](errors.New("search query is required"))
	}

	var body listResponse[rawPin]
	params := url.Values{"query": []string{query}}
	if err := c.get(ctx, EndpointSearchPins, "/search/pins", params, &body); err != nil {
		return core.Failed[core.Pin](err)
	}

	pins := projectPins(body.Items, limit)
	c.successes.Publish(SuccessEvent{Kind: "search", Count: len(pins)})
	return core.OK(pins)
}

// GetBoard fetches a single board.
func (c *Client) GetBoard(ctx context.Context, boardID string) (*core.Board, error) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return nil, errors.New("board id is required")
	}

	var raw rawBoard
	if err := c.get(ctx, EndpointBoard, "/boards/"+url.PathEscape(boardID), nil, &raw); err != nil {
		return nil, err
	}
	board := raw.project()
	return &board, nil
}

func projectPins(raw []rawPin, limit int) []core.Pin {
	if limit <= 0 {
		limit = DefaultPinLimit
	}
	if len(raw) > limit {
		raw = raw[:limit]
	}
	pins := make([]core.Pin, 0, len(raw))
	for _, p := range raw {
		pins = append(pins, p.project())
	}
	return pins
}

// get performs a rate-limited GET and decodes the JSON body into out.
// Failures are published to error subscribers before being returned.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	started := c.now()

	err := c.do(ctx, endpoint, path, params, out)
	elapsed := c.now().Sub(started)

	outcome := "ok"
	if err != nil {
		outcome = "failed"
		var limited *RateLimitedError
		if errors.As(err, &limited) {
			outcome = "rate_limited"
		}
		c.failures.Publish(ErrorEvent{Endpoint: endpoint, Err: err})
		if c.Logger != nil {
			c.Logger.Warn("Board API request failed",
				zap.String("endpoint", endpoint),
				zap.Duration("elapsed", elapsed),
				zap.Error(err))
		}
	} else if c.Logger != nil {
		c.Logger.Debug("Board API request completed",
			zap.String("endpoint", endpoint),
			zap.Duration("elapsed", elapsed))
	}
	if c.Observer != nil {
		c.Observer(endpoint, outcome, elapsed)
	}
	return err
}

func (c *Client) do(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	if c.Limiter != nil {
		if err := c.Limiter.Admit(ctx); err != nil {
			return &TransportError{Endpoint: endpoint, Err: err}
		}
	}

	reqURL, err := c.url(path, params)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.Token())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client().Do(req)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := retryAfterHeader(resp, c.now())
		c.rateLimited.Publish(RateLimitEvent{
			Endpoint:   endpoint,
			RetryAfter: retryAfter,
			Message:    "Rate limited by board API",
		})
		return &RateLimitedError{Endpoint: endpoint, RetryAfter: retryAfter}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return &UpstreamError{Endpoint: endpoint, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &UpstreamError{Endpoint: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) url(path string, params url.Values) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return "", errors.New("board api base url is not configured")
	}
	if _, err := url.Parse(base); err != nil {
		return "", fmt.Errorf("invalid board api base url: %w", err)
	}

	full := base
	if version := strings.Trim(c.APIVersion, "/"); version != "" {
		full += "/" + version
	}
	full += path
	if len(params) > 0 {
		full += "?" + params.Encode()
	}
	return full, nil
}

func (c *Client) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (c *Client) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}
