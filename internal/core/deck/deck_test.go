package deck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambientdeck/ambientdeck/internal/core"
	"github.com/ambientdeck/ambientdeck/internal/core/board"
	"github.com/ambientdeck/ambientdeck/internal/core/notify"
	"github.com/ambientdeck/ambientdeck/internal/core/ratelimit"
	"github.com/ambientdeck/ambientdeck/internal/core/slideshow"
	"github.com/ambientdeck/ambientdeck/internal/core/store"
)

// idleTicks never fires, so tests drive the cycle by hand.
type idleTicks struct{ ch chan time.Time }

func (i idleTicks) C() <-chan time.Time { return i.ch }
func (i idleTicks) Stop()               {}

func idleFactory(time.Duration) slideshow.TickSource {
	return idleTicks{ch: make(chan time.Time)}
}

type memoryStore struct {
	mu       sync.Mutex
	settings map[string]string
	limits   map[string]*core.RateLimitState
	pins     map[string][]core.Pin
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		settings: map[string]string{},
		limits:   map[string]*core.RateLimitState{},
		pins:     map[string][]core.Pin{},
	}
}

func (m *memoryStore) GetSetting(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.settings[key]
	return v, ok, nil
}

func (m *memoryStore) SetSetting(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *memoryStore) GetCachedPins(_ context.Context, boardID string) ([]core.Pin, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pins, ok := m.pins[boardID]
	return pins, ok, nil
}

func (m *memoryStore) SetCachedPins(_ context.Context, boardID string, pins []core.Pin, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pins[boardID] = pins
	return nil
}

func (m *memoryStore) GetRateLimit(_ context.Context, endpoint string) (*core.RateLimitState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.limits[endpoint]
	if !ok {
		return nil, nil
	}
	copied := *state
	return &copied, nil
}

func (m *memoryStore) UpdateRateLimit(_ context.Context, endpoint string, state *core.RateLimitState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *state
	m.limits[endpoint] = &copied
	return nil
}

type harness struct {
	deck     *Deck
	store    *memoryStore
	requests *atomic.Int32
	shown    *[]notify.Notification
	mu       *sync.Mutex
}

func (h harness) messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(*h.shown))
	for _, n := range *h.shown {
		out = append(out, string(n.Severity)+": "+n.Message)
	}
	return out
}

func newHarness(t *testing.T, handler http.HandlerFunc) harness {
	t.Helper()
	return newHarnessWithToken(t, "", handler)
}

// newHarnessWithToken builds a deck whose client starts with token.
func newHarnessWithToken(t *testing.T, token string, handler http.HandlerFunc) harness {
	t.Helper()

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client := board.New(server.URL, "v5", token, ratelimit.New(100, time.Minute))
	client.HTTP = server.Client()

	memory := newMemoryStore()
	notifier := notify.New(50, time.Hour)

	var (
		mu    sync.Mutex
		shown []notify.Notification
	)
	notifier.OnShow(func(n notify.Notification) {
		mu.Lock()
		shown = append(shown, n)
		mu.Unlock()
	})

	d, err := New(Options{
		Client:       client,
		Notifier:     notifier,
		Store:        memory,
		CycleOptions: []slideshow.Option{slideshow.WithTickSource(idleFactory)},
	})
	require.NoError(t, err)
	t.Cleanup(d.Close)

	return harness{deck: d, store: memory, requests: &requests, shown: &shown, mu: &mu}
}

const pinsBody = `{"items":[
	{"id":"p1","media":{"images":{"736x":{"url":"https://i/1.jpg"}}}},
	{"id":"p2","title":"no image"},
	{"id":"p3","media":{"images":{"original":{"url":"https://i/3.jpg"}}}}
]}`

func TestNewRequiresClient(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestNewUsesDefaultPreset(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	snap := h.deck.Snapshot()
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, 5, snap.Total)
	assert.Equal(t, 8*time.Second, snap.Interval)
	assert.False(t, snap.Playing)
	assert.Equal(t, "Internet", snap.TickerItem)
	assert.Equal(t, 80*time.Second, snap.TickerDuration)
	assert.Equal(t, SourcePreset, snap.Source)
	assert.Equal(t, core.DefaultPresetName, h.deck.Preset().Name)
}

func TestStartPlaysAndAnnounces(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	h.deck.Start()
	assert.True(t, h.deck.Started())
	assert.True(t, h.deck.Snapshot().Playing)
	assert.True(t, h.deck.Ticker.Running())
	assert.Contains(t, h.messages(), "success: Application ready")
}

func TestToggleKeepsTickerInStep(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	assert.True(t, h.deck.Toggle())
	assert.True(t, h.deck.Ticker.Running())
	assert.False(t, h.deck.Toggle())
	assert.False(t, h.deck.Cycle.Playing())
	assert.False(t, h.deck.Ticker.Running())
}

func TestNavigation(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	h.deck.Next()
	h.deck.Next()
	assert.Equal(t, 2, h.deck.Snapshot().Index)
	assert.Equal(t, "Restaurants", h.deck.Snapshot().TickerItem)

	h.deck.Previous()
	assert.Equal(t, 1, h.deck.Snapshot().Index)

	assert.True(t, h.deck.GoTo(4))
	assert.False(t, h.deck.GoTo(5))
	assert.Equal(t, 4, h.deck.Snapshot().Index)

	assert.Equal(t, 3*time.Second, h.deck.SetInterval(time.Second))
	assert.Equal(t, 30*time.Second, h.deck.Snapshot().TickerDuration)
}

func TestSetImages(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	require.NoError(t, h.deck.SetImages([]string{" https://a ", "", "https://b"}))
	snap := h.deck.Snapshot()
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, "https://a", snap.URL)
	assert.True(t, snap.Playing)
	assert.Equal(t, SourceManual, snap.Source)

	assert.ErrorIs(t, h.deck.SetImages([]string{" "}), slideshow.ErrNoImages)
	assert.Equal(t, 2, h.deck.Snapshot().Total)
}

func TestUsePreset(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	calm, ok := core.FindBuiltInPreset("calm")
	require.True(t, ok)
	require.NoError(t, h.deck.UsePreset(*calm))

	snap := h.deck.Snapshot()
	assert.Equal(t, len(calm.Images), snap.Total)
	assert.Equal(t, 20*time.Second, snap.Interval)
	assert.Equal(t, "Breathe", snap.TickerItem)
	assert.Equal(t, "calm", h.deck.Preset().Name)
}

func TestLoadBoardMissingToken(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	result := h.deck.LoadBoard(context.Background(), "", "b1")
	require.True(t, result.Failed())
	assert.ErrorIs(t, result.Err, ErrMissingToken)
	assert.Equal(t, []string{"warning: Please enter a board access token"}, h.messages())
	assert.Zero(t, h.requests.Load())
}

func TestLoadBoardMissingBoardID(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	result := h.deck.LoadBoard(context.Background(), "tok", "")
	require.True(t, result.Failed())
	assert.ErrorIs(t, result.Err, ErrMissingBoardID)
	assert.Equal(t, []string{"warning: Please enter a board ID"}, h.messages())
}

func TestLoadBoardShowsPinsAndPersists(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/boards/b1/pins", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(pinsBody))
	})
	ctx := context.Background()

	result := h.deck.LoadBoard(ctx, "tok", "b1")
	require.True(t, result.Ok())
	assert.Len(t, result.Items, 2)

	snap := h.deck.Snapshot()
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, "https://i/1.jpg", snap.URL)
	assert.True(t, snap.Playing)
	assert.Equal(t, SourceBoard, snap.Source)

	assert.Equal(t, "tok", h.store.settings[store.SettingBoardToken])
	assert.Equal(t, "b1", h.store.settings[store.SettingBoardID])
	assert.Contains(t, h.messages(), "success: Loaded 2 images from board")

	result = h.deck.LoadBoard(ctx, "tok", "b1")
	require.True(t, result.Ok())
	assert.EqualValues(t, 1, h.requests.Load(), "second load should be served from cache")
}

func TestLoadBoardUsesStoredSettings(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer saved", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(pinsBody))
	})
	h.store.settings[store.SettingBoardToken] = "saved"
	h.store.settings[store.SettingBoardID] = "b1"

	result := h.deck.Restore(context.Background())
	require.True(t, result.Ok())
	assert.Equal(t, 2, h.deck.Snapshot().Total)
}

func TestRestoreWithoutSettingsIsEmpty(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	result := h.deck.Restore(context.Background())
	assert.True(t, result.Empty())
	assert.Empty(t, h.messages())
}

func TestLoadBoardFromStoreCache(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("API should not be called")
	})
	h.store.pins[storedPinKey("tok", "b9")] = []core.Pin{{ID: "x", ImageURL: "https://i/x.jpg"}}

	var lookups []bool
	h.deck.onCacheLookup = func(hit bool) { lookups = append(lookups, hit) }

	result := h.deck.LoadBoard(context.Background(), "tok", "b9")
	require.True(t, result.Ok())
	assert.Equal(t, "https://i/x.jpg", h.deck.Snapshot().URL)
	assert.Equal(t, []bool{true}, lookups)
}

func TestLoadBoardWithoutImagesWarns(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"id":"p1"}]}`))
	})

	result := h.deck.LoadBoard(context.Background(), "tok", "b1")
	assert.True(t, result.Empty())
	assert.Contains(t, h.messages(), "warning: No images found in this board")
	assert.Equal(t, 5, h.deck.Snapshot().Total)
	assert.Empty(t, h.store.settings)
}

func TestLoadBoardRateLimited(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	result := h.deck.LoadBoard(context.Background(), "tok", "b1")
	require.True(t, result.Failed())

	var limited *board.RateLimitedError
	require.True(t, errors.As(result.Err, &limited))
	assert.Equal(t, 5*time.Second, limited.RetryAfter)

	msgs := h.messages()
	assert.Contains(t, msgs, "warning: Rate limit exceeded. Please wait 5 seconds.")
	for _, m := range msgs {
		assert.NotContains(t, m, "error:")
	}

	state, err := h.store.GetRateLimit(context.Background(), board.EndpointBoardPins)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 1, state.Hits)
	assert.Equal(t, 5*time.Second, state.RetryAfter)
	assert.Equal(t, 5, h.deck.Snapshot().Total)
}

func TestLoadBoardUpstreamErrorNotifies(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	result := h.deck.LoadBoard(context.Background(), "tok", "b1")
	require.True(t, result.Failed())

	var upstream *board.UpstreamError
	require.True(t, errors.As(result.Err, &upstream))

	found := false
	for _, m := range h.messages() {
		if len(m) > 6 && m[:6] == "error:" {
			found = true
		}
	}
	assert.True(t, found, "expected an error notification, got %v", h.messages())
	assert.Empty(t, h.store.pins)
}

func TestFindBoards(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/me/boards", r.URL.Path)
		_, _ = w.Write([]byte(`{"items":[{"id":"b1","name":"One"},{"id":"b2","name":"Two"}]}`))
	})

	result := h.deck.FindBoards(context.Background(), "tok")
	require.True(t, result.Ok())
	assert.Len(t, result.Items, 2)
	assert.Contains(t, h.messages(), "success: Found 2 boards")
}

func TestSearchPins(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/search/pins", r.URL.Path)
		assert.Equal(t, "forest", r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(pinsBody))
	})

	result := h.deck.SearchPins(context.Background(), "tok", "forest")
	require.True(t, result.Ok())
	assert.Len(t, result.Items, 3)

	result = h.deck.SearchPins(context.Background(), "tok", "  ")
	assert.ErrorIs(t, result.Err, ErrMissingQuery)
}

func TestInvalidateBoard(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(pinsBody))
	})
	ctx := context.Background()

	require.True(t, h.deck.Pins(ctx, "tok", "b1").Ok())
	h.deck.InvalidateBoard("b1")
	delete(h.store.pins, storedPinKey("tok", "b1"))
	require.True(t, h.deck.Pins(ctx, "tok", "b1").Ok())
	assert.EqualValues(t, 2, h.requests.Load())
}

func TestCloseDetachesClientEvents(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	h.deck.Close()
	before := len(h.messages())
	h.deck.Client.SetToken("tok")
	result := h.deck.Client.ListBoards(context.Background())
	require.True(t, result.Failed())
	assert.Len(t, h.messages(), before, fmt.Sprintf("no notifications after close: %v", h.messages()))
}

func TestPinsFallsBackToStoredToken(t *testing.T) {
	var auth []string
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(pinsBody))
	})
	h.store.settings[store.SettingBoardToken] = "stored"

	result := h.deck.Pins(context.Background(), "", "b1")
	require.True(t, result.Ok())
	assert.Equal(t, []string{"Bearer stored"}, auth)
}

func TestPinsWithoutAnyToken(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})

	result := h.deck.Pins(context.Background(), "", "b1")
	require.True(t, result.Failed())
	assert.ErrorIs(t, result.Err, ErrMissingToken)
	assert.Zero(t, h.requests.Load())
}

func TestTokenOrder(t *testing.T) {
	var auth []string
	h := newHarnessWithToken(t, "configured", func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"items":[]}`))
	})
	ctx := context.Background()

	h.deck.FindBoards(ctx, "")
	h.store.settings[store.SettingBoardToken] = "stored"
	h.deck.FindBoards(ctx, "")
	h.deck.FindBoards(ctx, "explicit")
	h.deck.FindBoards(ctx, "")

	assert.Equal(t, []string{"Bearer configured", "Bearer stored", "Bearer explicit", "Bearer stored"}, auth)
}

func TestPinCacheIsScopedToToken(t *testing.T) {
	var auth []string
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(pinsBody))
	})
	ctx := context.Background()

	require.True(t, h.deck.Pins(ctx, "alice", "b1").Ok())
	require.True(t, h.deck.Pins(ctx, "alice", "b1").Ok())
	require.True(t, h.deck.Pins(ctx, "bob", "b1").Ok())

	assert.Equal(t, []string{"Bearer alice", "Bearer bob"}, auth)
	assert.Contains(t, h.store.pins, storedPinKey("alice", "b1"))
	assert.Contains(t, h.store.pins, storedPinKey("bob", "b1"))
	assert.NotContains(t, h.store.pins, "b1")
}
