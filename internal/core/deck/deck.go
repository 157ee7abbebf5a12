// Package deck wires the slideshow, ticker, board client, notifications and
// persistence into the ambient experience the server and CLI drive.
package deck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/ambientdeck/ambientdeck/internal/core"
	"github.com/ambientdeck/ambientdeck/internal/core/board"
	"github.com/ambientdeck/ambientdeck/internal/core/imports"
	"github.com/ambientdeck/ambientdeck/internal/core/notify"
	"github.com/ambientdeck/ambientdeck/internal/core/ratelimit"
	"github.com/ambientdeck/ambientdeck/internal/core/slideshow"
)

// Defaults for the in-memory pin cache.
const (
	DefaultCacheSize = 64
	DefaultCacheTTL  = 5 * time.Minute
)

var (
	// ErrMissingToken means no access token was given or stored.
	ErrMissingToken = errors.New("board access token is required")
	// ErrMissingBoardID means no board id was given or stored.
	ErrMissingBoardID = errors.New("board id is required")
	// ErrMissingQuery means a search was requested without terms.
	ErrMissingQuery = errors.New("search query is required")
)

// Store is the persistence the deck needs: the two board settings, the 429
// ledger and a second-level pin cache.
type Store interface {
	ratelimit.Store
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
	GetCachedPins(ctx context.Context, key string) ([]core.Pin, bool, error)
	SetCachedPins(ctx context.Context, key string, pins []core.Pin, ttl time.Duration) error
}

// Options configures New. Client is required; everything else has a default.
type Options struct {
	Preset    *core.Preset
	Client    *board.Client
	Notifier  *notify.Center
	Importer  *imports.Importer
	Store     Store
	Logger    *logging.Logger
	PageLimit int
	CacheSize int
	CacheTTL  time.Duration

	// CycleOptions are passed through to slideshow.New.
	CycleOptions []slideshow.Option

	// OnCacheLookup, when set, is told whether a pin lookup hit a cache.
	OnCacheLookup func(hit bool)
}

// Deck is the running ambient experience.
type Deck struct {
	Cycle    *slideshow.Cycle
	Ticker   *slideshow.Ticker
	Client   *board.Client
	Notifier *notify.Center
	Importer *imports.Importer
	Store    Store
	Ledger   *ratelimit.Ledger
	Logger   *logging.Logger

	preset        core.Preset
	defaultToken  string
	pageLimit     int
	cacheTTL      time.Duration
	pins          gcache.Cache
	onCacheLookup func(hit bool)

	mu      sync.Mutex
	started bool
	source  string
	detach  []func()
}

// Snapshot is the state a renderer needs to draw one frame.
type Snapshot struct {
	Index          int           `json:"index"`
	Total          int           `json:"total"`
	URL            string        `json:"url"`
	Interval       time.Duration `json:"interval"`
	Playing        bool          `json:"playing"`
	TickerItem     string        `json:"ticker_item"`
	TickerDuration time.Duration `json:"ticker_duration"`
	Source         string        `json:"source"`
}

// Image set sources reported in Snapshot.
const (
	SourcePreset = "preset"
	SourceBoard  = "board"
	SourceImport = "import"
	SourceManual = "manual"
)

// New builds a stopped deck showing the preset, or the built-in default
// preset when none is given.
func New(opts Options) (*Deck, error) {
	if opts.Client == nil {
		return nil, errors.New("deck: board client is required")
	}

	preset := opts.Preset
	if preset == nil || len(preset.Images) == 0 {
		preset, _ = core.FindBuiltInPreset(core.DefaultPresetName)
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.New(0, 0)
	}
	importer := opts.Importer
	if importer == nil {
		importer = imports.New(imports.Limits{})
	}

	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	pageLimit := opts.PageLimit
	if pageLimit <= 0 {
		pageLimit = board.DefaultPinLimit
	}

	cycle := slideshow.New(preset.Images, preset.Interval, opts.CycleOptions...)
	d := &Deck{
		Cycle:         cycle,
		Ticker:        slideshow.NewTicker(preset.TickerItems, cycle),
		Client:        opts.Client,
		Notifier:      notifier,
		Importer:      importer,
		Store:         opts.Store,
		Logger:        opts.Logger,
		preset:        *preset,
		defaultToken:  opts.Client.Token(),
		pageLimit:     pageLimit,
		cacheTTL:      ttl,
		pins:          gcache.New(size).LRU().Expiration(ttl).Build(),
		onCacheLookup: opts.OnCacheLookup,
		source:        SourcePreset,
	}
	if opts.Store != nil {
		d.Ledger = &ratelimit.Ledger{Store: opts.Store}
	}

	d.detach = append(d.detach,
		d.Client.OnRateLimited(d.handleRateLimited),
		d.Client.OnError(d.handleClientError),
	)
	return d, nil
}

// Preset returns the preset the deck was built from.
func (d *Deck) Preset() core.Preset {
	return d.preset
}

// Start begins the slideshow and ticker and announces readiness.
func (d *Deck) Start() {
	d.mu.Lock()
	d.started = true
	d.mu.Unlock()

	d.Play()
	d.Notifier.Success("Application ready")
}

// Started reports whether Start has been called.
func (d *Deck) Started() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

// Play starts the slideshow and the ticker together.
func (d *Deck) Play() {
	d.Cycle.Start()
	d.Ticker.Resume()
}

// Pause stops the slideshow and the ticker together.
func (d *Deck) Pause() {
	d.Cycle.Pause()
	d.Ticker.Pause()
}

// Toggle flips between Play and Pause and returns whether it is now playing.
func (d *Deck) Toggle() bool {
	if d.Cycle.Playing() {
		d.Pause()
		return false
	}
	d.Play()
	return true
}

// Next shows the following image.
func (d *Deck) Next() { d.Cycle.Advance() }

// Previous shows the preceding image.
func (d *Deck) Previous() { d.Cycle.Retreat() }

// GoTo jumps to index i; it reports false when i is out of range.
func (d *Deck) GoTo(i int) bool { return d.Cycle.GoTo(i) }

// SetInterval clamps and applies a new slide interval, returning the value used.
func (d *Deck) SetInterval(interval time.Duration) time.Duration {
	return d.Cycle.SetInterval(interval)
}

// SetImages replaces the image set with caller-supplied URLs and plays it.
func (d *Deck) SetImages(urls []string) error {
	clean := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			clean = append(clean, u)
		}
	}
	return d.replace(clean, SourceManual)
}

// UsePreset switches the images, ticker words and interval to preset.
func (d *Deck) UsePreset(preset core.Preset) error {
	if len(preset.Images) == 0 {
		return slideshow.ErrNoImages
	}
	if err := d.replace(preset.Images, SourcePreset); err != nil {
		return err
	}
	if len(preset.TickerItems) > 0 {
		d.Ticker.SetItems(preset.TickerItems)
	}
	if preset.Interval > 0 {
		d.Cycle.SetInterval(preset.Interval)
	}

	d.mu.Lock()
	d.preset = preset
	d.mu.Unlock()
	return nil
}

func (d *Deck) replace(urls []string, source string) error {
	if err := d.Cycle.Replace(urls, true); err != nil {
		return err
	}
	d.Ticker.Resume()

	d.mu.Lock()
	d.source = source
	d.mu.Unlock()
	return nil
}

// Snapshot returns the current frame state.
func (d *Deck) Snapshot() Snapshot {
	d.mu.Lock()
	source := d.source
	d.mu.Unlock()

	return Snapshot{
		Index:          d.Cycle.CurrentIndex(),
		Total:          d.Cycle.Count(),
		URL:            d.Cycle.CurrentImage(),
		Interval:       d.Cycle.Interval(),
		Playing:        d.Cycle.Playing(),
		TickerItem:     d.Ticker.CurrentItem(),
		TickerDuration: d.Ticker.Duration(),
		Source:         source,
	}
}

// Close stops the timer, detaches every subscription and empties the set.
func (d *Deck) Close() {
	d.mu.Lock()
	detach := d.detach
	d.detach = nil
	d.mu.Unlock()

	for _, fn := range detach {
		fn()
	}
	d.Ticker.Detach()
	d.Cycle.Destroy()
	d.pins.Purge()
}

func (d *Deck) handleRateLimited(evt board.RateLimitEvent) {
	d.Notifier.Warning(fmt.Sprintf("Rate limit exceeded. Please wait %d seconds.", int(evt.RetryAfter.Seconds())))

	if err := d.Ledger.Record429(context.Background(), evt.Endpoint, evt.RetryAfter); err != nil {
		d.warn("Failed to record rate limit", zap.String("endpoint", evt.Endpoint), zap.Error(err))
	}
}

func (d *Deck) handleClientError(evt board.ErrorEvent) {
	var limited *board.RateLimitedError
	if errors.As(evt.Err, &limited) {
		return
	}
	d.Notifier.Error(fmt.Sprintf("Board API error: %v", evt.Err))
}

func (d *Deck) debug(msg string, fields ...zap.Field) {
	if d.Logger != nil {
		d.Logger.Debug(msg, fields...)
	}
}

func (d *Deck) warn(msg string, fields ...zap.Field) {
	if d.Logger != nil {
		d.Logger.Warn(msg, fields...)
	}
}
