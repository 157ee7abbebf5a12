package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"

	"github.com/ambientdeck/ambientdeck/internal/config"
	"github.com/ambientdeck/ambientdeck/internal/core"
	"github.com/ambientdeck/ambientdeck/internal/core/board"
	"github.com/ambientdeck/ambientdeck/internal/core/deck"
	"github.com/ambientdeck/ambientdeck/internal/core/imports"
	"github.com/ambientdeck/ambientdeck/internal/core/notify"
	"github.com/ambientdeck/ambientdeck/internal/core/ratelimit"
	"github.com/ambientdeck/ambientdeck/internal/core/slideshow"
	"github.com/ambientdeck/ambientdeck/internal/core/store"
	"github.com/ambientdeck/ambientdeck/internal/metrics"
)

// deckOptions controls buildDeck.
type deckOptions struct {
	Logger *logging.Logger
	// Preset overrides slideshow.preset: a YAML file path or a stored preset name.
	Preset string
	// Instrument wires every component to the telemetry counters.
	Instrument bool
}

// buildDeck assembles a deck from configuration. db may be nil, in which
// case nothing is persisted.
func buildDeck(ctx context.Context, cfg *config.Config, db *store.Store, opts deckOptions) (*deck.Deck, error) {
	var limiterOpts []ratelimit.Option
	if opts.Instrument {
		limiterOpts = append(limiterOpts, ratelimit.WithObserver(metrics.RecordAdmission))
	}
	limiter := ratelimit.New(cfg.Board.RateLimit.MaxRequests, cfg.Board.RateLimit.Window, limiterOpts...)

	client := board.New(cfg.Board.BaseURL, cfg.Board.APIVersion, cfg.Board.Token, limiter)
	client.HTTP = &http.Client{Timeout: cfg.Board.Timeout}
	client.Logger = opts.Logger

	notifier := notify.New(cfg.Notifications.MaxActive, cfg.Notifications.Duration)
	notifier.Logger = opts.Logger

	importer := imports.New(imports.Limits{
		MaxFiles:      cfg.Uploads.MaxFiles,
		MaxFileSize:   cfg.Uploads.MaxFileSize,
		PreviewCount:  cfg.Uploads.PreviewCount,
		ThumbnailSize: cfg.Uploads.ThumbnailSize,
	})
	importer.Logger = opts.Logger

	presetRef := strings.TrimSpace(opts.Preset)
	if presetRef == "" {
		presetRef = strings.TrimSpace(cfg.Slideshow.Preset)
	}
	preset, err := resolvePreset(ctx, db, presetRef)
	if err != nil {
		return nil, err
	}
	if presetRef == "" && cfg.Slideshow.Interval > 0 {
		preset.Interval = cfg.Slideshow.Interval
	}

	deckOpts := deck.Options{
		Preset:    preset,
		Client:    client,
		Notifier:  notifier,
		Importer:  importer,
		Logger:    opts.Logger,
		PageLimit: cfg.Board.PageLimit,
		CacheSize: cfg.Board.CacheSize,
		CacheTTL:  cfg.Board.CacheTTL,
	}
	if db != nil {
		deckOpts.Store = db
	}
	if opts.Instrument {
		client.Observer = metrics.RecordBoardRequest
		notifier.Observer = func(s notify.Severity) { metrics.RecordNotification(string(s)) }
		deckOpts.OnCacheLookup = metrics.RecordPinCacheLookup
	}

	d, err := deck.New(deckOpts)
	if err != nil {
		return nil, err
	}

	if opts.Instrument {
		instrumentDeck(d)
	}
	return d, nil
}

// instrumentDeck publishes slideshow and import activity as metrics.
func instrumentDeck(d *deck.Deck) {
	d.Cycle.OnChange(func(evt slideshow.ChangeEvent) {
		metrics.RecordSlideChange(d.Snapshot().Source, evt.Total)
	})
	d.Cycle.OnInterval(metrics.SetSlideInterval)
	metrics.SetSlideInterval(d.Cycle.Interval())
}

// resolvePreset loads ref as a YAML file when it names one, otherwise as a
// stored or built-in preset. An empty ref yields the default preset.
func resolvePreset(ctx context.Context, db *store.Store, ref string) (*core.Preset, error) {
	if ref == "" {
		ref = core.DefaultPresetName
	}

	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return deck.LoadPresetFile(ref)
	}

	if db != nil {
		record, err := db.GetPreset(ctx, ref)
		if err != nil {
			return nil, err
		}
		if record != nil {
			preset := record.Preset
			return &preset, nil
		}
	}

	if preset, ok := core.FindBuiltInPreset(ref); ok {
		return preset, nil
	}
	return nil, fmt.Errorf("preset %q not found", ref)
}

func durationOr(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}
