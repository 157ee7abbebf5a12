package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ambientdeck/ambientdeck/internal/core"
	"github.com/ambientdeck/ambientdeck/internal/core/deck"
	"github.com/ambientdeck/ambientdeck/internal/core/imports"
	"github.com/ambientdeck/ambientdeck/internal/core/store"
)

// Boards renders a board listing.
func Boards(format Format, boards []core.Board) (string, error) {
	t := Table{Title: "Boards", Header: []string{"ID", "Name", "Pins", "Description"}}
	for _, b := range boards {
		pins := "-"
		if b.PinCount > 0 {
			pins = strconv.Itoa(b.PinCount)
		}
		t.Rows = append(t.Rows, []string{b.ID, b.Name, pins, truncate(b.Description, maxCellWidth)})
	}
	if len(boards) > 0 {
		t.Footer = fmt.Sprintf("%d boards", len(boards))
	}
	return Render(format, nonNil(boards), t)
}

// Pins renders a pin listing.
func Pins(format Format, pins []core.Pin) (string, error) {
	t := Table{Title: "Pins", Header: []string{"ID", "Title", "Image", "Notes"}}
	withImage := 0
	for _, p := range pins {
		if p.HasImage() {
			withImage++
		}
		t.Rows = append(t.Rows, []string{p.ID, truncate(p.Title, 32), truncate(p.ImageURL, maxCellWidth), pinNotes(p)})
	}
	if len(pins) > 0 {
		t.Footer = fmt.Sprintf("%d/%d with images", withImage, len(pins))
	}
	return Render(format, nonNil(pins), t)
}

// SettingView is the printable form of a setting.
type SettingView struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Settings renders stored settings. The token is masked unless reveal is set.
func Settings(format Format, settings []store.Setting, reveal bool) (string, error) {
	views := make([]SettingView, 0, len(settings))
	t := Table{Title: "Settings", Header: []string{"Key", "Value", "Updated"}}
	for _, s := range settings {
		value := s.Value
		if s.Key == store.SettingBoardToken && !reveal {
			value = MaskSecret(value)
		}
		updated := s.UpdatedAt
		views = append(views, SettingView{Key: s.Key, Value: value, UpdatedAt: updated})
		t.Rows = append(t.Rows, []string{s.Key, value, formatTime(&updated)})
	}
	return Render(format, views, t)
}

// RateLimitView is the printable form of a ledger entry.
type RateLimitView struct {
	Endpoint          string     `json:"endpoint"`
	Hits              int        `json:"hits"`
	Last429At         *time.Time `json:"last_429_at,omitempty"`
	RetryAfterSeconds float64    `json:"retry_after_seconds"`
	BackoffUntil      *time.Time `json:"backoff_until,omitempty"`
	Status            string     `json:"status"`
}

// RateLimits renders the 429 ledger as of now.
func RateLimits(format Format, entries []store.RateLimitEntry, now time.Time) (string, error) {
	views := make([]RateLimitView, 0, len(entries))
	t := Table{Title: "Rate limits", Header: []string{"Endpoint", "Hits", "Last 429", "Retry-After", "Status"}}
	for _, e := range entries {
		status := rateLimitStatus(e.State, now)
		views = append(views, RateLimitView{
			Endpoint:          e.Endpoint,
			Hits:              e.State.Hits,
			Last429At:         e.State.Last429At,
			RetryAfterSeconds: e.State.RetryAfter.Seconds(),
			BackoffUntil:      e.State.BackoffUntil,
			Status:            status,
		})
		t.Rows = append(t.Rows, []string{
			e.Endpoint,
			strconv.Itoa(e.State.Hits),
			formatTime(e.State.Last429At),
			formatSeconds(e.State.RetryAfter),
			status,
		})
	}
	return Render(format, views, t)
}

// RateLimitResetView reports what a ledger reset cleared, or would clear
// when DryRun is set.
type RateLimitResetView struct {
	Scope     string   `json:"scope"`
	Endpoints []string `json:"endpoints"`
	Matched   int      `json:"matched"`
	Deleted   int64    `json:"deleted"`
	DryRun    bool     `json:"dry_run"`
}

// RateLimitReset renders the outcome of a ledger reset.
func RateLimitReset(format Format, v RateLimitResetView) (string, error) {
	v.Endpoints = nonNil(v.Endpoints)
	action := "cleared"
	if v.DryRun {
		action = "would clear"
	}
	t := Table{Title: "Rate limit reset (" + v.Scope + ")", Header: []string{"Endpoint", "Action"}}
	for _, endpoint := range v.Endpoints {
		t.Rows = append(t.Rows, []string{endpoint, action})
	}
	if v.DryRun {
		t.Footer = fmt.Sprintf("%d matched, nothing deleted", v.Matched)
	} else {
		t.Footer = fmt.Sprintf("%d/%d deleted", v.Deleted, v.Matched)
	}
	return Render(format, v, t)
}

// PresetView is the printable form of a stored preset.
type PresetView struct {
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Images          []string  `json:"images"`
	TickerItems     []string  `json:"ticker_items"`
	IntervalSeconds float64   `json:"interval_seconds"`
	Builtin         bool      `json:"builtin"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func newPresetView(r core.PresetRecord) PresetView {
	return PresetView{
		Name:            r.Preset.Name,
		Description:     r.Preset.Description,
		Images:          nonNil(r.Preset.Images),
		TickerItems:     nonNil(r.Preset.TickerItems),
		IntervalSeconds: r.Preset.Interval.Seconds(),
		Builtin:         r.IsBuiltin,
		UpdatedAt:       r.UpdatedAt,
	}
}

// Presets renders the preset catalogue.
func Presets(format Format, records []core.PresetRecord) (string, error) {
	views := make([]PresetView, 0, len(records))
	t := Table{Title: "Presets", Header: []string{"Name", "Images", "Ticker", "Interval", "Source", "Description"}}
	for _, r := range records {
		views = append(views, newPresetView(r))
		source := "user"
		if r.IsBuiltin {
			source = "builtin"
		}
		t.Rows = append(t.Rows, []string{
			r.Preset.Name,
			strconv.Itoa(len(r.Preset.Images)),
			strconv.Itoa(len(r.Preset.TickerItems)),
			formatSeconds(r.Preset.Interval),
			source,
			truncate(r.Preset.Description, maxCellWidth),
		})
	}
	return Render(format, views, t)
}

// Preset renders one preset in detail.
func Preset(format Format, record core.PresetRecord) (string, error) {
	t := Table{Title: "Preset " + record.Preset.Name, Header: []string{"Field", "Value"}}
	t.Rows = append(t.Rows,
		[]string{"description", record.Preset.Description},
		[]string{"interval", formatSeconds(record.Preset.Interval)},
		[]string{"ticker", strings.Join(record.Preset.TickerItems, ", ")},
		[]string{"builtin", strconv.FormatBool(record.IsBuiltin)},
	)
	for i, img := range record.Preset.Images {
		t.Rows = append(t.Rows, []string{fmt.Sprintf("image %d", i+1), truncate(img, 72)})
	}
	return Render(format, newPresetView(record), t)
}

// ImportReport renders the outcome of an import.
func ImportReport(format Format, report *imports.Report) (string, error) {
	if report == nil {
		report = &imports.Report{}
	}
	t := Table{Title: "Import", Header: []string{"File", "Result"}}
	for _, name := range report.Accepted {
		t.Rows = append(t.Rows, []string{name, "accepted"})
	}
	for _, r := range report.Rejected {
		t.Rows = append(t.Rows, []string{r.Name, "rejected: " + r.Reason})
	}
	t.Footer = fmt.Sprintf("%d accepted, %d rejected", len(report.Accepted), len(report.Rejected))
	return Render(format, report, t)
}

// Snapshot renders the deck's current frame.
func Snapshot(format Format, s deck.Snapshot) (string, error) {
	playing := "paused"
	if s.Playing {
		playing = "playing"
	}
	t := Table{Title: "Deck", Header: []string{"Field", "Value"}, Rows: [][]string{
		{"slide", fmt.Sprintf("%d/%d", s.Index+1, s.Total)},
		{"image", truncate(s.URL, 72)},
		{"interval", formatSeconds(s.Interval)},
		{"state", playing},
		{"ticker", s.TickerItem},
		{"ticker cycle", formatSeconds(s.TickerDuration)},
		{"source", s.Source},
	}}
	return Render(format, s, t)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
