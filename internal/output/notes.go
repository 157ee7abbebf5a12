package output

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ambientdeck/ambientdeck/internal/core"
)

const maxCellWidth = 48

// pinNotes summarizes what a pin contributes to the slideshow.
func pinNotes(pin core.Pin) string {
	var notes []string
	if !pin.HasImage() {
		notes = append(notes, "no image")
	}
	if pin.CreativeType != "" && !strings.EqualFold(pin.CreativeType, "regular") {
		notes = append(notes, strings.ToLower(pin.CreativeType))
	}
	if pin.Link != "" {
		notes = append(notes, "link: "+truncate(pin.Link, 32))
	}
	return strings.Join(notes, "; ")
}

// rateLimitStatus labels an endpoint's ledger entry at now.
func rateLimitStatus(state core.RateLimitState, now time.Time) string {
	if state.Active(now) {
		remaining := state.BackoffUntil.Sub(now).Round(time.Second)
		return fmt.Sprintf("backing off (%s left)", remaining)
	}
	return "clear"
}

// MaskSecret keeps the last four characters of a secret.
func MaskSecret(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", 8) + secret[len(secret)-4:]
}

func truncate(value string, max int) string {
	value = strings.TrimSpace(value)
	if utf8.RuneCountInString(value) <= max {
		return value
	}
	runes := []rune(value)
	return string(runes[:max-1]) + "…"
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func formatSeconds(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return fmt.Sprintf("%gs", d.Seconds())
}
