package deck

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/bluele/gcache"
	"go.uber.org/zap"

	"github.com/ambientdeck/ambientdeck/internal/core"
	"github.com/ambientdeck/ambientdeck/internal/core/imports"
	"github.com/ambientdeck/ambientdeck/internal/core/store"
)

// LoadBoard fetches the pins of boardID and, when any carry an image, makes
// them the slideshow set and persists the token and board id. An empty token
// or board id falls back to the stored setting. The returned result holds the
// pins that were shown.
func (d *Deck) LoadBoard(ctx context.Context, token, boardID string) core.Result[core.Pin] {
	token, err := d.resolveToken(ctx, token)
	if err != nil {
		return core.Failed[core.Pin](err)
	}
	boardID = d.resolveSetting(ctx, store.SettingBoardID, boardID)
	if boardID == "" {
		d.Notifier.Warning("Please enter a board ID")
		return core.Failed[core.Pin](ErrMissingBoardID)
	}

	d.Notifier.Info("Loading board images...")
	result := d.Pins(ctx, token, boardID)
	if result.Failed() {
		return result
	}

	var shown []core.Pin
	for _, pin := range result.Items {
		if pin.HasImage() {
			shown = append(shown, pin)
		}
	}
	if len(shown) == 0 {
		d.Notifier.Warning("No images found in this board")
		return core.OK[core.Pin](nil)
	}

	if err := d.replace(core.ImageURLs(shown), SourceBoard); err != nil {
		d.Notifier.Error(fmt.Sprintf("Error updating slideshow: %v", err))
		return core.Failed[core.Pin](err)
	}
	d.Notifier.Success(fmt.Sprintf("Loaded %d images from board", len(shown)))

	d.persist(ctx, store.SettingBoardToken, token)
	d.persist(ctx, store.SettingBoardID, boardID)
	return core.OK(shown)
}

// Pins returns the pins of boardID, from the in-memory cache, then the
// store's cache, then the API. Only successful fetches are cached, and a
// cached entry is only served to the token that fetched it.
func (d *Deck) Pins(ctx context.Context, token, boardID string) core.Result[core.Pin] {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return core.Failed[core.Pin](ErrMissingBoardID)
	}
	token, err := d.resolveToken(ctx, token)
	if err != nil {
		return core.Failed[core.Pin](err)
	}

	if pins, ok := d.cachedPins(ctx, token, boardID); ok {
		d.debug("Pin cache hit", zap.String("board_id", boardID), zap.Int("count", len(pins)))
		return core.OK(pins)
	}

	d.Client.SetToken(token)
	result := d.Client.ListPins(ctx, boardID, d.pageLimit)
	if result.Failed() {
		return result
	}

	d.cachePins(ctx, token, boardID, result.Items)
	return result
}

// FindBoards lists the boards visible to token, or to the stored token.
func (d *Deck) FindBoards(ctx context.Context, token string) core.Result[core.Board] {
	token, err := d.resolveToken(ctx, token)
	if err != nil {
		return core.Failed[core.Board](err)
	}

	d.Notifier.Info("Fetching your boards...")
	d.Client.SetToken(token)
	result := d.Client.ListBoards(ctx)
	switch {
	case result.Ok():
		d.Notifier.Success(fmt.Sprintf("Found %d boards", len(result.Items)))
	case result.Empty():
		d.Notifier.Info("No boards found")
	}
	return result
}

// SearchPins searches pins matching query.
func (d *Deck) SearchPins(ctx context.Context, token, query string) core.Result[core.Pin] {
	query = strings.TrimSpace(query)
	if query == "" {
		d.Notifier.Warning("Please enter a search query")
		return core.Failed[core.Pin](ErrMissingQuery)
	}
	token, err := d.resolveToken(ctx, token)
	if err != nil {
		return core.Failed[core.Pin](err)
	}

	d.Client.SetToken(token)
	return d.Client.SearchPins(ctx, query, d.pageLimit)
}

// ImportImages validates candidates and shows the accepted ones.
func (d *Deck) ImportImages(ctx context.Context, candidates []imports.Candidate) (*imports.Report, error) {
	report, err := d.Importer.Import(ctx, candidates)
	return d.showImport(report, err)
}

// ImportDir imports the image files of a local directory and shows them.
func (d *Deck) ImportDir(ctx context.Context, dir string) (*imports.Report, error) {
	report, err := d.Importer.FromDir(ctx, dir)
	return d.showImport(report, err)
}

func (d *Deck) showImport(report *imports.Report, err error) (*imports.Report, error) {
	if err != nil {
		d.Notifier.Error(fmt.Sprintf("Upload error: %v", err))
		return report, err
	}

	if err := d.replace(report.URLs, SourceImport); err != nil {
		d.Notifier.Error(fmt.Sprintf("Error updating slideshow: %v", err))
		return report, err
	}
	d.Notifier.Success(fmt.Sprintf("Loaded %d images successfully", report.Count()))
	return report, nil
}

// Restore reloads the stored board, if both settings are present. It is a
// no-op returning an empty result otherwise.
func (d *Deck) Restore(ctx context.Context) core.Result[core.Pin] {
	token := d.resolveSetting(ctx, store.SettingBoardToken, "")
	boardID := d.resolveSetting(ctx, store.SettingBoardID, "")
	if token == "" || boardID == "" {
		return core.OK[core.Pin](nil)
	}
	return d.LoadBoard(ctx, token, boardID)
}

// InvalidateBoard drops any cached pins for boardID from memory.
func (d *Deck) InvalidateBoard(boardID string) {
	d.pins.Remove(strings.TrimSpace(boardID))
}

// resolveToken picks the explicit token, then the stored board.token, then
// the token the client was configured with.
func (d *Deck) resolveToken(ctx context.Context, token string) (string, error) {
	token = d.resolveSetting(ctx, store.SettingBoardToken, token)
	if token == "" {
		token = strings.TrimSpace(d.defaultToken)
	}
	if token == "" {
		d.Notifier.Warning("Please enter a board access token")
		return "", ErrMissingToken
	}
	return token, nil
}

func (d *Deck) resolveSetting(ctx context.Context, key, value string) string {
	value = strings.TrimSpace(value)
	if value != "" || d.Store == nil {
		return value
	}
	stored, ok, err := d.Store.GetSetting(ctx, key)
	if err != nil {
		d.warn("Failed to read setting", zap.String("key", key), zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return strings.TrimSpace(stored)
}

func (d *Deck) persist(ctx context.Context, key, value string) {
	if d.Store == nil {
		return
	}
	if err := d.Store.SetSetting(ctx, key, value); err != nil {
		d.warn("Failed to persist setting", zap.String("key", key), zap.Error(err))
	}
}

// pinEntry is an in-memory cache value, tagged with the token that fetched it.
type pinEntry struct {
	owner string
	pins  []core.Pin
}

// tokenFingerprint identifies a token in cache keys without storing it.
func tokenFingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

// storedPinKey is the key of a board's pins in the store's cache.
func storedPinKey(token, boardID string) string {
	return boardID + "@" + tokenFingerprint(token)
}

func (d *Deck) cachedPins(ctx context.Context, token, boardID string) ([]core.Pin, bool) {
	owner := tokenFingerprint(token)
	value, err := d.pins.Get(boardID)
	if err == nil {
		if entry, ok := value.(pinEntry); ok && entry.owner == owner {
			d.observeLookup(true)
			return clonePins(entry.pins), true
		}
	} else if !errors.Is(err, gcache.KeyNotFoundError) {
		d.warn("Pin cache lookup failed", zap.String("board_id", boardID), zap.Error(err))
	}

	if d.Store != nil {
		pins, ok, err := d.Store.GetCachedPins(ctx, storedPinKey(token, boardID))
		if err != nil {
			d.warn("Stored pin cache lookup failed", zap.String("board_id", boardID), zap.Error(err))
		} else if ok {
			_ = d.pins.Set(boardID, pinEntry{owner: owner, pins: clonePins(pins)})
			d.observeLookup(true)
			return pins, true
		}
	}

	d.observeLookup(false)
	return nil, false
}

func (d *Deck) cachePins(ctx context.Context, token, boardID string, pins []core.Pin) {
	if err := d.pins.Set(boardID, pinEntry{owner: tokenFingerprint(token), pins: clonePins(pins)}); err != nil {
		d.warn("Pin cache store failed", zap.String("board_id", boardID), zap.Error(err))
	}
	if d.Store == nil {
		return
	}
	if err := d.Store.SetCachedPins(ctx, storedPinKey(token, boardID), pins, d.cacheTTL); err != nil {
		d.warn("Stored pin cache write failed", zap.String("board_id", boardID), zap.Error(err))
	}
}

func (d *Deck) observeLookup(hit bool) {
	if d.onCacheLookup != nil {
		d.onCacheLookup(hit)
	}
}

func clonePins(pins []core.Pin) []core.Pin {
	if pins == nil {
		return nil
	}
	return append([]core.Pin(nil), pins...)
}
