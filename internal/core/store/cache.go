package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ambientdeck/ambientdeck/internal/core"
)

// GetCachedPins returns the pins cached under a board key if the entry has
// not expired. Callers may scope the key, for example by token.
func (s *Store) GetCachedPins(ctx context.Context, key string) ([]core.Pin, bool, error) {
	if s == nil || s.DB == nil {
		return nil, false, ErrNotInitialized
	}

	if ctx == nil {
		ctx = context.Background()
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, errors.New("cache key is required")
	}

	var pinsJSON string
	row := s.DB.QueryRowContext(ctx, `
		SELECT pins_json
		FROM pin_cache
		WHERE board_id = ? AND expires_at > ?
	`, key, time.Now().UTC().Unix())

	if err := row.Scan(&pinsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("fetch cached pins: %w", err)
	}

	var pins []core.Pin
	if err := json.Unmarshal([]byte(pinsJSON), &pins); err != nil {
		return nil, false, fmt.Errorf("decode cached pins: %w", err)
	}

	return pins, true, nil
}

// SetCachedPins stores pins under key with a TTL. A non-positive TTL
// disables caching.
func (s *Store) SetCachedPins(ctx context.Context, key string, pins []core.Pin, ttl time.Duration) error {
	if s == nil || s.DB == nil {
		return ErrNotInitialized
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if ttl <= 0 {
		return nil
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("cache key is required")
	}

	if pins == nil {
		pins = []core.Pin{}
	}
	payload, err := json.Marshal(pins)
	if err != nil {
		return fmt.Errorf("encode cached pins: %w", err)
	}

	now := time.Now().UTC()
	expires := now.Add(ttl)

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO pin_cache (board_id, pins_json, cached_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(board_id) DO UPDATE SET
			pins_json = excluded.pins_json,
			cached_at = excluded.cached_at,
			expires_at = excluded.expires_at
	`, key, string(payload), now.Unix(), expires.Unix())
	if err != nil {
		return fmt.Errorf("store cached pins: %w", err)
	}

	return nil
}

// PurgeExpiredPins deletes expired cache rows and returns how many went.
func (s *Store) PurgeExpiredPins(ctx context.Context) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, ErrNotInitialized
	}

	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM pin_cache WHERE expires_at <= ?`, time.Now().UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge pin cache: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge pin cache: %w", err)
	}
	return affected, nil
}
