package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Setting keys the deck persists between runs.
const (
	SettingBoardToken = "board.token"
	SettingBoardID    = "board.id"
)

// ErrUnknownSetting is returned for keys outside the persisted set.
var ErrUnknownSetting = errors.New("unknown setting")

// SettingKeys lists the keys accepted by the settings table, in display order.
var SettingKeys = []string{SettingBoardToken, SettingBoardID}

// Setting is one persisted key/value pair.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// ValidSettingKey reports whether key is one of SettingKeys.
func ValidSettingKey(key string) bool {
	for _, k := range SettingKeys {
		if k == key {
			return true
		}
	}
	return false
}

func normalizeSettingKey(key string) (string, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", errors.New("setting key is required")
	}
	if !ValidSettingKey(key) {
		return "", fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	return key, nil
}

// GetSetting returns the stored value and whether it was present.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.DB == nil {
		return "", false, ErrNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key, err := normalizeSettingKey(key)
	if err != nil {
		return "", false, err
	}

	var value string
	row := s.DB.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("fetch setting: %w", err)
	}
	return value, true, nil
}

// SetSetting stores value under key, replacing any previous value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if s == nil || s.DB == nil {
		return ErrNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key, err := normalizeSettingKey(key)
	if err != nil {
		return err
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("store setting: %w", err)
	}
	return nil
}

// DeleteSetting removes key. Removing an absent key is not an error.
func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	if s == nil || s.DB == nil {
		return ErrNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key, err := normalizeSettingKey(key)
	if err != nil {
		return err
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}
	return nil
}

// ListSettings returns every stored setting ordered by key.
func (s *Store) ListSettings(ctx context.Context) ([]Setting, error) {
	if s == nil || s.DB == nil {
		return nil, ErrNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT key, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	settings := []Setting{}
	for rows.Next() {
		var (
			item      Setting
			updatedAt int64
		)
		if err := rows.Scan(&item.Key, &item.Value, &updatedAt); err != nil {
			return nil, fmt.Errorf("list settings: %w", err)
		}
		item.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		settings = append(settings, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}
