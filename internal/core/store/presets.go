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

// SeedBuiltInPresets ensures built-in presets exist in the store.
func (s *Store) SeedBuiltInPresets(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return ErrNotInitialized
	}

	for _, preset := range core.BuiltInPresets {
		if err := s.UpsertPreset(ctx, preset, true, time.Now().UTC()); err != nil {
			return err
		}
	}

	return nil
}

// UpsertPreset creates or updates a preset record.
func (s *Store) UpsertPreset(ctx context.Context, preset core.Preset, isBuiltin bool, updatedAt time.Time) error {
	if s == nil || s.DB == nil {
		return ErrNotInitialized
	}

	if ctx == nil {
		ctx = context.Background()
	}

	name := strings.ToLower(strings.TrimSpace(preset.Name))
	if name == "" {
		return errors.New("preset name is required")
	}
	if len(preset.Images) == 0 {
		return fmt.Errorf("preset %s has no images", name)
	}
	preset.Name = name

	payload, err := json.Marshal(preset)
	if err != nil {
		return fmt.Errorf("encode preset: %w", err)
	}

	builtinValue := 0
	if isBuiltin {
		builtinValue = 1
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO presets (name, config, is_builtin, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			config = excluded.config,
			is_builtin = excluded.is_builtin,
			updated_at = excluded.updated_at
	`, name, string(payload), builtinValue, updatedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("store preset: %w", err)
	}

	return nil
}

// GetPreset returns a preset record by name, or nil when absent.
func (s *Store) GetPreset(ctx context.Context, name string) (*core.PresetRecord, error) {
	if s == nil || s.DB == nil {
		return nil, ErrNotInitialized
	}

	if ctx == nil {
		ctx = context.Background()
	}

	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, errors.New("preset name is required")
	}

	var (
		configJSON string
		isBuiltin  int
		updatedAt  sql.NullInt64
	)

	row := s.DB.QueryRowContext(ctx, `
		SELECT config, is_builtin, updated_at
		FROM presets
		WHERE name = ?
	`, name)

	if err := row.Scan(&configJSON, &isBuiltin, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch preset: %w", err)
	}

	record, err := decodePreset(name, configJSON, isBuiltin, updatedAt)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListPresets returns all presets ordered by name.
func (s *Store) ListPresets(ctx context.Context) ([]core.PresetRecord, error) {
	if s == nil || s.DB == nil {
		return nil, ErrNotInitialized
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT name, config, is_builtin, updated_at
		FROM presets
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var records []core.PresetRecord
	for rows.Next() {
		var (
			name       string
			configJSON string
			isBuiltin  int
			updatedAt  sql.NullInt64
		)
		if err := rows.Scan(&name, &configJSON, &isBuiltin, &updatedAt); err != nil {
			return nil, fmt.Errorf("list presets: %w", err)
		}

		record, err := decodePreset(name, configJSON, isBuiltin, updatedAt)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}

	return records, nil
}

// DeletePreset removes a user preset. Built-in presets cannot be removed.
func (s *Store) DeletePreset(ctx context.Context, name string) error {
	if s == nil || s.DB == nil {
		return ErrNotInitialized
	}

	if ctx == nil {
		ctx = context.Background()
	}

	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := core.FindBuiltInPreset(name); ok {
		return fmt.Errorf("preset %s is built in", name)
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM presets WHERE name = ? AND is_builtin = 0`, name); err != nil {
		return fmt.Errorf("delete preset: %w", err)
	}
	return nil
}

func decodePreset(name, configJSON string, isBuiltin int, updatedAt sql.NullInt64) (core.PresetRecord, error) {
	var preset core.Preset
	if err := json.Unmarshal([]byte(configJSON), &preset); err != nil {
		return core.PresetRecord{}, fmt.Errorf("decode preset: %w", err)
	}
	if preset.Name == "" {
		preset.Name = name
	}

	record := core.PresetRecord{
		Preset:    preset,
		IsBuiltin: isBuiltin == 1,
	}
	if updatedAt.Valid {
		record.UpdatedAt = time.Unix(updatedAt.Int64, 0).UTC()
	}
	return record, nil
}
