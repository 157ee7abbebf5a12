package deck

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePreset(t *testing.T) {
	preset, err := ParsePreset([]byte(`
name: Office
description: Lobby screen
images:
  - https://img/a.jpg
  - "  "
  - https://img/b.jpg
ticker_items: [Coffee, Meetings]
interval: 12s
`))
	require.NoError(t, err)
	assert.Equal(t, "office", preset.Name)
	assert.Equal(t, "Lobby screen", preset.Description)
	assert.Equal(t, []string{"https://img/a.jpg", "https://img/b.jpg"}, preset.Images)
	assert.Equal(t, []string{"Coffee", "Meetings"}, preset.TickerItems)
	assert.Equal(t, 12*time.Second, preset.Interval)
}

func TestParsePresetIntervalSeconds(t *testing.T) {
	preset, err := ParsePreset([]byte("images: [https://img/a.jpg]\ninterval: 5\n"))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, preset.Interval)

	preset, err = ParsePreset([]byte("images: [https://img/a.jpg]\ninterval: 2.5\n"))
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, preset.Interval)

	preset, err = ParsePreset([]byte("images: [https://img/a.jpg]\n"))
	require.NoError(t, err)
	assert.Zero(t, preset.Interval)
}

func TestParsePresetErrors(t *testing.T) {
	_, err := ParsePreset([]byte("images: []\n"))
	assert.Error(t, err)

	_, err = ParsePreset([]byte("images: [https://img/a.jpg]\ninterval: soon\n"))
	assert.Error(t, err)

	_, err = ParsePreset([]byte("images: [https://img/a.jpg]\nvolume: 11\n"))
	assert.Error(t, err, "unknown keys are rejected")
}

func TestLoadPresetFileNamesFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Night-Shift.yaml")
	require.NoError(t, os.WriteFile(path, []byte("images: [https://img/n.jpg]\n"), 0o600))

	preset, err := LoadPresetFile(path)
	require.NoError(t, err)
	assert.Equal(t, "night-shift", preset.Name)

	_, err = LoadPresetFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMarshalPresetRoundTrip(t *testing.T) {
	preset, err := ParsePreset([]byte("name: calm\nimages: [https://img/a.jpg]\nticker_items: [Breathe]\ninterval: 15s\n"))
	require.NoError(t, err)

	data, err := MarshalPreset(*preset)
	require.NoError(t, err)

	again, err := ParsePreset(data)
	require.NoError(t, err)
	assert.Equal(t, preset, again)
}
