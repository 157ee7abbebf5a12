package deck

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ambientdeck/ambientdeck/internal/core"
)

// presetFile is the on-disk YAML shape. Interval accepts a Go duration
// ("12s") or a bare number of seconds.
type presetFile struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Images      []string  `yaml:"images"`
	TickerItems []string  `yaml:"ticker_items"`
	Interval    yaml.Node `yaml:"interval"`
}

// LoadPresetFile reads a preset from a YAML file. A missing name defaults to
// the file's base name without extension.
func LoadPresetFile(path string) (*core.Preset, error) {
	// #nosec G304 -- preset path is provided by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset: %w", err)
	}

	preset, err := ParsePreset(data)
	if err != nil {
		return nil, fmt.Errorf("preset %s: %w", path, err)
	}
	if preset.Name == "" {
		preset.Name = presetNameFromPath(path)
	}
	return preset, nil
}

// ParsePreset decodes a YAML preset document.
func ParsePreset(data []byte) (*core.Preset, error) {
	var raw presetFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode preset: %w", err)
	}

	interval, err := parseInterval(raw.Interval)
	if err != nil {
		return nil, err
	}

	preset := &core.Preset{
		Name:        strings.ToLower(strings.TrimSpace(raw.Name)),
		Description: strings.TrimSpace(raw.Description),
		Images:      compact(raw.Images),
		TickerItems: compact(raw.TickerItems),
		Interval:    interval,
	}
	if len(preset.Images) == 0 {
		return nil, errors.New("preset has no images")
	}
	return preset, nil
}

// MarshalPreset renders preset in the same YAML shape ParsePreset reads.
func MarshalPreset(preset core.Preset) ([]byte, error) {
	out := map[string]any{
		"name":   preset.Name,
		"images": preset.Images,
	}
	if preset.Description != "" {
		out["description"] = preset.Description
	}
	if len(preset.TickerItems) > 0 {
		out["ticker_items"] = preset.TickerItems
	}
	if preset.Interval > 0 {
		out["interval"] = preset.Interval.String()
	}
	return yaml.Marshal(out)
}

func parseInterval(node yaml.Node) (time.Duration, error) {
	if node.Kind == 0 || node.Value == "" {
		return 0, nil
	}
	if node.Kind != yaml.ScalarNode {
		return 0, errors.New("interval must be a scalar")
	}

	switch node.Tag {
	case "!!int", "!!float":
		var seconds float64
		if err := node.Decode(&seconds); err != nil {
			return 0, fmt.Errorf("interval: %w", err)
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(node.Value)
	if err != nil {
		return 0, fmt.Errorf("interval: %w", err)
	}
	return d, nil
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func presetNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}
