package core

import (
	"strings"
	"time"
)

// Preset is a named slideshow set: the images, the ticker words and the
// interval between slides. Zero Interval means the slideshow default.
type Preset struct {
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Images      []string      `json:"images" yaml:"images"`
	TickerItems []string      `json:"ticker_items,omitempty" yaml:"ticker_items,omitempty"`
	Interval    time.Duration `json:"interval,omitempty" yaml:"interval,omitempty"`
}

// PresetRecord wraps a preset with persistence metadata.
type PresetRecord struct {
	Preset    Preset
	IsBuiltin bool
	UpdatedAt time.Time
}

// DefaultPresetName names the preset used when nothing else is configured.
const DefaultPresetName = "landscapes"

// BuiltInPresets ship with the binary and are seeded into the store.
var BuiltInPresets = []Preset{
	{
		Name:        DefaultPresetName,
		Description: "Mountains, coast and city at night",
		Images: []string{
			"https://images.unsplash.com/photo-1506905925346-21bda4d32df4?w=1920&q=80",
			"https://images.unsplash.com/photo-1489749798305-4fea3ba63d60?w=1920&q=80",
			"https://images.unsplash.com/photo-1511379938547-c1f69b13d835?w=1920&q=80",
			"https://images.unsplash.com/photo-1470225620780-dba8ba36b745?w=1920&q=80",
			"https://images.unsplash.com/photo-1507525428034-b723cf961d3e?w=1920&q=80",
		},
		TickerItems: []string{
			"Internet", "Schedule", "Restaurants", "Decibels", "Coffees",
			"Jobs", "Cars", "Emails", "Parties", "Nature",
		},
		Interval: 8 * time.Second,
	},
	{
		Name:        "calm",
		Description: "Slow rotation of the landscape set",
		Images: []string{
			"https://images.unsplash.com/photo-1506905925346-21bda4d32df4?w=1920&q=80",
			"https://images.unsplash.com/photo-1507525428034-b723cf961d3e?w=1920&q=80",
		},
		TickerItems: []string{"Breathe", "Nature", "Silence"},
		Interval:    20 * time.Second,
	},
}

// FindBuiltInPreset looks up a built-in preset by name.
func FindBuiltInPreset(name string) (*Preset, bool) {
	needle := strings.TrimSpace(strings.ToLower(name))
	if needle == "" {
		return nil, false
	}

	for _, preset := range BuiltInPresets {
		if strings.EqualFold(preset.Name, needle) {
			copied := preset
			copied.Images = append([]string(nil), preset.Images...)
			copied.TickerItems = append([]string(nil), preset.TickerItems...)
			return &copied, true
		}
	}

	return nil, false
}
