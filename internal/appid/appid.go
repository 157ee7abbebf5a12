// Package appid holds the identity the binary uses to name its config
// directory, environment prefix and telemetry namespace.
package appid

import (
	"context"
	"os"
	"strings"
)

// EnvBinaryName overrides the binary name reported in help text and logs.
const EnvBinaryName = "AMBIENTDECK_BINARY_NAME"

// Identity describes the application for config discovery and telemetry.
type Identity struct {
	BinaryName  string
	ConfigName  string
	EnvPrefix   string
	Description string
}

var builtin = Identity{
	BinaryName:  "ambientdeck",
	ConfigName:  "ambientdeck",
	EnvPrefix:   "AMBIENTDECK_",
	Description: "Ambient slideshow, ticker and board import engine",
}

// Get returns a copy of the application identity.
func Get(ctx context.Context) (*Identity, error) {
	_ = ctx
	identity := builtin
	if name := strings.TrimSpace(os.Getenv(EnvBinaryName)); name != "" {
		identity.BinaryName = name
	}
	return &identity, nil
}

// TelemetryNamespace returns the metric namespace derived from the binary name.
func (i *Identity) TelemetryNamespace() string {
	if i == nil || i.BinaryName == "" {
		return "ambientdeck"
	}
	return strings.ReplaceAll(strings.ToLower(i.BinaryName), "-", "_")
}

// Prefix returns the environment prefix, always terminated by an underscore.
func (i *Identity) Prefix() string {
	if i == nil || i.EnvPrefix == "" {
		return "AMBIENTDECK_"
	}
	if strings.HasSuffix(i.EnvPrefix, "_") {
		return i.EnvPrefix
	}
	return i.EnvPrefix + "_"
}
