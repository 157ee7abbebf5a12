package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the complete ambientdeck configuration. Values are layered as
// built-in defaults, then the YAML config file, then AMBIENTDECK_* environment
// variables, then runtime overrides.
type Config struct {
	Server        ServerConfig       `mapstructure:"server"`
	Store         StoreConfig        `mapstructure:"store"`
	Board         BoardConfig        `mapstructure:"board"`
	Slideshow     SlideshowConfig    `mapstructure:"slideshow"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Uploads       UploadConfig       `mapstructure:"uploads"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
	Health        HealthConfig       `mapstructure:"health"`
	Debug         DebugConfig        `mapstructure:"debug"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// BoardConfig configures the upstream board/pin API client.
type BoardConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIVersion string        `mapstructure:"api_version"`
	Token      string        `mapstructure:"token"`
	Timeout    time.Duration `mapstructure:"timeout"`
	PageLimit  int           `mapstructure:"page_limit"`

	// CacheTTL and CacheSize bound the in-memory pin cache. A zero TTL
	// disables caching.
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	CacheSize int           `mapstructure:"cache_size"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig is the client-side sliding window shared by every board call.
type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

// SlideshowConfig controls the background slideshow and ticker.
type SlideshowConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	AutoStart bool          `mapstructure:"autostart"`
	// Preset is an optional YAML preset file; empty uses the built-in preset.
	Preset string `mapstructure:"preset"`
}

// NotificationConfig bounds the notification feed.
type NotificationConfig struct {
	Duration  time.Duration `mapstructure:"duration"`
	MaxActive int           `mapstructure:"max_active"`
}

// UploadConfig limits local image imports.
type UploadConfig struct {
	MaxFiles      int   `mapstructure:"max_files"`
	MaxFileSize   int64 `mapstructure:"max_file_size"`
	PreviewCount  int   `mapstructure:"preview_count"`
	ThumbnailSize int   `mapstructure:"thumbnail_size"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level: trace, debug, info, warn, error
	Level string `mapstructure:"level"`
	// Profile: SIMPLE for CLI use, STRUCTURED for the server
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DebugConfig contains debug and profiling configuration
type DebugConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}

// Validate rejects configurations the deck cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.Board.BaseURL) == "" {
		problems = append(problems, "board.base_url is required")
	}
	if c.Board.RateLimit.MaxRequests <= 0 {
		problems = append(problems, "board.rate_limit.max_requests must be positive")
	}
	if c.Board.RateLimit.Window <= 0 {
		problems = append(problems, "board.rate_limit.window must be positive")
	}
	if c.Board.PageLimit <= 0 {
		problems = append(problems, "board.page_limit must be positive")
	}
	if c.Notifications.MaxActive <= 0 {
		problems = append(problems, "notifications.max_active must be positive")
	}
	if c.Uploads.MaxFiles <= 0 || c.Uploads.MaxFileSize <= 0 {
		problems = append(problems, "uploads.max_files and uploads.max_file_size must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
