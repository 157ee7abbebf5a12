// Package config loads the ambientdeck configuration with viper and decodes
// it into a typed Config.
//
// Precedence, lowest first: built-in defaults, YAML config file
// (--config, $XDG_CONFIG_HOME/ambientdeck/config.yaml, ./config/ambientdeck.yaml),
// AMBIENTDECK_* environment variables, runtime overrides.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/ambientdeck/ambientdeck/internal/appid"
)

var (
	appConfig   *Config
	configMu    sync.RWMutex
	appIdentity *appid.Identity
)

// EnvVarSpec maps an environment variable onto a config path.
type EnvVarSpec = gfconfig.EnvVarSpec

const (
	EnvString = gfconfig.EnvString
	EnvInt    = gfconfig.EnvInt
	EnvBool   = gfconfig.EnvBool
)

// Load reads configuration from the default search paths. It is safe to call
// repeatedly, e.g. on SIGHUP reload.
func Load(ctx context.Context, runtimeOverrides ...map[string]any) (*Config, error) {
	return LoadFile(ctx, "", runtimeOverrides...)
}

// LoadFile is Load with an explicit config file. An explicit file that does
// not exist is an error; a missing default file is not.
func LoadFile(ctx context.Context, path string, runtimeOverrides ...map[string]any) (*Config, error) {
	if appIdentity == nil {
		identity, err := appid.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load app identity: %w", err)
		}
		appIdentity = identity
	}

	v := viper.New()
	SetDefaults(v)

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	envOverrides, err := gfconfig.LoadEnvOverrides(getEnvSpecs())
	if err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}
	if len(envOverrides) > 0 {
		if err := v.MergeConfigMap(envOverrides); err != nil {
			return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
		}
	}

	for _, overrides := range runtimeOverrides {
		if len(overrides) == 0 {
			continue
		}
		if err := v.MergeConfigMap(overrides); err != nil {
			return nil, fmt.Errorf("failed to apply runtime overrides: %w", err)
		}
	}

	cfg, err := decode(v.AllSettings())
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

func decode(settings map[string]any) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	for _, candidate := range configSearchPaths() {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		v.SetConfigFile(candidate)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				continue
			}
			return fmt.Errorf("failed to read config file %s: %w", candidate, err)
		}
		return nil
	}
	return nil
}

func configSearchPaths() []string {
	configName, _ := appNamesForPaths()
	paths := []string{}
	if p := DefaultConfigPath(); p != "" {
		paths = append(paths, p)
	}
	return append(paths, filepath.Join("config", configName+".yaml"))
}

// SetDefaults installs the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", "")
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	v.SetDefault("board.base_url", "https://api.pinterest.com")
	v.SetDefault("board.api_version", "v5")
	v.SetDefault("board.token", "")
	v.SetDefault("board.timeout", "15s")
	v.SetDefault("board.page_limit", 25)
	v.SetDefault("board.cache_ttl", "5m")
	v.SetDefault("board.cache_size", 64)
	v.SetDefault("board.rate_limit.max_requests", 10)
	v.SetDefault("board.rate_limit.window", "60s")

	v.SetDefault("slideshow.interval", "8s")
	v.SetDefault("slideshow.autostart", true)
	v.SetDefault("slideshow.preset", "")

	v.SetDefault("notifications.duration", "3s")
	v.SetDefault("notifications.max_active", 5)

	v.SetDefault("uploads.max_files", 50)
	v.SetDefault("uploads.max_file_size", 5*1024*1024)
	v.SetDefault("uploads.preview_count", 6)
	v.SetDefault("uploads.thumbnail_size", 256)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "SIMPLE")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("health.enabled", true)

	v.SetDefault("debug.enabled", false)
	v.SetDefault("debug.pprof_enabled", false)
}

// GetConfig returns the most recently loaded configuration.
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// getEnvSpecs maps {PREFIX}{NAME} environment variables to config paths.
// Durations are read as strings and converted by the decode hook.
func getEnvSpecs() []EnvVarSpec {
	if appIdentity == nil {
		return []EnvVarSpec{}
	}
	prefix := appIdentity.Prefix()

	return []EnvVarSpec{
		{Name: prefix + "HOST", Path: []string{"server", "host"}, Type: EnvString},
		{Name: prefix + "PORT", Path: []string{"server", "port"}, Type: EnvInt},
		{Name: prefix + "READ_TIMEOUT", Path: []string{"server", "read_timeout"}, Type: EnvString},
		{Name: prefix + "WRITE_TIMEOUT", Path: []string{"server", "write_timeout"}, Type: EnvString},
		{Name: prefix + "IDLE_TIMEOUT", Path: []string{"server", "idle_timeout"}, Type: EnvString},
		{Name: prefix + "SHUTDOWN_TIMEOUT", Path: []string{"server", "shutdown_timeout"}, Type: EnvString},

		{Name: prefix + "LOG_LEVEL", Path: []string{"logging", "level"}, Type: EnvString},
		{Name: prefix + "LOG_PROFILE", Path: []string{"logging", "profile"}, Type: EnvString},

		{Name: prefix + "DB_DRIVER", Path: []string{"store", "driver"}, Type: EnvString},
		{Name: prefix + "DB_PATH", Path: []string{"store", "path"}, Type: EnvString},
		{Name: prefix + "DB_URL", Path: []string{"store", "url"}, Type: EnvString},
		{Name: prefix + "DB_AUTH_TOKEN", Path: []string{"store", "auth_token"}, Type: EnvString},

		{Name: prefix + "BOARD_BASE_URL", Path: []string{"board", "base_url"}, Type: EnvString},
		{Name: prefix + "BOARD_API_VERSION", Path: []string{"board", "api_version"}, Type: EnvString},
		{Name: prefix + "BOARD_TOKEN", Path: []string{"board", "token"}, Type: EnvString},
		{Name: prefix + "BOARD_TIMEOUT", Path: []string{"board", "timeout"}, Type: EnvString},
		{Name: prefix + "BOARD_PAGE_LIMIT", Path: []string{"board", "page_limit"}, Type: EnvInt},
		{Name: prefix + "BOARD_CACHE_TTL", Path: []string{"board", "cache_ttl"}, Type: EnvString},
		{Name: prefix + "BOARD_CACHE_SIZE", Path: []string{"board", "cache_size"}, Type: EnvInt},
		{Name: prefix + "BOARD_RATE_LIMIT_MAX_REQUESTS", Path: []string{"board", "rate_limit", "max_requests"}, Type: EnvInt},
		{Name: prefix + "BOARD_RATE_LIMIT_WINDOW", Path: []string{"board", "rate_limit", "window"}, Type: EnvString},

		{Name: prefix + "SLIDESHOW_INTERVAL", Path: []string{"slideshow", "interval"}, Type: EnvString},
		{Name: prefix + "SLIDESHOW_AUTOSTART", Path: []string{"slideshow", "autostart"}, Type: EnvBool},
		{Name: prefix + "SLIDESHOW_PRESET", Path: []string{"slideshow", "preset"}, Type: EnvString},

		{Name: prefix + "NOTIFICATIONS_DURATION", Path: []string{"notifications", "duration"}, Type: EnvString},
		{Name: prefix + "NOTIFICATIONS_MAX_ACTIVE", Path: []string{"notifications", "max_active"}, Type: EnvInt},

		{Name: prefix + "UPLOADS_MAX_FILES", Path: []string{"uploads", "max_files"}, Type: EnvInt},
		{Name: prefix + "UPLOADS_MAX_FILE_SIZE", Path: []string{"uploads", "max_file_size"}, Type: EnvInt},

		{Name: prefix + "METRICS_ENABLED", Path: []string{"metrics", "enabled"}, Type: EnvBool},
		{Name: prefix + "METRICS_PORT", Path: []string{"metrics", "port"}, Type: EnvInt},

		{Name: prefix + "HEALTH_ENABLED", Path: []string{"health", "enabled"}, Type: EnvBool},

		{Name: prefix + "DEBUG_ENABLED", Path: []string{"debug", "enabled"}, Type: EnvBool},
		{Name: prefix + "DEBUG_PPROF_ENABLED", Path: []string{"debug", "pprof_enabled"}, Type: EnvBool},
	}
}

func appNamesForPaths() (configName string, binaryName string) {
	configName = "ambientdeck"
	binaryName = "ambientdeck"
	if appIdentity == nil {
		return configName, binaryName
	}
	if strings.TrimSpace(appIdentity.ConfigName) != "" {
		configName = appIdentity.ConfigName
	}
	if strings.TrimSpace(appIdentity.BinaryName) != "" {
		binaryName = appIdentity.BinaryName
	}
	return configName, binaryName
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configName, _ := appNamesForPaths()
	configDir := gfconfig.GetAppConfigDir(configName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

// DefaultDataDir returns the XDG-compliant data directory for the app.
func DefaultDataDir() string {
	configName, _ := appNamesForPaths()
	return gfconfig.GetAppDataDir(configName)
}

// DefaultStorePath returns the XDG-compliant path to the database file.
func DefaultStorePath() string {
	configName, binaryName := appNamesForPaths()
	dataDir := gfconfig.GetAppDataDir(configName)
	if strings.TrimSpace(dataDir) == "" {
		return "./" + binaryName + ".db"
	}
	return filepath.Join(dataDir, binaryName+".db")
}
