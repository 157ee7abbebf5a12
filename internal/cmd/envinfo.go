package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/ambientdeck/ambientdeck/internal/config"
	"github.com/ambientdeck/ambientdeck/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display comprehensive environment, configuration, and version information.",
	Run: func(cmd *cobra.Command, args []string) {
		version := crucible.GetVersion()

		observability.CLILogger.Info("=== Environment Information ===")
		observability.CLILogger.Info("")

		// Application Info
		identity := GetAppIdentity()
		observability.CLILogger.Info("Application:")
		observability.CLILogger.Info("  Name:       " + identity.BinaryName)
		observability.CLILogger.Info("  Version:    " + versionInfo.Version)
		observability.CLILogger.Info("  Commit:     " + versionInfo.Commit)
		observability.CLILogger.Info("  Built:      " + versionInfo.BuildDate)
		observability.CLILogger.Info("")

		// SSOT Info
		observability.CLILogger.Info("SSOT:")
		observability.CLILogger.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		observability.CLILogger.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		observability.CLILogger.Info("")

		// Runtime Info
		observability.CLILogger.Info("Runtime:")
		observability.CLILogger.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		observability.CLILogger.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		observability.CLILogger.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		observability.CLILogger.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		observability.CLILogger.Info("")

		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			observability.CLILogger.Warn("Config load failed", zap.Error(err))
			return
		}

		// Configuration
		observability.CLILogger.Info("Configuration:")
		observability.CLILogger.Info("  Server Host:    "+cfg.Server.Host, zap.String("host", cfg.Server.Host))
		observability.CLILogger.Info(fmt.Sprintf("  Server Port:    %d", cfg.Server.Port), zap.Int("port", cfg.Server.Port))
		observability.CLILogger.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		observability.CLILogger.Info("  Log Profile:    "+cfg.Logging.Profile, zap.String("log_profile", cfg.Logging.Profile))
		observability.CLILogger.Info("  DB Driver:      "+cfg.Store.Driver, zap.String("db_driver", cfg.Store.Driver))
		if strings.TrimSpace(cfg.Store.URL) != "" {
			observability.CLILogger.Info("  DB URL:         "+cfg.Store.URL, zap.String("db_url", cfg.Store.URL))
		} else {
			observability.CLILogger.Info("  DB Path:        "+cfg.Store.Path, zap.String("db_path", cfg.Store.Path))
		}
		observability.CLILogger.Info(fmt.Sprintf("  Metrics Port:   %d", cfg.Metrics.Port), zap.Int("metrics_port", cfg.Metrics.Port))
		observability.CLILogger.Info("  Config File:    "+config.DefaultConfigPath(), zap.String("config_file", config.DefaultConfigPath()))
		observability.CLILogger.Info("")

		// Board API
		tokenState := "(not set)"
		if strings.TrimSpace(cfg.Board.Token) != "" {
			tokenState = "(set)"
		}
		observability.CLILogger.Info("Board API:")
		observability.CLILogger.Info("  Base URL:       "+cfg.Board.BaseURL, zap.String("board_base_url", cfg.Board.BaseURL))
		observability.CLILogger.Info("  API Version:    "+cfg.Board.APIVersion, zap.String("board_api_version", cfg.Board.APIVersion))
		observability.CLILogger.Info("  Token:          " + tokenState)
		observability.CLILogger.Info("  Timeout:        " + cfg.Board.Timeout.String())
		observability.CLILogger.Info(fmt.Sprintf("  Page Limit:     %d", cfg.Board.PageLimit))
		observability.CLILogger.Info(fmt.Sprintf("  Rate Limit:     %d per %s", cfg.Board.RateLimit.MaxRequests, cfg.Board.RateLimit.Window),
			zap.Int("rate_limit_max", cfg.Board.RateLimit.MaxRequests), zap.Duration("rate_limit_window", cfg.Board.RateLimit.Window))
		observability.CLILogger.Info(fmt.Sprintf("  Pin Cache:      %d boards, ttl %s", cfg.Board.CacheSize, cfg.Board.CacheTTL))
		observability.CLILogger.Info("")

		// Slideshow
		preset := cfg.Slideshow.Preset
		if strings.TrimSpace(preset) == "" {
			preset = "(default)"
		}
		observability.CLILogger.Info("Slideshow:")
		observability.CLILogger.Info("  Interval:       "+cfg.Slideshow.Interval.String(), zap.Duration("interval", cfg.Slideshow.Interval))
		observability.CLILogger.Info(fmt.Sprintf("  Autostart:      %t", cfg.Slideshow.AutoStart))
		observability.CLILogger.Info("  Preset:         " + preset)
		observability.CLILogger.Info(fmt.Sprintf("  Notifications:  %d active, %s each", cfg.Notifications.MaxActive, cfg.Notifications.Duration))
		observability.CLILogger.Info(fmt.Sprintf("  Uploads:        %d files, %d bytes each", cfg.Uploads.MaxFiles, cfg.Uploads.MaxFileSize))
		observability.CLILogger.Info("")

		observability.CLILogger.Info("=== End Environment Information ===")
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
