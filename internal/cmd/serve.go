package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ambientdeck/ambientdeck/internal/core/board"
	"github.com/ambientdeck/ambientdeck/internal/core/deck"
	"github.com/ambientdeck/ambientdeck/internal/core/store"
	errwrap "github.com/ambientdeck/ambientdeck/internal/errors"
	"github.com/ambientdeck/ambientdeck/internal/metrics"
	"github.com/ambientdeck/ambientdeck/internal/observability"
	"github.com/ambientdeck/ambientdeck/internal/server"
	"github.com/ambientdeck/ambientdeck/internal/server/handlers"
)

var (
	serverPort   int
	serverHost   string
	servePreset  string
	serveNoStore bool
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// deckHealthChecker fails once the deck has lost its image set.
type deckHealthChecker struct {
	deck *deck.Deck
}

func (c deckHealthChecker) CheckHealth(ctx context.Context) error {
	if c.deck.Cycle.Count() == 0 {
		return errwrap.NewServiceUnavailableError("deck has no images")
	}
	return nil
}

// storeHealthChecker pings the database.
type storeHealthChecker struct {
	db *store.Store
}

func (c storeHealthChecker) CheckHealth(ctx context.Context) error {
	if c.db == nil || c.db.DB == nil {
		return store.ErrNotInitialized
	}
	return c.db.DB.PingContext(ctx)
}

// boardBackoff fails while the pins endpoint is inside a recorded 429 backoff.
func boardBackoff(ctx context.Context, d *deck.Deck) error {
	wait, err := d.Ledger.Backoff(ctx, board.EndpointBoardPins)
	if err != nil {
		return err
	}
	if wait > 0 {
		return errwrap.NewServiceUnavailableError(fmt.Sprintf("board API backing off for %s", wait.Round(time.Second)))
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the deck and its HTTP API",
	Long: `Start the ambient deck and serve its HTTP API.

The deck restores the last loaded board when a token and board id are stored,
otherwise it plays the configured preset.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Reload configuration (debug logging and slide interval)`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	overrides := map[string]any{}
	if cmd.Flags().Changed("host") {
		overrides["server"] = map[string]any{"host": serverHost}
	}
	if cmd.Flags().Changed("port") {
		section, _ := overrides["server"].(map[string]any)
		if section == nil {
			section = map[string]any{}
		}
		section["port"] = serverPort
		overrides["server"] = section
	}
	cfg, err := loadConfig(ctx, overrides)
	if err != nil {
		return err
	}

	identity := GetAppIdentity()
	namespace := identity.TelemetryNamespace()

	observability.InitServerLogger(identity.BinaryName, cfg.Logging.Level, namespace)
	logger := observability.ServerLogger

	if cfg.Metrics.Enabled {
		if err := observability.InitMetrics(identity.BinaryName, cfg.Metrics.Port, namespace); err != nil {
			logger.Error("Failed to initialize metrics", zap.Error(err))
			return errwrap.Wrap(ctx, errwrap.CodeInternal, err, "metrics initialization failed")
		}
	}

	logger.Info("Initializing server",
		zap.String("service", identity.BinaryName),
		zap.String("namespace", namespace),
		zap.String("version", versionInfo.Version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Int("metrics_port", observability.GetMetricsPort()))

	var db *store.Store
	if !serveNoStore {
		db, err = openStore(ctx, cfg)
		if err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "store initialization failed")
		}
		if purged, err := db.PurgeExpiredPins(ctx); err != nil {
			logger.Warn("Failed to purge expired pin cache", zap.Error(err))
		} else if purged > 0 {
			logger.Debug("Purged expired pin cache entries", zap.Int64("count", purged))
		}
	}

	d, err := buildDeck(ctx, cfg, db, deckOptions{Logger: logger, Preset: servePreset, Instrument: true})
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return err
	}

	health := handlers.NewHealthManager(versionInfo.Version)
	health.RegisterCriticalChecker("deck", deckHealthChecker{deck: d})
	if cfg.Metrics.Enabled {
		health.RegisterChecker("telemetry", telemetryHealthChecker{})
	}

	opts := server.Options{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		Version:      versionInfo.Version,
		Deck:         d,
		Health:       health,
		AdminToken:   os.Getenv(identity.Prefix() + "ADMIN_TOKEN"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	if db != nil {
		opts.Settings = db
		health.RegisterCriticalChecker("store", storeHealthChecker{db: db})
		health.RegisterChecker("board", handlers.CheckerFunc(func(ctx context.Context) error {
			return boardBackoff(ctx, d)
		}))
	}
	srv := server.New(opts)
	handlers.SetAppIdentity(identity)

	shutdownTimeout := durationOr(cfg.Server.ShutdownTimeout, 10*time.Second)
	startedAt := time.Now()
	metrics.SetServerStartTime(startedAt.Unix())

	// LIFO: the logger flush registered first runs last.
	signals.OnShutdown(func(ctx context.Context) error {
		logger.Info("Flushing logger...")
		if err := logger.Sync(); err != nil {
			logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
		}
		return nil
	})

	signals.OnShutdown(func(ctx context.Context) error {
		d.Close()
		if db == nil {
			return nil
		}
		if err := db.Close(); err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "store close failed")
		}
		return nil
	})

	signals.OnShutdown(func(ctx context.Context) error {
		logger.Info("Shutting down HTTP server...")
		metrics.SetServerUptime(int64(time.Since(startedAt).Seconds()))
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errwrap.Wrap(ctx, errwrap.CodeInternal, err, "server shutdown failed")
		}

		logger.Info("HTTP server stopped gracefully")
		return nil
	})

	signals.OnReload(func(ctx context.Context) error {
		return reloadConfig(ctx, d)
	})

	if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	}); err != nil {
		logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
	}

	if result := d.Restore(ctx); result.Failed() {
		logger.Warn("Failed to restore stored board, playing preset", zap.Error(result.Err))
	}
	if cfg.Slideshow.AutoStart {
		d.Start()
	}
	health.MarkStarted()

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	go func() {
		if err := signals.Listen(ctx); err != nil {
			logger.Error("Signal handler error", zap.Error(err))
			errChan <- err
		}
	}()

	if err := <-errChan; err != nil {
		return errwrap.Wrap(ctx, errwrap.CodeInternal, err, "server error")
	}
	return nil
}

// reloadConfig applies the settings that can change without a restart.
func reloadConfig(ctx context.Context, d *deck.Deck) error {
	logger := observability.ServerLogger
	logger.Info("Received SIGHUP: reloading configuration")

	cfg, err := loadConfig(ctx)
	if err != nil {
		logger.Error("Failed to reload configuration", zap.Error(err))
		return errwrap.Wrap(ctx, errwrap.CodeInvalidInput, err, "config reload failed")
	}

	if strings.EqualFold(cfg.Logging.Level, "debug") {
		logger.SetLevel(logging.DEBUG)
	}
	applied := d.SetInterval(cfg.Slideshow.Interval)
	logger.Info("Configuration reloaded",
		zap.String("log_level", cfg.Logging.Level),
		zap.Duration("interval", applied))
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")
	serveCmd.Flags().StringVar(&servePreset, "preset", "", "preset name or YAML file (overrides slideshow.preset)")
	serveCmd.Flags().BoolVar(&serveNoStore, "no-store", false, "run without the settings database")
}
