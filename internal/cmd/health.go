package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	errwrap "github.com/ambientdeck/ambientdeck/internal/errors"
	"github.com/ambientdeck/ambientdeck/internal/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Run a self-health check to verify the application can start successfully.",
	Run: func(cmd *cobra.Command, args []string) {
		// Can't log if logger is nil, so use stderr
		if observability.CLILogger == nil {
			ExitWithCodeStderr(foundry.ExitConfigInvalid, "Logger not initialized", errwrap.NewInternalError("Logger not initialized"))
			return
		}
		logger := observability.CLILogger
		logger.Info("Running health check...")

		if versionInfo.Version == "" {
			logger.Error("❌ FAIL: Version information missing")
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewInternalError("Version information missing"))
			return
		}
		logger.Debug("Version check passed", zap.String("version", versionInfo.Version))
		logger.Info("✅ Version information available")

		ctx := cmd.Context()
		cfg, err := loadConfig(ctx)
		if err != nil {
			logger.Error("❌ FAIL: Configuration invalid")
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Configuration invalid", errwrap.WrapInvalidInput(ctx, err, "config load failed"))
			return
		}
		logger.Info("✅ Configuration loaded")

		db, err := openStore(ctx, cfg)
		if err != nil {
			logger.Error("❌ FAIL: Store unavailable")
			ExitWithCode(logger, ExitCodeFor(err), "Store unavailable", errwrap.WrapDatabaseError(ctx, err, "store open failed"))
			return
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup
		logger.Info("✅ Store opened and migrated", zap.String("driver", db.Driver()))

		d, err := buildDeck(ctx, cfg, db, deckOptions{Logger: logger})
		if err != nil {
			logger.Error("❌ FAIL: Deck could not be built")
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Deck could not be built", errwrap.WrapInvalidInput(ctx, err, "deck build failed"))
			return
		}
		logger.Info("✅ Deck preset resolved", zap.String("preset", d.Preset().Name), zap.Int("images", d.Cycle.Count()))
		d.Close()

		logger.Info("")
		logger.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
