package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ambientdeck/ambientdeck/internal/core/deck"
	"github.com/ambientdeck/ambientdeck/internal/core/slideshow"
	"github.com/ambientdeck/ambientdeck/internal/core/store"
	"github.com/ambientdeck/ambientdeck/internal/observability"
	"github.com/ambientdeck/ambientdeck/internal/output"
)

var (
	playBoard    string
	playToken    string
	playDir      string
	playPreset   string
	playInterval time.Duration
	playDuration time.Duration
	playNoStore  bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Run the deck in the terminal",
	Long: `Run the deck without the HTTP API, logging every slide change.

The image set comes from --board, --dir or --preset, in that order; without
any of them the stored board is restored, falling back to the configured
preset. Runs until --duration elapses or the process is interrupted.`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	logger := observability.CLILogger

	var db *store.Store
	if !playNoStore {
		if db, err = openStore(ctx, cfg); err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup
	}

	d, err := buildDeck(ctx, cfg, db, deckOptions{Logger: logger, Preset: playPreset})
	if err != nil {
		return err
	}
	defer d.Close()

	if playInterval > 0 {
		d.SetInterval(playInterval)
	}

	d.Cycle.OnChange(func(evt slideshow.ChangeEvent) {
		logger.Info("Slide",
			zap.Int("index", evt.Index),
			zap.Int("total", evt.Total),
			zap.String("ticker", d.Ticker.CurrentItem()),
			zap.String("url", shortURL(evt.URL)))
	})

	if err := loadPlaySource(ctx, d); err != nil {
		return err
	}
	d.Start()

	snapshot, err := output.Snapshot(output.FormatTable, d.Snapshot())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), snapshot)

	signals.OnShutdown(func(context.Context) error {
		cancel()
		return nil
	})
	go func() {
		if err := signals.Listen(ctx); err != nil {
			logger.Debug("Signal listener stopped", zap.Error(err))
		}
	}()

	var deadline <-chan time.Time
	if playDuration > 0 {
		timer := time.NewTimer(playDuration)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case <-ctx.Done():
	case <-deadline:
	}
	logger.Info("Stopping deck", zap.Int("slides", d.Cycle.Count()))
	return nil
}

// loadPlaySource replaces the preset with the requested image source.
// Failures are returned so the command exits non-zero.
func loadPlaySource(ctx context.Context, d *deck.Deck) error {
	switch {
	case strings.TrimSpace(playBoard) != "":
		result := d.LoadBoard(ctx, playToken, playBoard)
		if result.Failed() {
			return result.Err
		}
	case strings.TrimSpace(playDir) != "":
		if _, err := d.ImportDir(ctx, playDir); err != nil {
			return err
		}
	case strings.TrimSpace(playPreset) == "":
		if result := d.Restore(ctx); result.Failed() {
			observability.CLILogger.Warn("Stored board unavailable, playing preset", zap.Error(result.Err))
		}
	}
	return nil
}

func shortURL(u string) string {
	if strings.HasPrefix(u, "data:") {
		if i := strings.IndexByte(u, ','); i > 0 {
			return u[:i] + ",…"
		}
	}
	return u
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVar(&playBoard, "board", "", "Load the pins of this board")
	playCmd.Flags().StringVar(&playToken, "token", "", "Board API access token")
	playCmd.Flags().StringVar(&playDir, "dir", "", "Play the images of a local directory")
	playCmd.Flags().StringVar(&playPreset, "preset", "", "Preset name or YAML file")
	playCmd.Flags().DurationVar(&playInterval, "interval", 0, "Time between slides, clamped to 3s..20s")
	playCmd.Flags().DurationVar(&playDuration, "duration", 0, "Stop after this long (0 = until interrupted)")
	playCmd.Flags().BoolVar(&playNoStore, "no-store", false, "Run without the settings database")
	playCmd.MarkFlagsMutuallyExclusive("board", "dir")
}
