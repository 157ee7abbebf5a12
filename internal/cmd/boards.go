package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ambientdeck/ambientdeck/internal/core"
	"github.com/ambientdeck/ambientdeck/internal/core/deck"
	"github.com/ambientdeck/ambientdeck/internal/observability"
	"github.com/ambientdeck/ambientdeck/internal/output"
)

var (
	boardsToken string
	boardsLimit int
)

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "Query the board API",
	Long: `Query the board API with the configured access token.

The token comes from --token, then the stored board.token setting, then
board.token in the config file. Requests share the same sliding-window
limiter and 429 ledger as the server.`,
}

var boardsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the boards of the token owner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}
		return withBoardDeck(cmd.Context(), func(ctx context.Context, d *deck.Deck) error {
			result := d.FindBoards(ctx, boardsToken)
			if result.Failed() {
				return result.Err
			}
			rendered, err := output.Boards(format, result.Items)
			if err != nil {
				return err
			}
			return writeOutput(cmd, format, "boards", rendered)
		})
	},
}

var boardsPinsCmd = &cobra.Command{
	Use:   "pins <board-id>",
	Short: "List the pins of a board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}
		boardID := strings.TrimSpace(args[0])
		return withBoardDeck(cmd.Context(), func(ctx context.Context, d *deck.Deck) error {
			result := d.Pins(ctx, boardsToken, boardID)
			if result.Failed() {
				return result.Err
			}
			rendered, err := output.Pins(format, limitPins(result.Items, boardsLimit))
			if err != nil {
				return err
			}
			return writeOutput(cmd, format, "pins."+boardID, rendered)
		})
	},
}

var boardsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search pins",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}
		query := strings.Join(args, " ")
		return withBoardDeck(cmd.Context(), func(ctx context.Context, d *deck.Deck) error {
			result := d.SearchPins(ctx, boardsToken, query)
			if result.Failed() {
				return result.Err
			}
			rendered, err := output.Pins(format, limitPins(result.Items, boardsLimit))
			if err != nil {
				return err
			}
			return writeOutput(cmd, format, "search."+query, rendered)
		})
	},
}

// withBoardDeck runs fn against a deck backed by the store, so the stored
// token and the 429 ledger are shared with the server.
func withBoardDeck(ctx context.Context, fn func(context.Context, *deck.Deck) error) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	d, err := buildDeck(ctx, cfg, db, deckOptions{Logger: observability.CLILogger})
	if err != nil {
		return err
	}
	defer d.Close()

	if err := fn(ctx, d); err != nil {
		observability.CLILogger.Debug("Board query failed", zap.Error(err))
		return err
	}
	return nil
}

func limitPins(pins []core.Pin, limit int) []core.Pin {
	if limit > 0 && len(pins) > limit {
		return pins[:limit]
	}
	return pins
}

func init() {
	rootCmd.AddCommand(boardsCmd)
	boardsCmd.AddCommand(boardsListCmd, boardsPinsCmd, boardsSearchCmd)

	boardsCmd.PersistentFlags().StringVar(&boardsToken, "token", "", "Board API access token")
	for _, c := range []*cobra.Command{boardsListCmd, boardsPinsCmd, boardsSearchCmd} {
		addOutputFlags(c, "table|json|markdown")
	}
	for _, c := range []*cobra.Command{boardsPinsCmd, boardsSearchCmd} {
		c.Flags().IntVar(&boardsLimit, "limit", 0, "Show at most this many pins (0 = page limit)")
	}
}
