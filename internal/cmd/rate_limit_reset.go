package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ambientdeck/ambientdeck/internal/core/store"
	"github.com/ambientdeck/ambientdeck/internal/output"
)

var (
	rateLimitResetAll      bool
	rateLimitResetEndpoint string
	rateLimitResetPrefix   string
	rateLimitResetYes      bool
	rateLimitResetDryRun   bool
)

// rateLimitLedger is the part of the store a reset touches.
type rateLimitLedger interface {
	ListRateLimits(ctx context.Context, q store.RateLimitQuery) ([]store.RateLimitEntry, error)
	CountRateLimits(ctx context.Context, q store.RateLimitQuery) (int, error)
	ResetRateLimits(ctx context.Context, q store.RateLimitQuery) (int64, error)
}

func resetScope(q store.RateLimitQuery) string {
	switch {
	case q.All:
		return "all"
	case q.Endpoint != "":
		return "endpoint " + q.Endpoint
	default:
		return "prefix " + q.Prefix
	}
}

// resetRateLimits clears 429 backoff for the endpoints q selects so the board
// client stops waiting on them. A dry run only reports the match.
func resetRateLimits(ctx context.Context, ledger rateLimitLedger, q store.RateLimitQuery, confirmed, dryRun bool) (output.RateLimitResetView, error) {
	view := output.RateLimitResetView{Scope: resetScope(q), DryRun: dryRun}
	if err := q.Validate(); err != nil {
		return view, err
	}
	if q.All && !confirmed && !dryRun {
		return view, errors.New("--all requires --yes (or use --dry-run)")
	}

	entries, err := ledger.ListRateLimits(ctx, q)
	if err != nil {
		return view, err
	}
	for _, e := range entries {
		view.Endpoints = append(view.Endpoints, e.Endpoint)
	}
	if view.Matched, err = ledger.CountRateLimits(ctx, q); err != nil {
		return view, err
	}
	if dryRun {
		return view, nil
	}

	view.Deleted, err = ledger.ResetRateLimits(ctx, q)
	return view, err
}

var rateLimitResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear recorded 429 state",
	Long:  "Clear recorded 429 backoff so board requests resume before Retry-After elapses.",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		query := store.RateLimitQuery{
			All:      rateLimitResetAll,
			Endpoint: strings.TrimSpace(rateLimitResetEndpoint),
			Prefix:   strings.TrimSpace(rateLimitResetPrefix),
		}
		if err := query.Validate(); err != nil {
			return err
		}

		db, err := openStore(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		view, err := resetRateLimits(cmd.Context(), db, query, rateLimitResetYes, rateLimitResetDryRun)
		if err != nil {
			return err
		}

		rendered, err := output.RateLimitReset(format, view)
		if err != nil {
			return err
		}
		return writeOutput(cmd, format, "rate-limit.reset", rendered)
	},
}

func init() {
	addOutputFlags(rateLimitResetCmd, "table|json|markdown")
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetAll, "all", false, "Reset all endpoints")
	rateLimitResetCmd.Flags().StringVar(&rateLimitResetEndpoint, "endpoint", "", "Reset a single endpoint (exact match)")
	rateLimitResetCmd.Flags().StringVar(&rateLimitResetPrefix, "prefix", "", "Reset endpoints with matching prefix")
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetYes, "yes", false, "Confirm destructive reset")
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetDryRun, "dry-run", false, "Show what would be deleted")
}
