package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ambientdeck/ambientdeck/internal/core/store"
	"github.com/ambientdeck/ambientdeck/internal/output"
)

var (
	rateLimitListAll      bool
	rateLimitListEndpoint string
	rateLimitListPrefix   string
)

var rateLimitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded 429 state per endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		db, err := openStore(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		query := store.RateLimitQuery{
			All:      rateLimitListAll,
			Endpoint: strings.TrimSpace(rateLimitListEndpoint),
			Prefix:   strings.TrimSpace(rateLimitListPrefix),
		}
		if query.Validate() != nil {
			query.All = true
		}

		entries, err := db.ListRateLimits(cmd.Context(), query)
		if err != nil {
			return err
		}

		rendered, err := output.RateLimits(format, entries, time.Now())
		if err != nil {
			return err
		}
		return writeOutput(cmd, format, "rate-limit.list", rendered)
	},
}

func init() {
	addOutputFlags(rateLimitListCmd, "table|json|markdown")
	rateLimitListCmd.Flags().BoolVar(&rateLimitListAll, "all", false, "List all endpoints")
	rateLimitListCmd.Flags().StringVar(&rateLimitListEndpoint, "endpoint", "", "List a single endpoint (exact match)")
	rateLimitListCmd.Flags().StringVar(&rateLimitListPrefix, "prefix", "", "List endpoints with matching prefix")
}
