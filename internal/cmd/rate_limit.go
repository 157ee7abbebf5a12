package cmd

import "github.com/spf13/cobra"

var rateLimitCmd = &cobra.Command{
	Use:   "rate-limit",
	Short: "Inspect and reset the recorded 429 ledger",
	Long: `Inspect and reset the per-endpoint ledger of rate-limited board API responses.

Each 429 from the board API is recorded with its hit count, the time of the
last response and the Retry-After backoff the server asked for.`,
}

func init() {
	rateLimitCmd.AddCommand(rateLimitListCmd)
	rateLimitCmd.AddCommand(rateLimitResetCmd)
	rootCmd.AddCommand(rateLimitCmd)
}
