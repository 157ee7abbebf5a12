package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ambientdeck/ambientdeck/internal/core/store"
	"github.com/ambientdeck/ambientdeck/internal/output"
)

var settingsReveal bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persisted deck settings",
	Long: fmt.Sprintf(`Manage the settings the deck persists between runs.

Keys: %s`, strings.Join(store.SettingKeys, ", ")),
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		db, err := openStore(ctx, nil)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		settings, err := db.ListSettings(ctx)
		if err != nil {
			return err
		}

		rendered, err := output.Settings(format, settings, settingsReveal)
		if err != nil {
			return err
		}
		return writeOutput(cmd, format, "settings", rendered)
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a stored setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openStore(ctx, nil)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		key := strings.ToLower(strings.TrimSpace(args[0]))
		value, ok, err := db.GetSetting(ctx, key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("setting %s is not set", key)
		}
		if key == store.SettingBoardToken && !settingsReveal {
			value = output.MaskSecret(value)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
		return err
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value := strings.TrimSpace(args[1])
		if value == "" {
			return fmt.Errorf("setting value is required")
		}

		ctx := cmd.Context()
		db, err := openStore(ctx, nil)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		key := strings.ToLower(strings.TrimSpace(args[0]))
		if err := db.SetSetting(ctx, key, value); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", key)
		return err
	},
}

var settingsDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Remove a stored setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openStore(ctx, nil)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		key := strings.ToLower(strings.TrimSpace(args[0]))
		if err := db.DeleteSetting(ctx, key); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", key)
		return err
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsListCmd, settingsGetCmd, settingsSetCmd, settingsDeleteCmd)

	settingsCmd.PersistentFlags().BoolVar(&settingsReveal, "reveal", false, "Show the access token unmasked")
	addOutputFlags(settingsListCmd, "table|json|markdown")
}
