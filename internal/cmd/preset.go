package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ambientdeck/ambientdeck/internal/core/deck"
	"github.com/ambientdeck/ambientdeck/internal/output"
)

var presetImportName string

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage slideshow presets",
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		store, err := openStore(ctx, nil)
		if err != nil {
			return err
		}
		defer store.Close() // nolint:errcheck // best-effort cleanup; errors logged internally

		presets, err := store.ListPresets(ctx)
		if err != nil {
			return err
		}

		rendered, err := output.Presets(format, presets)
		if err != nil {
			return err
		}
		return writeOutput(cmd, format, "presets", rendered)
	},
}

var presetShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show preset details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		if name == "" {
			return errors.New("preset name is required")
		}
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		store, err := openStore(ctx, nil)
		if err != nil {
			return err
		}
		defer store.Close() // nolint:errcheck // best-effort cleanup; errors logged internally

		record, err := store.GetPreset(ctx, name)
		if err != nil {
			return err
		}
		if record == nil {
			return fmt.Errorf("preset %q not found", name)
		}

		rendered, err := output.Preset(format, *record)
		if err != nil {
			return err
		}
		return writeOutput(cmd, format, "preset."+name, rendered)
	},
}

var presetImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Store a preset from a YAML file",
	Long: `Store a preset from a YAML file with images, ticker_items and interval.

The preset is named by its name field, else --name, else the file name.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		preset, err := deck.LoadPresetFile(args[0])
		if err != nil {
			return err
		}
		if name := strings.TrimSpace(presetImportName); name != "" {
			preset.Name = name
		}

		ctx := cmd.Context()
		store, err := openStore(ctx, nil)
		if err != nil {
			return err
		}
		defer store.Close() // nolint:errcheck // best-effort cleanup; errors logged internally

		if existing, err := store.GetPreset(ctx, preset.Name); err != nil {
			return err
		} else if existing != nil && existing.IsBuiltin {
			return fmt.Errorf("preset %s is built in", preset.Name)
		}

		if err := store.UpsertPreset(ctx, *preset, false, time.Now().UTC()); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Stored preset %s (%d images)\n", strings.ToLower(preset.Name), len(preset.Images))
		return err
	},
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a user preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx, nil)
		if err != nil {
			return err
		}
		defer store.Close() // nolint:errcheck // best-effort cleanup; errors logged internally

		name := strings.TrimSpace(args[0])
		record, err := store.GetPreset(ctx, name)
		if err != nil {
			return err
		}
		if record == nil {
			return fmt.Errorf("preset %q not found", name)
		}
		if err := store.DeletePreset(ctx, name); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted preset %s\n", record.Preset.Name)
		return err
	},
}

func init() {
	rootCmd.AddCommand(presetCmd)
	presetCmd.AddCommand(presetListCmd, presetShowCmd, presetImportCmd, presetDeleteCmd)

	addOutputFlags(presetListCmd, "table|json|markdown")
	addOutputFlags(presetShowCmd, "table|json|markdown")
	presetImportCmd.Flags().StringVar(&presetImportName, "name", "", "Store the preset under this name")
}
