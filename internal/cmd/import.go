package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ambientdeck/ambientdeck/internal/core/imports"
	"github.com/ambientdeck/ambientdeck/internal/observability"
	"github.com/ambientdeck/ambientdeck/internal/output"
)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Validate and encode the images of a directory",
	Long: `Validate the files of a directory as slideshow images.

Each file must be a JPEG, PNG, GIF or WebP image within the configured size
limit. The report lists accepted files and the reason each rejected file was
skipped. Use "play --dir" to show the accepted images.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}

		importer := imports.New(imports.Limits{
			MaxFiles:      cfg.Uploads.MaxFiles,
			MaxFileSize:   cfg.Uploads.MaxFileSize,
			PreviewCount:  cfg.Uploads.PreviewCount,
			ThumbnailSize: cfg.Uploads.ThumbnailSize,
		})
		importer.Logger = observability.CLILogger
		unsubscribe := importer.OnProgress(func(p imports.Progress) {
			observability.CLILogger.Debug("Encoded image", zap.Int("loaded", p.Loaded), zap.Int("total", p.Total))
		})
		defer unsubscribe()

		report, importErr := importer.FromDir(cmd.Context(), args[0])
		if report == nil {
			return importErr
		}

		rendered, err := output.ImportReport(format, report)
		if err != nil {
			return err
		}
		if err := writeOutput(cmd, format, "import", rendered); err != nil {
			return err
		}
		return importErr
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	addOutputFlags(importCmd, "table|json|markdown")
}
