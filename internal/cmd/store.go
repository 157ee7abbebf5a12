package cmd

import (
	"context"

	"github.com/ambientdeck/ambientdeck/internal/config"
	"github.com/ambientdeck/ambientdeck/internal/core/store"
)

// openStore opens and migrates the configured store and seeds the built-in
// presets.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	if cfg == nil {
		var err error
		if cfg, err = loadConfig(ctx); err != nil {
			return nil, err
		}
	}

	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.SeedBuiltInPresets(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
