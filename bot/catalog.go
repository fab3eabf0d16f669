package bot

import (
	"context"
	"fmt"

	coreconfig "github.com/m3rciful/celebguess/core/config"
	coredatabase "github.com/m3rciful/celebguess/core/database"
	"github.com/m3rciful/celebguess/game"
)

// LoadCatalog builds the celebrity catalog from the configured source.
// db is only consulted for the database source.
func LoadCatalog(ctx context.Context, cfg coreconfig.GameConfig, db coredatabase.Selecter) (*game.Catalog, error) {
	var names []string
	switch cfg.CatalogSource {
	case coreconfig.CatalogDatabase:
		if db == nil {
			return nil, fmt.Errorf("catalog: database source without a database connection")
		}
		var err error
		if names, err = coredatabase.LoadCelebrities(ctx, db); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
	default:
		names = seedNames(cfg)
	}

	catalog, err := game.NewCatalog(names)
	if err != nil {
		return nil, fmt.Errorf("catalog from %s: %w", cfg.CatalogSource, err)
	}
	return catalog, nil
}

// seedNames returns the configured names, or the built-in list when none are set.
func seedNames(cfg coreconfig.GameConfig) []string {
	if len(cfg.Celebrities) > 0 {
		return cfg.Celebrities
	}
	return game.DefaultCelebrities
}
