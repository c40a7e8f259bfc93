// Package bootstrap builds the chain pipeline from service config.
package bootstrap

import (
	"fmt"
	"strings"

	"bingehouse/pkg/ai"
	"bingehouse/pkg/omdb"
	"bingehouse/pkg/store"
	"bingehouse/services/chain/internal/app"
	"bingehouse/services/chain/internal/config"
	"bingehouse/services/chain/internal/resolve"
)

// OpenStore opens the configured store. The returned close func is never nil.
func OpenStore(cfg config.FileConfig) (store.Store, func() error, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		return store.NewMemoryStore(), func() error { return nil }, nil
	default:
		gs, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres store: %w", err)
		}
		return gs, gs.Close, nil
	}
}

// NewApp wires the catalog client and generation providers around st.
func NewApp(cfg config.FileConfig, st store.Store) (*app.App, error) {
	catalog, err := omdb.NewClient(omdb.Config{
		APIKey:            cfg.OMDbAPIKey,
		BaseURL:           cfg.OMDbBaseURL,
		RequestsPerSecond: cfg.OMDbRequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("init catalog client: %w", err)
	}
	generator, err := ai.NewGenerator(ai.GeneratorConfig{
		Provider: cfg.GenerationProvider,
		BaseURL:  cfg.GenerationBaseURL,
		APIKey:   cfg.GenerationAPIKey,
		Model:    cfg.GenerationModel,
	})
	if err != nil {
		return nil, fmt.Errorf("init generator: %w", err)
	}
	var extractor resolve.Extractor
	if model := strings.TrimSpace(cfg.ExtractionModel); model != "" && model != cfg.GenerationModel {
		extractionGen, err := ai.NewGenerator(ai.GeneratorConfig{
			Provider: cfg.GenerationProvider,
			BaseURL:  cfg.GenerationBaseURL,
			APIKey:   cfg.GenerationAPIKey,
			Model:    model,
		})
		if err != nil {
			return nil, fmt.Errorf("init extraction generator: %w", err)
		}
		extractor = resolve.NewModelExtractor(extractionGen)
	}
	return app.New(app.Config{
		Store:     st,
		Catalog:   catalog,
		Generator: generator,
		Extractor: extractor,
	})
}
