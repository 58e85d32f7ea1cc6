// Package app wires configuration into the recommender's runtime components.
// Both the API server and the CLI start from here.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kgviz/vizrec/internal/cache"
	"github.com/kgviz/vizrec/internal/config"
	"github.com/kgviz/vizrec/internal/embedding"
	"github.com/kgviz/vizrec/internal/nlp"
	"github.com/kgviz/vizrec/internal/observability"
	"github.com/kgviz/vizrec/internal/storage"
	"github.com/kgviz/vizrec/internal/topics"
	"github.com/kgviz/vizrec/internal/viz"
)

// App holds the long-lived components built from a Config.
type App struct {
	Config    *config.Config
	Logger    *observability.Logger
	Cache     cache.Client
	Embedder  embedding.Embedder
	Processor nlp.Processor
	Catalog   *viz.CatalogLoader
	History   *storage.RecommendationLog // nil when storage is disabled
	Topics    *topics.Source

	db *sql.DB
}

// New builds every component except the chart catalog, which loads on first use.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*App, error) {
	if logger == nil {
		logger = observability.Nop()
	}
	a := &App{
		Config: cfg,
		Logger: logger,
		Topics: topics.NewSource(cfg.Topics.File, logger),
	}

	a.Cache = newCache(cfg.Cache, logger)

	inner, err := newEmbedder(cfg.Embedding)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	a.Embedder = embedding.NewCachedEmbedder(inner, a.Cache, cfg.Cache.TTL, logger)
	a.Catalog = viz.NewCatalogLoader(a.Embedder)

	a.Processor, err = nlp.New(cfg.NLP.Backend)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create nlp processor: %w", err)
	}

	db, err := storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
	switch {
	case errors.Is(err, storage.ErrDisabled):
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	default:
		a.db = db
		a.History = storage.NewRecommendationLog(db, cfg.Storage.Driver)
		if err := a.History.Migrate(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate storage: %w", err)
		}
	}

	logger.Info().
		Str("embedding", a.Embedder.Model()).
		Str("nlp", a.Processor.Name()).
		Str("cache", cfg.Cache.Driver).
		Str("storage", cfg.Storage.Driver).
		Msg("Components initialized")

	return a, nil
}

// Engine loads the catalog if needed and returns an engine over it.
func (a *App) Engine(ctx context.Context) (*viz.Engine, error) {
	catalog, err := a.Catalog.Load(ctx)
	if err != nil {
		return nil, err
	}

	ecfg := viz.EngineConfig{
		Select: viz.SelectOptions{
			MaxResults:          a.Config.Recommender.MaxResults,
			DiversityThreshold:  a.Config.Recommender.DiversityThreshold,
			DonutForceThreshold: a.Config.Recommender.DonutForceThreshold,
		},
	}
	if a.Config.Recommender.CacheResults {
		ecfg.Cache = a.Cache
		ecfg.CacheTTL = a.Config.Cache.TTL
	}
	return viz.NewEngine(catalog, a.Processor, a.Logger, ecfg), nil
}

// Close releases the cache and database.
func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func newCache(cfg config.CacheConfig, logger *observability.Logger) cache.Client {
	if cfg.Driver == "redis" {
		c, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Prefix:   cfg.Redis.Prefix,
		})
		if err == nil {
			return c
		}
		logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, using in-memory cache")
	}
	return cache.NewMemoryClient(cfg.MaxEntries)
}

func newEmbedder(cfg config.EmbeddingConfig) (embedding.Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return embedding.NewClient(embedding.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			Dimension: cfg.Dimension,
			Timeout:   cfg.Timeout,
			Breaker: embedding.BreakerConfig{
				MaxRequests:      cfg.Breaker.MaxRequests,
				Interval:         cfg.Breaker.Interval,
				Timeout:          cfg.Breaker.Timeout,
				FailureThreshold: cfg.Breaker.FailureThreshold,
			},
		})
	case "local", "":
		return embedding.NewHashingEmbedder(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
