// Package main provides the recommender API server entrypoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kgviz/vizrec/cmd/vizrec-api/handlers"
	"github.com/kgviz/vizrec/internal/app"
	"github.com/kgviz/vizrec/internal/config"
	"github.com/kgviz/vizrec/internal/observability"
	"github.com/kgviz/vizrec/internal/viz"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("embedding", cfg.Embedding.Provider).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting vizrec API")

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize components")
	}
	defer a.Close()

	engine, err := loadEngine(ctx, a)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build engine")
	}

	var history handlers.History
	if a.History != nil {
		history = a.History
	}

	router := NewRouter(RouterDeps{
		Logger:         logger,
		Engine:         engine,
		History:        history,
		Topics:         a.Topics,
		Ready:          a.Catalog.Ready,
		CORSOrigins:    cfg.API.CORSOrigins,
		RateLimit:      rateLimit(cfg),
		RateWindow:     cfg.API.RateLimitWindow,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Server error")
		}
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}

func rateLimit(cfg *config.Config) int {
	if cfg.API.RateLimitDisabled {
		return 0
	}
	return cfg.API.RateLimitRequests
}

// loadEngine builds the chart catalog and the engine over it. The server
// cannot answer without chart embeddings, so a failure here is fatal.
func loadEngine(ctx context.Context, a *app.App) (*viz.Engine, error) {
	if _, err := a.Catalog.Load(ctx); err != nil {
		return nil, fmt.Errorf("load chart catalog: %w", err)
	}
	return a.Engine(ctx)
}
