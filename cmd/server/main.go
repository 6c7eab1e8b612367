package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/baxromumarov/job-board/internal/api"
	"github.com/baxromumarov/job-board/internal/config"
	"github.com/baxromumarov/job-board/internal/core"
	"github.com/baxromumarov/job-board/internal/httpx"
	"github.com/baxromumarov/job-board/internal/scraper"
	"github.com/baxromumarov/job-board/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	registry, err := cfg.Registry(logger)
	if err != nil {
		logger.Error("invalid source registry", "error", err)
		os.Exit(1)
	}

	opts := cfg.HTTPOptions()
	norm := scraper.NewNormalizer(cfg.Regions)
	adapters := scraper.NewAdapters(scraper.Deps{
		Client:            httpx.NewClient(opts),
		Pages:             httpx.NewCollyFetcher(opts),
		Normalizer:        norm,
		Logger:            logger,
		LeverBaseURL:      cfg.LeverBaseURL,
		GreenhouseBaseURL: cfg.GreenhouseBaseURL,
	})

	aggCfg := core.Config{
		Registry:    registry,
		Adapters:    core.AdaptersFrom(adapters),
		Logger:      logger,
		Concurrency: cfg.Concurrency,
	}

	// The run log is optional; without DATABASE_URL the service is stateless.
	var runs api.RunLister
	if cfg.DatabaseURL != "" {
		dbStore, err := store.NewStore(cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to store", "error", err)
			os.Exit(1)
		}
		defer dbStore.Close()

		if err := dbStore.RunMigrations(""); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		if cfg.RunRetention > 0 {
			store.NewRetentionService(dbStore, cfg.RunRetention, logger).Start(ctx)
		}

		aggCfg.Recorder = dbStore
		runs = dbStore
	}

	aggregator := core.NewAggregator(aggCfg)
	srv := api.NewServer(aggregator, registry, runs)

	logger.Info("starting server",
		"port", cfg.Port,
		"sources", registry.Len(),
		"regions", norm.Regions(),
		"run_log", runs != nil,
	)
	if err := http.ListenAndServe(":"+cfg.Port, srv.Router()); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
