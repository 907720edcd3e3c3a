package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/api"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/cache"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/config"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/engine"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/loader"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/metrics"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/services"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting nas-engine",
		slog.String("address", cfg.Server.Address),
		slog.String("dataset", cfg.Dataset.Path))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled {
		cacheProvider = cache.NewMemoryProvider()
	}
	defer cacheProvider.Close()

	tableLoader := loader.New(logger, cacheProvider, cfg.Dataset.DelimiterRune())

	calculator := engine.NewCalculator(cfg.Scoring.Policy)
	recommender := engine.NewRecommender(cfg.Analytics.InterventionThreshold, cfg.Analytics.HighCorrelation)
	bucketizer, err := engine.NewBucketizer(cfg.Geo.RegionsPath)
	if err != nil {
		logger.Error("failed to load region map", slog.Any("error", err))
		os.Exit(1)
	}

	pipeline := engine.NewPipeline(logger, tableLoader, calculator, recommender, bucketizer, engine.PipelineConfig{
		DatasetPath: cfg.Dataset.Path,
		RequireYear: cfg.Features.RequireYear,
		MinYear:     cfg.Features.MinYear,
		MaxYear:     cfg.Features.MaxYear,
	})

	queryService := services.NewQueryService(logger, pipeline)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Build the first snapshot before accepting traffic so queries never see
	// an empty engine on a healthy start.
	if err := queryService.Refresh(ctx); err != nil {
		logger.Error("initial pipeline run failed", slog.Any("error", err))
		os.Exit(1)
	}

	server, err := api.NewServer(cfg.Server, api.NewHandler(queryService, logger))
	if err != nil {
		logger.Error("failed to create server", slog.Any("error", err))
		os.Exit(1)
	}

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		logger.Info("api server listening", slog.String("address", server.Address()))
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("api server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("nas-engine stopped")
}
