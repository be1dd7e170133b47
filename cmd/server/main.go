package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"log/slog"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/api"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/auth"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/config"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/database"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/dispatch"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/inference"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/logging"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/marketdata"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/metrics"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/news"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/orchestrator"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/server"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/tasks"
	"github.com/sharathcherry/agentic-stock-analyzer/internal/watcher"
)

func main() {
	// Local dev convenience; production relies on real environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting stock analyzer")

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	// Persistence is optional: without DATABASE_URL the service still analyzes,
	// it just cannot store predictions or inference logs.
	var db *sql.DB
	var predictionRepo *database.PredictionRepository
	var inferenceLogRepo *database.InferenceLogRepository
	if cfg.Database.URL != "" {
		dbCfg := database.DefaultConfig()
		dbCfg.URL = cfg.Database.URL

		logger.Info("connecting to database")
		db, err = database.Connect(context.Background(), dbCfg)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := database.RunMigrations(context.Background(), db, logger); err != nil {
			logger.Warn("failed to run migrations, continuing anyway", "error", err)
		}

		predictionRepo = database.NewPredictionRepository(db)
		inferenceLogRepo = database.NewInferenceLogRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, predictions will not be persisted")
	}

	var inferenceLogger *inference.Logger
	if inferenceLogRepo != nil {
		inferenceLogger = inference.NewLogger(inferenceLogRepo, logger)
	}

	client := inference.NewClient(cfg.Inference, logger, inferenceLogger)
	registry := tasks.NewRegistry()
	dispatcher := dispatch.New(client, cfg.Inference.TaskTimeout, logger, collector)
	orch := orchestrator.New(registry, dispatcher, logger, collector)
	logger.Info("task registry loaded", "models", registry.Models())

	marketSvc := marketdata.NewService(logger)
	newsSvc := news.NewService(cfg.News, logger)

	healthCheck := func(ctx context.Context) error {
		if db == nil {
			return nil
		}
		return database.HealthCheck(ctx, db)
	}

	// Keep the interface value nil when there is no database, a typed nil
	// pointer would defeat the handler's nil checks.
	var predictionStore api.PredictionStore
	if predictionRepo != nil {
		predictionStore = predictionRepo
	}

	handler := api.NewHandler(orch, marketSvc, newsSvc, predictionStore, healthCheck, logger)

	authConfig := auth.LoadConfigFromEnv()
	logger.Info("auth configured", "jwt_secret_set", authConfig.JWTSecret != "change-this-secret")
	authHandler := api.NewAuthHandler(authConfig, logger)

	var inferenceLogHandler *api.InferenceLogHandler
	if inferenceLogRepo != nil {
		inferenceLogHandler = api.NewInferenceLogHandler(inferenceLogRepo, logger)
	}

	mux := http.NewServeMux()
	api.SetupRoutes(mux, api.RouterDeps{
		Handler:             handler,
		AuthHandler:         authHandler,
		InferenceLogHandler: inferenceLogHandler,
		AuthConfig:          authConfig,
		Metrics:             collector,
		Logger:              logger,
	})

	srv := server.New(cfg.Server, logger, collector.InstrumentHandler(mux))

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	var priceWatcher *watcher.Watcher
	if cfg.Watcher.Enabled {
		runner := &watchRunner{
			market:      marketSvc,
			news:        newsSvc,
			orch:        orch,
			predictions: predictionStore,
			logger:      logger,
		}
		priceWatcher = watcher.New(cfg.Watcher, marketSvc, runner, logger)
		go priceWatcher.Start(watchCtx)
		logger.Info("price watcher started",
			"symbols", cfg.Watcher.Symbols,
			"interval", cfg.Watcher.CheckInterval.String(),
			"trigger_percent", cfg.Watcher.TriggerThreshold)
	}

	logger.Info("stock analyzer started")
	logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port))

	waitForSignal(logger)

	logger.Info("shutting down")
	cancelWatch()
	if priceWatcher != nil {
		priceWatcher.Stop()
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

// watchRunner performs a full analysis for a symbol the watcher flagged,
// fetching market data and news itself since no API caller supplies them.
type watchRunner struct {
	market      *marketdata.Service
	news        *news.Service
	orch        *orchestrator.Orchestrator
	predictions api.PredictionStore
	logger      *slog.Logger
}

func (r *watchRunner) AnalyzeSymbol(ctx context.Context, symbol string) error {
	quote, bars, err := r.market.Snapshot(ctx, symbol)
	if err != nil {
		return fmt.Errorf("fetching market data for %s: %w", symbol, err)
	}

	items, err := r.news.FetchForSymbol(ctx, symbol)
	if err != nil {
		r.logger.Warn("news fetch failed, analyzing without news", "symbol", symbol, "error", err)
		items = nil
	}

	verdict, err := r.orch.Analyze(ctx, models.AnalysisRequest{
		Symbol:             quote.Symbol,
		CurrentPrice:       quote.CurrentPrice,
		PriceChangePercent: quote.PriceChangePercent,
		Bars:               bars,
		News:               items,
	})
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", symbol, err)
	}

	r.logger.Info("watcher analysis complete",
		"symbol", verdict.Symbol,
		"action", verdict.Action,
		"confidence", verdict.Confidence,
		"score", verdict.EnsembleScore)

	if r.predictions != nil {
		if _, err := r.predictions.Create(ctx, verdict); err != nil {
			r.logger.Error("failed to store watcher prediction", "symbol", symbol, "error", err)
		}
	}
	return nil
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
