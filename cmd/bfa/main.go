package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/recova/admin-bfa-go/internal/config"
	"github.com/recova/admin-bfa-go/internal/domain"
	"github.com/recova/admin-bfa-go/internal/handler"
	"github.com/recova/admin-bfa-go/internal/infra/cache"
	"github.com/recova/admin-bfa-go/internal/infra/observability"
	"github.com/recova/admin-bfa-go/internal/infra/recova"
	"github.com/recova/admin-bfa-go/internal/infra/resilience"
	"github.com/recova/admin-bfa-go/internal/service"
	"github.com/recova/admin-bfa-go/internal/session"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("recova_api_url", cfg.RecovaAPIURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("validate_timeout", cfg.ValidateTimeout),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "recova-admin-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	profileCache := cache.New[*domain.User](cfg.CacheTTL)
	filterCache := cache.New[*domain.FilterOptions](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("recova-core")

	// --- Core API client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	core := recova.NewClient(httpClient, cfg.RecovaAPIURL, cb, resilienceCfg, metrics, logger)

	// --- Services ---
	sessions := session.NewStore(core, profileCache, logger)
	svcs := handler.Services{
		Sessions:  sessions,
		Clients:   service.NewClientService(core, logger),
		Customers: service.NewCustomerService(core, filterCache, metrics, logger),
		Imports: service.NewImportService(core, core, metrics, service.ImportConfig{
			PollInterval:      cfg.ValidatePollInterval,
			ValidateTimeout:   cfg.ValidateTimeout,
			AutoValidateDelay: cfg.AutoValidateDelay,
		}, logger),
		Abbreviations: service.NewAbbreviationService(core, logger),
	}

	// --- Router ---
	router := handler.NewRouter(svcs, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second, // validation polls can hold a request open
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
