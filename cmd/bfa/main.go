package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/app"
	"github.com/boddenberg/school-fees-bfa-go/internal/config"
	"github.com/boddenberg/school-fees-bfa-go/internal/handler"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/memory"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/observability"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/postgres"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/schoolapi"
	"github.com/boddenberg/school-fees-bfa-go/internal/port"
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
		zap.String("school_api_url", cfg.SchoolAPIURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.String("student_list_mode", cfg.ListMode),
		zap.Duration("search_debounce", cfg.SearchDebounce),
		zap.Bool("preferences_postgres", cfg.PreferencesDSN != ""),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "school-fees-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- School backend client ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("school-api")
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	backend := schoolapi.NewClient(httpClient, cfg.SchoolAPIURL, cb, resilienceCfg, logger)

	// --- Preferences ---
	var prefs port.PreferencesStore
	if cfg.PreferencesDSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pg, err := postgres.NewPreferencesStore(ctx, cfg.PreferencesDSN)
		cancel()
		if err != nil {
			logger.Fatal("failed to open preferences store", zap.Error(err))
		}
		defer pg.Close()
		prefs = pg
		logger.Info("preferences stored in postgres")
	} else {
		prefs = memory.NewPreferencesStore()
		logger.Info("preferences kept in memory")
	}

	// --- Services ---
	services, closeServices := app.NewServices(cfg, backend, prefs, metrics, logger)
	defer closeServices()

	// --- Router ---
	router := handler.NewRouter(services, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
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
