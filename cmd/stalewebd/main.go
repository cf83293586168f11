package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	appservice "github.com/reposphere/staleweb/internal/application/service"
	"github.com/reposphere/staleweb/internal/config"
	"github.com/reposphere/staleweb/internal/domain/service"
	"github.com/reposphere/staleweb/internal/infrastructure/cache"
	"github.com/reposphere/staleweb/internal/infrastructure/consumers"
	"github.com/reposphere/staleweb/internal/infrastructure/monitoring"
	"github.com/reposphere/staleweb/internal/infrastructure/persistence/postgres"
	httpiface "github.com/reposphere/staleweb/internal/interfaces/http"
	"github.com/reposphere/staleweb/internal/interfaces/http/handlers"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	cleanup, err := monitoring.InitTracer(&cfg.Tracing)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize tracer", err)
	}
	defer cleanup()

	db, err := postgres.NewDBConnection(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to connect to database", err)
	}

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	resolver := service.NewRepositoryURLResolver(cfg.UI.BaseURL)
	driver := cache.NewNginxWebServerCache(&cfg.Cache, resolver, metrics, appLogger)
	policyRepo := postgres.NewPolicyRepository(db, appLogger)

	staleConsumer := appservice.NewStaleWebDataConsumer(resolver, driver, policyRepo, metrics, appLogger)
	if err := staleConsumer.Initialize(); err != nil {
		appLogger.Fatal(ctx, "Failed to initialize consumer", err)
	}

	eventConsumer := consumers.NewContentEventConsumer(cfg.Kafka, staleConsumer, appLogger)
	go eventConsumer.Start(ctx)

	healthHandler := handlers.NewHealthHandler(db, appLogger)
	cacheHandler := handlers.NewCacheHandler(driver, metrics, appLogger)
	router := httpiface.NewRouter(cfg, appLogger, healthHandler, cacheHandler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- router.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info(ctx, "Received shutdown signal: "+sig.String())
	case err := <-errCh:
		if err != nil {
			appLogger.Error(ctx, "HTTP server failed", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := eventConsumer.Stop(); err != nil {
		appLogger.Error(shutdownCtx, "Failed to stop event consumer", err)
	}
	if err := router.Stop(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "Failed to stop HTTP server", err)
	}
	driver.Shutdown()

	appLogger.Info(shutdownCtx, "Shutdown complete")
}
