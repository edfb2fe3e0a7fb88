package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/ehr-booking/internal/app"
	"github.com/jwalitptl/ehr-booking/internal/config"
	"github.com/jwalitptl/ehr-booking/internal/handler"
	"github.com/jwalitptl/ehr-booking/internal/middleware"
	"github.com/jwalitptl/ehr-booking/pkg/logger"
	"github.com/jwalitptl/ehr-booking/pkg/messaging/redis"
	"github.com/jwalitptl/ehr-booking/pkg/metrics"
	"github.com/jwalitptl/ehr-booking/pkg/worker"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	lg, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure logger")
	}
	if cfg.Store != config.StorePostgres {
		lg.Fatal().Str("store", cfg.Store).Msg("the outbox worker needs the postgres store")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	store, closeStore, err := app.OpenStore(cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to open store")
	}
	defer closeStore()

	// Initialize Redis broker
	client, err := app.OpenRedis(ctx, cfg)
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	if client == nil {
		lg.Fatal().Msg("redis.url is required for the outbox worker")
	}
	broker := redis.NewRedisBroker(client, cfg.Redis.ToBreakerConfig(), lg)
	defer broker.Close()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry, cfg.Metrics.Namespace)

	processor, err := worker.NewOutboxProcessor(store, broker, cfg.Outbox.ToWorkerConfig(), lg, m)
	if err != nil {
		lg.Fatal().Err(err).Msg("invalid outbox configuration")
	}
	cleanup := worker.NewOutboxCleanupWorker(store.Outbox(), cfg.Outbox.Retention, cfg.Outbox.CleanupInterval, lg)

	// Setup health check endpoints
	srv := healthServer(cfg.Server.HealthPort, handler.NewHandler(store, registry))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error().Err(err).Msg("health check server failed")
			stop()
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		cleanup.Start(ctx)
	}()

	<-ctx.Done()
	lg.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("health server forced to shutdown")
	}
	wg.Wait()
	lg.Info().Str("breaker", broker.State()).Msg("worker exited")
}

func healthServer(port int, h *handler.Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.GET("/health/live", h.LivenessCheck)
	engine.GET("/health/ready", h.ReadinessCheck)
	engine.GET("/metrics", h.MetricsHandler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

