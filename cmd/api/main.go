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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/ehr-booking/internal/app"
	"github.com/jwalitptl/ehr-booking/internal/config"
	"github.com/jwalitptl/ehr-booking/internal/handler"
	appointmentHandler "github.com/jwalitptl/ehr-booking/internal/handler/appointment"
	authHandler "github.com/jwalitptl/ehr-booking/internal/handler/auth"
	patientHandler "github.com/jwalitptl/ehr-booking/internal/handler/patient"
	"github.com/jwalitptl/ehr-booking/internal/middleware"
	"github.com/jwalitptl/ehr-booking/internal/router"
	appointmentService "github.com/jwalitptl/ehr-booking/internal/service/appointment"
	authService "github.com/jwalitptl/ehr-booking/internal/service/auth"
	"github.com/jwalitptl/ehr-booking/internal/service/identity"
	patientService "github.com/jwalitptl/ehr-booking/internal/service/patient"
	"github.com/jwalitptl/ehr-booking/pkg/auth"
	"github.com/jwalitptl/ehr-booking/pkg/logger"
	"github.com/jwalitptl/ehr-booking/pkg/metrics"
	"github.com/jwalitptl/ehr-booking/pkg/security"
	"github.com/jwalitptl/ehr-booking/pkg/validator"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	lg, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure logger")
	}

	if err := validator.RegisterWithGin(); err != nil {
		lg.Fatal().Err(err).Msg("failed to register validators")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize store
	store, closeStore, err := app.OpenStore(cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to open store")
	}
	defer closeStore()

	redisClient, err := app.OpenRedis(ctx, cfg)
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry, cfg.Metrics.Namespace)

	// Initialize services
	hasher := security.NewBcryptHasher(0)
	tokens := auth.NewJWTService(auth.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: cfg.JWT.Expiry(),
	})
	directory := identity.NewDirectory(store, cfg.IdentityCache.TTL, cfg.IdentityCache.Cleanup)
	authSvc := authService.NewService(store, hasher, tokens, directory, lg)
	bookingSvc := appointmentService.NewService(store, hasher, app.SlotLocker(cfg, redisClient), m, lg, appointmentService.Config{
		WalkInPlaceholderPassword: cfg.Booking.WalkInPlaceholderPassword,
		DefaultWindowDays:         cfg.Booking.DefaultWindowDays,
	})
	patientSvc := patientService.NewService(store)

	// Setup router
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins

	routerConfig := router.RouterConfig{
		CORSConfig:   corsConfig,
		Timeout:      cfg.Server.RequestTimeout,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		HSTS:         cfg.Server.HSTS,
		Metrics:      m,
	}
	if cfg.RateLimit.Enabled {
		routerConfig.RateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
		routerConfig.RateBurst = cfg.RateLimit.Burst
	}

	gin.SetMode(gin.ReleaseMode)
	r := router.NewRouter(
		middleware.NewAuthMiddleware(authSvc, cfg.JWT.CookieName),
		handler.NewHandler(store, registry),
		routerConfig,
		authHandler.NewHandler(authSvc, authHandler.CookieConfig{
			Name:   cfg.JWT.CookieName,
			Domain: cfg.JWT.CookieDomain,
			Secure: cfg.JWT.CookieSecure,
		}),
		appointmentHandler.NewHandler(bookingSvc),
		patientHandler.NewHandler(patientSvc),
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		lg.Info().Int("port", cfg.Server.Port).Str("store", cfg.Store).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error().Err(err).Msg("failed to start server")
			stop()
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	lg.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}
	lg.Info().Msg("server exited")
}
