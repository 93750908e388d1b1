package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evyataryagoni/iptracker/internal/app"
	"github.com/evyataryagoni/iptracker/internal/config"
	"github.com/evyataryagoni/iptracker/internal/handler"
	"github.com/evyataryagoni/iptracker/internal/limiter"
	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/presenter"
	"github.com/evyataryagoni/iptracker/internal/router"
)

func main() {
	appConfig := config.Load()
	appLogger := setupLogger(appConfig)

	core, err := app.New(appConfig, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer core.Close()

	rateLimiter := setupRateLimiter(core)
	defer rateLimiter.Close()

	// One widget per server: every request draws into the same view
	view := presenter.NewViewPresenter()
	widget := handler.NewWidgetHandler(core.Controller(view), view)
	appRouter := router.SetupRouter(widget, rateLimiter, core.Metrics, appLogger)

	startServer(appConfig, appRouter, appLogger)
}

// setupLogger initializes the structured logger
func setupLogger(appConfig *config.Config) *logger.Logger {
	appLogger := app.NewLogger(appConfig)

	appLogger.Info().Msg("Starting iptracker server...")
	appLogger.Info().
		Str("port", appConfig.Port).
		Str("geo_api_url", appConfig.GeoAPIURL).
		Bool("geo_api_key_set", appConfig.GeoAPIKey != "").
		Dur("geo_api_timeout", appConfig.GeoAPITimeout).
		Str("rate_limiter_type", appConfig.RateLimitType).
		Int("rate_limit", appConfig.RateLimit).
		Int("rate_limit_window", appConfig.RateLimitWindow).
		Str("datastore_type", appConfig.DatastoreType).
		Str("datastore_path", appConfig.DatastorePath).
		Msg("Configuration loaded")

	return appLogger
}

// setupRateLimiter initializes the rate limiter
// A Redis limiter reuses the datastore's connection when there is one.
func setupRateLimiter(core *app.App) limiter.Limiter {
	cfg := core.Config

	rateLimiter, err := limiter.NewLimiter(limiter.LimiterConfig{
		Type:          cfg.RateLimitType,
		Limit:         cfg.RateLimit,
		Window:        cfg.RateLimitDuration(),
		Client:        core.RedisClient(),
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	}, core.Logger)
	if err != nil {
		core.Logger.Fatal().Err(err).Msg("Failed to initialize rate limiter")
	}

	core.Logger.Info().
		Str("type", cfg.RateLimitType).
		Int("limit", cfg.RateLimit).
		Dur("window", cfg.RateLimitDuration()).
		Msg("Rate limiter initialized")

	return rateLimiter
}

// startServer serves until SIGINT/SIGTERM, then drains in-flight requests
func startServer(appConfig *config.Config, appRouter http.Handler, log *logger.Logger) {
	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           appRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().
			Str("port", appConfig.Port).
			Str("api_endpoint", "http://localhost:"+appConfig.Port+"/v1/lookup?q=<ip or domain>").
			Str("health_check", "http://localhost:"+appConfig.Port+"/health").
			Str("metrics", "http://localhost:"+appConfig.Port+"/metrics").
			Msg("Server is running")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
