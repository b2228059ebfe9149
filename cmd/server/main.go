// Command server runs the platform REST API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	app "github.com/streamlaunch/platform/internal/app"
	"github.com/streamlaunch/platform/internal/app/httpapi"
	"github.com/streamlaunch/platform/internal/app/storage/postgres"
	"github.com/streamlaunch/platform/internal/auth"
	"github.com/streamlaunch/platform/internal/blob"
	"github.com/streamlaunch/platform/internal/config"
	"github.com/streamlaunch/platform/internal/media"
	"github.com/streamlaunch/platform/internal/middleware"
	"github.com/streamlaunch/platform/internal/presence"
	"github.com/streamlaunch/platform/pkg/logger"
)

func main() {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	log := logger.NewDefault("server")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Error("configuration failed")
		os.Exit(1)
	}

	stores := app.Stores{}
	if cfg.DatabaseURL != "" {
		pg, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Error("database connection failed")
			os.Exit(1)
		}
		stores = app.Stores{Users: pg, Posts: pg, Streams: pg, Tokens: pg}
		log.Info("using postgres storage")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	var tracker presence.Tracker
	var nonces auth.NonceStore
	if cfg.RedisURL != "" {
		redisTracker, err := presence.NewRedis(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Error("redis connection failed")
			os.Exit(1)
		}
		defer redisTracker.Close()
		tracker = redisTracker

		redisNonces, err := auth.NewRedisNonceStore(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Error("redis connection failed")
			os.Exit(1)
		}
		defer redisNonces.Close()
		nonces = redisNonces

		log.Info("using redis presence tracking and nonce storage")
	}

	var blobs blob.Store
	if cfg.StorageURL != "" {
		client, err := blob.NewClient(blob.Config{
			URL:        cfg.StorageURL,
			ServiceKey: cfg.StorageKey,
			Bucket:     cfg.StorageBucket,
		})
		if err != nil {
			log.WithError(err).Error("storage client failed")
			os.Exit(1)
		}
		blobs = client
	} else {
		log.Warn("STORAGE_URL not set, uploads disabled")
	}

	mediaClient := media.NewClient(media.Config{
		APIKey:    cfg.MediaAPIKey,
		APISecret: cfg.MediaAPISecret,
		TokenTTL:  cfg.MediaTokenTTL,
		Enabled:   cfg.StreamingEnabled,
	})

	application := app.New(app.Options{
		Stores:        stores,
		Media:         mediaClient,
		Presence:      tracker,
		Blobs:         blobs,
		Nonces:        nonces,
		SessionSecret: cfg.SessionSecret,
		SessionTTL:    cfg.SessionTTL,
		Log:           log,
	})

	router := httpapi.NewServer(application, httpapi.Config{
		AdminToken:       cfg.AdminToken,
		CleanupIdleAfter: cfg.CleanupIdleAfter,
	}, log)

	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.LoggingMiddleware(log))

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log)
	limiter.StartCleanup(10 * time.Minute)
	cors := middleware.NewCORSMiddleware(cfg.AllowedOrigins)

	handler := cors.Handler(limiter.Handler(router))

	if cfg.CleanupSchedule != "" {
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(cfg.CleanupSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			cutoff := time.Now().UTC().Add(-cfg.CleanupIdleAfter)
			count, err := application.Streams.CleanupStale(ctx, cutoff)
			if err != nil {
				log.WithError(err).Error("scheduled stream cleanup failed")
				return
			}
			log.WithField("count", count).Info("scheduled stream cleanup done")
		}); err != nil {
			log.WithError(err).Error("invalid CLEANUP_SCHEDULE")
			os.Exit(1)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
		IdleTimeout:  2 * cfg.RequestTimeout,
	}

	errs := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("server listening")
		errs <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errs:
		if err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("server failed")
			os.Exit(1)
		}
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.WithError(err).Error("graceful shutdown failed")
		}
	}
}
