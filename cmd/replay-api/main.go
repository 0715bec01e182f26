package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/auth"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/cache"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/config"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/db"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/logger"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/middleware"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/positions"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/retry"
	"github.com/XavierBriggs/fortuna/services/replay-api/internal/storage"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("❌ Invalid configuration")
	}

	log := logger.Init(cfg.Log.Level, cfg.Log.Format)
	log.Info("=== Replay API v0 ===")

	// Connect to the replay catalog
	catalog, err := db.NewClient(cfg.Catalog.DSN)
	if err != nil {
		log.WithError(err).Fatal("❌ Failed to connect to catalog")
	}
	defer catalog.Close()

	if cfg.Catalog.EnsureSchema {
		if err := catalog.EnsureSchema(context.Background()); err != nil {
			log.WithError(err).Fatal("❌ Failed to apply catalog schema")
		}
	}
	log.Info("✓ Connected to catalog DB")

	// Connect to Redis for the positions cache
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.WithError(err).Fatal("❌ Failed to parse Redis URL")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	positionsCache := cache.NewRedisCache(redisClient, cfg.Redis.PositionsTTL)
	if err := positionsCache.Ping(context.Background()); err != nil {
		log.WithError(err).Fatal("❌ Failed to connect to Redis")
	}
	log.Info("✓ Connected to Redis")

	// Positions: local artifacts, then the remote store, behind the cache
	var remote storage.Downloader
	if cfg.Remote.URL != "" {
		remote = storage.NewRemoteStore(
			cfg.Remote.URL,
			&http.Client{Timeout: cfg.Remote.Timeout},
			retry.NewRetryPolicy(cfg.Remote.Retries, cfg.Remote.RetryDelay),
		)
	} else {
		log.Warn("REMOTE_STORE_URL not set; only locally parsed replays are served")
	}
	loader := positions.NewLoader(storage.Paths{
		ParsedDir: cfg.Storage.ParsedDir,
		ReplayDir: cfg.Storage.ReplayDir,
	}, remote, log)
	source := cache.NewCachedLoader(loader, positionsCache, log)

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	handler := handlers.NewHandler(catalog, source, log)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.Origins,
		AllowedMethods:   []string{"GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Routes
	handler.Register(r, verifier.Middleware)

	// Start server
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	serverErrors := make(chan error, 1)
	go func() {
		log.Infof("✓ Replay API listening on %s", cfg.Server.Addr)
		chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			log.Debugf("    %-6s %s", method, route)
			return nil
		})

		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("❌ Server error")
		}

	case sig := <-shutdown:
		log.Warnf("⚠️  Received signal: %v", sig)

		// Give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("⚠️  Graceful shutdown failed")
			if err := srv.Close(); err != nil {
				log.WithError(err).Error("❌ Could not stop server")
			}
		}
	}

	log.Info("✓ Shutdown complete")
}
