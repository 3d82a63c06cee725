package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"clinicbook-service/internal/api"
	"clinicbook-service/internal/booking"
	"clinicbook-service/internal/catalog"
	"clinicbook-service/internal/config"
	"clinicbook-service/internal/db"
	"clinicbook-service/internal/identity"
	"clinicbook-service/internal/logging"
	redisclient "clinicbook-service/internal/redis"
)

const version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("version", version),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres and apply migrations
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, int32(cfg.PostgresMaxConns))
	cancelPg()
	if err != nil {
		logger.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	migCtx, cancelMig := context.WithTimeout(rootCtx, 30*time.Second)
	err = db.Migrate(migCtx, pgPool)
	cancelMig()
	if err != nil {
		logger.Fatal("migration error", zap.Error(err))
	}
	logger.Info("migrations applied")

	// Connect Redis; in dev the service runs without it, listings just skip
	// the cache.
	rdb, err := redisclient.NewRedisClient(cfg)
	if err != nil {
		if cfg.Env == "prod" {
			logger.Fatal("redis connection error", zap.Error(err))
		}
		logger.Warn("redis unavailable, listing cache disabled", zap.Error(err))
		rdb = nil
	} else {
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("error closing redis", zap.Error(err))
			}
		}()
		logger.Info("connected to Redis")
	}

	var cache booking.ListingCache
	if rdb != nil {
		cache = redisclient.NewListingCache(rdb, cfg.ListingCacheTTL, logger)
	}

	bookingSvc := booking.NewService(booking.NewPgSlotRepository(pgPool), cache, logger)
	catalogSvc := catalog.NewService(catalog.NewPgRepository(pgPool), logger)
	idProvider := identity.NewJWTProvider(cfg.JWTSecret)

	router := api.NewRouter(api.RouterConfig{
		Booking:  bookingSvc,
		Catalog:  catalogSvc,
		Identity: idProvider,
		PgPool:   pgPool,
		Redis:    rdb,
		Env:      cfg.Env,
		Version:  version,
		Log:      logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
