package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = zlog.Sync() }()
	zlog.Info("Starting foodgram API", zap.String("environment", string(cfg.Environment)))

	db, err := database.New(cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.RunMigrations(db, cfg.DatabaseURL(), zlog); err != nil {
		zlog.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis backs token revocation and the recipe creation limiter. Both are optional.
	var (
		redisClient *redis.Client
		blacklist   service.TokenBlacklist
		limiter     *middleware.RateLimiter
	)
	if client, err := database.NewRedisClient(cfg, zlog); err != nil {
		zlog.Warn("Redis unavailable, logout and rate limiting are disabled", zap.Error(err))
	} else {
		redisClient = client
		defer client.Close()
		blacklist = service.NewRedisTokenBlacklist(client)
		if cfg.RecipeCreateLimit > 0 {
			limiter = middleware.NewRecipeCreationRateLimiter(client, cfg.RecipeCreateLimit, cfg.RecipeCreateWindow)
		}
	}

	store, err := newImageStore(cfg)
	if err != nil {
		zlog.Fatal("Failed to initialize image storage", zap.Error(err))
	}

	srv := server.New(server.Options{
		Dependencies: api.Dependencies{
			DB:      db,
			Config:  cfg,
			Auth:    service.NewAuthService(db, cfg.JWTSecret, cfg.JWTTTL, blacklist),
			Images:  service.NewImageService(store, zlog),
			Limiter: limiter,
		},
		Redis: redisClient,
	}, zlog)

	if err := srv.Start(); err != nil {
		zlog.Fatal("Server error", zap.Error(err))
	}
	zlog.Info("Server stopped")
}

func newImageStore(cfg *config.Config) (service.ImageStore, error) {
	if cfg.StorageBackend == config.StorageS3 {
		s3Config, err := config.NewS3Config(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		return service.NewS3ImageStore(s3Config), nil
	}
	return service.NewLocalImageStore(cfg.MediaRoot, cfg.MediaURL), nil
}
