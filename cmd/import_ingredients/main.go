package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	file := flag.String("file", "data/ingredients.csv", "CSV file with name,measurement_unit rows")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	zlog := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = zlog.Sync() }()

	db, err := database.New(cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.RunMigrations(db, cfg.DatabaseURL(), zlog); err != nil {
		zlog.Fatal("Failed to run migrations", zap.Error(err))
	}

	f, err := os.Open(*file)
	if err != nil {
		zlog.Fatal("Failed to open ingredient file", zap.String("file", *file), zap.Error(err))
	}
	defer f.Close()

	result, err := service.ImportIngredients(context.Background(), db, f)
	if err != nil {
		zlog.Fatal("Import failed", zap.String("file", *file), zap.Error(err))
	}
	zlog.Info("Ingredients imported",
		zap.String("file", *file),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
}
