package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
)

const usage = `usage: migrate [-url postgres://...] <command>

commands:
  up           apply all pending migrations
  down         roll back every migration
  steps N      apply N migrations, negative N rolls back
  version      print the current version
  force V      set the version without running migrations (clears the dirty flag)
`

func main() {
	dbURL := flag.String("url", os.Getenv("DATABASE_URL"), "postgres URL; defaults to DATABASE_URL or the loaded configuration")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	url := *dbURL
	if url == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		url = cfg.DatabaseURL()
	}

	zlog := logger.New("info", "console")
	defer func() { _ = zlog.Sync() }()

	m, err := database.NewMigrator(url, zlog)
	if err != nil {
		zlog.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	if err := run(m, flag.Args()); err != nil {
		zlog.Fatal("Migration failed", zap.Error(err))
	}
}

func run(m *database.Migrator, args []string) error {
	switch args[0] {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps", "force":
		if len(args) < 2 {
			return fmt.Errorf("%s needs a number", args[0])
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", args[1], err)
		}
		if args[0] == "steps" {
			return m.Steps(n)
		}
		return m.Force(n)
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version %d (dirty: %t)\n", v, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
