package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"finance-tracker/internal/config"
	"finance-tracker/internal/database"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	migrationsPath := flag.String("path", database.DefaultMigrationsPath, "migrations directory")
	seedsPath := flag.String("seeds", database.DefaultSeedsPath, "seed files directory")
	seed := flag.Bool("seed", false, "apply seed files after migrating")
	statusOnly := flag.Bool("status", false, "print the current version and exit")
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := database.NewMigrationRunner(db, logger,
		database.WithMigrationsPath(*migrationsPath),
		database.WithSeedsPath(*seedsPath),
		database.WithSeeding(*seed),
	)

	if *statusOnly {
		version, dirty, err := runner.GetMigrationStatus()
		if err != nil {
			logger.Error("failed to read migration status", "error", err)
			os.Exit(1)
		}
		logger.Info("migration status", "version", version, "dirty", dirty)
		return
	}

	if err := runner.Run(ctx); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
}
