package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/sleeqtechnologies/rechef/internal/application"
	"github.com/sleeqtechnologies/rechef/internal/config"
	"github.com/sleeqtechnologies/rechef/internal/db"
)

func main() {
	startupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := config.LoadEnvFiles(); err != nil {
		slog.Error("failed to load env files", "error", err)
		os.Exit(1)
	}

	conf, err := config.LoadConfig(startupCtx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	closeLog := config.InstallDefaultLogger(conf)
	defer closeLog()

	slog.Info("Starting database migrator")

	// Connect to database with retry logic
	pool, err := application.OpenDBPoolWithRetry(startupCtx, *conf)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("Database pool connection established")

	databaseConnection, err := db.NewDatabaseConnection(startupCtx, pool)
	if err != nil {
		pool.Close()
		slog.Error("failed to create database connection", "error", err)
		os.Exit(1)
	}
	defer databaseConnection.Close()

	// Create saved_content, content_jobs and recipes
	if err := databaseConnection.Migrate(startupCtx); err != nil {
		slog.Error("failed to run PostgreSQL migrations", "error", err)
		os.Exit(1)
	}

	slog.Info("Database migrations completed successfully")
}
