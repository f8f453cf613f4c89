package application

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sleeqtechnologies/rechef/internal/config"
	"github.com/sleeqtechnologies/rechef/internal/db"
)

var (
	dbOpenBackoffBase  = 1 * time.Second
	dbOpenBackoffScale = 1.618
)

func backoff(attempt int) time.Duration {
	return time.Duration(float64(dbOpenBackoffBase) * math.Pow(dbOpenBackoffScale, float64(attempt)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// OpenDBPoolWithRetry initializes a new PostgreSQL connection pool with retry logic.
func OpenDBPoolWithRetry(ctx context.Context, conf config.Config) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var lastErr error

	cfg, err := pgxpool.ParseConfig(conf.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	retries := conf.DatabaseRetries
	if retries <= 0 {
		retries = 1
	}

	slog.Info("Connecting to database", "host", cfg.ConnConfig.Host)
	for i := 0; i < retries; i++ {
		if pool, err = pgxpool.NewWithConfig(ctx, cfg); err == nil {
			break
		}
		lastErr = err

		wait := backoff(i)
		slog.Warn("database pool open failed", "error", err, "retry_in", wait)
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, err
		}
	}

	if pool == nil {
		if lastErr != nil {
			return nil, fmt.Errorf("failed to connect to database after multiple attempts: %w", lastErr)
		}
		return nil, fmt.Errorf("failed to connect to database after multiple attempts")
	}

	for i := 0; i < retries; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
		err = pool.Ping(pingCtx)
		cancel()
		if err == nil {
			slog.Info("Pinged database", "host", cfg.ConnConfig.Host)
			return pool, nil
		}
		lastErr = err

		wait := backoff(i)
		slog.Warn("database ping failed", "error", err, "retry_in", wait)
		if err := sleepCtx(ctx, wait); err != nil {
			pool.Close()
			return nil, err
		}
	}
	pool.Close()
	if lastErr != nil {
		return nil, fmt.Errorf("failed to ping database after multiple attempts: %w", lastErr)
	}
	return nil, fmt.Errorf("failed to ping database after multiple attempts")
}

// OpenStore connects, optionally migrates, and returns the job store used by
// every binary.
func OpenStore(ctx context.Context, conf config.Config, migrate bool) (*db.Store, func(), error) {
	pool, err := OpenDBPoolWithRetry(ctx, conf)
	if err != nil {
		return nil, nil, err
	}

	dbc, err := db.NewDatabaseConnection(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	if migrate {
		if err := dbc.Migrate(ctx); err != nil {
			dbc.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return db.NewStore(dbc), dbc.Close, nil
}
