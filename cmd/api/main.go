package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sleeqtechnologies/rechef/cmd/api/internal/web"
	"github.com/sleeqtechnologies/rechef/internal/application"
	"github.com/sleeqtechnologies/rechef/internal/config"
	"github.com/sleeqtechnologies/rechef/internal/metrics"
)

// drainTimeout bounds how long shutdown waits for running jobs before
// cancelling them.
const drainTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadEnvFiles(); err != nil {
		slog.Error("failed to load env files", "error", err)
		os.Exit(1)
	}

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	closeLog := config.InstallDefaultLogger(conf)
	defer closeLog()

	slog.Info("Starting api service")

	store, closeStore, err := application.OpenStore(ctx, *conf, true)
	if err != nil {
		slog.Error("failed to open job store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	m := metrics.New()

	orch, err := application.NewOrchestrator(*conf, store, m)
	if err != nil {
		slog.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	// Jobs left in processing by a previous process can never finish.
	if _, err := orch.RecoverStaleJobs(ctx); err != nil {
		slog.Error("failed to recover stale jobs", "error", err)
		os.Exit(1)
	}

	e, err := web.NewWebserver(orch, web.Options{Metrics: m.Handler(), DB: store})
	if err != nil {
		slog.Error("failed to create webserver", "error", err)
		os.Exit(1)
	}

	addr := ":" + strconv.Itoa(conf.WebServerPort)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	slog.Info("Listening", "addr", addr)
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	drain(orch)
}

type drainer interface {
	Wait(ctx context.Context) error
	Close()
}

// drain lets running jobs finish, then cancels the rest and waits for them
// to record their failure.
func drain(orch drainer) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := orch.Wait(ctx); err == nil {
		slog.Info("All jobs finished")
		return
	}

	slog.Warn("Cancelling running jobs", "waited", drainTimeout)
	orch.Close()

	ctx, cancel = context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := orch.Wait(ctx); err != nil {
		slog.Warn("Jobs still running at exit; they will be recovered on next start")
	}
}
