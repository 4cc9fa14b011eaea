package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ritmoapp/ritmo/internal/application/auditor"
	"github.com/ritmoapp/ritmo/internal/application/planner"
	"github.com/ritmoapp/ritmo/internal/config"
	"github.com/ritmoapp/ritmo/internal/infrastructure/observability"
	"github.com/ritmoapp/ritmo/internal/infrastructure/persistence/postgres"
	"github.com/ritmoapp/ritmo/internal/infrastructure/persistence/sqlite"
)

const defaultServiceName = "ritmo-auditor"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

type plannerStore interface {
	planner.Repository
	Close() error
}

func newStore(ctx context.Context, cfg config.StorageConfig) (plannerStore, error) {
	switch cfg.Type {
	case config.StorageTypeSQLite:
		return sqlite.NewStoreWithConfig(ctx, sqlite.DBConfig{
			Path:        cfg.DSN,
			AutoMigrate: cfg.AutoMigrate,
		})
	default:
		return postgres.NewStoreWithConfig(ctx, postgres.DBConfig{
			DSN:             cfg.DSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MinIdleConns:    cfg.MinIdleConns,
			ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTime) * time.Second,
			AutoMigrate:     cfg.AutoMigrate,
		})
	}
}

func run() error {
	cfg, err := config.LoadAuditorConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	serviceName := cfg.Observability.ServiceName
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	lp, logger, err := observability.InitLogger(ctx, serviceName, cfg.Observability.OTelEnabled)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lp.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "failed to shutdown logger provider", "error", err)
		}
	}()
	slog.SetDefault(logger)

	slog.InfoContext(ctx, "starting ritmo auditor",
		"storage", cfg.Storage.Type,
		"interval", cfg.Interval)

	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer func() { _ = store.Close() }()

	svc := planner.NewService(store)

	a := auditor.New(store, svc,
		auditor.WithAuditInterval(cfg.Interval),
		auditor.WithOperationTimeout(cfg.OperationTimeout))

	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("auditor failed: %w", err)
	}

	slog.Info("auditor shut down gracefully")
	return nil
}
