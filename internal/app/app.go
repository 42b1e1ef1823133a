// Package app carries the bootstrap shared by every pipeline command:
// environment, configuration, logging, database and signal wiring.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/plantops/dataquality/internal/config"
	"github.com/plantops/dataquality/internal/db"
	"github.com/plantops/dataquality/internal/domain"
	"github.com/plantops/dataquality/internal/logging"

	"github.com/joho/godotenv"
)

// StageFunc is one pipeline stage run against a live database connection.
// The context is canceled on SIGINT and SIGTERM, so a stage that honors it
// stops between batches instead of mid-write.
type StageFunc func(ctx context.Context, cfg config.Config, conn *db.Connection) error

// Run boots the shared stack and executes one stage. It terminates the
// process: exit code 1 on any error.
func Run(stage string, fn StageFunc) {
	// A missing .env file is fine; the environment may carry everything.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded environment from .env")
	}

	cfg, err := config.Load(".")
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runStage(ctx, stage, cfg, fn); err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			slog.Error("stage aborted, configuration incomplete", "stage", stage, "error", err)
		} else {
			slog.Error("stage failed", "stage", stage, "error", err)
		}
		os.Exit(1)
	}
	slog.Info("stage complete", "stage", stage)
}

func runStage(ctx context.Context, stage string, cfg config.Config, fn StageFunc) error {
	dbCfg, err := cfg.DatabaseConfig()
	if err != nil {
		return err
	}

	conn, err := db.NewConnection(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	slog.Info("stage starting", "stage", stage, "database", dbCfg.DBName)
	return fn(ctx, cfg, conn)
}
