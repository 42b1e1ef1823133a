// Command validate claims pending staging rows batch by batch and sorts
// them into validated data and validation errors.
package main

import (
	"context"
	"log/slog"

	"github.com/plantops/dataquality/internal/app"
	"github.com/plantops/dataquality/internal/config"
	"github.com/plantops/dataquality/internal/db"
	"github.com/plantops/dataquality/internal/engine"
	"github.com/plantops/dataquality/internal/repository"
	"github.com/plantops/dataquality/internal/validation"
)

func main() {
	app.Run("validate", run)
}

func run(ctx context.Context, cfg config.Config, conn *db.Connection) error {
	snapshots := validation.NewSnapshotLoader(
		repository.NewRuleRepository(conn.Pool),
		repository.NewPlantParameterRepository(conn.Pool))

	coordinator := engine.NewCoordinator(conn, snapshots,
		repository.NewRawDataRepository(conn.Pool),
		repository.NewValidatedDataRepository(conn.Pool),
		repository.NewValidationErrorRepository(conn.Pool),
		engine.WithBatchSize(cfg.Validation.BatchSize))

	summary, err := coordinator.Run(ctx)
	if err != nil {
		return err
	}

	slog.Info("validation run finished",
		"run_id", summary.RunID.String(), "outcome", summary.Outcome.String(),
		"batches", summary.Batches, "processed", summary.Processed,
		"valid", summary.Valid, "rejected", summary.Rejected,
		"duration", summary.FinishedAt.Sub(summary.StartedAt).String())
	return nil
}
