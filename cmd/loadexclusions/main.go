// Command loadexclusions imports exclusion windows from the operators'
// workbook into the exclusion catalog.
package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/plantops/dataquality/internal/app"
	"github.com/plantops/dataquality/internal/config"
	"github.com/plantops/dataquality/internal/db"
	"github.com/plantops/dataquality/internal/domain"
	"github.com/plantops/dataquality/internal/exclusion"
	"github.com/plantops/dataquality/internal/repository"
)

func main() {
	app.Run("loadexclusions", run)
}

func run(ctx context.Context, cfg config.Config, conn *db.Connection) error {
	if cfg.Exclusions.Workbook == "" {
		return errors.Join(domain.ErrConfiguration, errors.New("exclusions.workbook is required"))
	}

	loader := exclusion.NewLoader(conn, repository.NewExclusionRepository(conn.Pool))

	upserted, err := loader.LoadWorkbook(ctx, cfg.Exclusions.Workbook, cfg.Exclusions.Sheet)
	if err != nil {
		return err
	}

	slog.Info("exclusion windows loaded", "workbook", cfg.Exclusions.Workbook, "upserted", upserted)
	return nil
}
