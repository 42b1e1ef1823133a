// Command ingest loads the plant's CSV exports into the staging table.
package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/plantops/dataquality/internal/app"
	"github.com/plantops/dataquality/internal/config"
	"github.com/plantops/dataquality/internal/db"
	"github.com/plantops/dataquality/internal/domain"
	"github.com/plantops/dataquality/internal/ingestion"
	"github.com/plantops/dataquality/internal/repository"
)

func main() {
	app.Run("ingest", run)
}

func run(ctx context.Context, cfg config.Config, conn *db.Connection) error {
	if cfg.Ingestion.CSVDir == "" {
		return errors.Join(domain.ErrConfiguration, errors.New("ingestion.csv_dir is required"))
	}

	service := ingestion.NewService(conn,
		repository.NewRawDataRepository(conn.Pool),
		repository.NewIngestionLogRepository(conn.Pool))

	summary, err := service.LoadDir(ctx, cfg.Ingestion.CSVDir)
	if err != nil {
		return err
	}

	slog.Info("ingestion finished",
		"files", summary.FilesFound, "loaded", summary.FilesLoaded,
		"failed", summary.FilesFailed, "rows", summary.RowsLoaded,
		"dropped", summary.RowsDropped)
	return nil
}
