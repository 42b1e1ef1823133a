// Command export writes the day's error and validated-data reports as
// Excel workbooks.
package main

import (
	"context"
	"log/slog"

	"github.com/plantops/dataquality/internal/app"
	"github.com/plantops/dataquality/internal/config"
	"github.com/plantops/dataquality/internal/db"
	"github.com/plantops/dataquality/internal/export"
	"github.com/plantops/dataquality/internal/repository"
)

func main() {
	app.Run("export", run)
}

func run(ctx context.Context, cfg config.Config, conn *db.Connection) error {
	service := export.NewService(
		repository.NewValidationErrorRepository(conn.Pool),
		repository.NewValidatedDataRepository(conn.Pool),
		export.WithOutputDirectory(cfg.Export.OutputDir),
		export.WithReportWindow(cfg.Export.DayStart, cfg.Export.DayEnd),
		export.WithValidatedHeaders(cfg.Export.ValidatedHeaders))

	summary, err := service.Run(ctx)
	if err != nil {
		return err
	}

	slog.Info("reports generated",
		"errors_report", summary.ErrorsReport, "validated_report", summary.ValidatedReport)
	return nil
}
