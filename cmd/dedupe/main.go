// Command dedupe relocates repeated-timestamp rows out of the staging table
// into the duplicate archive.
package main

import (
	"context"
	"log/slog"

	"github.com/plantops/dataquality/internal/app"
	"github.com/plantops/dataquality/internal/config"
	"github.com/plantops/dataquality/internal/db"
	"github.com/plantops/dataquality/internal/dedupe"
	"github.com/plantops/dataquality/internal/repository"
)

func main() {
	app.Run("dedupe", run)
}

func run(ctx context.Context, cfg config.Config, conn *db.Connection) error {
	service := dedupe.NewService(conn, repository.NewDuplicateRepository(conn.Pool))

	result, err := service.Run(ctx)
	if err != nil {
		return err
	}

	slog.Info("duplicates relocated", "moved", result.Moved, "deleted", result.Deleted)
	return nil
}
