// Command applyexclusions archives and removes validated rows that fall
// inside a requested exclusion window.
package main

import (
	"context"
	"log/slog"

	"github.com/plantops/dataquality/internal/app"
	"github.com/plantops/dataquality/internal/config"
	"github.com/plantops/dataquality/internal/db"
	"github.com/plantops/dataquality/internal/exclusion"
	"github.com/plantops/dataquality/internal/repository"
)

func main() {
	app.Run("applyexclusions", run)
}

func run(ctx context.Context, cfg config.Config, conn *db.Connection) error {
	cleaner := exclusion.NewCleaner(conn, repository.NewExclusionRepository(conn.Pool))

	removed, err := cleaner.Apply(ctx)
	if err != nil {
		return err
	}

	slog.Info("exclusion windows applied", "rows_removed", removed)
	return nil
}
