// Command loadrules synchronizes the validation rule catalog from the
// declarative JSON definitions file.
package main

import (
	"context"
	"log/slog"

	"github.com/plantops/dataquality/internal/app"
	"github.com/plantops/dataquality/internal/config"
	"github.com/plantops/dataquality/internal/db"
	"github.com/plantops/dataquality/internal/repository"
	"github.com/plantops/dataquality/internal/rulesync"
)

func main() {
	app.Run("loadrules", run)
}

func run(ctx context.Context, cfg config.Config, conn *db.Connection) error {
	service := rulesync.NewService(repository.NewRuleRepository(conn.Pool))

	summary, err := service.SyncFile(ctx, cfg.Rules.File)
	if err != nil {
		return err
	}

	slog.Info("rule catalog synchronized",
		"file", cfg.Rules.File, "found", summary.Found,
		"upserted", summary.Upserted, "failed", summary.Failed)
	return nil
}
