// Command provision creates or upgrades the database schema and seeds the
// plant parameters from the configured peak power.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/plantops/dataquality/internal/app"
	"github.com/plantops/dataquality/internal/config"
	"github.com/plantops/dataquality/internal/db"
	"github.com/plantops/dataquality/internal/domain"
	"github.com/plantops/dataquality/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func main() {
	app.Run("provision", run)
}

func run(ctx context.Context, cfg config.Config, conn *db.Connection) error {
	if err := db.RunMigrations(cfg.Database, cfg.Provision.ColumnCount); err != nil {
		return err
	}

	peak := strings.TrimSpace(cfg.Provision.PeakPower)
	if peak == "" {
		return errors.Join(domain.ErrConfiguration, errors.New("provision.peak_power is required"))
	}
	power, err := decimal.NewFromString(strings.ReplaceAll(peak, ",", "."))
	if err != nil {
		return errors.Join(domain.ErrConfiguration,
			fmt.Errorf("invalid provision.peak_power %q: %w", peak, err))
	}

	// The seed envelope treats peak power as the bound in every direction:
	// reactive power may swing negative down to its mirror image.
	params := repository.NewPlantParameterRepository(conn.Pool)
	err = conn.WithTx(ctx, func(tx pgx.Tx) error {
		return params.Reseed(ctx, tx, domain.PlantParameters{
			PNom: power,
			PMax: power,
			QMin: power.Neg(),
			QMax: power,
		})
	})
	if err != nil {
		return err
	}

	slog.Info("database provisioned",
		"measurement_columns", cfg.Provision.ColumnCount, "peak_power", power.String())
	return nil
}
