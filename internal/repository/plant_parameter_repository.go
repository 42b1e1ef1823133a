package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/plantops/dataquality/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type plantParameterRepository struct {
	pool *pgxpool.Pool
}

// NewPlantParameterRepository wires a repository backed by pgxpool.
func NewPlantParameterRepository(pool *pgxpool.Pool) PlantParameterRepository {
	return &plantParameterRepository{pool: pool}
}

// Latest returns the most recently modified parameter row. Values come back
// as text and are parsed exactly; a missing row is a configuration error
// because no threshold placeholder can be resolved without it.
func (r *plantParameterRepository) Latest(ctx context.Context) (domain.PlantParameters, error) {
	var (
		params     domain.PlantParameters
		pNom       string
		pMax       string
		qMin       string
		qMax       string
		modifiedAt pgtype.Timestamptz
	)

	err := r.pool.QueryRow(
		ctx,
		`SELECT id, p_nom::text, p_max::text, q_min::text, q_max::text, modified_at
		 FROM plant_parameters
		 ORDER BY modified_at DESC
		 LIMIT 1`,
	).Scan(&params.ID, &pNom, &pMax, &qMin, &qMax, &modifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PlantParameters{}, errors.Join(domain.ErrConfiguration,
				errors.New("no plant parameters found; provision the database first"))
		}
		return domain.PlantParameters{}, fmt.Errorf("failed to load plant parameters: %w", err)
	}

	for _, bind := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"p_nom", pNom, &params.PNom},
		{"p_max", pMax, &params.PMax},
		{"q_min", qMin, &params.QMin},
		{"q_max", qMax, &params.QMax},
	} {
		value, parseErr := decimal.NewFromString(bind.raw)
		if parseErr != nil {
			return domain.PlantParameters{}, fmt.Errorf("failed to parse %s value %q: %w", bind.name, bind.raw, parseErr)
		}
		*bind.dst = value
	}

	if modifiedAt.Valid {
		params.ModifiedAt = modifiedAt.Time
	}

	return params, nil
}

// Reseed replaces the parameter history with a single fresh row.
func (r *plantParameterRepository) Reseed(ctx context.Context, tx pgx.Tx, params domain.PlantParameters) error {
	if _, err := tx.Exec(ctx, `TRUNCATE plant_parameters RESTART IDENTITY`); err != nil {
		return fmt.Errorf("failed to truncate plant parameters: %w", err)
	}

	if _, err := tx.Exec(
		ctx,
		`INSERT INTO plant_parameters (p_nom, p_max, q_min, q_max)
		 VALUES ($1, $2, $3, $4)`,
		params.PNom.String(),
		params.PMax.String(),
		params.QMin.String(),
		params.QMax.String(),
	); err != nil {
		return fmt.Errorf("failed to seed plant parameters: %w", err)
	}

	return nil
}
