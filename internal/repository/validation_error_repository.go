package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/plantops/dataquality/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type validationErrorRepository struct {
	pool *pgxpool.Pool
}

// NewValidationErrorRepository wires a repository backed by pgxpool.
func NewValidationErrorRepository(pool *pgxpool.Pool) ValidationErrorRepository {
	return &validationErrorRepository{pool: pool}
}

// CopyIn bulk-loads validation errors. System findings carry a nil rule id
// and are kept apart from rule violations by their error code.
func (r *validationErrorRepository) CopyIn(ctx context.Context, tx pgx.Tx, errs []domain.ValidationError) error {
	if len(errs) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(errs))
	for _, e := range errs {
		var ruleID any
		if e.RuleID != nil {
			ruleID = *e.RuleID
		}
		rows = append(rows, []any{e.RawDataID, ruleID, string(e.Code), e.Column, e.Value})
	}

	if _, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"validation_error_by_rules"},
		[]string{"raw_data_id", "validation_rule_id", "error_code", "offending_column", "offending_value"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("failed to record validation errors: %w", err)
	}

	return nil
}

// Report aggregates every recorded error whose source row falls inside the
// daily reporting window, one line per distinct timestamp. The window filters
// on time of day only, so all dates contribute.
func (r *validationErrorRepository) Report(ctx context.Context, dayStart, dayEnd string) ([]domain.ErrorReportRow, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT
		     d."timestamp",
		     STRING_AGG(COALESCE(e.validation_rule_id::text, e.error_code), ', ') AS rule_ids,
		     STRING_AGG(e.offending_column, ', ') AS error_columns,
		     STRING_AGG(e.offending_value, ', ') AS error_values
		 FROM validation_error_by_rules AS e
		 INNER JOIN raw_data AS d ON e.raw_data_id = d.id
		 WHERE d."timestamp"::time BETWEEN $1::time AND $2::time
		 GROUP BY d."timestamp"
		 ORDER BY d."timestamp"`,
		dayStart, dayEnd,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query error report: %w", err)
	}
	defer rows.Close()

	report := []domain.ErrorReportRow{}
	for rows.Next() {
		var (
			ts              pgtype.Timestamptz
			ruleIDs         pgtype.Text
			offendingCols   pgtype.Text
			offendingValues pgtype.Text
		)
		if scanErr := rows.Scan(&ts, &ruleIDs, &offendingCols, &offendingValues); scanErr != nil {
			return nil, fmt.Errorf("failed to scan error report row: %w", scanErr)
		}
		report = append(report, domain.ErrorReportRow{
			Timestamp: ts.Time,
			RuleIDs:   ruleIDs.String,
			Columns:   offendingCols.String,
			Values:    offendingValues.String,
		})
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate error report: %w", rowsErr)
	}

	return report, nil
}

// CountForDay reports how many errors were recorded on the given calendar day.
func (r *validationErrorRepository) CountForDay(ctx context.Context, day time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM validation_error_by_rules WHERE DATE(created_at) = $1`,
		day,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count validation errors: %w", err)
	}
	return count, nil
}
