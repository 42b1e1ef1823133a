package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/plantops/dataquality/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// rawBookkeepingColumns never carry measurement data.
var rawBookkeepingColumns = []string{"id", "status", "created_at", "processed_at"}

type rawDataRepository struct {
	pool *pgxpool.Pool
}

// NewRawDataRepository wires a repository backed by pgxpool.
func NewRawDataRepository(pool *pgxpool.Pool) RawDataRepository {
	return &rawDataRepository{pool: pool}
}

// DataColumns discovers the staging table's measurement columns (timestamp
// included) in ordinal position order, so callers bind CSV fields and build
// claims against the live schema rather than a hard-coded layout.
func (r *rawDataRepository) DataColumns(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT column_name FROM information_schema.columns
		 WHERE table_schema = 'public' AND lower(table_name) = 'raw_data'
		   AND column_name != ALL($1)
		 ORDER BY ordinal_position`,
		rawBookkeepingColumns,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to discover raw_data columns: %w", err)
	}
	defer rows.Close()

	columns := []string{}
	for rows.Next() {
		var name string
		if scanErr := rows.Scan(&name); scanErr != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", scanErr)
		}
		columns = append(columns, name)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate columns: %w", rowsErr)
	}

	return columns, nil
}

// CopyIn bulk-loads cleaned measurement rows inside the caller's transaction.
func (r *rawDataRepository) CopyIn(ctx context.Context, tx pgx.Tx, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"raw_data"}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy rows into raw_data: %w", err)
	}

	return copied, nil
}

// ClaimPending locks up to limit pending rows for the given transaction.
// Rows already locked by a concurrent run are skipped, so parallel claimers
// never see the same row. Measurement values come back cast to text, which
// keeps NUMERIC(26,13) precision intact on the way to the evaluator.
func (r *rawDataRepository) ClaimPending(ctx context.Context, tx pgx.Tx, columns []string, limit int) ([]domain.RawRow, error) {
	selects := make([]string, 0, len(columns)+2)
	selects = append(selects, "id", `"timestamp"`)
	for _, col := range columns {
		selects = append(selects, pgx.Identifier{col}.Sanitize()+"::text")
	}

	query := fmt.Sprintf(
		`SELECT %s FROM raw_data WHERE status = 'pending' LIMIT $1 FOR UPDATE SKIP LOCKED`,
		strings.Join(selects, ", "),
	)

	rows, err := tx.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending rows: %w", err)
	}
	defer rows.Close()

	claimed := []domain.RawRow{}
	for rows.Next() {
		row := domain.RawRow{Values: make(map[string]*string, len(columns))}

		var ts pgtype.Timestamptz
		values := make([]*string, len(columns))
		dests := make([]any, 0, len(columns)+2)
		dests = append(dests, &row.ID, &ts)
		for i := range values {
			dests = append(dests, &values[i])
		}

		if scanErr := rows.Scan(dests...); scanErr != nil {
			return nil, fmt.Errorf("failed to scan claimed row: %w", scanErr)
		}

		if ts.Valid {
			claimedAt := ts.Time
			row.Timestamp = &claimedAt
		}
		for i, col := range columns {
			row.Values[col] = values[i]
		}

		claimed = append(claimed, row)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate claimed rows: %w", rowsErr)
	}

	return claimed, nil
}

// MarkProcessed stamps a terminal status and processed_at on the given rows.
func (r *rawDataRepository) MarkProcessed(ctx context.Context, tx pgx.Tx, ids []int64, status domain.DataStatus) error {
	if len(ids) == 0 {
		return nil
	}

	if _, err := tx.Exec(
		ctx,
		`UPDATE raw_data SET status = $1, processed_at = NOW() WHERE id = ANY($2)`,
		string(status),
		ids,
	); err != nil {
		return fmt.Errorf("failed to mark rows %s: %w", status, err)
	}

	return nil
}
