package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type duplicateRepository struct {
	pool *pgxpool.Pool
}

// NewDuplicateRepository wires a repository backed by pgxpool.
func NewDuplicateRepository(pool *pgxpool.Pool) DuplicateRepository {
	return &duplicateRepository{pool: pool}
}

// Relocate archives every raw row that shares a timestamp with an earlier
// row, then deletes the archived copies from raw_data. The oldest row per
// timestamp, by ascending id, always survives. Both statements rank rows
// identically, so exactly the archived rows are removed.
func (r *duplicateRepository) Relocate(ctx context.Context, tx pgx.Tx) (DuplicateResult, error) {
	columns, err := measurementColumnNames(ctx, tx)
	if err != nil {
		return DuplicateResult{}, err
	}
	if len(columns) == 0 {
		return DuplicateResult{}, fmt.Errorf("no measurement columns found on raw_data")
	}

	source := make([]string, 0, len(columns)+2)
	source = append(source, "id", `"timestamp"`)
	dest := make([]string, 0, len(columns)+2)
	dest = append(dest, "raw_data_id", "timestamp_col")
	for _, col := range columns {
		quoted := pgx.Identifier{col}.Sanitize()
		source = append(source, quoted)
		dest = append(dest, quoted)
	}

	const rankedRows = `WITH ranked_rows AS (
	    SELECT *, ROW_NUMBER() OVER (PARTITION BY "timestamp" ORDER BY id ASC) AS rn
	    FROM raw_data
	)`

	moveQuery := fmt.Sprintf(
		`%s
		 INSERT INTO duplicated_data (%s)
		 SELECT %s FROM ranked_rows WHERE rn > 1`,
		rankedRows,
		strings.Join(dest, ", "),
		strings.Join(source, ", "),
	)

	moveTag, err := tx.Exec(ctx, moveQuery)
	if err != nil {
		return DuplicateResult{}, fmt.Errorf("failed to archive duplicate rows: %w", err)
	}

	result := DuplicateResult{Moved: moveTag.RowsAffected()}
	if result.Moved == 0 {
		return result, nil
	}

	deleteTag, err := tx.Exec(ctx, rankedRows+`
	 DELETE FROM raw_data WHERE id IN (SELECT id FROM ranked_rows WHERE rn > 1)`)
	if err != nil {
		return DuplicateResult{}, fmt.Errorf("failed to delete duplicate rows: %w", err)
	}
	result.Deleted = deleteTag.RowsAffected()

	return result, nil
}

// measurementColumnNames lists raw_data's generated measurement columns in
// table order.
func measurementColumnNames(ctx context.Context, tx pgx.Tx) ([]string, error) {
	rows, err := tx.Query(
		ctx,
		`SELECT column_name FROM information_schema.columns
		 WHERE table_schema = 'public' AND lower(table_name) = 'raw_data'
		   AND column_name LIKE 'col\_%'
		 ORDER BY ordinal_position`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to discover measurement columns: %w", err)
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
