package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/plantops/dataquality/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// validatedBookkeepingColumns are internal to the promotion lifecycle and
// stay out of reports.
var validatedBookkeepingColumns = []string{"id", "raw_data_id", "status", "created_at", "processed_at"}

// maxInsertParams keeps chunked inserts under the wire protocol's parameter
// limit of 65535.
const maxInsertParams = 60000

type validatedDataRepository struct {
	pool *pgxpool.Pool
}

// NewValidatedDataRepository wires a repository backed by pgxpool.
func NewValidatedDataRepository(pool *pgxpool.Pool) ValidatedDataRepository {
	return &validatedDataRepository{pool: pool}
}

// DataColumns discovers the measurement columns of validated_data in ordinal
// position order.
func (r *validatedDataRepository) DataColumns(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT column_name FROM information_schema.columns
		 WHERE table_schema = 'public' AND lower(table_name) = 'validated_data'
		   AND column_name != ALL($1)
		 ORDER BY ordinal_position`,
		validatedBookkeepingColumns,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to discover validated_data columns: %w", err)
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

// InsertFromRaw copies the given claimed rows into validated_data and returns
// the raw id to validated id mapping the audit trail needs. Inserts are
// chunked multi-VALUES statements because CopyFrom cannot return the
// generated ids.
func (r *validatedDataRepository) InsertFromRaw(ctx context.Context, tx pgx.Tx, columns []string, rows []domain.RawRow) (map[int64]int64, error) {
	idMap := make(map[int64]int64, len(rows))
	if len(rows) == 0 {
		return idMap, nil
	}

	insertCols := make([]string, 0, len(columns)+1)
	insertCols = append(insertCols, "raw_data_id")
	for _, col := range columns {
		insertCols = append(insertCols, pgx.Identifier{col}.Sanitize())
	}

	paramsPerRow := len(columns) + 1
	chunkSize := maxInsertParams / paramsPerRow
	if chunkSize < 1 {
		chunkSize = 1
	}

	for start := 0; start < len(rows); start += chunkSize {
		end := min(start+chunkSize, len(rows))
		if err := r.insertChunk(ctx, tx, insertCols, columns, rows[start:end], idMap); err != nil {
			return nil, err
		}
	}

	return idMap, nil
}

func (r *validatedDataRepository) insertChunk(ctx context.Context, tx pgx.Tx, insertCols, columns []string, chunk []domain.RawRow, idMap map[int64]int64) error {
	paramsPerRow := len(columns) + 1
	placeholders := make([]string, 0, len(chunk))
	args := make([]any, 0, len(chunk)*paramsPerRow)

	for i, row := range chunk {
		marks := make([]string, paramsPerRow)
		for j := range marks {
			marks[j] = fmt.Sprintf("$%d", i*paramsPerRow+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(marks, ", ")+")")

		args = append(args, row.ID)
		for _, col := range columns {
			arg, err := promotedValue(col, row)
			if err != nil {
				return fmt.Errorf("raw row %d column %s: %w", row.ID, col, err)
			}
			args = append(args, arg)
		}
	}

	query := fmt.Sprintf(
		`INSERT INTO validated_data (%s) VALUES %s RETURNING id, raw_data_id`,
		strings.Join(insertCols, ", "),
		strings.Join(placeholders, ", "),
	)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert validated rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var validatedID, rawID int64
		if scanErr := rows.Scan(&validatedID, &rawID); scanErr != nil {
			return fmt.Errorf("failed to scan validated row ids: %w", scanErr)
		}
		idMap[rawID] = validatedID
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return fmt.Errorf("failed to iterate validated row ids: %w", rowsErr)
	}

	return nil
}

// promotedValue maps a claimed value back to a typed column parameter. The
// textual form of a measurement survives unchanged: it re-enters Postgres as
// an exact NUMERIC, never as a float.
func promotedValue(col string, row domain.RawRow) (any, error) {
	if col == domain.TimestampColumn {
		if row.Timestamp == nil {
			return nil, nil
		}
		return *row.Timestamp, nil
	}

	raw := row.Values[col]
	if raw == nil {
		return nil, nil
	}

	var n pgtype.Numeric
	if err := n.Scan(*raw); err != nil {
		return nil, fmt.Errorf("not a numeric value %q: %w", *raw, err)
	}
	return n, nil
}

// InsertPassedRules records which rules each promoted row satisfied.
func (r *validatedDataRepository) InsertPassedRules(ctx context.Context, tx pgx.Tx, passes []RulePass) error {
	if len(passes) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(passes))
	for _, pass := range passes {
		rows = append(rows, []any{pass.ValidatedDataID, pass.RuleID})
	}

	if _, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"validated_data_by_rules"},
		[]string{"validated_data_id", "rule_id"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("failed to record passed rules: %w", err)
	}

	return nil
}

// StreamAll walks the validated dataset in column order, handing each row to
// fn with the timestamp typed and every other value as exact text.
func (r *validatedDataRepository) StreamAll(ctx context.Context, columns []string, fn func(ts time.Time, values []*string) error) error {
	if len(columns) == 0 {
		return fmt.Errorf("no columns to stream from validated_data")
	}

	selects := make([]string, 0, len(columns))
	for _, col := range columns {
		if col == domain.TimestampColumn {
			selects = append(selects, `"timestamp"`)
			continue
		}
		selects = append(selects, pgx.Identifier{col}.Sanitize()+"::text")
	}

	query := fmt.Sprintf(`SELECT %s FROM validated_data`, strings.Join(selects, ", "))

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query validated data: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ts pgtype.Timestamptz
		values := make([]*string, 0, len(columns))
		dests := make([]any, 0, len(columns))
		for _, col := range columns {
			if col == domain.TimestampColumn {
				dests = append(dests, &ts)
				continue
			}
			values = append(values, nil)
			dests = append(dests, &values[len(values)-1])
		}

		if scanErr := rows.Scan(dests...); scanErr != nil {
			return fmt.Errorf("failed to scan validated row: %w", scanErr)
		}

		if err := fn(ts.Time, values); err != nil {
			return err
		}
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return fmt.Errorf("failed to iterate validated data: %w", rowsErr)
	}

	return nil
}
