package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/plantops/dataquality/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// upsertChunkSize bounds how many exclusion seconds go into one statement.
const upsertChunkSize = 1000

type exclusionRepository struct {
	pool *pgxpool.Pool
}

// NewExclusionRepository wires a repository backed by pgxpool.
func NewExclusionRepository(pool *pgxpool.Pool) ExclusionRepository {
	return &exclusionRepository{pool: pool}
}

// UpsertRecords writes per-second exclusion rows, replacing any previous
// record for the same instant. Returns the number of rows written.
func (r *exclusionRepository) UpsertRecords(ctx context.Context, tx pgx.Tx, records []domain.ExclusionRecord) (int64, error) {
	var total int64

	for start := 0; start < len(records); start += upsertChunkSize {
		end := min(start+upsertChunkSize, len(records))
		chunk := records[start:end]

		const paramsPerRecord = 10
		placeholders := make([]string, 0, len(chunk))
		args := make([]any, 0, len(chunk)*paramsPerRecord)

		for i, record := range chunk {
			marks := make([]string, paramsPerRecord)
			for j := range marks {
				marks[j] = fmt.Sprintf("$%d", i*paramsPerRecord+j+1)
			}
			placeholders = append(placeholders, "("+strings.Join(marks, ", ")+")")

			var peak any
			if record.PeakPowerKW.Valid {
				peak = record.PeakPowerKW.Decimal.String()
			}
			at := record.ExcludedAt
			args = append(args,
				at, peak, record.Exclusion, record.Reason,
				at.Year(), int(at.Month()), at.Day(), at.Hour(), at.Minute(), at.Second(),
			)
		}

		query := fmt.Sprintf(
			`INSERT INTO excluded_data
			     (excluded_at, peak_power_kw, exclusion, reason, "year", "month", "day", "hour", "minute", "second")
			 VALUES %s
			 ON CONFLICT (excluded_at) DO UPDATE SET
			     peak_power_kw = EXCLUDED.peak_power_kw,
			     exclusion = EXCLUDED.exclusion,
			     reason = EXCLUDED.reason,
			     "year" = EXCLUDED."year",
			     "month" = EXCLUDED."month",
			     "day" = EXCLUDED."day",
			     "hour" = EXCLUDED."hour",
			     "minute" = EXCLUDED."minute",
			     "second" = EXCLUDED."second"`,
			strings.Join(placeholders, ", "),
		)

		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return total, fmt.Errorf("failed to upsert exclusion records: %w", err)
		}
		total += tag.RowsAffected()
	}

	return total, nil
}

// ArchiveAndDelete removes every validated row whose timestamp matches an
// active exclusion, after snapshotting the row into the audit log. A single
// statement keeps the archive and the delete over the same set of rows.
func (r *exclusionRepository) ArchiveAndDelete(ctx context.Context, tx pgx.Tx) (int64, error) {
	tag, err := tx.Exec(ctx, `
	    WITH rows_to_delete AS (
	        SELECT v.id
	        FROM validated_data v
	        JOIN excluded_data e ON v."timestamp" = e.excluded_at
	        WHERE e.exclusion = 0
	    ),
	    archived AS (
	        INSERT INTO excluded_data_logs (excluded_data_id, operation_type, new_values, changed_by)
	        SELECT e.id, 'DELETE', to_jsonb(v.*), 'pipeline'
	        FROM validated_data v
	        JOIN excluded_data e ON v."timestamp" = e.excluded_at
	        WHERE v.id IN (SELECT id FROM rows_to_delete)
	    )
	    DELETE FROM validated_data WHERE id IN (SELECT id FROM rows_to_delete)`)
	if err != nil {
		return 0, fmt.Errorf("failed to archive and delete excluded rows: %w", err)
	}

	return tag.RowsAffected(), nil
}

// CountLogsForDay reports how many exclusion log entries were written on the
// given calendar day.
func (r *exclusionRepository) CountLogsForDay(ctx context.Context, day time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM excluded_data_logs WHERE DATE(changed_at) = $1`,
		day,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count exclusion logs: %w", err)
	}
	return count, nil
}
