package repository

import (
	"context"
	"fmt"

	"github.com/plantops/dataquality/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ingestionLogRepository struct {
	pool *pgxpool.Pool
}

// NewIngestionLogRepository wires a repository backed by pgxpool.
func NewIngestionLogRepository(pool *pgxpool.Pool) IngestionLogRepository {
	return &ingestionLogRepository{pool: pool}
}

// Record appends one file-load outcome to the audit trail. Entries commit on
// their own so a failed load still leaves its trace behind.
func (r *ingestionLogRepository) Record(ctx context.Context, entry domain.IngestionLogEntry) error {
	var detail any
	if entry.Detail != "" {
		detail = entry.Detail
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO ingestion_logs (file_name, status, rows_loaded, rows_dropped, detail)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.FileName,
		string(entry.Status),
		entry.RowsLoaded,
		entry.RowsDropped,
		detail,
	)
	if err != nil {
		return fmt.Errorf("failed to record file load: %w", err)
	}

	return nil
}
