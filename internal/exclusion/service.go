package exclusion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/plantops/dataquality/internal/repository"

	"github.com/jackc/pgx/v5"
)

// TxRunner executes a function inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(pgx.Tx) error) error
}

// Loader writes expanded exclusion windows into the database.
type Loader struct {
	runner     TxRunner
	exclusions repository.ExclusionRepository
}

func NewLoader(runner TxRunner, exclusions repository.ExclusionRepository) *Loader {
	return &Loader{runner: runner, exclusions: exclusions}
}

// LoadWorkbook reads the operations workbook and upserts every expanded
// second in one transaction, so a partial load never becomes visible.
func (l *Loader) LoadWorkbook(ctx context.Context, path, sheet string) (int64, error) {
	records, err := ReadWorkbook(path, sheet)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		slog.Warn("workbook produced no exclusion records", "workbook", path)
		return 0, nil
	}

	var written int64
	err = l.runner.WithTx(ctx, func(tx pgx.Tx) error {
		n, upsertErr := l.exclusions.UpsertRecords(ctx, tx, records)
		written = n
		return upsertErr
	})
	if err != nil {
		return 0, fmt.Errorf("failed to store exclusion records: %w", err)
	}

	slog.Info("exclusion windows loaded", "workbook", path, "records", written)
	return written, nil
}

// Cleaner removes validated rows that fall inside active exclusion windows.
type Cleaner struct {
	runner     TxRunner
	exclusions repository.ExclusionRepository
}

func NewCleaner(runner TxRunner, exclusions repository.ExclusionRepository) *Cleaner {
	return &Cleaner{runner: runner, exclusions: exclusions}
}

// Apply archives and deletes every validated row whose timestamp matches an
// active exclusion, atomically. The audit log keeps a full snapshot of each
// removed row.
func (c *Cleaner) Apply(ctx context.Context) (int64, error) {
	var removed int64
	err := c.runner.WithTx(ctx, func(tx pgx.Tx) error {
		n, deleteErr := c.exclusions.ArchiveAndDelete(ctx, tx)
		removed = n
		return deleteErr
	})
	if err != nil {
		return 0, fmt.Errorf("failed to apply exclusions: %w", err)
	}

	if removed == 0 {
		slog.Info("no validated rows fall inside an exclusion window")
		return 0, nil
	}
	slog.Info("excluded rows removed from validated data", "rows", removed)
	return removed, nil
}
