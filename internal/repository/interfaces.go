package repository

import (
	"context"
	"time"

	"github.com/plantops/dataquality/internal/domain"

	"github.com/jackc/pgx/v5"
)

// RuleRepository loads and maintains the validation rule catalog.
type RuleRepository interface {
	ListActive(ctx context.Context) ([]domain.ValidationRule, error)
	Upsert(ctx context.Context, def domain.RuleDefinition) error
}

// PlantParameterRepository reads and seeds the plant operating envelope.
type PlantParameterRepository interface {
	Latest(ctx context.Context) (domain.PlantParameters, error)
	Reseed(ctx context.Context, tx pgx.Tx, params domain.PlantParameters) error
}

// RawDataRepository works the staging table: column discovery, bulk load,
// claiming and status transitions. Claim and status updates run on an
// explicit transaction so locks survive until the batch commits.
type RawDataRepository interface {
	DataColumns(ctx context.Context) ([]string, error)
	CopyIn(ctx context.Context, tx pgx.Tx, columns []string, rows [][]any) (int64, error)
	ClaimPending(ctx context.Context, tx pgx.Tx, columns []string, limit int) ([]domain.RawRow, error)
	MarkProcessed(ctx context.Context, tx pgx.Tx, ids []int64, status domain.DataStatus) error
}

// ValidatedDataRepository promotes clean rows and keeps their audit trail.
type ValidatedDataRepository interface {
	DataColumns(ctx context.Context) ([]string, error)
	InsertFromRaw(ctx context.Context, tx pgx.Tx, columns []string, rows []domain.RawRow) (map[int64]int64, error)
	InsertPassedRules(ctx context.Context, tx pgx.Tx, passes []RulePass) error
	StreamAll(ctx context.Context, columns []string, fn func(ts time.Time, values []*string) error) error
}

// ValidationErrorRepository persists and aggregates data-quality failures.
type ValidationErrorRepository interface {
	CopyIn(ctx context.Context, tx pgx.Tx, errs []domain.ValidationError) error
	Report(ctx context.Context, dayStart, dayEnd string) ([]domain.ErrorReportRow, error)
	CountForDay(ctx context.Context, day time.Time) (int64, error)
}

// IngestionLogRepository keeps the per-file load audit trail.
type IngestionLogRepository interface {
	Record(ctx context.Context, entry domain.IngestionLogEntry) error
}

// DuplicateRepository relocates repeated staging timestamps.
type DuplicateRepository interface {
	Relocate(ctx context.Context, tx pgx.Tx) (DuplicateResult, error)
}

// ExclusionRepository maintains exclusion windows and applies them to the
// validated dataset.
type ExclusionRepository interface {
	UpsertRecords(ctx context.Context, tx pgx.Tx, records []domain.ExclusionRecord) (int64, error)
	ArchiveAndDelete(ctx context.Context, tx pgx.Tx) (int64, error)
	CountLogsForDay(ctx context.Context, day time.Time) (int64, error)
}

// RulePass links a promoted row to a rule it satisfied.
type RulePass struct {
	ValidatedDataID int64
	RuleID          int64
}

// DuplicateResult reports one relocation pass.
type DuplicateResult struct {
	Moved   int64
	Deleted int64
}
