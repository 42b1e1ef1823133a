// Package engine drives validation runs: claiming pending staging rows in
// batches, evaluating them and persisting the outcome atomically.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/plantops/dataquality/internal/domain"
	"github.com/plantops/dataquality/internal/repository"
	"github.com/plantops/dataquality/internal/validation"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const defaultBatchSize = 1000

// TxRunner executes a function inside one database transaction. Claim,
// persist and status updates for a batch all share the transaction, so a
// crash releases the claimed rows untouched.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(pgx.Tx) error) error
}

// SnapshotSource provides the rule view a run evaluates against.
type SnapshotSource interface {
	Load(ctx context.Context) (domain.RuleSnapshot, error)
}

// Coordinator claims and validates pending rows until the staging table
// drains. Multiple coordinators may run against the same database; row locks
// keep their batches disjoint.
type Coordinator struct {
	runner    TxRunner
	snapshots SnapshotSource
	rawRepo   repository.RawDataRepository
	validated repository.ValidatedDataRepository
	errorRepo repository.ValidationErrorRepository

	batchSize int
	now       func() time.Time
}

type Option func(*Coordinator)

// WithBatchSize caps how many rows one transaction claims.
func WithBatchSize(size int) Option {
	return func(c *Coordinator) {
		if size > 0 {
			c.batchSize = size
		}
	}
}

// WithClock overrides the run timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCoordinator(
	runner TxRunner,
	snapshots SnapshotSource,
	rawRepo repository.RawDataRepository,
	validated repository.ValidatedDataRepository,
	errorRepo repository.ValidationErrorRepository,
	opts ...Option,
) *Coordinator {
	coordinator := &Coordinator{
		runner:    runner,
		snapshots: snapshots,
		rawRepo:   rawRepo,
		validated: validated,
		errorRepo: errorRepo,
		batchSize: defaultBatchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(coordinator)
	}
	if coordinator.batchSize <= 0 {
		coordinator.batchSize = defaultBatchSize
	}
	if coordinator.now == nil {
		coordinator.now = time.Now
	}
	return coordinator
}

// Run processes pending rows batch by batch until none remain. Each batch
// commits on its own, so an abort keeps everything processed before it.
func (c *Coordinator) Run(ctx context.Context) (domain.RunSummary, error) {
	runID := uuid.New()
	logger := slog.With("run_id", runID.String())
	summary := domain.RunSummary{RunID: runID, StartedAt: c.now()}

	snapshot, err := c.snapshots.Load(ctx)
	if err != nil {
		summary.Outcome = domain.RunOutcomeAborted
		summary.FinishedAt = c.now()
		return summary, err
	}
	if snapshot.Empty() {
		logger.Warn("no active validation rules, nothing to process")
		summary.Outcome = domain.RunOutcomeNoRules
		summary.FinishedAt = c.now()
		return summary, nil
	}

	columns, err := c.rawRepo.DataColumns(ctx)
	if err != nil {
		summary.Outcome = domain.RunOutcomeAborted
		summary.FinishedAt = c.now()
		return summary, err
	}

	logger.Info("starting validation run",
		"rules", snapshot.Len(), "ruled_columns", len(snapshot.Fields()), "batch_size", c.batchSize)

	for {
		var claimed, valid, rejected int
		err := c.runner.WithTx(ctx, func(tx pgx.Tx) error {
			rows, claimErr := c.rawRepo.ClaimPending(ctx, tx, columns, c.batchSize)
			if claimErr != nil {
				return claimErr
			}
			claimed = len(rows)
			if claimed == 0 {
				return nil
			}
			var batchErr error
			valid, rejected, batchErr = c.processBatch(ctx, tx, columns, rows, snapshot)
			return batchErr
		})
		if err != nil {
			logger.Error("validation run aborted",
				"error", err, "batches_committed", summary.Batches, "rows_processed", summary.Processed)
			summary.Outcome = domain.RunOutcomeAborted
			summary.FinishedAt = c.now()
			return summary, fmt.Errorf("validation run aborted: %w", err)
		}
		if claimed == 0 {
			break
		}

		summary.Batches++
		summary.Processed += claimed
		summary.Valid += valid
		summary.Rejected += rejected
		logger.Info("batch committed",
			"batch", summary.Batches, "rows", claimed, "valid", valid, "rejected", rejected)
	}

	summary.Outcome = domain.RunOutcomeDrained
	summary.FinishedAt = c.now()
	logger.Info("validation run complete",
		"batches", summary.Batches, "processed", summary.Processed,
		"valid", summary.Valid, "rejected", summary.Rejected,
		"duration", summary.FinishedAt.Sub(summary.StartedAt).String())
	return summary, nil
}

// processBatch evaluates claimed rows and persists both sides of the split:
// rejected rows keep their findings, clean rows move to validated_data with
// the rules they satisfied.
func (c *Coordinator) processBatch(ctx context.Context, tx pgx.Tx, columns []string, rows []domain.RawRow, snapshot domain.RuleSnapshot) (int, int, error) {
	var (
		validRows   []domain.RawRow
		validIDs    []int64
		rejectedIDs []int64
		findings    []domain.ValidationError
		passedByRow = make(map[int64][]int64)
	)

	for _, row := range rows {
		result := validation.Evaluate(row, snapshot)
		if result.Valid() {
			validRows = append(validRows, row)
			validIDs = append(validIDs, row.ID)
			passedByRow[row.ID] = result.Passed
			continue
		}
		rejectedIDs = append(rejectedIDs, row.ID)
		findings = append(findings, result.Errors...)
	}

	if len(rejectedIDs) > 0 {
		if err := c.errorRepo.CopyIn(ctx, tx, findings); err != nil {
			return 0, 0, err
		}
		if err := c.rawRepo.MarkProcessed(ctx, tx, rejectedIDs, domain.DataStatusError); err != nil {
			return 0, 0, err
		}
	}

	if len(validRows) > 0 {
		idMap, err := c.validated.InsertFromRaw(ctx, tx, columns, validRows)
		if err != nil {
			return 0, 0, err
		}

		var passes []repository.RulePass
		for _, rawID := range validIDs {
			validatedID, ok := idMap[rawID]
			if !ok {
				return 0, 0, fmt.Errorf("no validated id returned for raw row %d", rawID)
			}
			for _, ruleID := range passedByRow[rawID] {
				passes = append(passes, repository.RulePass{ValidatedDataID: validatedID, RuleID: ruleID})
			}
		}
		if err := c.validated.InsertPassedRules(ctx, tx, passes); err != nil {
			return 0, 0, err
		}
		if err := c.rawRepo.MarkProcessed(ctx, tx, validIDs, domain.DataStatusSuccess); err != nil {
			return 0, 0, err
		}
	}

	return len(validIDs), len(rejectedIDs), nil
}
