// Package dedupe archives staging rows that repeat an already-seen
// timestamp, keeping only the earliest row per instant.
package dedupe

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

type Service struct {
	runner     TxRunner
	duplicates repository.DuplicateRepository
}

func NewService(runner TxRunner, duplicates repository.DuplicateRepository) *Service {
	return &Service{runner: runner, duplicates: duplicates}
}

// Run moves every duplicated staging row into the archive and deletes it
// from staging, atomically. Validation sees at most one row per timestamp
// afterwards.
func (s *Service) Run(ctx context.Context) (repository.DuplicateResult, error) {
	var result repository.DuplicateResult
	err := s.runner.WithTx(ctx, func(tx pgx.Tx) error {
		relocated, relocateErr := s.duplicates.Relocate(ctx, tx)
		result = relocated
		return relocateErr
	})
	if err != nil {
		return repository.DuplicateResult{}, fmt.Errorf("failed to relocate duplicates: %w", err)
	}

	if result.Moved == 0 {
		slog.Info("no duplicated timestamps found")
		return result, nil
	}
	if result.Moved != result.Deleted {
		slog.Warn("archived and deleted counts differ",
			"moved", result.Moved, "deleted", result.Deleted)
	}
	slog.Info("duplicates relocated", "moved", result.Moved, "deleted", result.Deleted)
	return result, nil
}
