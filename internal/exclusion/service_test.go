package exclusion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/plantops/dataquality/internal/domain"
	"github.com/plantops/dataquality/internal/repository"

	"github.com/jackc/pgx/v5"
)

func TestLoadWorkbookStoresExpandedRecords(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		testHeader,
		{"2024-06-01", "07:00:00", "2024-06-01", "07:00:04", "0", "inverter swap", "1800"},
	})

	runner := &stubTxRunner{}
	repo := &stubExclusionRepo{}
	loader := NewLoader(runner, repo)

	written, err := loader.LoadWorkbook(context.Background(), path, "")
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if written != 5 {
		t.Fatalf("expected 5 records written, got %d", written)
	}
	if runner.calls != 1 {
		t.Fatalf("expected one transaction, got %d", runner.calls)
	}
	if len(repo.records) != 5 {
		t.Fatalf("expected 5 records stored, got %d", len(repo.records))
	}
}

func TestLoadWorkbookEmptySheetSkipsDatabase(t *testing.T) {
	path := writeWorkbook(t, [][]any{testHeader})

	runner := &stubTxRunner{}
	loader := NewLoader(runner, &stubExclusionRepo{})

	written, err := loader.LoadWorkbook(context.Background(), path, "")
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if written != 0 || runner.calls != 0 {
		t.Fatalf("expected no database work, got written=%d calls=%d", written, runner.calls)
	}
}

func TestApplyReportsRemovedRows(t *testing.T) {
	repo := &stubExclusionRepo{removed: 42}
	cleaner := NewCleaner(&stubTxRunner{}, repo)

	removed, err := cleaner.Apply(context.Background())
	if err != nil {
		t.Fatalf("apply returned error: %v", err)
	}
	if removed != 42 {
		t.Fatalf("expected 42 removed rows, got %d", removed)
	}
}

func TestApplyPropagatesFailure(t *testing.T) {
	repo := &stubExclusionRepo{err: errors.New("lock timeout")}
	cleaner := NewCleaner(&stubTxRunner{}, repo)

	if _, err := cleaner.Apply(context.Background()); err == nil {
		t.Fatalf("expected the failure to surface")
	}
}

type stubTxRunner struct {
	calls int
}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	s.calls++
	return fn(nil)
}

type stubExclusionRepo struct {
	records []domain.ExclusionRecord
	removed int64
	err     error
}

func (s *stubExclusionRepo) UpsertRecords(ctx context.Context, tx pgx.Tx, records []domain.ExclusionRecord) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.records = append(s.records, records...)
	return int64(len(records)), nil
}

func (s *stubExclusionRepo) ArchiveAndDelete(ctx context.Context, tx pgx.Tx) (int64, error) {
	return s.removed, s.err
}

func (s *stubExclusionRepo) CountLogsForDay(ctx context.Context, day time.Time) (int64, error) {
	return 0, errors.New("not implemented")
}

var _ TxRunner = (*stubTxRunner)(nil)
var _ repository.ExclusionRepository = (*stubExclusionRepo)(nil)
