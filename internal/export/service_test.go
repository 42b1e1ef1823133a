package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/plantops/dataquality/internal/domain"
	"github.com/plantops/dataquality/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/xuri/excelize/v2"
)

func TestFormatMeasurement(t *testing.T) {
	if got := formatMeasurement(nil); got != nil {
		t.Fatalf("expected nil for a missing value, got %v", got)
	}
	if got := formatMeasurement(ptr("0.0000000000000")); got != "0" {
		t.Fatalf("expected zero collapsed, got %v", got)
	}
	if got := formatMeasurement(ptr("1500.2500000000000")); got != "1500,2500000000000" {
		t.Fatalf("expected a decimal comma with full precision, got %v", got)
	}
	if got := formatMeasurement(ptr("-0.5000000000000")); got != "-0,5000000000000" {
		t.Fatalf("expected the sign kept, got %v", got)
	}
	if got := formatMeasurement(ptr("not numeric")); got != "not numeric" {
		t.Fatalf("expected a non-numeric value passed through, got %v", got)
	}
}

func TestRunWritesBothReports(t *testing.T) {
	dir := t.TempDir()
	stamp := time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC)

	errorRepo := &stubErrorRepo{rows: []domain.ErrorReportRow{
		{Timestamp: stamp, RuleIDs: "1,2", Columns: "col_1", Values: "9999.0000000000000"},
	}}
	validatedRepo := &stubValidatedRepo{
		columns: []string{"timestamp", "col_1", "col_2"},
		rows: []streamedRow{
			{ts: stamp, values: []*string{ptr("1500.2500000000000"), ptr("0.0000000000000")}},
		},
	}

	service := NewService(errorRepo, validatedRepo,
		WithOutputDirectory(dir),
		WithReportWindow("08:00:00", "16:59:59"),
		WithClock(func() time.Time { return stamp }))

	summary, err := service.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if errorRepo.gotStart != "08:00:00" || errorRepo.gotEnd != "16:59:59" {
		t.Fatalf("expected the configured window passed through, got %s..%s",
			errorRepo.gotStart, errorRepo.gotEnd)
	}
	if summary.ErrorsReport != filepath.Join(dir, "errors_report_2024-06-01.xlsx") {
		t.Fatalf("unexpected errors report path: %s", summary.ErrorsReport)
	}
	if summary.ValidatedReport != filepath.Join(dir, "validated_report_2024-06-01.xlsx") {
		t.Fatalf("unexpected validated report path: %s", summary.ValidatedReport)
	}

	rows := readSheet(t, summary.ValidatedReport)
	if len(rows) != 2 {
		t.Fatalf("expected a header and one data row, got %d", len(rows))
	}
	wantHeader := []string{"timestamp", "col_1", "col_2"}
	for i, want := range wantHeader {
		if rows[0][i] != want {
			t.Fatalf("unexpected header row: %v", rows[0])
		}
	}
	wantData := []string{"2024-06-01 07:00:00", "1500,2500000000000", "0"}
	for i, want := range wantData {
		if rows[1][i] != want {
			t.Fatalf("unexpected data row: %v", rows[1])
		}
	}

	errRows := readSheet(t, summary.ErrorsReport)
	if len(errRows) != 2 || errRows[1][1] != "1,2" {
		t.Fatalf("unexpected errors report content: %v", errRows)
	}
}

func TestRunSkipsEmptyReports(t *testing.T) {
	dir := t.TempDir()
	service := NewService(&stubErrorRepo{},
		&stubValidatedRepo{columns: []string{"timestamp", "col_1"}},
		WithOutputDirectory(dir))

	summary, err := service.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.ErrorsReport != "" || summary.ValidatedReport != "" {
		t.Fatalf("expected both reports skipped, got %+v", summary)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files left behind, found %d", len(entries))
	}
}

func TestRunHeaderMismatchSkipsValidatedReport(t *testing.T) {
	validatedRepo := &stubValidatedRepo{
		columns: []string{"timestamp", "col_1"},
		rows:    []streamedRow{{ts: time.Now(), values: []*string{ptr("1.5")}}},
	}
	service := NewService(&stubErrorRepo{}, validatedRepo,
		WithOutputDirectory(t.TempDir()),
		WithValidatedHeaders([]string{"Date", "Active power", "Reactive power"}))

	summary, err := service.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.ValidatedReport != "" {
		t.Fatalf("expected the mismatched header config to skip the report")
	}
}

func TestRunRenamesValidatedHeaders(t *testing.T) {
	stamp := time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC)
	validatedRepo := &stubValidatedRepo{
		columns: []string{"timestamp", "col_1"},
		rows:    []streamedRow{{ts: stamp, values: []*string{ptr("1.5")}}},
	}
	service := NewService(&stubErrorRepo{}, validatedRepo,
		WithOutputDirectory(t.TempDir()),
		WithValidatedHeaders([]string{"Date", "Active power"}),
		WithClock(func() time.Time { return stamp }))

	summary, err := service.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	rows := readSheet(t, summary.ValidatedReport)
	if rows[0][0] != "Date" || rows[0][1] != "Active power" {
		t.Fatalf("expected descriptive headers, got %v", rows[0])
	}
}

func TestRunOneFailureKeepsOtherReport(t *testing.T) {
	stamp := time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC)
	errorRepo := &stubErrorRepo{reportErr: errors.New("aggregation failed")}
	validatedRepo := &stubValidatedRepo{
		columns: []string{"timestamp", "col_1"},
		rows:    []streamedRow{{ts: stamp, values: []*string{ptr("1.5")}}},
	}
	service := NewService(errorRepo, validatedRepo,
		WithOutputDirectory(t.TempDir()),
		WithClock(func() time.Time { return stamp }))

	summary, err := service.Run(context.Background())
	if err != nil {
		t.Fatalf("expected a single report failure tolerated, got %v", err)
	}
	if summary.ErrorsReport != "" {
		t.Fatalf("expected the errors report skipped after its failure")
	}
	if summary.ValidatedReport == "" {
		t.Fatalf("expected the validated report still written")
	}
}

func readSheet(t *testing.T, path string) [][]string {
	t.Helper()
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer workbook.Close()

	rows, err := workbook.GetRows(workbook.GetSheetName(0))
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	return rows
}

func ptr(s string) *string {
	return &s
}

type stubErrorRepo struct {
	rows      []domain.ErrorReportRow
	reportErr error
	gotStart  string
	gotEnd    string
}

func (s *stubErrorRepo) CopyIn(ctx context.Context, tx pgx.Tx, errs []domain.ValidationError) error {
	return errors.New("not implemented")
}

func (s *stubErrorRepo) Report(ctx context.Context, dayStart, dayEnd string) ([]domain.ErrorReportRow, error) {
	s.gotStart, s.gotEnd = dayStart, dayEnd
	return s.rows, s.reportErr
}

func (s *stubErrorRepo) CountForDay(ctx context.Context, day time.Time) (int64, error) {
	return 0, errors.New("not implemented")
}

type streamedRow struct {
	ts     time.Time
	values []*string
}

type stubValidatedRepo struct {
	columns   []string
	rows      []streamedRow
	streamErr error
}

func (s *stubValidatedRepo) DataColumns(ctx context.Context) ([]string, error) {
	return s.columns, nil
}

func (s *stubValidatedRepo) InsertFromRaw(ctx context.Context, tx pgx.Tx, columns []string, rows []domain.RawRow) (map[int64]int64, error) {
	return nil, errors.New("not implemented")
}

func (s *stubValidatedRepo) InsertPassedRules(ctx context.Context, tx pgx.Tx, passes []repository.RulePass) error {
	return errors.New("not implemented")
}

func (s *stubValidatedRepo) StreamAll(ctx context.Context, columns []string, fn func(ts time.Time, values []*string) error) error {
	if s.streamErr != nil {
		return s.streamErr
	}
	for _, row := range s.rows {
		if err := fn(row.ts, row.values); err != nil {
			return err
		}
	}
	return nil
}

var _ repository.ValidationErrorRepository = (*stubErrorRepo)(nil)
var _ repository.ValidatedDataRepository = (*stubValidatedRepo)(nil)
