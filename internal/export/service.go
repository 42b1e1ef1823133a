// Package export renders the daily Excel deliverables: an aggregated error
// report and a full dump of the validated dataset.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/plantops/dataquality/internal/domain"
	"github.com/plantops/dataquality/internal/repository"
)

// stampLayout renders timestamps without a zone offset so spreadsheet tools
// show the plant's wall-clock time.
const stampLayout = "2006-01-02 15:04:05"

const (
	defaultDayStart = "07:00:00"
	defaultDayEnd   = "18:59:59"
)

// errorsReportHeaders mirror the column aliases of the aggregation query.
var errorsReportHeaders = []string{"timestamp", "rule_ids", "error_columns", "error_values"}

// Service writes the two report workbooks. The reports are independent: a
// failure in one is logged and the other still runs.
type Service struct {
	errorRepo repository.ValidationErrorRepository
	validated repository.ValidatedDataRepository

	outputDir        string
	dayStart         string
	dayEnd           string
	validatedHeaders []string
	now              func() time.Time
}

type Option func(*Service)

// WithOutputDirectory overrides where report files land.
func WithOutputDirectory(dir string) Option {
	return func(s *Service) {
		if strings.TrimSpace(dir) != "" {
			s.outputDir = filepath.Clean(dir)
		}
	}
}

// WithReportWindow narrows the error report to rows whose measurement time
// of day falls between start and end, both formatted HH:MM:SS.
func WithReportWindow(start, end string) Option {
	return func(s *Service) {
		if strings.TrimSpace(start) != "" && strings.TrimSpace(end) != "" {
			s.dayStart = start
			s.dayEnd = end
		}
	}
}

// WithValidatedHeaders replaces the database column names in the validated
// report with descriptive channel names. The list must match the table's
// exportable columns one to one or the report is skipped.
func WithValidatedHeaders(headers []string) Option {
	return func(s *Service) {
		if len(headers) > 0 {
			s.validatedHeaders = append([]string(nil), headers...)
		}
	}
}

// WithClock fixes the clock used to date report file names.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires a report writer against the error and validated-data
// stores.
func NewService(errorRepo repository.ValidationErrorRepository, validated repository.ValidatedDataRepository, opts ...Option) *Service {
	service := &Service{
		errorRepo: errorRepo,
		validated: validated,
		outputDir: filepath.Join(os.TempDir(), "dataquality-reports"),
		dayStart:  defaultDayStart,
		dayEnd:    defaultDayEnd,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	if strings.TrimSpace(service.outputDir) == "" {
		service.outputDir = filepath.Join(os.TempDir(), "dataquality-reports")
	}
	if strings.TrimSpace(service.dayStart) == "" || strings.TrimSpace(service.dayEnd) == "" {
		service.dayStart = defaultDayStart
		service.dayEnd = defaultDayEnd
	}
	if service.now == nil {
		service.now = time.Now
	}
	return service
}

// Summary lists the files a run produced. An empty path means that report
// was skipped, either for lack of data or after a recorded failure.
type Summary struct {
	ErrorsReport    string
	ValidatedReport string
}

// Run generates both reports for today. Failures inside a single report are
// logged and leave its summary path empty; only an unusable output
// directory aborts the run.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	if err := s.ensureOutputDirectory(); err != nil {
		return Summary{}, err
	}

	day := s.now().Format("2006-01-02")
	summary := Summary{}

	path, err := s.writeErrorsReport(ctx, day)
	if err != nil {
		slog.Error("failed to generate errors report", "error", err)
	} else {
		summary.ErrorsReport = path
	}

	path, err = s.writeValidatedReport(ctx, day)
	if err != nil {
		slog.Error("failed to generate validated report", "error", err)
	} else {
		summary.ValidatedReport = path
	}

	slog.Info("report generation complete",
		"errors_report", summary.ErrorsReport,
		"validated_report", summary.ValidatedReport)
	return summary, nil
}

func (s *Service) writeErrorsReport(ctx context.Context, day string) (string, error) {
	rows, err := s.errorRepo.Report(ctx, s.dayStart, s.dayEnd)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		slog.Warn("no validation errors inside the report window, skipping errors report")
		return "", nil
	}

	fileName := fmt.Sprintf("errors_report_%s.xlsx", day)
	path, _, err := s.writeWorkbook(fileName, errorsReportHeaders, func(writer *excelize.StreamWriter) (int, error) {
		for i, row := range rows {
			cell, cellErr := excelize.CoordinatesToCellName(1, i+2)
			if cellErr != nil {
				return 0, cellErr
			}
			if rowErr := writer.SetRow(cell, []any{
				row.Timestamp.Format(stampLayout),
				row.RuleIDs,
				row.Columns,
				row.Values,
			}); rowErr != nil {
				return 0, fmt.Errorf("write report row: %w", rowErr)
			}
		}
		return len(rows), nil
	})
	if err != nil {
		return "", err
	}

	slog.Info("errors report generated", "path", path, "rows", len(rows))
	return path, nil
}

func (s *Service) writeValidatedReport(ctx context.Context, day string) (string, error) {
	columns, err := s.validated.DataColumns(ctx)
	if err != nil {
		return "", err
	}
	if len(columns) == 0 {
		slog.Warn("validated_data has no exportable columns, skipping validated report")
		return "", nil
	}

	headers := columns
	if len(s.validatedHeaders) > 0 {
		if len(s.validatedHeaders) != len(columns) {
			slog.Error("validated header count does not match the table, skipping validated report",
				"configured", len(s.validatedHeaders),
				"columns", len(columns))
			return "", nil
		}
		headers = s.validatedHeaders
	}

	fileName := fmt.Sprintf("validated_report_%s.xlsx", day)
	path, rows, err := s.writeWorkbook(fileName, headers, func(writer *excelize.StreamWriter) (int, error) {
		written := 0
		cells := make([]any, len(columns))
		streamErr := s.validated.StreamAll(ctx, columns, func(ts time.Time, values []*string) error {
			vi := 0
			for i, col := range columns {
				if col == domain.TimestampColumn {
					cells[i] = ts.Format(stampLayout)
					continue
				}
				cells[i] = formatMeasurement(values[vi])
				vi++
			}
			cell, cellErr := excelize.CoordinatesToCellName(1, written+2)
			if cellErr != nil {
				return cellErr
			}
			if rowErr := writer.SetRow(cell, cells); rowErr != nil {
				return fmt.Errorf("write validated row: %w", rowErr)
			}
			written++
			return nil
		})
		return written, streamErr
	})
	if err != nil {
		return "", err
	}
	if rows == 0 {
		slog.Warn("validated_data is empty, skipping validated report")
		return "", nil
	}

	slog.Info("validated report generated", "path", path, "rows", rows)
	return path, nil
}

// writeWorkbook streams a single-sheet workbook and promotes it into the
// output directory only once fully written. fill reports how many data rows
// it produced; zero rows leave no file behind.
func (s *Service) writeWorkbook(fileName string, headers []string, fill func(*excelize.StreamWriter) (int, error)) (string, int, error) {
	workbook := excelize.NewFile()
	defer func() {
		if closeErr := workbook.Close(); closeErr != nil {
			slog.Warn("failed to release workbook resources", "error", closeErr)
		}
	}()

	writer, err := workbook.NewStreamWriter(workbook.GetSheetName(0))
	if err != nil {
		return "", 0, fmt.Errorf("create stream writer: %w", err)
	}

	headerRow := make([]any, len(headers))
	for i, header := range headers {
		headerRow[i] = header
	}
	if err := writer.SetRow("A1", headerRow); err != nil {
		return "", 0, fmt.Errorf("write header row: %w", err)
	}

	rows, err := fill(writer)
	if err != nil {
		return "", 0, err
	}
	if err := writer.Flush(); err != nil {
		return "", 0, fmt.Errorf("flush workbook: %w", err)
	}
	if rows == 0 {
		return "", 0, nil
	}

	tempFile, err := os.CreateTemp(s.outputDir, fileName+"-*.tmp")
	if err != nil {
		return "", 0, fmt.Errorf("create temp report file: %w", err)
	}
	tempPath := tempFile.Name()
	if err := tempFile.Close(); err != nil {
		return "", 0, fmt.Errorf("close temp report file: %w", err)
	}
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempPath)
		}
	}()

	if err := workbook.SaveAs(tempPath); err != nil {
		return "", 0, fmt.Errorf("save workbook: %w", err)
	}
	finalPath := filepath.Join(s.outputDir, fileName)
	if err := os.Rename(tempPath, finalPath); err != nil {
		return "", 0, fmt.Errorf("promote report file: %w", err)
	}
	cleanup = false

	return finalPath, rows, nil
}

func (s *Service) ensureOutputDirectory() error {
	if strings.TrimSpace(s.outputDir) == "" {
		return fmt.Errorf("report output directory is not configured")
	}
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return fmt.Errorf("ensure report directory: %w", err)
	}
	return nil
}

// formatMeasurement renders a NUMERIC text value for the spreadsheet: zero
// collapses to "0", anything else keeps full precision with a decimal comma.
// A nil value becomes an empty cell.
func formatMeasurement(raw *string) any {
	if raw == nil {
		return nil
	}
	value, err := decimal.NewFromString(*raw)
	if err != nil {
		return *raw
	}
	if value.IsZero() {
		return "0"
	}
	return strings.ReplaceAll(*raw, ".", ",")
}
