// Package ingestion loads semicolon-delimited measurement exports into the
// staging table.
package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/plantops/dataquality/internal/domain"
	"github.com/plantops/dataquality/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/encoding/charmap"
)

// TxRunner executes a function inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(pgx.Tx) error) error
}

// Plant exports write local wall-clock timestamps in one of these layouts.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02 15:04",
}

type Service struct {
	runner TxRunner
	raw    repository.RawDataRepository
	logs   repository.IngestionLogRepository
}

// NewService builds the loader. logs may be nil when no audit trail is wanted.
func NewService(runner TxRunner, raw repository.RawDataRepository, logs repository.IngestionLogRepository) *Service {
	return &Service{runner: runner, raw: raw, logs: logs}
}

// Summary reports one pass over an export directory.
type Summary struct {
	FilesFound  int
	FilesLoaded int
	FilesFailed int
	RowsLoaded  int64
	RowsDropped int
}

type fileResult struct {
	loaded  int64
	dropped int
	err     error
}

// LoadDir loads every .csv file under dir. Each file commits on its own; a
// file that cannot be read or stored is logged and skipped while the rest
// still load.
func (s *Service) LoadDir(ctx context.Context, dir string) (Summary, error) {
	columns, err := s.raw.DataColumns(ctx)
	if err != nil {
		return Summary{}, err
	}
	if len(columns) == 0 {
		return Summary{}, errors.New("no data columns found on raw_data")
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return Summary{}, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		slog.Warn("no csv files to load", "dir", dir)
		return Summary{}, nil
	}

	summary := Summary{FilesFound: len(files)}
	slog.Info("loading measurement files", "dir", dir, "files", len(files))

	for _, path := range files {
		result := s.loadFile(ctx, columns, path)
		s.recordLoad(ctx, filepath.Base(path), result)
		if result.err != nil {
			slog.Error("failed to load file", "file", filepath.Base(path), "error", result.err)
			summary.FilesFailed++
			continue
		}
		summary.FilesLoaded++
		summary.RowsLoaded += result.loaded
		summary.RowsDropped += result.dropped
		slog.Info("file loaded",
			"file", filepath.Base(path), "rows", result.loaded, "dropped", result.dropped)
	}

	slog.Info("ingestion complete",
		"files", summary.FilesFound, "loaded", summary.FilesLoaded,
		"failed", summary.FilesFailed, "rows", summary.RowsLoaded, "dropped", summary.RowsDropped)
	return summary, nil
}

// recordLoad appends the file outcome to the audit trail. The load itself
// already succeeded or failed, so a broken trail only warrants a warning.
func (s *Service) recordLoad(ctx context.Context, name string, result fileResult) {
	if s.logs == nil {
		return
	}
	entry := domain.IngestionLogEntry{
		FileName:    name,
		Status:      domain.FileLoadLoaded,
		RowsLoaded:  result.loaded,
		RowsDropped: result.dropped,
	}
	if result.err != nil {
		entry.Status = domain.FileLoadFailed
		entry.Detail = result.err.Error()
	}
	if err := s.logs.Record(ctx, entry); err != nil {
		slog.Warn("failed to record file load", "file", name, "error", err)
	}
}

func (s *Service) loadFile(ctx context.Context, columns []string, path string) fileResult {
	file, err := os.Open(path)
	if err != nil {
		return fileResult{err: fmt.Errorf("failed to open: %w", err)}
	}
	defer file.Close()

	// Exports arrive windows-1252 encoded with semicolon separators and a
	// single header line.
	reader := csv.NewReader(charmap.Windows1252.NewDecoder().Reader(file))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return fileResult{err: fmt.Errorf("failed to parse: %w", err)}
	}
	if len(records) <= 1 {
		slog.Warn("file carries no data rows", "file", filepath.Base(path))
		return fileResult{}
	}

	// Data rows bind to the staging columns by position, the header line is
	// discarded.
	records = records[1:]
	if len(records[0]) != len(columns) {
		return fileResult{err: fmt.Errorf("column count mismatch: expected %d, found %d",
			len(columns), len(records[0]))}
	}

	rows := make([][]any, 0, len(records))
	dropped := 0
	for _, record := range records {
		row, ok := cleanRecord(columns, record)
		if !ok {
			dropped++
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		slog.Warn("file has no valid rows after cleaning", "file", filepath.Base(path))
		return fileResult{dropped: dropped}
	}

	var loaded int64
	err = s.runner.WithTx(ctx, func(tx pgx.Tx) error {
		n, copyErr := s.raw.CopyIn(ctx, tx, columns, rows)
		loaded = n
		return copyErr
	})
	if err != nil {
		return fileResult{err: err}
	}

	return fileResult{loaded: loaded, dropped: dropped}
}

// cleanRecord turns one csv record into typed column values. The whole row
// is discarded when its timestamp does not parse or when any measurement is
// missing, non-numeric or zero: a zero means the logger had no reading.
func cleanRecord(columns []string, record []string) ([]any, bool) {
	if len(record) != len(columns) {
		return nil, false
	}

	row := make([]any, len(columns))
	for i, col := range columns {
		raw := strings.TrimSpace(record[i])

		if col == domain.TimestampColumn {
			ts, err := parseTimestamp(raw)
			if err != nil {
				return nil, false
			}
			row[i] = ts
			continue
		}

		value, err := domain.ParseMeasurement(raw)
		if err != nil || value.IsZero() {
			return nil, false
		}
		var n pgtype.Numeric
		if err := n.Scan(value.String()); err != nil {
			return nil, false
		}
		row[i] = n
	}
	return row, true
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
