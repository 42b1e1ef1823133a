// Package exclusion maintains plant exclusion windows: loading them from the
// operations workbook and purging excluded instants from validated data.
package exclusion

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/plantops/dataquality/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// workbookColumns are the canonical headers the operations team fills in,
// matched case-insensitively.
var workbookColumns = []string{
	"start_date", "start_time", "end_date", "end_time",
	"exclusion", "reason", "peak_power_kw",
}

var stampLayouts = []string{
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04",
}

// ReadWorkbook expands every exclusion window in the sheet into per-second
// records. A row with an unreadable window or flag is logged and skipped so
// one bad form entry cannot block the rest. An empty sheet name selects the
// workbook's first sheet.
func ReadWorkbook(path, sheet string) ([]domain.ExclusionRecord, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer book.Close()

	if sheet == "" {
		sheet = book.GetSheetName(0)
	}
	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	index, err := resolveHeader(rows[0])
	if err != nil {
		return nil, err
	}

	var records []domain.ExclusionRecord
	for i, row := range rows[1:] {
		// Sheet rows are 1-based and the header occupies row 1.
		sheetRow := i + 2

		start, err := parseStamp(cellAt(row, index["start_date"]), cellAt(row, index["start_time"]))
		if err != nil {
			slog.Warn("skipping workbook row: bad start", "row", sheetRow, "error", err)
			continue
		}
		end, err := parseStamp(cellAt(row, index["end_date"]), cellAt(row, index["end_time"]))
		if err != nil {
			slog.Warn("skipping workbook row: bad end", "row", sheetRow, "error", err)
			continue
		}

		flag, err := strconv.Atoi(strings.TrimSpace(cellAt(row, index["exclusion"])))
		if err != nil {
			slog.Warn("skipping workbook row: bad exclusion flag", "row", sheetRow, "error", err)
			continue
		}

		peak := decimal.NullDecimal{}
		if value, err := domain.ParseMeasurement(strings.TrimSpace(cellAt(row, index["peak_power_kw"]))); err == nil {
			peak = decimal.NullDecimal{Decimal: value, Valid: true}
		}
		reason := strings.TrimSpace(cellAt(row, index["reason"]))

		for ts := start; !ts.After(end); ts = ts.Add(time.Second) {
			records = append(records, domain.ExclusionRecord{
				ExcludedAt:  ts,
				PeakPowerKW: peak,
				Exclusion:   flag,
				Reason:      reason,
			})
		}
	}

	return records, nil
}

// resolveHeader maps each canonical column to its position in the sheet.
func resolveHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(workbookColumns))
	for pos, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		if _, taken := index[name]; taken {
			continue
		}
		index[name] = pos
	}

	var missing []string
	for _, name := range workbookColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Join(domain.ErrConfiguration,
			fmt.Errorf("workbook is missing columns: %s", strings.Join(missing, ", ")))
	}
	return index, nil
}

func cellAt(row []string, pos int) string {
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return row[pos]
}

func parseStamp(date, clock string) (time.Time, error) {
	combined := strings.TrimSpace(date) + " " + strings.TrimSpace(clock)
	for _, layout := range stampLayouts {
		if ts, err := time.Parse(layout, combined); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date/time %q", combined)
}
