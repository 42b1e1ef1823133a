package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DataStatus tracks a staging row through the validation lifecycle.
type DataStatus string

const (
	DataStatusPending    DataStatus = "pending"
	DataStatusProcessing DataStatus = "processing"
	DataStatusSuccess    DataStatus = "success"
	DataStatusError      DataStatus = "error"
)

// String returns the persisted enum label.
func (s DataStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is one of the persisted enum values.
func (s DataStatus) IsValid() bool {
	switch s {
	case DataStatusPending, DataStatusProcessing, DataStatusSuccess, DataStatusError:
		return true
	}
	return false
}

// TimestampColumn is the measurement timestamp column of the staging table.
const TimestampColumn = "timestamp"

// RawRow is one claimed staging row. Measurement values travel as text so
// NUMERIC(26,13) precision survives the trip into the evaluator; a nil entry
// is a SQL NULL. The timestamp appears typed for lifecycle checks and again
// as text under TimestampColumn so rules may target it like any other field.
type RawRow struct {
	ID        int64
	Timestamp *time.Time
	Values    map[string]*string
}

// ParseMeasurement parses a measurement string into an exact decimal.
// Source files write decimal commas, so a comma is accepted as the
// separator.
func ParseMeasurement(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
}
