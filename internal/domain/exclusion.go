package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExclusionRecord marks one second of plant time as excluded from the
// validated dataset. Records are keyed by their timestamp; reloading a
// request window overwrites the previous metadata for each second.
type ExclusionRecord struct {
	ExcludedAt  time.Time
	PeakPowerKW decimal.NullDecimal
	Exclusion   int
	Reason      string
}
