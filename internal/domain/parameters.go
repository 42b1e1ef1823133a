package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlantParameters is the plant's operating envelope. Rule thresholds may
// reference it through $-placeholders instead of hard-coded values.
type PlantParameters struct {
	ID         int64
	PNom       decimal.Decimal
	PMax       decimal.Decimal
	QMin       decimal.Decimal
	QMax       decimal.Decimal
	ModifiedAt time.Time
}

// Placeholder resolves a $-token against the parameter set.
func (p PlantParameters) Placeholder(token string) (decimal.Decimal, bool) {
	switch token {
	case "$P_NOM":
		return p.PNom, true
	case "$P_MAX":
		return p.PMax, true
	case "$Q_MIN":
		return p.QMin, true
	case "$Q_MAX":
		return p.QMax, true
	}
	return decimal.Decimal{}, false
}
