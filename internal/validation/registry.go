// Package validation evaluates claimed measurement rows against the active
// rule catalog.
package validation

import (
	"fmt"

	"github.com/plantops/dataquality/internal/domain"

	"github.com/shopspring/decimal"
)

// Predicate checks one measurement value against a rule configuration. A
// returned error means the configuration itself is unusable, not that the
// value failed the check.
type Predicate func(value decimal.Decimal, cfg domain.RuleConfig) (bool, error)

// predicates holds the executable rule types. Rules whose type has no entry
// here are skipped during evaluation, which lets the catalog carry rule
// definitions ahead of their implementation.
var predicates = map[domain.RuleType]Predicate{
	domain.RuleTypeRange: rangePredicate,
}

// PredicateFor returns the check registered for a rule type.
func PredicateFor(t domain.RuleType) (Predicate, bool) {
	p, ok := predicates[t]
	return p, ok
}

// rangePredicate passes values inside the inclusive [min, max] interval.
func rangePredicate(value decimal.Decimal, cfg domain.RuleConfig) (bool, error) {
	minVal, err := configDecimal(cfg, "min")
	if err != nil {
		return false, err
	}
	maxVal, err := configDecimal(cfg, "max")
	if err != nil {
		return false, err
	}
	return value.GreaterThanOrEqual(minVal) && value.LessThanOrEqual(maxVal), nil
}

func configDecimal(cfg domain.RuleConfig, key string) (decimal.Decimal, error) {
	raw, ok := cfg[key]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("rule config is missing %q", key)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("rule config %q is not a number: %w", key, err)
	}
	return d, nil
}
