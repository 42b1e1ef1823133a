package validation

import (
	"fmt"
	"log/slog"

	"github.com/plantops/dataquality/internal/domain"
)

// Evaluate checks one claimed row against the snapshot. It returns every
// finding plus the ids of the rules the row satisfied. A row with findings
// never reaches the validated table, but its satisfied rules still come back
// so callers can decide what to keep.
func Evaluate(row domain.RawRow, snapshot domain.RuleSnapshot) domain.RowResult {
	result := domain.RowResult{RawDataID: row.ID}

	if row.Timestamp == nil {
		result.Errors = append(result.Errors, domain.ValidationError{
			RawDataID: row.ID,
			Code:      domain.ErrorCodeSystemRule,
			Column:    domain.TimestampColumn,
			Value:     "timestamp is null",
		})
	}

	for _, field := range snapshot.Fields() {
		raw, present := row.Values[field]
		if !present || raw == nil {
			continue
		}

		value, err := domain.ParseMeasurement(*raw)
		if err != nil {
			result.Errors = append(result.Errors, domain.ValidationError{
				RawDataID: row.ID,
				Code:      domain.ErrorCodeInvalidFormat,
				Column:    field,
				Value:     fmt.Sprintf("non-numeric value: '%s'", *raw),
			})
			continue
		}

		for _, rule := range snapshot.RulesFor(field) {
			predicate, registered := PredicateFor(rule.Type)
			if !registered {
				slog.Debug("skipping rule with no registered check",
					"rule_id", rule.ID, "rule_type", rule.Type.String())
				continue
			}

			passed, err := predicate(value, rule.Config)
			if err != nil {
				slog.Error("rule configuration is unusable",
					"rule_id", rule.ID, "column", field, "error", err)
				result.Errors = append(result.Errors, domain.ValidationError{
					RawDataID: row.ID,
					Code:      domain.ErrorCodeMalformedRule,
					Column:    field,
					Value:     "invalid rule configuration in the database",
				})
				continue
			}

			if !passed {
				ruleID := rule.ID
				result.Errors = append(result.Errors, domain.ValidationError{
					RawDataID: row.ID,
					RuleID:    &ruleID,
					Code:      domain.ErrorCodeRuleViolation,
					Column:    field,
					Value:     *raw,
				})
				continue
			}

			result.Passed = append(result.Passed, rule.ID)
		}
	}

	return result
}
