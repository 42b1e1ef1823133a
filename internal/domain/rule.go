package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// RuleType enumerates the rule kinds the schema admits. Only types with a
// registered predicate are evaluated; the others load and are skipped.
type RuleType string

const (
	RuleTypeNotNull            RuleType = "not_null"
	RuleTypeRange              RuleType = "range"
	RuleTypeNotPositiveInRange RuleType = "NOT_POSITIVE_IN_RANGE"
)

// String returns the persisted enum label.
func (t RuleType) String() string {
	return string(t)
}

// IsValid reports whether the type is one of the persisted enum values.
func (t RuleType) IsValid() bool {
	switch t {
	case RuleTypeNotNull, RuleTypeRange, RuleTypeNotPositiveInRange:
		return true
	}
	return false
}

// RuleConfig holds a rule's parameters as exact text keyed by name.
// Thresholds stay textual until a predicate parses them, so no precision is
// lost between the JSONB document and the decimal comparison.
type RuleConfig map[string]string

// RuleConfigFromJSON normalizes a persisted JSONB document into textual
// values. Numbers keep their exact source form, null entries are dropped.
func RuleConfigFromJSON(data []byte) (RuleConfig, error) {
	cfg := RuleConfig{}
	if len(data) == 0 {
		return cfg, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode rule config: %w", err)
	}
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			cfg[key] = v
		case json.Number:
			cfg[key] = v.String()
		case bool:
			cfg[key] = strconv.FormatBool(v)
		case nil:
		default:
			return nil, fmt.Errorf("rule config key %q: unsupported value type %T", key, value)
		}
	}
	return cfg, nil
}

// ValidationRule is one active row of validation_rules with its config
// decoded and placeholders resolved.
type ValidationRule struct {
	ID         int64
	ColumnName string
	Type       RuleType
	Config     RuleConfig
}

// RuleDefinition mirrors one entry of the declarative rules file.
type RuleDefinition struct {
	ColumnName   string          `json:"column_name"`
	RuleType     RuleType        `json:"rule_type"`
	RuleConfig   json.RawMessage `json:"rule_config,omitempty"`
	ErrorMessage string          `json:"error_message"`
	IsActive     *bool           `json:"is_active,omitempty"`
}

// Active returns the is_active flag, defaulting to true when absent.
func (d RuleDefinition) Active() bool {
	if d.IsActive == nil {
		return true
	}
	return *d.IsActive
}
