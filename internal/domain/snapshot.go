package domain

import "sort"

// RuleSnapshot is the immutable rule view one run evaluates against. Fields
// iterate in sorted order and rules within a field in ascending id order, so
// repeated runs over the same data report errors identically.
type RuleSnapshot struct {
	fields []string
	rules  map[string][]ValidationRule
}

// NewRuleSnapshot indexes rules by target column.
func NewRuleSnapshot(rules []ValidationRule) RuleSnapshot {
	byField := make(map[string][]ValidationRule, len(rules))
	for _, rule := range rules {
		byField[rule.ColumnName] = append(byField[rule.ColumnName], rule)
	}
	fields := make([]string, 0, len(byField))
	for field := range byField {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		ordered := byField[field]
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
		byField[field] = ordered
	}
	return RuleSnapshot{fields: fields, rules: byField}
}

// Fields lists the columns carrying at least one rule, sorted. Callers must
// not mutate the returned slice.
func (s RuleSnapshot) Fields() []string {
	return s.fields
}

// RulesFor returns the ordered rules bound to one column.
func (s RuleSnapshot) RulesFor(field string) []ValidationRule {
	return s.rules[field]
}

// Empty reports whether the snapshot carries no rules at all.
func (s RuleSnapshot) Empty() bool {
	return len(s.fields) == 0
}

// Len returns the total rule count across all fields.
func (s RuleSnapshot) Len() int {
	n := 0
	for _, rules := range s.rules {
		n += len(rules)
	}
	return n
}
