package domain

// ErrorCode classifies a persisted validation failure. Predicate failures
// carry the violated rule's id; the synthetic categories carry no rule.
type ErrorCode string

const (
	ErrorCodeRuleViolation ErrorCode = "RULE_VIOLATION"
	ErrorCodeSystemRule    ErrorCode = "SYSTEM_RULE"
	ErrorCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	ErrorCodeMalformedRule ErrorCode = "MALFORMED_RULE"
)

// String returns the persisted code label.
func (c ErrorCode) String() string {
	return string(c)
}

// ValidationError is one failed check against one staging row, shaped for
// the validation_error_by_rules table.
type ValidationError struct {
	RawDataID int64
	RuleID    *int64
	Code      ErrorCode
	Column    string
	Value     string
}

// RowResult accumulates the outcome of evaluating a single row. A row with
// any error is rejected and its passed list is discarded; a clean row is
// promoted and the passed list becomes its audit trail.
type RowResult struct {
	RawDataID int64
	Errors    []ValidationError
	Passed    []int64
}

// Valid reports whether the row produced no errors.
func (r RowResult) Valid() bool {
	return len(r.Errors) == 0
}
