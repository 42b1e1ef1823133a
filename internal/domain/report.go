package domain

import "time"

// ErrorReportRow is one aggregated line of the daily error report: every
// failure recorded against the same measurement timestamp, with rule ids,
// columns and offending values collapsed into comma lists.
type ErrorReportRow struct {
	Timestamp time.Time
	RuleIDs   string
	Columns   string
	Values    string
}
