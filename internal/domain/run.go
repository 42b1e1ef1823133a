package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunOutcome is the terminal state of a validation run.
type RunOutcome string

const (
	// RunOutcomeDrained means the run stopped because no pending rows remain.
	RunOutcomeDrained RunOutcome = "DRAINED"
	// RunOutcomeNoRules means the run stopped before claiming because no
	// active rule exists.
	RunOutcomeNoRules RunOutcome = "NO_RULES"
	// RunOutcomeAborted means a store failure rolled back the current batch;
	// batches committed before it stand.
	RunOutcomeAborted RunOutcome = "ABORTED"
)

// String returns the outcome label.
func (o RunOutcome) String() string {
	return string(o)
}

// RunSummary reports what one coordinator run did.
type RunSummary struct {
	RunID      uuid.UUID
	Outcome    RunOutcome
	Batches    int
	Processed  int
	Valid      int
	Rejected   int
	StartedAt  time.Time
	FinishedAt time.Time
}
