package domain

import "time"

// FileLoadStatus is the terminal outcome of loading one export file.
type FileLoadStatus string

const (
	FileLoadLoaded FileLoadStatus = "loaded"
	FileLoadFailed FileLoadStatus = "failed"
)

// String returns the persisted status label.
func (s FileLoadStatus) String() string {
	return string(s)
}

// IngestionLogEntry is one line of the file-load audit trail: which export
// file was read, how many rows survived cleaning and whether the load made it
// into staging. Detail carries the failure text for failed loads.
type IngestionLogEntry struct {
	ID          int64
	FileName    string
	Status      FileLoadStatus
	RowsLoaded  int64
	RowsDropped int
	Detail      string
	CreatedAt   time.Time
}
