package ledger

import "time"

// Classification is the duplicate classifier's verdict for a collision pair.
type Classification string

const (
	ClassIdentical Classification = "identical"
	ClassDifferent Classification = "different"
)

// Resolution is the state of a duplicate entry in the resolution machine.
// Entries start Unresolved; identical pairs are pre-marked for deletion to
// minimize review effort; a decision moves an entry to exactly one terminal
// resolution.
type Resolution string

const (
	ResolutionUnresolved   Resolution = "unresolved"
	ResolutionSkip         Resolution = "skip"
	ResolutionReplace      Resolution = "replace"
	ResolutionDeleteSource Resolution = "delete-source"
	ResolutionDeleteMarked Resolution = "delete-marked"
)

// Terminal reports whether r is an applicable filesystem decision.
func (r Resolution) Terminal() bool {
	switch r {
	case ResolutionSkip, ResolutionReplace, ResolutionDeleteSource, ResolutionDeleteMarked:
		return true
	default:
		return false
	}
}

// DuplicateEntry records one collision pair: a source file whose planned
// destination slot was already occupied.
type DuplicateEntry struct {
	ID             int64
	RunID          string
	SourcePath     string
	DestPath       string
	Classification Classification
	Resolution     Resolution
	SourceSize     int64
	DestSize       int64
	Applied        bool
	CreatedAt      time.Time
	ResolvedAt     time.Time
}

// OutcomeStatus is the terminal per-file audit record status.
type OutcomeStatus string

const (
	OutcomeMoved            OutcomeStatus = "moved"
	OutcomeCopied           OutcomeStatus = "copied"
	OutcomeSkippedDuplicate OutcomeStatus = "skipped-duplicate"
	OutcomeFailed           OutcomeStatus = "failed"
)

// Outcome is the audit contract: exactly one exists per discovered file.
type Outcome struct {
	ID         int64
	RunID      string
	SourcePath string
	DestPath   string
	Status     OutcomeStatus
	Reason     string
	CreatedAt  time.Time
}
