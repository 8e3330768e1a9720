package domain

import "time"

// RunStatus is the outcome of one stage application.
type RunStatus string

// Run statuses.
const (
	RunApplied RunStatus = "applied"
	RunSkipped RunStatus = "skipped"
	RunFailed  RunStatus = "failed"
)

// StageRun is one entry in a document's processing log.
type StageRun struct {
	// ID is a unique run identifier.
	ID string

	// DocID is the document the stage ran on.
	DocID string

	// Stage is the stage name (extract, merge, divide).
	Stage string

	// Status is the outcome.
	Status RunStatus

	// ElementsBefore is the element count entering the stage.
	ElementsBefore int

	// ElementsAfter is the element count leaving the stage.
	ElementsAfter int

	// Error holds the failure text for failed runs.
	Error string

	// Warnings are the non-fatal conditions raised by the run.
	Warnings []Warning

	// StartedAt is when the stage began.
	StartedAt time.Time

	// FinishedAt is when the stage ended.
	FinishedAt time.Time
}

// Duration returns the wall-clock time the run took.
func (r StageRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// StageEvent is published after a stage advances a document.
type StageEvent struct {
	DocID         string    `json:"doc_id"`
	Stage         string    `json:"stage"`
	RunID         string    `json:"run_id"`
	TotalElements int       `json:"total_elements"`
	At            time.Time `json:"at"`
}
