package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driven"
)

// Ensure ProcessingLog implements the interface.
var _ driven.ProcessingLog = (*ProcessingLog)(nil)

// ProcessingLog is an in-memory implementation of driven.ProcessingLog.
type ProcessingLog struct {
	mu   sync.RWMutex
	runs map[string][]domain.StageRun
}

// NewProcessingLog creates an empty log.
func NewProcessingLog() *ProcessingLog {
	return &ProcessingLog{
		runs: make(map[string][]domain.StageRun),
	}
}

// Record appends a run.
func (l *ProcessingLog) Record(_ context.Context, run domain.StageRun) error {
	if run.DocID == "" {
		return domain.ErrInvalidInput
	}
	run.Warnings = append([]domain.Warning(nil), run.Warnings...)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs[run.DocID] = append(l.runs[run.DocID], run)
	return nil
}

// Runs returns a document's runs, oldest first.
func (l *ProcessingLog) Runs(_ context.Context, docID string) ([]domain.StageRun, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.StageRun(nil), l.runs[docID]...), nil
}

// Latest returns the most recent run.
func (l *ProcessingLog) Latest(_ context.Context, docID string) (*domain.StageRun, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	runs := l.runs[docID]
	if len(runs) == 0 {
		return nil, domain.ErrNotFound
	}
	run := runs[len(runs)-1]
	return &run, nil
}
