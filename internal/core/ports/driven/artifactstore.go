package driven

import (
	"context"

	"github.com/custodia-labs/docstruct/internal/core/domain"
)

// ArtifactStore persists canonical document artifacts.
// Save must replace atomically: a failed save leaves the previous
// artifact untouched.
type ArtifactStore interface {
	// Load retrieves a document by id.
	// Returns domain.ErrNotFound if no artifact exists.
	Load(ctx context.Context, docID string) (*domain.Document, error)

	// Save stores or replaces the document's artifact.
	Save(ctx context.Context, doc *domain.Document) error

	// Exists reports whether an artifact exists for the id.
	Exists(ctx context.Context, docID string) (bool, error)

	// List returns ids of all stored artifacts in lexical order.
	List(ctx context.Context) ([]string, error)
}

// ProcessingLog records stage runs and their warnings.
type ProcessingLog interface {
	// Record stores a run with its warnings.
	Record(ctx context.Context, run domain.StageRun) error

	// Runs returns a document's runs, oldest first.
	Runs(ctx context.Context, docID string) ([]domain.StageRun, error)

	// Latest returns the most recent run for a document.
	// Returns domain.ErrNotFound if the document has no runs.
	Latest(ctx context.Context, docID string) (*domain.StageRun, error)
}

// StageNotifier publishes an event after a stage advances a document.
type StageNotifier interface {
	// Notify publishes the event.
	Notify(ctx context.Context, event domain.StageEvent) error

	// Close releases the underlying connection.
	Close() error
}
