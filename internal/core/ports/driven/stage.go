package driven

import (
	"context"

	"github.com/custodia-labs/docstruct/internal/core/domain"
)

// Stage transforms a canonical document in place.
// Stages are chained in a pipeline (e.g., merge, divide).
type Stage interface {
	// Name returns the stage name for logging and configuration.
	Name() string

	// Target returns the parse stage the document reaches after Apply.
	Target() domain.ParseStage

	// Apply transforms the document and returns non-fatal warnings.
	// Apply must not touch the document when it returns an error.
	Apply(ctx context.Context, doc *domain.Document) ([]domain.Warning, error)
}
