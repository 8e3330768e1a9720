package driven

import (
	"context"

	"github.com/custodia-labs/docstruct/internal/core/domain"
)

// SchemaAdapter reads one layout source format into raw blocks.
// Adapters must tolerate missing optional fields and unknown block types;
// only unparseable JSON or an unrecognised top-level shape is an error.
type SchemaAdapter interface {
	// Name returns the schema name recorded on element provenance.
	Name() string

	// Priority returns the fusion priority.
	// Higher values win when several sources describe the same block:
	//   - 90-100: Post-processed content lists
	//   - 50-89: Lean content lists and layout dumps
	//   - 1-49: Raw model output
	Priority() int

	// Matches reports whether the adapter handles the given file name.
	Matches(filename string) bool

	// Parse adapts the file content.
	// Returns *domain.SchemaMismatchError when the shape is not recognised.
	Parse(data []byte) (*domain.SourceBlocks, error)
}

// SchemaRegistry selects the adapters for a document's source files.
type SchemaRegistry interface {
	// Register adds an adapter to the registry.
	Register(adapter SchemaAdapter)

	// Adapt runs the matching adapter over each file. Files that fail to
	// adapt are excluded and reported as warnings.
	// Results are ordered by descending priority.
	Adapt(ctx context.Context, files []domain.SourceFile) ([]domain.SourceBlocks, []domain.Warning)

	// Schemas returns registered adapter names in priority order.
	Schemas() []string
}
