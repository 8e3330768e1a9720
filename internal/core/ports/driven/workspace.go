package driven

import (
	"context"

	"github.com/custodia-labs/docstruct/internal/core/domain"
)

// Workspace reads the layout parser's per-document output.
// The core only reads from the workspace, never writes.
type Workspace interface {
	// ListDocuments returns document ids in lexical order.
	ListDocuments(ctx context.Context) ([]string, error)

	// ReadSources returns the layout JSON files for a document.
	// Returns domain.ErrNotFound if the document directory does not exist.
	ReadSources(ctx context.Context, docID string) ([]domain.SourceFile, error)

	// DocDir returns the document's working directory. Relative image
	// paths in the layout output resolve against it.
	DocDir(docID string) string

	// PDFPath returns the path of the original PDF, or "" if absent.
	PDFPath(docID string) string

	// Root returns the workspace root directory.
	Root() string
}

// WorkspaceMirror copies a document's layout output from remote storage
// into the local workspace.
type WorkspaceMirror interface {
	// Fetch downloads the document's source files into destDir.
	// Returns the number of files written.
	Fetch(ctx context.Context, docID, destDir string) (int, error)

	// ListDocuments returns remote document ids.
	ListDocuments(ctx context.Context) ([]string, error)
}
