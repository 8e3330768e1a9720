package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/docstruct/internal/core/domain"
)

// Structurer runs the document-structuring pipeline.
type Structurer interface {
	// Extract fuses the document's layout sources into a canonical artifact.
	Extract(ctx context.Context, docID string, force bool) (*StageResult, error)

	// Merge repairs fragmented paragraphs in the artifact.
	Merge(ctx context.Context, docID string, force bool) (*StageResult, error)

	// Divide writes the head/body/tail region division.
	Divide(ctx context.Context, docID string, force bool) (*StageResult, error)

	// Run executes extract, then every configured pipeline stage.
	Run(ctx context.Context, docID string, force bool) ([]StageResult, error)

	// Status returns the persisted state of a document.
	Status(ctx context.Context, docID string) (*DocumentStatus, error)

	// Document returns the canonical artifact.
	Document(ctx context.Context, docID string) (*domain.Document, error)

	// List returns the ids of documents present in the workspace.
	List(ctx context.Context) ([]string, error)
}

// StageResult reports one stage application.
type StageResult struct {
	// RunID identifies the entry in the processing log.
	RunID string

	// DocID is the document id.
	DocID string

	// Stage is the stage name.
	Stage string

	// Skipped is true when the document was already at or past the stage.
	Skipped bool

	// ParseStage is the document's stage after the run.
	ParseStage domain.ParseStage

	// ElementsBefore and ElementsAfter are the element counts around the run.
	ElementsBefore int
	ElementsAfter  int

	// Warnings are the non-fatal conditions raised.
	Warnings []domain.Warning
}

// DocumentStatus summarises a document's persisted state.
type DocumentStatus struct {
	DocID          string
	Title          string
	ParseStage     domain.ParseStage
	Language       string
	TotalPages     int
	TotalElements  int
	RegionDivision *domain.RegionDivision
	LastRun        *domain.StageRun
	HasArtifact    bool
}

// BatchOptions control a multi-document run.
type BatchOptions struct {
	// Force re-applies stages already completed.
	Force bool

	// Workers overrides the configured worker count when > 0.
	Workers int

	// Stage limits the run to one stage: "extract", "merge", "divide",
	// or "" for the full pipeline.
	Stage string
}

// BatchResult summarises a multi-document run.
type BatchResult struct {
	Total     int
	Succeeded int
	Skipped   int
	Failed    int
	Elapsed   time.Duration
	Failures  map[string]error
}

// BatchRunner processes many documents concurrently.
type BatchRunner interface {
	// RunAll processes every id. Per-document failures do not stop
	// the batch; they are collected in the result and joined in the error.
	RunAll(ctx context.Context, docIDs []string, opts BatchOptions) (*BatchResult, error)
}

// WorkspaceFetcher pulls a document's layout output from object storage
// into the local workspace.
type WorkspaceFetcher interface {
	// Fetch downloads the document's source files. Returns the file count.
	Fetch(ctx context.Context, docID string) (int, error)

	// Remote lists the document ids available in object storage.
	Remote(ctx context.Context) ([]string, error)
}

// WorkspaceWatcher re-runs the pipeline for documents whose layout
// output changes on disk.
type WorkspaceWatcher interface {
	// Start watches until ctx is cancelled or Stop is called. It blocks.
	Start(ctx context.Context) error

	// Stop ends a running watch and waits for in-flight runs.
	Stop() error

	// Ready is closed once the workspace is being watched.
	Ready() <-chan struct{}
}
