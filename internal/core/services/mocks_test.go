package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docstruct/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driven"
	"github.com/custodia-labs/docstruct/internal/core/ports/driving"
)

// --- Workspace ---

// mockWorkspace implements driven.Workspace over in-memory files.
type mockWorkspace struct {
	root    string
	docs    map[string][]domain.SourceFile
	pdfs    map[string]string
	listErr error
}

func newMockWorkspace() *mockWorkspace {
	return &mockWorkspace{
		root: "/work",
		docs: make(map[string][]domain.SourceFile),
		pdfs: make(map[string]string),
	}
}

func (m *mockWorkspace) add(docID, name, data string) {
	m.docs[docID] = append(m.docs[docID], domain.SourceFile{
		Name: name,
		Path: filepath.Join(m.root, docID, name),
		Data: []byte(data),
	})
}

func (m *mockWorkspace) ListDocuments(_ context.Context) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockWorkspace) ReadSources(_ context.Context, docID string) ([]domain.SourceFile, error) {
	files, ok := m.docs[docID]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", docID, domain.ErrNotFound)
	}
	return files, nil
}

func (m *mockWorkspace) DocDir(docID string) string {
	return filepath.Join(m.root, docID)
}

func (m *mockWorkspace) PDFPath(docID string) string {
	return m.pdfs[docID]
}

func (m *mockWorkspace) Root() string {
	return m.root
}

// --- Artifact store ---

// flakyArtifacts fails saves on demand while keeping the stored copy.
type flakyArtifacts struct {
	*memory.ArtifactStore
	mu      sync.Mutex
	saveErr error
}

func (f *flakyArtifacts) setSaveErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveErr = err
}

func (f *flakyArtifacts) Save(ctx context.Context, doc *domain.Document) error {
	f.mu.Lock()
	err := f.saveErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.ArtifactStore.Save(ctx, doc)
}

// --- Notifier ---

// failingNotifier always fails to publish.
type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, domain.StageEvent) error {
	return fmt.Errorf("broker unavailable")
}

func (failingNotifier) Close() error { return nil }

// --- Mirror ---

// mockMirror implements driven.WorkspaceMirror.
type mockMirror struct {
	remote   []string
	files    int
	fetchErr error

	fetchedID  string
	fetchedDir string
}

func (m *mockMirror) Fetch(_ context.Context, docID, destDir string) (int, error) {
	m.fetchedID, m.fetchedDir = docID, destDir
	if m.fetchErr != nil {
		return 0, m.fetchErr
	}
	return m.files, nil
}

func (m *mockMirror) ListDocuments(_ context.Context) ([]string, error) {
	return m.remote, nil
}

// --- Structurer ---

// mockStructurer implements driving.Structurer and records calls.
type mockStructurer struct {
	mu       sync.Mutex
	calls    []structurerCall
	errs     map[string]error
	skipped  map[string]bool
	delay    time.Duration
	inFlight int
	maxSeen  int
}

type structurerCall struct {
	op    string
	docID string
	force bool
}

func newMockStructurer() *mockStructurer {
	return &mockStructurer{
		errs:    make(map[string]error),
		skipped: make(map[string]bool),
	}
}

func (m *mockStructurer) do(ctx context.Context, op, docID string, force bool) (*driving.StageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.calls = append(m.calls, structurerCall{op: op, docID: docID, force: force})
	m.inFlight++
	if m.inFlight > m.maxSeen {
		m.maxSeen = m.inFlight
	}
	err := m.errs[docID]
	skipped := m.skipped[docID]
	m.mu.Unlock()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()

	if err != nil {
		return nil, domain.NewDocumentError(docID, op, err)
	}
	return &driving.StageResult{DocID: docID, Stage: op, Skipped: skipped}, nil
}

func (m *mockStructurer) Extract(ctx context.Context, docID string, force bool) (*driving.StageResult, error) {
	return m.do(ctx, "extract", docID, force)
}

func (m *mockStructurer) Merge(ctx context.Context, docID string, force bool) (*driving.StageResult, error) {
	return m.do(ctx, "merge", docID, force)
}

func (m *mockStructurer) Divide(ctx context.Context, docID string, force bool) (*driving.StageResult, error) {
	return m.do(ctx, "divide", docID, force)
}

func (m *mockStructurer) Run(ctx context.Context, docID string, force bool) ([]driving.StageResult, error) {
	res, err := m.do(ctx, "run", docID, force)
	if err != nil {
		return nil, err
	}
	return []driving.StageResult{*res, *res}, nil
}

func (m *mockStructurer) Status(_ context.Context, docID string) (*driving.DocumentStatus, error) {
	return &driving.DocumentStatus{DocID: docID}, nil
}

func (m *mockStructurer) Document(_ context.Context, docID string) (*domain.Document, error) {
	return nil, fmt.Errorf("document %s: %w", docID, domain.ErrNotFound)
}

func (m *mockStructurer) List(_ context.Context) ([]string, error) {
	return nil, nil
}

func (m *mockStructurer) callsFor(op string) []structurerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []structurerCall
	for _, c := range m.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

// Interface checks for the mocks.
var (
	_ driven.Workspace       = (*mockWorkspace)(nil)
	_ driven.ArtifactStore   = (*flakyArtifacts)(nil)
	_ driven.StageNotifier   = failingNotifier{}
	_ driven.WorkspaceMirror = (*mockMirror)(nil)
	_ driving.Structurer     = (*mockStructurer)(nil)
)
