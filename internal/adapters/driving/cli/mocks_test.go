package cli

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driving"
)

// mockStructurer implements driving.Structurer for testing.
type mockStructurer struct {
	mu       sync.Mutex
	calls    []string
	results  map[string]*driving.StageResult
	err      error
	ids      []string
	statuses map[string]*driving.DocumentStatus
	doc      *domain.Document
}

func newMockStructurer() *mockStructurer {
	return &mockStructurer{
		results:  make(map[string]*driving.StageResult),
		statuses: make(map[string]*driving.DocumentStatus),
	}
}

func (m *mockStructurer) record(op, docID string, force bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := op + " " + docID
	if force {
		call += " force"
	}
	m.calls = append(m.calls, call)
}

func (m *mockStructurer) stage(op, docID string, force bool) (*driving.StageResult, error) {
	m.record(op, docID, force)
	if m.err != nil {
		return nil, m.err
	}
	if r, ok := m.results[op]; ok {
		out := *r
		out.DocID = docID
		return &out, nil
	}
	return &driving.StageResult{DocID: docID, Stage: op}, nil
}

func (m *mockStructurer) Extract(_ context.Context, docID string, force bool) (*driving.StageResult, error) {
	return m.stage("extract", docID, force)
}

func (m *mockStructurer) Merge(_ context.Context, docID string, force bool) (*driving.StageResult, error) {
	return m.stage("merge", docID, force)
}

func (m *mockStructurer) Divide(_ context.Context, docID string, force bool) (*driving.StageResult, error) {
	return m.stage("divide", docID, force)
}

func (m *mockStructurer) Run(_ context.Context, docID string, force bool) ([]driving.StageResult, error) {
	m.record("run", docID, force)
	if m.err != nil {
		return nil, m.err
	}
	var out []driving.StageResult
	for _, op := range []string{"extract", "merge", "divide"} {
		r := driving.StageResult{DocID: docID, Stage: op}
		if res, ok := m.results[op]; ok {
			r = *res
			r.DocID = docID
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockStructurer) Status(_ context.Context, docID string) (*driving.DocumentStatus, error) {
	if s, ok := m.statuses[docID]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockStructurer) Document(_ context.Context, docID string) (*domain.Document, error) {
	if m.doc == nil || m.doc.Metadata.DocID != docID {
		return nil, domain.ErrNotFound
	}
	return m.doc, nil
}

func (m *mockStructurer) List(_ context.Context) ([]string, error) {
	return m.ids, nil
}

// mockBatchRunner implements driving.BatchRunner for testing.
type mockBatchRunner struct {
	ids    []string
	opts   driving.BatchOptions
	result *driving.BatchResult
	err    error
}

func (m *mockBatchRunner) RunAll(_ context.Context, docIDs []string, opts driving.BatchOptions) (*driving.BatchResult, error) {
	m.ids = docIDs
	m.opts = opts
	if m.result != nil {
		return m.result, m.err
	}
	return &driving.BatchResult{Total: len(docIDs), Succeeded: len(docIDs), Elapsed: time.Second}, m.err
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings    domain.Settings
	validateErr error
	setErr      error
	setKey      string
	setValue    any
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Validate() error {
	return m.validateErr
}

func (m *mockSettingsService) Set(key string, value any) error {
	m.setKey, m.setValue = key, value
	return m.setErr
}

func (m *mockSettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

func (m *mockSettingsService) GetPipelineConfig() domain.PipelineConfig {
	return m.settings.Pipeline
}

// mockFetcher implements driving.WorkspaceFetcher for testing.
type mockFetcher struct {
	remote  []string
	fetched []string
	errs    map[string]error
}

func (m *mockFetcher) Fetch(_ context.Context, docID string) (int, error) {
	if err := m.errs[docID]; err != nil {
		return 0, err
	}
	m.fetched = append(m.fetched, docID)
	return 3, nil
}

func (m *mockFetcher) Remote(_ context.Context) ([]string, error) {
	return m.remote, nil
}

// mockWatcher implements driving.WorkspaceWatcher. Start reports one
// processed document and returns.
type mockWatcher struct {
	onRun func(docID string, results []driving.StageResult, err error)
	ready chan struct{}
}

func (m *mockWatcher) Start(_ context.Context) error {
	close(m.ready)
	m.onRun("paper", []driving.StageResult{{DocID: "paper", Stage: "extract", ElementsAfter: 9}}, nil)
	return nil
}

func (m *mockWatcher) Stop() error {
	return nil
}

func (m *mockWatcher) Ready() <-chan struct{} {
	return m.ready
}

var (
	_ driving.Structurer       = (*mockStructurer)(nil)
	_ driving.BatchRunner      = (*mockBatchRunner)(nil)
	_ driving.SettingsService  = (*mockSettingsService)(nil)
	_ driving.WorkspaceFetcher = (*mockFetcher)(nil)
	_ driving.WorkspaceWatcher = (*mockWatcher)(nil)
)

// testServices are the mocks installed by setupTestServices.
type testServices struct {
	structurer *mockStructurer
	batch      *mockBatchRunner
	settings   *mockSettingsService
	fetcher    *mockFetcher
}

func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		structurer: newMockStructurer(),
		batch:      &mockBatchRunner{},
		settings:   &mockSettingsService{settings: domain.DefaultSettings()},
		fetcher:    &mockFetcher{},
	}

	oldStructurer, oldBatch, oldSettings, oldFetcher := structurer, batchRunner, settingsService, fetcher
	oldWatcher, oldRoot, oldBootstrap := newWatcher, workspaceRoot, bootstrap

	SetServices(&Services{
		Structurer: ts.structurer,
		Batch:      ts.batch,
		Settings:   ts.settings,
		Fetcher:    ts.fetcher,
		NewWatcher: func(onRun func(string, []driving.StageResult, error)) driving.WorkspaceWatcher {
			return &mockWatcher{onRun: onRun, ready: make(chan struct{})}
		},
		WorkspaceRoot: "/work",
	})
	bootstrap = nil

	return ts, func() {
		structurer, batchRunner, settingsService, fetcher = oldStructurer, oldBatch, oldSettings, oldFetcher
		newWatcher, workspaceRoot, bootstrap = oldWatcher, oldRoot, oldBootstrap
	}
}

// executeCommand runs the root command with args and returns its output.
// Flag values are reset first because cobra keeps them between runs.
func executeCommand(args ...string) (string, error) {
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
