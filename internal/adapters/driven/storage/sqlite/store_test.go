package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstruct/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "docstruct-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

func TestNewStore_ErrorHandling(t *testing.T) {
	store, err := NewStore("/dev/null/cannot/create")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewStore_Success(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.Equal(t, DatabaseFile, filepath.Base(store.Path()))
	_, err := os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_Migrations(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	for _, table := range []string{"stage_runs", "stage_warnings"} {
		var name string
		err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestNewStore_Reopen(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.ProcessingLog().Record(context.Background(), domain.StageRun{
		ID: "r1", DocID: "d", Stage: "extract", Status: domain.RunApplied,
	}))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	runs, err := second.ProcessingLog().Runs(context.Background(), "d")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestNewStore_ForeignKeysEnabled(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.db.Exec(`INSERT INTO stage_warnings (run_id, position, code, stage, message)
		VALUES ('missing', 0, 'x', 'y', 'z')`)
	assert.Error(t, err)
}

func TestProcessingLog_RecordAndRuns(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	log := store.ProcessingLog()
	ctx := context.Background()

	start := time.Date(2025, 3, 1, 10, 0, 0, 123, time.UTC)
	warnings := []domain.Warning{
		domain.NewWarning(domain.WarnSchemaMismatch, "extract", "bad file %s", "x_model.json"),
		{Code: domain.WarnImageUnmatched, Stage: "extract", Message: "no image", ElementID: 4},
	}
	require.NoError(t, log.Record(ctx, domain.StageRun{
		ID: "r1", DocID: "paper", Stage: "extract", Status: domain.RunApplied,
		ElementsAfter: 12, Warnings: warnings, StartedAt: start, FinishedAt: start.Add(time.Second),
	}))
	require.NoError(t, log.Record(ctx, domain.StageRun{
		ID: "r2", DocID: "paper", Stage: "merge", Status: domain.RunFailed,
		ElementsBefore: 12, Error: "boom", StartedAt: start, FinishedAt: start,
	}))
	require.NoError(t, log.Record(ctx, domain.StageRun{ID: "r3", DocID: "other", Stage: "extract", Status: domain.RunSkipped}))

	runs, err := log.Runs(ctx, "paper")
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "r1", runs[0].ID)
	assert.Equal(t, domain.RunApplied, runs[0].Status)
	assert.Equal(t, 12, runs[0].ElementsAfter)
	assert.Equal(t, warnings, runs[0].Warnings)
	assert.True(t, start.Equal(runs[0].StartedAt))
	assert.Equal(t, time.Second, runs[0].Duration())

	assert.Equal(t, domain.RunFailed, runs[1].Status)
	assert.Equal(t, "boom", runs[1].Error)
	assert.Empty(t, runs[1].Warnings)
}

func TestProcessingLog_Latest(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	log := store.ProcessingLog()
	ctx := context.Background()

	_, err := log.Latest(ctx, "paper")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for _, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, log.Record(ctx, domain.StageRun{ID: id, DocID: "paper", Stage: "merge", Status: domain.RunApplied}))
	}

	latest, err := log.Latest(ctx, "paper")
	require.NoError(t, err)
	assert.Equal(t, "r3", latest.ID)
}

func TestProcessingLog_Validation(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	log := store.ProcessingLog()
	ctx := context.Background()

	assert.ErrorIs(t, log.Record(ctx, domain.StageRun{DocID: "d"}), domain.ErrInvalidInput)
	assert.ErrorIs(t, log.Record(ctx, domain.StageRun{ID: "r"}), domain.ErrInvalidInput)

	require.NoError(t, log.Record(ctx, domain.StageRun{ID: "dup", DocID: "d"}))
	assert.Error(t, log.Record(ctx, domain.StageRun{ID: "dup", DocID: "d"}))
}

func TestProcessingLog_ConcurrentWriters(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	log := store.ProcessingLog()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			run := domain.StageRun{ID: "run-" + string(rune('a'+n)), DocID: "doc-" + string(rune('a'+n)), Stage: "extract"}
			assert.NoError(t, log.Record(ctx, run))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		runs, err := log.Runs(ctx, "doc-"+string(rune('a'+i)))
		require.NoError(t, err)
		assert.Len(t, runs, 1)
	}
}
