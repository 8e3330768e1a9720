package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driving"
)

func newTestServer(t *testing.T, m *mockStructurer) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Structurer: m})
	require.NoError(t, err)
	return server
}

func TestServer_handleStructure(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stage results", func(t *testing.T) {
		m := &mockStructurer{
			results: []driving.StageResult{
				{DocID: "paper", Stage: "extract", ParseStage: domain.StageLayoutParsed, ElementsAfter: 9},
				{DocID: "paper", Stage: "merge", ParseStage: domain.StageFragmentMerged, ElementsBefore: 9, ElementsAfter: 8},
				{
					DocID: "paper", Stage: "divide", ParseStage: domain.StageRegionDivided,
					ElementsBefore: 8, ElementsAfter: 8,
					Warnings: []domain.Warning{
						domain.NewWarning(domain.WarnRegionNotFound, "divide", "no body title found"),
					},
				},
			},
		}
		server := newTestServer(t, m)

		_, output, err := server.handleStructure(ctx, nil, StructureInput{DocID: "paper", Force: true})

		require.NoError(t, err)
		assert.Equal(t, "paper", m.lastID)
		assert.True(t, m.lastForce)
		assert.Equal(t, "region_divided", output.ParseStage)
		require.Len(t, output.Stages, 3)
		assert.Equal(t, "merge", output.Stages[1].Stage)
		assert.Equal(t, 9, output.Stages[1].ElementsBefore)
		assert.Equal(t, 8, output.Stages[1].ElementsAfter)
		assert.Equal(t, []string{"[region_not_found] no body title found"}, output.Stages[2].Warnings)
	})

	t.Run("requires doc id", func(t *testing.T) {
		server := newTestServer(t, &mockStructurer{})

		_, _, err := server.handleStructure(ctx, nil, StructureInput{})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		m := &mockStructurer{err: domain.NewDocumentError("paper", "extract", domain.ErrMissingSource)}
		server := newTestServer(t, m)

		_, _, err := server.handleStructure(ctx, nil, StructureInput{DocID: "paper"})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMissingSource)
	})
}

func TestServer_handleStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("returns status with regions and last run", func(t *testing.T) {
		rd := domain.NewRegionDivision(2, 5, 6)
		started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		m := &mockStructurer{
			status: &driving.DocumentStatus{
				DocID:          "paper",
				Title:          "A Paper",
				ParseStage:     domain.StageRegionDivided,
				Language:       "en",
				TotalPages:     2,
				TotalElements:  6,
				RegionDivision: &rd,
				HasArtifact:    true,
				LastRun: &domain.StageRun{
					Stage:      "divide",
					Status:     domain.RunApplied,
					StartedAt:  started,
					FinishedAt: started.Add(time.Second),
				},
			},
		}
		server := newTestServer(t, m)

		_, output, err := server.handleStatus(ctx, nil, DocumentInput{DocID: "paper"})

		require.NoError(t, err)
		assert.True(t, output.HasArtifact)
		assert.Equal(t, "region_divided", output.ParseStage)
		assert.Equal(t, 6, output.TotalElements)
		require.NotNil(t, output.RegionDivision)
		assert.Equal(t, [2]int{2, 5}, output.RegionDivision.Body)
		require.NotNil(t, output.LastRun)
		assert.Equal(t, "applied", output.LastRun.Status)
	})

	t.Run("document without artifact", func(t *testing.T) {
		m := &mockStructurer{status: &driving.DocumentStatus{DocID: "fresh"}}
		server := newTestServer(t, m)

		_, output, err := server.handleStatus(ctx, nil, DocumentInput{DocID: "fresh"})

		require.NoError(t, err)
		assert.False(t, output.HasArtifact)
		assert.Empty(t, output.ParseStage)
		assert.Nil(t, output.RegionDivision)
	})

	t.Run("not found", func(t *testing.T) {
		m := &mockStructurer{err: domain.ErrNotFound}
		server := newTestServer(t, m)

		_, _, err := server.handleStatus(ctx, nil, DocumentInput{DocID: "missing"})

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestServer_handleRegions(t *testing.T) {
	ctx := context.Background()

	t.Run("body region", func(t *testing.T) {
		server := newTestServer(t, &mockStructurer{doc: dividedDocument()})

		_, output, err := server.handleRegions(ctx, nil, RegionsInput{DocID: "paper", Region: "body"})

		require.NoError(t, err)
		assert.Equal(t, [2]int{0, 2}, output.Regions.Head)
		assert.Equal(t, 3, output.Count)
		assert.False(t, output.Truncated)
		require.Len(t, output.Elements, 3)
		assert.Equal(t, 2, output.Elements[0].ID)
		assert.Equal(t, "1 Introduction", output.Elements[0].Text)
		assert.Equal(t, "body", output.Elements[0].Region)
		assert.Equal(t, "title", output.Elements[0].Type)
	})

	t.Run("region name is case insensitive", func(t *testing.T) {
		server := newTestServer(t, &mockStructurer{doc: dividedDocument()})

		_, output, err := server.handleRegions(ctx, nil, RegionsInput{DocID: "paper", Region: "TAIL"})

		require.NoError(t, err)
		require.Len(t, output.Elements, 1)
		assert.Equal(t, "References", output.Elements[0].Text)
	})

	t.Run("all regions with limit", func(t *testing.T) {
		server := newTestServer(t, &mockStructurer{doc: dividedDocument()})

		_, output, err := server.handleRegions(ctx, nil, RegionsInput{DocID: "paper", Limit: 4})

		require.NoError(t, err)
		assert.Equal(t, 4, output.Count)
		assert.True(t, output.Truncated)
		assert.Equal(t, "head", output.Elements[0].Region)
		assert.Equal(t, "body", output.Elements[3].Region)
	})

	t.Run("unknown region", func(t *testing.T) {
		server := newTestServer(t, &mockStructurer{doc: dividedDocument()})

		_, _, err := server.handleRegions(ctx, nil, RegionsInput{DocID: "paper", Region: "appendix"})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("document not divided", func(t *testing.T) {
		doc := dividedDocument()
		doc.Metadata.RegionDivision = nil
		server := newTestServer(t, &mockStructurer{doc: doc})

		_, _, err := server.handleRegions(ctx, nil, RegionsInput{DocID: "paper"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "not been divided")
	})

	t.Run("requires doc id", func(t *testing.T) {
		server := newTestServer(t, &mockStructurer{})

		_, _, err := server.handleRegions(ctx, nil, RegionsInput{})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleList(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ids", func(t *testing.T) {
		server := newTestServer(t, &mockStructurer{ids: []string{"a", "b"}})

		_, output, err := server.handleList(ctx, nil, struct{}{})

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, output.Documents)
		assert.Equal(t, 2, output.Count)
	})

	t.Run("empty workspace", func(t *testing.T) {
		server := newTestServer(t, &mockStructurer{})

		_, output, err := server.handleList(ctx, nil, struct{}{})

		require.NoError(t, err)
		assert.NotNil(t, output.Documents)
		assert.Equal(t, 0, output.Count)
	})

	t.Run("error", func(t *testing.T) {
		server := newTestServer(t, &mockStructurer{err: errors.New("disk gone")})

		_, _, err := server.handleList(ctx, nil, struct{}{})

		assert.EqualError(t, err, "disk gone")
	})
}
