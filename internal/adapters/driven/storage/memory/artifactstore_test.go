package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstruct/internal/core/domain"
)

func sampleDoc(id string) *domain.Document {
	doc := &domain.Document{
		Metadata: domain.DocumentMetadata{DocID: id, ParseStage: domain.StageLayoutParsed},
		Elements: []domain.DocumentElement{
			{Type: domain.ElementTitle, Content: domain.Content{domain.ContentText: "Title"}},
		},
	}
	doc.Sync()
	return doc
}

func TestArtifactStore_SaveLoad(t *testing.T) {
	store := NewArtifactStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleDoc("b")))
	require.NoError(t, store.Save(ctx, sampleDoc("a")))

	doc, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", doc.Metadata.DocID)

	ok, err := store.Exists(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestArtifactStore_Isolation(t *testing.T) {
	store := NewArtifactStore()
	ctx := context.Background()
	doc := sampleDoc("a")
	require.NoError(t, store.Save(ctx, doc))

	doc.Elements[0].Content.SetText("changed after save")
	loaded, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Title", loaded.Elements[0].Text())

	loaded.Elements[0].Content.SetText("changed after load")
	again, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Title", again.Elements[0].Text())
}

func TestArtifactStore_Errors(t *testing.T) {
	store := NewArtifactStore()
	ctx := context.Background()

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, store.Save(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.Save(ctx, &domain.Document{}), domain.ErrInvalidInput)
}
