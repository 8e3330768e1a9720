package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstruct/internal/core/domain"
)

func TestMirrorService_Fetch(t *testing.T) {
	mirror := &mockMirror{files: 3}
	svc := NewMirrorService(mirror, newMockWorkspace())

	n, err := svc.Fetch(context.Background(), "paper")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "paper", mirror.fetchedID)
	assert.Equal(t, "/work/paper", mirror.fetchedDir)
}

func TestMirrorService_FetchErrors(t *testing.T) {
	mirror := &mockMirror{fetchErr: errors.New("bucket missing")}
	svc := NewMirrorService(mirror, newMockWorkspace())

	_, err := svc.Fetch(context.Background(), "paper")
	var de *domain.DocumentError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "fetch", de.Stage)

	_, err = svc.Fetch(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMirrorService_FetchRejectsEscapingIDs(t *testing.T) {
	for _, id := range []string{"..", ".", "a/b", `a\b`} {
		mirror := &mockMirror{files: 3}
		svc := NewMirrorService(mirror, newMockWorkspace())

		_, err := svc.Fetch(context.Background(), id)

		assert.ErrorIs(t, err, domain.ErrInvalidInput, id)
		assert.Empty(t, mirror.fetchedDir, "nothing is written for %q", id)
	}
}

func TestMirrorService_Remote(t *testing.T) {
	svc := NewMirrorService(&mockMirror{remote: []string{"a", "b"}}, newMockWorkspace())
	ids, err := svc.Remote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}
