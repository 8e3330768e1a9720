package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrSchemaMismatch", ErrSchemaMismatch},
		{"ErrMissingSource", ErrMissingSource},
		{"ErrEmptyDocument", ErrEmptyDocument},
		{"ErrMergeBoundaryConflict", ErrMergeBoundaryConflict},
		{"ErrStageSkipped", ErrStageSkipped},
		{"ErrInvalidStage", ErrInvalidStage},
		{"ErrUnknownStage", ErrUnknownStage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestSchemaMismatchError_IsSentinel(t *testing.T) {
	err := &SchemaMismatchError{Source: "layout.json", Schema: "layout", Reason: "missing pdf_info"}

	assert.True(t, errors.Is(err, ErrSchemaMismatch))
	assert.False(t, errors.Is(err, ErrMissingSource))
	assert.Equal(t, "schema mismatch in layout.json (layout): missing pdf_info", err.Error())
}

func TestSchemaMismatchError_UnwrapsCause(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := fmt.Errorf("adapting: %w", &SchemaMismatchError{Source: "a.json", Err: cause})

	assert.True(t, errors.Is(err, ErrSchemaMismatch))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "unexpected end of JSON input")
}

func TestDocumentError(t *testing.T) {
	err := NewDocumentError("doc-1", "extract", ErrEmptyDocument)

	var de *DocumentError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "doc-1", de.DocID)
	assert.Equal(t, "extract", de.Stage)
	assert.True(t, errors.Is(err, ErrEmptyDocument))
	assert.Equal(t, "document doc-1: extract: empty document", err.Error())
}

func TestNewDocumentError_Nil(t *testing.T) {
	assert.Nil(t, NewDocumentError("doc-1", "merge", nil))
}

func TestNewDocumentError_DoesNotDoubleWrap(t *testing.T) {
	inner := NewDocumentError("doc-1", "merge", ErrMergeBoundaryConflict)
	outer := NewDocumentError("doc-1", "run", fmt.Errorf("pipeline: %w", inner))

	assert.Contains(t, outer.Error(), "merge")
	assert.NotContains(t, outer.Error(), "run")
}

func TestNewWarning(t *testing.T) {
	w := NewWarning(WarnRegionNotFound, "divide", "no body opener in %d titles", 3)

	assert.Equal(t, WarnRegionNotFound, w.Code)
	assert.Equal(t, -1, w.ElementID)
	assert.Equal(t, "[region_not_found] no body opener in 3 titles", w.String())
}

func TestValidateDocID(t *testing.T) {
	for _, id := range []string{"paper", "2024-report", "论文 一"} {
		assert.NoError(t, ValidateDocID(id), id)
	}
	for _, id := range []string{"", ".", "..", "a/b", `a\b`, "../x"} {
		assert.ErrorIs(t, ValidateDocID(id), ErrInvalidInput, id)
	}
}
