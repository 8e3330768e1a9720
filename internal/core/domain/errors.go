package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent structuring failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown schema or stage type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrSchemaMismatch indicates a source file matched no known schema.
	// It is recovered locally by excluding that source.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrMissingSource indicates no source produced any blocks.
	// Fatal for the document.
	ErrMissingSource = errors.New("missing source")

	// ErrEmptyDocument indicates the fused element list is empty.
	// Fatal for the document.
	ErrEmptyDocument = errors.New("empty document")

	// ErrMergeBoundaryConflict indicates a merge crossed a hard boundary.
	// This is an internal invariant violation.
	ErrMergeBoundaryConflict = errors.New("merge boundary conflict")

	// ErrStageSkipped indicates a stage was a no-op because the document
	// is already at or past it.
	ErrStageSkipped = errors.New("stage skipped")

	// ErrInvalidStage indicates an unknown parse stage value.
	ErrInvalidStage = errors.New("invalid parse stage")

	// ErrUnknownStage indicates a pipeline stage name is not registered.
	ErrUnknownStage = errors.New("unknown stage")
)

// SchemaMismatchError reports a source file that could not be adapted.
type SchemaMismatchError struct {
	// Source is the file name.
	Source string

	// Schema is the adapter that attempted the parse, empty if none matched.
	Schema string

	// Reason describes the mismatch.
	Reason string

	// Err is the underlying decode error, if any.
	Err error
}

func (e *SchemaMismatchError) Error() string {
	msg := fmt.Sprintf("schema mismatch in %s", e.Source)
	if e.Schema != "" {
		msg += " (" + e.Schema + ")"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches ErrSchemaMismatch.
func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

func (e *SchemaMismatchError) Unwrap() error {
	return e.Err
}

// DocumentError attaches the document id and stage to a fatal failure.
type DocumentError struct {
	DocID string
	Stage string
	Err   error
}

func (e *DocumentError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("document %s: %v", e.DocID, e.Err)
	}
	return fmt.Sprintf("document %s: %s: %v", e.DocID, e.Stage, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// NewDocumentError wraps err for docID. A nil err yields nil.
func NewDocumentError(docID, stage string, err error) error {
	if err == nil {
		return nil
	}
	var de *DocumentError
	if errors.As(err, &de) && de.DocID == docID {
		return err
	}
	return &DocumentError{DocID: docID, Stage: stage, Err: err}
}

// ValidateDocID rejects ids that are empty or would leave their parent
// directory when used as a path element.
func ValidateDocID(docID string) error {
	if docID == "" || docID == "." || docID == ".." || strings.ContainsAny(docID, `/\`) {
		return fmt.Errorf("%w: invalid document id %q", ErrInvalidInput, docID)
	}
	return nil
}
