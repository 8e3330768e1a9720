// Package workspace reads the layout parser's output from a local
// directory tree: one subdirectory per document holding its JSON files.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driven"
)

// Ensure Workspace implements the interface.
var _ driven.Workspace = (*Workspace)(nil)

// Workspace is a read-only view of <root>/<doc_id>/*.json.
type Workspace struct {
	root     string
	pdfStore string
}

// New creates a workspace over root. pdfStore may be empty.
func New(root, pdfStore string) *Workspace {
	return &Workspace{root: root, pdfStore: pdfStore}
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// DocDir returns the absolute working directory of a document.
func (w *Workspace) DocDir(docID string) string {
	dir := filepath.Join(w.root, docID)
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

// ListDocuments returns the names of the document directories.
// Hidden directories are ignored.
func (w *Workspace) ListDocuments(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(w.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("workspace %s: %w", w.root, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("listing workspace: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// ReadSources loads every JSON file in the document directory, sorted
// by name. Adapter selection happens later by file name.
func (w *Workspace) ReadSources(ctx context.Context, docID string) ([]domain.SourceFile, error) {
	if err := domain.ValidateDocID(docID); err != nil {
		return nil, err
	}
	dir := w.DocDir(docID)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("document %s: %w", docID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", docID, err)
	}

	var files []domain.SourceFile
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !IsSourceFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		files = append(files, domain.SourceFile{Name: e.Name(), Path: path, Data: data})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// PDFPath returns <pdf_store>/<doc_id>.pdf when that file exists.
func (w *Workspace) PDFPath(docID string) string {
	if w.pdfStore == "" || domain.ValidateDocID(docID) != nil {
		return ""
	}
	path := filepath.Join(w.pdfStore, docID+".pdf")
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.ToSlash(path)
}

// IsSourceFile reports whether a file name looks like layout output.
func IsSourceFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".json") && !strings.HasPrefix(name, ".")
}
