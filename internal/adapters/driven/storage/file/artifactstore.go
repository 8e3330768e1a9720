package file

import (
	"bytes"
	"context"
	"encoding/json"
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

// Ensure ArtifactStore implements the interface.
var _ driven.ArtifactStore = (*ArtifactStore)(nil)

const artifactExt = ".json"

// ArtifactStore keeps <dir>/<doc_id>.json.
type ArtifactStore struct {
	dir string
}

// NewArtifactStore creates the output directory if needed.
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: artifact directory is required", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}
	return &ArtifactStore{dir: dir}, nil
}

// Dir returns the output directory.
func (s *ArtifactStore) Dir() string {
	return s.dir
}

// PathFor returns the artifact path for a document id.
func (s *ArtifactStore) PathFor(docID string) string {
	return filepath.Join(s.dir, docID+artifactExt)
}

// Load reads and decodes a document.
func (s *ArtifactStore) Load(ctx context.Context, docID string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := domain.ValidateDocID(docID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.PathFor(docID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("artifact %s: %w", docID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", docID, err)
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding artifact %s: %w", docID, err)
	}
	return &doc, nil
}

// Save encodes the document and replaces its artifact.
// The new content is written to a temporary file in the same directory
// and renamed over the old one, so readers see either version in full.
func (s *ArtifactStore) Save(ctx context.Context, doc *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}
	docID := doc.Metadata.DocID
	if err := domain.ValidateDocID(docID); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding artifact %s: %w", docID, err)
	}

	return writeAtomic(s.PathFor(docID), buf.Bytes())
}

// Exists reports whether an artifact file exists.
func (s *ArtifactStore) Exists(_ context.Context, docID string) (bool, error) {
	if err := domain.ValidateDocID(docID); err != nil {
		return false, err
	}
	_, err := os.Stat(s.PathFor(docID))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns the ids of all artifacts in lexical order.
func (s *ArtifactStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing artifacts: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, artifactExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, artifactExt))
	}
	sort.Strings(ids)
	return ids, nil
}

// writeAtomic writes data to path through a synced temporary file.
func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
