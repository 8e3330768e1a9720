package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driven"
)

// Ensure ArtifactStore implements the interface.
var _ driven.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore is an in-memory implementation of driven.ArtifactStore.
// Documents are copied on the way in and out.
type ArtifactStore struct {
	mu   sync.RWMutex
	docs map[string]*domain.Document
}

// NewArtifactStore creates a new in-memory artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{
		docs: make(map[string]*domain.Document),
	}
}

// Load retrieves a document by id.
func (s *ArtifactStore) Load(_ context.Context, docID string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc.Clone(), nil
}

// Save stores or replaces a document.
func (s *ArtifactStore) Save(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.Metadata.DocID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.Metadata.DocID] = doc.Clone()
	return nil
}

// Exists reports whether a document is stored.
func (s *ArtifactStore) Exists(_ context.Context, docID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[docID]
	return ok, nil
}

// List returns stored ids in lexical order.
func (s *ArtifactStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
