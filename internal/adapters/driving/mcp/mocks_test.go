package mcp

import (
	"context"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driving"
)

// mockStructurer is a mock implementation of driving.Structurer.
type mockStructurer struct {
	results   []driving.StageResult
	status    *driving.DocumentStatus
	doc       *domain.Document
	ids       []string
	err       error
	lastID    string
	lastRun   bool
	lastForce bool
}

var _ driving.Structurer = (*mockStructurer)(nil)

func (m *mockStructurer) Extract(_ context.Context, docID string, _ bool) (*driving.StageResult, error) {
	m.lastID = docID
	return nil, m.err
}

func (m *mockStructurer) Merge(_ context.Context, docID string, _ bool) (*driving.StageResult, error) {
	m.lastID = docID
	return nil, m.err
}

func (m *mockStructurer) Divide(_ context.Context, docID string, _ bool) (*driving.StageResult, error) {
	m.lastID = docID
	return nil, m.err
}

func (m *mockStructurer) Run(_ context.Context, docID string, force bool) ([]driving.StageResult, error) {
	m.lastID = docID
	m.lastRun = true
	m.lastForce = force
	return m.results, m.err
}

func (m *mockStructurer) Status(_ context.Context, docID string) (*driving.DocumentStatus, error) {
	m.lastID = docID
	if m.err != nil {
		return nil, m.err
	}
	return m.status, nil
}

func (m *mockStructurer) Document(_ context.Context, docID string) (*domain.Document, error) {
	m.lastID = docID
	if m.err != nil {
		return nil, m.err
	}
	return m.doc, nil
}

func (m *mockStructurer) List(_ context.Context) ([]string, error) {
	return m.ids, m.err
}

// dividedDocument builds a six-element document split 2/3/1.
func dividedDocument() *domain.Document {
	texts := []string{"Cover", "Contents", "1 Introduction", "Body text", "More body", "References"}
	types := []domain.ElementType{
		domain.ElementParagraph, domain.ElementTitle, domain.ElementTitle,
		domain.ElementParagraph, domain.ElementParagraph, domain.ElementTitle,
	}

	doc := &domain.Document{
		Metadata: domain.DocumentMetadata{
			DocID:      "paper",
			DocTitle:   "Contents",
			ParseStage: domain.StageRegionDivided,
			Language:   "en",
			TotalPages: 2,
		},
	}
	for i, text := range texts {
		doc.Elements = append(doc.Elements, domain.DocumentElement{
			Type:    types[i],
			Content: domain.Content{domain.ContentText: text},
			Source:  domain.ElementSource{Page: i / 3},
		})
	}
	doc.Sync()
	rd := domain.NewRegionDivision(2, 5, len(doc.Elements))
	doc.Metadata.RegionDivision = &rd
	return doc
}
