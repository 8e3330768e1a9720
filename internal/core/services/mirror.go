package services

import (
	"context"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driven"
	"github.com/custodia-labs/docstruct/internal/core/ports/driving"
	"github.com/custodia-labs/docstruct/internal/logger"
)

// Ensure MirrorService implements the interface.
var _ driving.WorkspaceFetcher = (*MirrorService)(nil)

// MirrorService copies layout output from object storage into the
// workspace so it can be extracted like any local document.
type MirrorService struct {
	mirror    driven.WorkspaceMirror
	workspace driven.Workspace
}

// NewMirrorService creates a new mirror service.
func NewMirrorService(mirror driven.WorkspaceMirror, workspace driven.Workspace) *MirrorService {
	return &MirrorService{
		mirror:    mirror,
		workspace: workspace,
	}
}

// Fetch downloads a document into <workspace>/<doc_id>/.
func (m *MirrorService) Fetch(ctx context.Context, docID string) (int, error) {
	if err := domain.ValidateDocID(docID); err != nil {
		return 0, err
	}
	n, err := m.mirror.Fetch(ctx, docID, m.workspace.DocDir(docID))
	if err != nil {
		return n, domain.NewDocumentError(docID, "fetch", err)
	}
	logger.Info("%s: fetched %d source files", docID, n)
	return n, nil
}

// Remote lists the documents available in object storage.
func (m *MirrorService) Remote(ctx context.Context) ([]string, error) {
	return m.mirror.ListDocuments(ctx)
}
