package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driven"
	"github.com/custodia-labs/docstruct/internal/core/ports/driving"
	"github.com/custodia-labs/docstruct/internal/extractor"
	"github.com/custodia-labs/docstruct/internal/logger"
	"github.com/custodia-labs/docstruct/internal/stages"
	"github.com/custodia-labs/docstruct/internal/stages/divider"
	"github.com/custodia-labs/docstruct/internal/stages/merger"
)

// Ensure StructureService implements the interface.
var _ driving.Structurer = (*StructureService)(nil)

// StructureService runs extraction and the stage pipeline for single
// documents, persisting the artifact after every stage.
type StructureService struct {
	workspace driven.Workspace
	schemas   driven.SchemaRegistry
	extractor *extractor.Extractor
	pipeline  *stages.Pipeline
	artifacts driven.ArtifactStore

	// Optional collaborators.
	runs     driven.ProcessingLog
	notifier driven.StageNotifier

	skipExisting bool
	now          func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// StructureOption configures a StructureService.
type StructureOption func(*StructureService)

// WithProcessingLog records every stage run.
func WithProcessingLog(log driven.ProcessingLog) StructureOption {
	return func(s *StructureService) {
		s.runs = log
	}
}

// WithNotifier publishes an event after every applied stage.
func WithNotifier(n driven.StageNotifier) StructureOption {
	return func(s *StructureService) {
		s.notifier = n
	}
}

// WithSkipExisting controls whether Extract leaves an existing artifact
// alone when force is not set. Default is true. When disabled every
// extraction is forced and resets the artifact to layout_json_parsed.
func WithSkipExisting(skip bool) StructureOption {
	return func(s *StructureService) {
		s.skipExisting = skip
	}
}

// NewStructureService creates a new structure service.
// ProcessingLog and StageNotifier are optional; see the options.
func NewStructureService(
	workspace driven.Workspace,
	schemas driven.SchemaRegistry,
	ext *extractor.Extractor,
	pipeline *stages.Pipeline,
	artifacts driven.ArtifactStore,
	opts ...StructureOption,
) *StructureService {
	s := &StructureService{
		workspace:    workspace,
		schemas:      schemas,
		extractor:    ext,
		pipeline:     pipeline,
		artifacts:    artifacts,
		skipExisting: true,
		now:          time.Now,
		locks:        make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract fuses the document's layout sources into a fresh artifact.
func (s *StructureService) Extract(ctx context.Context, docID string, force bool) (*driving.StageResult, error) {
	unlock := s.lock(docID)
	defer unlock()
	return s.extract(ctx, docID, force)
}

// Merge runs the fragment merger over the stored artifact.
func (s *StructureService) Merge(ctx context.Context, docID string, force bool) (*driving.StageResult, error) {
	unlock := s.lock(docID)
	defer unlock()
	return s.runStage(ctx, docID, merger.Name, force)
}

// Divide runs the region divider over the stored artifact.
func (s *StructureService) Divide(ctx context.Context, docID string, force bool) (*driving.StageResult, error) {
	unlock := s.lock(docID)
	defer unlock()
	return s.runStage(ctx, docID, divider.Name, force)
}

// Run extracts the document, then applies every configured stage in
// order. It stops at the first failure and returns the results so far.
func (s *StructureService) Run(ctx context.Context, docID string, force bool) ([]driving.StageResult, error) {
	unlock := s.lock(docID)
	defer unlock()

	results := make([]driving.StageResult, 0, 1+s.pipeline.Len())
	res, err := s.extract(ctx, docID, force)
	if err != nil {
		return results, err
	}
	results = append(results, *res)

	for _, name := range s.pipeline.Names() {
		res, err := s.runStage(ctx, docID, name, force)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}

// Status reports the persisted state of a document. A document that
// exists only in the workspace has HasArtifact false.
func (s *StructureService) Status(ctx context.Context, docID string) (*driving.DocumentStatus, error) {
	status := &driving.DocumentStatus{DocID: docID}

	doc, err := s.artifacts.Load(ctx, docID)
	switch {
	case err == nil:
		status.HasArtifact = true
		status.Title = doc.Metadata.DocTitle
		status.ParseStage = doc.Metadata.ParseStage
		status.Language = doc.Metadata.Language
		status.TotalPages = doc.Metadata.TotalPages
		status.TotalElements = doc.Metadata.TotalElements
		status.RegionDivision = doc.Metadata.RegionDivision
	case errors.Is(err, domain.ErrNotFound):
		if _, rerr := s.workspace.ReadSources(ctx, docID); rerr != nil {
			return nil, domain.NewDocumentError(docID, "", rerr)
		}
	default:
		return nil, domain.NewDocumentError(docID, "", err)
	}

	if s.runs != nil {
		last, err := s.runs.Latest(ctx, docID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("latest run: %w", err)
		}
		status.LastRun = last
	}
	return status, nil
}

// Document returns the stored artifact.
func (s *StructureService) Document(ctx context.Context, docID string) (*domain.Document, error) {
	doc, err := s.artifacts.Load(ctx, docID)
	if err != nil {
		return nil, domain.NewDocumentError(docID, "", err)
	}
	return doc, nil
}

// List returns the document ids present in the workspace.
func (s *StructureService) List(ctx context.Context) ([]string, error) {
	return s.workspace.ListDocuments(ctx)
}

// extract builds and saves a new artifact. The caller holds the lock.
func (s *StructureService) extract(ctx context.Context, docID string, force bool) (*driving.StageResult, error) {
	run := s.startRun(docID, extractor.StageName)

	if !force && !s.skipExisting {
		logger.Debug("%s: skip_existing is off, extracting as forced", docID)
		force = true
	}
	if !force {
		existing, err := s.artifacts.Load(ctx, docID)
		switch {
		case err == nil && existing.Metadata.ParseStage.ShouldSkip(domain.StageLayoutParsed, false):
			run.ElementsBefore = len(existing.Elements)
			run.ElementsAfter = run.ElementsBefore
			return s.finishSkipped(ctx, run, existing.Metadata.ParseStage), nil
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, s.fail(ctx, run, err)
		}
	}

	files, err := s.workspace.ReadSources(ctx, docID)
	if err != nil {
		return nil, s.fail(ctx, run, err)
	}
	sources, warnings := s.schemas.Adapt(ctx, files)

	doc, extractWarnings, err := s.extractor.Extract(ctx, extractor.Input{
		DocID:   docID,
		PDFPath: s.workspace.PDFPath(docID),
		WorkDir: s.workspace.DocDir(docID),
		Sources: sources,
	})
	warnings = append(warnings, extractWarnings...)
	run.Warnings = warnings
	if err != nil {
		return nil, s.fail(ctx, run, err)
	}

	if err := s.artifacts.Save(ctx, doc); err != nil {
		return nil, s.fail(ctx, run, fmt.Errorf("save artifact: %w", err))
	}

	run.ElementsAfter = len(doc.Elements)
	return s.finishApplied(ctx, run, doc), nil
}

// runStage loads the artifact, applies one pipeline stage and saves the
// result. The caller holds the lock.
func (s *StructureService) runStage(ctx context.Context, docID, name string, force bool) (*driving.StageResult, error) {
	run := s.startRun(docID, name)

	stage, ok := s.pipeline.Stage(name)
	if !ok {
		return nil, s.fail(ctx, run, fmt.Errorf("%w: %s is not in the pipeline", domain.ErrUnknownStage, name))
	}

	doc, err := s.artifacts.Load(ctx, docID)
	if err != nil {
		return nil, s.fail(ctx, run, err)
	}

	res, err := stages.Apply(ctx, stage, doc, force)
	run.ElementsBefore = res.ElementsBefore
	run.ElementsAfter = res.ElementsAfter
	if err != nil {
		return nil, s.fail(ctx, run, err)
	}
	if res.Skipped {
		return s.finishSkipped(ctx, run, doc.Metadata.ParseStage), nil
	}

	run.Warnings = res.Warnings
	if err := s.artifacts.Save(ctx, doc); err != nil {
		return nil, s.fail(ctx, run, fmt.Errorf("save artifact: %w", err))
	}
	return s.finishApplied(ctx, run, doc), nil
}

func (s *StructureService) startRun(docID, stage string) *domain.StageRun {
	return &domain.StageRun{
		ID:        uuid.NewString(),
		DocID:     docID,
		Stage:     stage,
		StartedAt: s.now(),
	}
}

func (s *StructureService) finishApplied(ctx context.Context, run *domain.StageRun, doc *domain.Document) *driving.StageResult {
	run.Status = domain.RunApplied
	run.FinishedAt = s.now()
	s.logWarnings(run)
	s.record(ctx, run)

	logger.Info("%s: %s applied (%d -> %d elements)", run.DocID, run.Stage, run.ElementsBefore, run.ElementsAfter)

	if s.notifier != nil {
		event := domain.StageEvent{
			DocID:         run.DocID,
			Stage:         run.Stage,
			RunID:         run.ID,
			TotalElements: len(doc.Elements),
			At:            run.FinishedAt,
		}
		if err := s.notifier.Notify(ctx, event); err != nil {
			logger.WithFields(logger.Fields{"doc_id": run.DocID, "stage": run.Stage}).
				Warnf("stage event not published: %v", err)
		}
	}

	return resultFor(run, doc.Metadata.ParseStage)
}

func (s *StructureService) finishSkipped(ctx context.Context, run *domain.StageRun, stage domain.ParseStage) *driving.StageResult {
	run.Status = domain.RunSkipped
	run.FinishedAt = s.now()
	s.record(ctx, run)
	logger.Debug("%s: %s skipped, already at %s", run.DocID, run.Stage, stage)

	res := resultFor(run, stage)
	res.Skipped = true
	return res
}

// fail records the failed run and wraps err with the document id.
func (s *StructureService) fail(ctx context.Context, run *domain.StageRun, err error) error {
	run.Status = domain.RunFailed
	run.Error = err.Error()
	run.FinishedAt = s.now()
	s.logWarnings(run)
	s.record(ctx, run)
	return domain.NewDocumentError(run.DocID, run.Stage, err)
}

func (s *StructureService) record(ctx context.Context, run *domain.StageRun) {
	if s.runs == nil {
		return
	}
	// The log entry is written even when ctx was cancelled mid-stage.
	if err := s.runs.Record(context.WithoutCancel(ctx), *run); err != nil {
		logger.WithFields(logger.Fields{"doc_id": run.DocID, "run_id": run.ID}).
			Warnf("processing log: %v", err)
	}
}

func (s *StructureService) logWarnings(run *domain.StageRun) {
	for _, w := range run.Warnings {
		logger.WithFields(logger.Fields{
			"doc_id": run.DocID,
			"stage":  w.Stage,
			"code":   string(w.Code),
		}).Warn(w.Message)
	}
}

// lock serialises operations on one document.
func (s *StructureService) lock(docID string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[docID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[docID] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func resultFor(run *domain.StageRun, stage domain.ParseStage) *driving.StageResult {
	return &driving.StageResult{
		RunID:          run.ID,
		DocID:          run.DocID,
		Stage:          run.Stage,
		ParseStage:     stage,
		ElementsBefore: run.ElementsBefore,
		ElementsAfter:  run.ElementsAfter,
		Warnings:       run.Warnings,
	}
}
