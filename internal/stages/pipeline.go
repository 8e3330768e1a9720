// Package stages runs document transforms (merge, divide) in order and
// enforces the parse-stage contract around each of them.
package stages

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driven"
)

// Result describes one stage application.
type Result struct {
	Stage          string
	Target         domain.ParseStage
	Skipped        bool
	ElementsBefore int
	ElementsAfter  int
	Warnings       []domain.Warning
}

// Pipeline chains stages and runs them in order.
type Pipeline struct {
	stages []driven.Stage
}

// NewPipeline creates a pipeline with the given stages.
// Stages are executed in the order provided.
func NewPipeline(stages ...driven.Stage) *Pipeline {
	return &Pipeline{
		stages: stages,
	}
}

// Apply runs one stage against doc.
//
// The stage is skipped when the document is already at or past its target
// and force is false. Otherwise it runs on a copy; the copy replaces doc
// only on success, so a failing stage leaves doc untouched. The parse
// stage never moves backwards.
func Apply(ctx context.Context, stage driven.Stage, doc *domain.Document, force bool) (Result, error) {
	if doc == nil {
		return Result{}, fmt.Errorf("stage %s: document is nil", stage.Name())
	}

	res := Result{
		Stage:          stage.Name(),
		Target:         stage.Target(),
		ElementsBefore: len(doc.Elements),
		ElementsAfter:  len(doc.Elements),
	}
	if doc.Metadata.ParseStage.ShouldSkip(stage.Target(), force) {
		res.Skipped = true
		return res, nil
	}

	work := doc.Clone()
	warnings, err := stage.Apply(ctx, work)
	if err != nil {
		return res, fmt.Errorf("stage %s: %w", stage.Name(), err)
	}

	work.Metadata.ParseStage = doc.Metadata.ParseStage.Advance(stage.Target())
	work.Sync()
	*doc = *work

	res.ElementsAfter = len(doc.Elements)
	res.Warnings = warnings
	return res, nil
}

// Run applies every stage in order and stops at the first failure.
// Results for the stages that ran are returned alongside the error.
func (p *Pipeline) Run(ctx context.Context, doc *domain.Document, force bool) ([]Result, error) {
	results := make([]Result, 0, len(p.stages))
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := Apply(ctx, stage, doc, force)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Stage returns the pipeline stage with the given name.
func (p *Pipeline) Stage(name string) (driven.Stage, bool) {
	for _, s := range p.stages {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Add appends a stage to the pipeline.
func (p *Pipeline) Add(stage driven.Stage) {
	p.stages = append(p.stages, stage)
}

// Names returns the stage names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Len returns the number of stages in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.stages)
}
