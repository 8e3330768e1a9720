package schemas

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driven"
	"github.com/custodia-labs/docstruct/internal/logger"
	"github.com/custodia-labs/docstruct/internal/schemas/rawblock"
)

// Ensure Registry implements the interface.
var _ driven.SchemaRegistry = (*Registry)(nil)

// Registry holds schema adapters ordered by descending priority.
type Registry struct {
	mu       sync.RWMutex
	adapters []driven.SchemaAdapter
}

// NewRegistry creates a registry with the given adapters.
func NewRegistry(adapters ...driven.SchemaAdapter) *Registry {
	r := &Registry{}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds an adapter. Ties in priority are broken by name so the
// order never depends on registration order.
func (r *Registry) Register(adapter driven.SchemaAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters = append(r.adapters, adapter)
	sort.SliceStable(r.adapters, func(i, j int) bool {
		a, b := r.adapters[i], r.adapters[j]
		if a.Priority() != b.Priority() {
			return a.Priority() > b.Priority()
		}
		return a.Name() < b.Name()
	})
}

// Schemas returns registered adapter names in priority order.
func (r *Registry) Schemas() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.adapters))
	for i, a := range r.adapters {
		names[i] = a.Name()
	}
	return names
}

// Select returns the adapter whose file name pattern matches, or nil.
func (r *Registry) Select(filename string) driven.SchemaAdapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.adapters {
		if a.Matches(filename) {
			return a
		}
	}
	return nil
}

// Adapt runs the matching adapter over each file.
// A file whose name matches no adapter is checked against every adapter
// by shape; the first that parses it wins. Files that cannot be adapted
// are excluded and reported as schema_mismatch warnings.
func (r *Registry) Adapt(ctx context.Context, files []domain.SourceFile) ([]domain.SourceBlocks, []domain.Warning) {
	var (
		results  []domain.SourceBlocks
		warnings []domain.Warning
		names    = make([]string, 0, len(files))
	)

	for _, f := range files {
		if ctx.Err() != nil {
			break
		}

		blocks, err := r.adaptOne(f)
		if err != nil {
			var sm *domain.SchemaMismatchError
			if errors.As(err, &sm) {
				sm.Source = f.Name
			}
			logger.WithFields(logger.Fields{"source": f.Name}).Warnf("excluding source: %v", err)
			warnings = append(warnings, domain.NewWarning(domain.WarnSchemaMismatch, "extract", "%v", err))
			continue
		}

		logger.Debug("adapted %s with %s: %d blocks", f.Name, blocks.Schema, len(blocks.Blocks))
		results = append(results, *blocks)
		names = append(names, f.Name)
	}

	// Sort by priority, then file name, so fusion sees a stable order.
	idx := make([]int, len(results))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := results[idx[a]], results[idx[b]]
		if ra.Priority != rb.Priority {
			return ra.Priority > rb.Priority
		}
		return names[idx[a]] < names[idx[b]]
	})
	ordered := make([]domain.SourceBlocks, len(results))
	for i, j := range idx {
		ordered[i] = results[j]
	}

	return ordered, warnings
}

func (r *Registry) adaptOne(f domain.SourceFile) (*domain.SourceBlocks, error) {
	if a := r.Select(f.Name); a != nil {
		return a.Parse(f.Data)
	}

	r.mu.RLock()
	adapters := append([]driven.SchemaAdapter(nil), r.adapters...)
	r.mu.RUnlock()

	for _, a := range adapters {
		if blocks, err := a.Parse(f.Data); err == nil {
			return blocks, nil
		}
	}
	return nil, rawblock.Mismatch("", "top-level shape matches no known schema", nil)
}
