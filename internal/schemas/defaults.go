package schemas

import (
	"github.com/custodia-labs/docstruct/internal/schemas/contentlist"
	"github.com/custodia-labs/docstruct/internal/schemas/contentlistv2"
	"github.com/custodia-labs/docstruct/internal/schemas/layout"
	"github.com/custodia-labs/docstruct/internal/schemas/model"
)

// RegisterDefaults registers all built-in schema adapters with the registry.
// Call this during application initialisation.
func RegisterDefaults(r *Registry) {
	r.Register(contentlistv2.New())
	r.Register(contentlist.New())
	r.Register(layout.New())
	r.Register(model.New())
}

// NewDefaultRegistry returns a registry holding the built-in adapters.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
