package mcp

import (
	"github.com/custodia-labs/docstruct/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Structurer runs the pipeline and reads artifacts.
	Structurer driving.Structurer
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Structurer == nil {
		return ErrMissingStructurer
	}
	return nil
}
