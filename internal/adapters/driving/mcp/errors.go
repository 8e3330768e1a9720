// Package mcp provides an MCP (Model Context Protocol) server adapter for docstruct.
// It lets AI assistants structure documents and read their regions.
package mcp

import "errors"

// ErrMissingStructurer is returned when the structure service is not provided.
var ErrMissingStructurer = errors.New("mcp: structure service is required")
