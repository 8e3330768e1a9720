// Package schemas provides the SchemaAdapter registry and the shared block
// representation used by the per-format adapters in its subpackages.
// Each adapter knows how to read one layout JSON format produced by the
// layout parser into domain.RawBlock values.
//
// Adapters are registered with the Registry at startup.
package schemas
