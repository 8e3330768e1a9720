// Package domain defines the core business entities for docstruct.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: The canonical artifact (metadata plus ordered elements)
//   - DocumentElement: One structural unit in reading order
//   - RawBlock: A layout block as exposed by a schema adapter
//   - ParseStage: The ordered per-document progress marker
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
