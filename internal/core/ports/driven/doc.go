// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - SchemaAdapter: Reads one layout JSON format into raw blocks
//   - SchemaRegistry: Selects adapters by file name and priority
//   - Workspace: Reads per-document layout output
//   - ArtifactStore: Canonical artifact persistence (atomic replace)
//   - Stage: One transform over a canonical document
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ProcessingLog: Stage run history. Without it runs are only logged.
//   - StageNotifier: Publishes stage events (Kafka).
//   - WorkspaceMirror: Pulls layout output from object storage (MinIO).
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, schema, or stage package
package driven
