// Package sqlite provides the SQLite-backed processing log.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. It records every stage run with its warnings so that
// orchestrators can see why a document stopped or what was skipped.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql
// files; applied versions are tracked in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.docstruct/data/processing.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
