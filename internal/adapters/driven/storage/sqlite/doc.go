// Package sqlite provides a SQLite-based run history store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements driven.RunStore: each
// completed analysis is stored with its questions, answers, analysis text and
// verdict.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.auditrag/data/history.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
