// Package state defines the persistence contract for launcher records and the
// backends that implement it.
//
// A Store[T] loads and saves one record per Ref. Save always overwrites the
// whole record and stamps Meta with a snapshot id, a fresh ETag and the update
// time. Backends:
//
//   - MemoryStore: process memory, used by tests.
//   - FileStore: one JSON file per ref under a data directory.
//   - SQLiteStore: a kv table in a SQLite database (modernc.org/sqlite).
//   - PebbleStore: a pebble key-value database.
//
// Keys come from Ref.Identifier and have the form "namespace/domain"; the
// launcher persists its record at "launcher/state".
//
// Mutate performs a load-modify-save cycle with optional ETag precondition,
// used for edits made while the launcher is not running.
package state
