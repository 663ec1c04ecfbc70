// Package store provides SQL-backed durable storage for the trace graph.
//
// Three tables hold the graph and its history:
//   - vertices: one row per content-addressed vertex key
//   - edges: one row per content-addressed edge key
//   - imports: the import log, one row per successful run
//
// # Write Contract
//
// Every write is existence-gated: an insert whose key already exists is
// ignored and reported as inserted=false. Reimporting a document therefore
// changes nothing, and a commit interrupted by a store failure is completed
// by rerunning it.
//
// Identifiers and payloads are stored as RFC 8785 canonical JSON, so equal
// values always produce byte-identical rows.
//
// # Dialects
//
//   - sqlite3: github.com/mattn/go-sqlite3 (cgo), the default
//   - sqlite: modernc.org/sqlite (pure Go)
//   - postgres: github.com/lib/pq
//   - mysql: github.com/go-sql-driver/mysql
//
// SQLite databases are opened in WAL mode with a single connection, and
// schema changes are tracked with PRAGMA user_version.
package store
