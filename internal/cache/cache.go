// Package cache provides a SQLite-backed listing cache for record metadata
// files. Rows are keyed by file name and hold the file's mtime, size,
// checksum, and raw JSON document, so an unchanged file never has to be
// re-read during a listing. The cache is an optimization only: the vault
// directory remains the source of truth.
package cache

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	path     TEXT PRIMARY KEY,
	mtime_ms INTEGER NOT NULL,
	size     INTEGER NOT NULL,
	checksum TEXT NOT NULL DEFAULT '',
	doc      BLOB NOT NULL
);
`

// DB wraps a sql.DB with cache-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite cache database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cache: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cache: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
