// Package journal provides the SQLite-backed sync journal with optional
// FTS5 full-text search over entry bodies.
package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	identifier     TEXT PRIMARY KEY,
	stage          TEXT NOT NULL DEFAULT '',
	title          TEXT NOT NULL DEFAULT '',
	remote_id      TEXT NOT NULL DEFAULT '',
	permalink      TEXT NOT NULL DEFAULT '',
	checksum       TEXT NOT NULL DEFAULT '',
	tags           TEXT NOT NULL DEFAULT '[]',
	body           TEXT NOT NULL DEFAULT '',
	last_synced_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_entries_remote_id ON entries(remote_id);
`

// DB wraps a sql.DB with journal-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
