//go:build sqlite_fts5

package journal

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
			identifier UNINDEXED,
			title,
			body,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, identifier, title, body string, tags []string) error {
	_, _ = tx.Exec(`DELETE FROM entries_fts WHERE identifier = ?`, identifier)
	_, err := tx.Exec(`INSERT INTO entries_fts (identifier, title, body, tags) VALUES (?, ?, ?, ?)`,
		identifier, title, body, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("journal: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, identifier string) {
	_, _ = tx.Exec(`DELETE FROM entries_fts WHERE identifier = ?`, identifier)
}

// Search performs an FTS5 full-text search and returns matching results with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT identifier,
		       title,
		       snippet(entries_fts, 2, '<b>', '</b>', '...', 64)
		FROM entries_fts
		WHERE entries_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Identifier, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
