package journal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Upsert inserts or replaces an entry's journal row and its FTS document
// within one transaction. The body is stored for search only and never
// written back to disk.
func (db *DB) Upsert(rec Record, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("journal: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(rec.Tags)

	var lastSynced interface{}
	if !rec.LastSyncedAt.IsZero() {
		lastSynced = rec.LastSyncedAt.UTC()
	}

	_, err = tx.Exec(`
		INSERT INTO entries (identifier, stage, title, remote_id, permalink, checksum, tags, body, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET
			stage          = excluded.stage,
			title          = excluded.title,
			remote_id      = excluded.remote_id,
			permalink      = excluded.permalink,
			checksum       = excluded.checksum,
			tags           = excluded.tags,
			body           = excluded.body,
			last_synced_at = excluded.last_synced_at
	`, rec.Identifier, rec.Stage, rec.Title, rec.RemoteID, rec.Permalink, rec.Checksum, string(tagsJSON), body, lastSynced)
	if err != nil {
		return fmt.Errorf("journal: upsert entry: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, rec.Identifier, rec.Title, body, rec.Tags); err != nil {
		return err
	}

	return tx.Commit()
}

// Get returns the journal record for an identifier, or nil when the entry
// has never been journaled.
func (db *DB) Get(identifier string) (*Record, error) {
	row := db.conn.QueryRow(`
		SELECT identifier, stage, title, remote_id, permalink, checksum, tags, last_synced_at
		FROM entries WHERE identifier = ?
	`, identifier)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// Delete removes an entry's journal row and FTS document.
func (db *DB) Delete(identifier string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("journal: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, identifier)
	_, _ = tx.Exec(`DELETE FROM entries WHERE identifier = ?`, identifier)

	return tx.Commit()
}

// All returns every journal record ordered by identifier.
func (db *DB) All() ([]Record, error) {
	rows, err := db.conn.Query(`
		SELECT identifier, stage, title, remote_id, permalink, checksum, tags, last_synced_at
		FROM entries ORDER BY identifier
	`)
	if err != nil {
		return nil, fmt.Errorf("journal: all: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var tagsJSON string
	var lastSynced sql.NullTime
	if err := row.Scan(&rec.Identifier, &rec.Stage, &rec.Title, &rec.RemoteID,
		&rec.Permalink, &rec.Checksum, &tagsJSON, &lastSynced); err != nil {
		return nil, err
	}
	if tagsJSON != "" && tagsJSON != "null" {
		_ = json.Unmarshal([]byte(tagsJSON), &rec.Tags)
	}
	if lastSynced.Valid {
		rec.LastSyncedAt = lastSynced.Time
	}
	return &rec, nil
}
