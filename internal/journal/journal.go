package journal

import "time"

// Record is the journaled state of one entry as of its last reconciliation.
type Record struct {
	Identifier   string
	Stage        string
	Title        string
	RemoteID     string
	Permalink    string
	Checksum     string
	Tags         []string
	LastSyncedAt time.Time // zero when the entry has never synced
}

// SearchResult represents one search hit.
type SearchResult struct {
	Identifier string
	Title      string
	Snippet    string
}

// Store defines the journal operations the engine and CLI depend on.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type Store interface {
	Upsert(rec Record, body string) error
	Get(identifier string) (*Record, error)
	Delete(identifier string) error
	All() ([]Record, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
