// Package testutil provides shared test helpers for setting up vaults and journals.
package testutil

import (
	"os"
	"testing"

	"github.com/bulldra/hatena-sync/internal/journal"
	"github.com/bulldra/hatena-sync/internal/vault"
)

// TestJournal creates a temporary SQLite journal that is automatically cleaned up.
func TestJournal(t *testing.T) *journal.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "hatena-sync-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := journal.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a vault.Provider.
func TestVault(t *testing.T) (string, vault.Provider) {
	t.Helper()
	root := t.TempDir()
	store, err := vault.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}
