// Package vault defines the on-disk store of Markdown entries.
package vault

import "time"

// FileInfo describes one Markdown file in the vault.
type FileInfo struct {
	Path     string    `json:"path"`
	Checksum string    `json:"checksum"`
	ModTime  time.Time `json:"mod_time"`
}

// Provider is the interface for vault file operations.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to vault root).
	List(dir string) ([]FileInfo, error)
	// Stat returns metadata for the file at path (relative to vault root).
	Stat(path string) (FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to vault root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to vault root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to vault root).
	Move(oldPath, newPath string) error
}
