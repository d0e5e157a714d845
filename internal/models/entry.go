// Package models defines the domain types for hatena-sync.
package models

import "time"

// Status is the publication state an entry declares in its frontmatter.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Stage classifies where an entry sits in the writing lifecycle. The
// directory an entry lives in is a projection of this value, never the
// source of truth.
type Stage string

const (
	// StageIncubating marks entries that have never been pushed remotely.
	StageIncubating Stage = "incubating"
	// StageSynced marks entries that exist remotely as tracked drafts.
	StageSynced Stage = "synced"
	// StageArchived marks entries whose lifecycle has ended locally.
	StageArchived Stage = "archived"
)

// LocalEntry represents one Markdown file under vault management.
type LocalEntry struct {
	Identifier string    `json:"identifier"`
	Stage      Stage     `json:"stage"`
	Path       string    `json:"path"`
	Title      string    `json:"title"`
	Date       string    `json:"date"`
	Updated    string    `json:"updated,omitempty"`
	Tags       []string  `json:"tags"`
	Status     Status    `json:"status"`
	Category   string    `json:"category,omitempty"`
	Permalink  string    `json:"permalink,omitempty"`
	RemoteID   string    `json:"remote_id,omitempty"`
	Body       string    `json:"-"`
	Checksum   string    `json:"checksum"`
	ModTime    time.Time `json:"mod_time"`
}

// HasRemote reports whether the entry has ever been created remotely.
func (e *LocalEntry) HasRemote() bool { return e.RemoteID != "" }

// RemoteEntry is the engine's view of a post held by the remote service.
type RemoteEntry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"-"`
	Category    string    `json:"category,omitempty"`
	Permalink   string    `json:"permalink,omitempty"`
	EditURL     string    `json:"edit_url,omitempty"`
	Draft       bool      `json:"draft"`
	PublishedAt time.Time `json:"published_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
