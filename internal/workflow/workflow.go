// Package workflow owns the lifecycle stage of every vault entry and the
// directory layout that projects it.
//
// Stage is authoritative; the directory an entry lives in is derived from
// it. Files move because a stage transition happened, never the reverse.
package workflow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bulldra/hatena-sync/internal/apperr"
	"github.com/bulldra/hatena-sync/internal/frontmatter"
	"github.com/bulldra/hatena-sync/internal/models"
	"github.com/bulldra/hatena-sync/internal/vault"
)

var stageDirs = map[models.Stage]string{
	models.StageIncubating: "feature",
	models.StageSynced:     "draft",
	models.StageArchived:   "published",
}

// stageOrder fixes iteration order for listing and lookup.
var stageOrder = []models.Stage{models.StageIncubating, models.StageSynced, models.StageArchived}

// Dir returns the vault-relative directory for a stage.
func Dir(stage models.Stage) string { return stageDirs[stage] }

// PathFor returns the vault-relative path of an entry in a given stage.
func PathFor(stage models.Stage, identifier string) string {
	return filepath.Join(stageDirs[stage], identifier+".md")
}

// StageOf maps a vault-relative path back to its stage.
func StageOf(path string) (models.Stage, bool) {
	top := path
	if i := strings.IndexByte(path, filepath.Separator); i >= 0 {
		top = path[:i]
	}
	for stage, dir := range stageDirs {
		if top == dir {
			return stage, true
		}
	}
	return "", false
}

// Manager maintains entry lifecycle state on top of the vault.
type Manager struct {
	store vault.Provider
	now   func() time.Time
}

// NewManager creates a workflow manager over the given vault.
func NewManager(store vault.Provider) *Manager {
	return &Manager{store: store, now: time.Now}
}

// Files returns metadata for every entry file across all stage directories.
func (m *Manager) Files() ([]vault.FileInfo, error) {
	var out []vault.FileInfo
	for _, stage := range stageOrder {
		files, err := m.store.List(stageDirs[stage])
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

// LoadPath reads and decodes the entry at a vault-relative path.
func (m *Manager) LoadPath(path string) (*models.LocalEntry, error) {
	stage, ok := StageOf(path)
	if !ok {
		return nil, fmt.Errorf("workflow: path %s is outside the stage directories", path)
	}
	data, err := m.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrEntryNotFound
		}
		return nil, err
	}
	meta, body, err := frontmatter.Decode(data)
	if err != nil {
		return nil, &apperr.MetadataError{Path: path, Err: err}
	}
	var modTime time.Time
	if info, err := m.store.Stat(path); err == nil {
		modTime = info.ModTime
	}
	identifier := strings.TrimSuffix(filepath.Base(path), ".md")
	if path != PathFor(stage, identifier) {
		return nil, fmt.Errorf("workflow: entry %s nested below its stage directory", path)
	}
	return &models.LocalEntry{
		Identifier: identifier,
		Stage:      stage,
		Path:       path,
		Title:      meta.Title,
		Date:       meta.Date,
		Updated:    meta.Updated,
		Tags:       meta.Tags,
		Status:     models.Status(meta.Status),
		Category:   meta.Category,
		Permalink:  meta.Permalink,
		RemoteID:   meta.ID,
		Body:       body,
		Checksum:   vault.Checksum(data),
		ModTime:    modTime,
	}, nil
}

// Load finds an entry by identifier, searching all stage directories.
func (m *Manager) Load(identifier string) (*models.LocalEntry, error) {
	path, err := m.locate(identifier)
	if err != nil {
		return nil, err
	}
	return m.LoadPath(path)
}

// locate returns the vault-relative path of an existing entry.
func (m *Manager) locate(identifier string) (string, error) {
	if err := validIdentifier(identifier); err != nil {
		return "", err
	}
	for _, stage := range stageOrder {
		path := PathFor(stage, identifier)
		if _, err := m.store.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", apperr.ErrEntryNotFound
}

// Scaffold creates a new incubating entry with canonical frontmatter and an
// empty body. The identifier must be unique across every stage.
func (m *Manager) Scaffold(identifier, title string) (*models.LocalEntry, error) {
	if err := validIdentifier(identifier); err != nil {
		return nil, err
	}
	if _, err := m.locate(identifier); err == nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrEntryExists, identifier)
	}
	if title == "" {
		title = identifier
	}
	meta := frontmatter.Meta{
		Title:  title,
		Date:   m.now().Format("2006-01-02"),
		Status: string(models.StatusDraft),
	}
	path := PathFor(models.StageIncubating, identifier)
	if err := m.store.Write(path, frontmatter.Encode(meta, "")); err != nil {
		return nil, err
	}
	return m.LoadPath(path)
}

// Materialize writes a brand-new entry assembled in memory, typically one
// pulled from the remote service. Fails if the identifier is taken.
func (m *Manager) Materialize(e *models.LocalEntry) error {
	if err := validIdentifier(e.Identifier); err != nil {
		return err
	}
	if _, err := m.locate(e.Identifier); err == nil {
		return fmt.Errorf("%w: %s", apperr.ErrEntryExists, e.Identifier)
	}
	return m.Save(e)
}

// Save encodes the entry and writes it to the path its stage dictates.
// The entry's Path and Checksum fields are refreshed.
func (m *Manager) Save(e *models.LocalEntry) error {
	path := PathFor(e.Stage, e.Identifier)
	data := frontmatter.Encode(metaFor(e), e.Body)
	if err := m.store.Write(path, data); err != nil {
		return err
	}
	e.Path = path
	e.Checksum = vault.Checksum(data)
	if info, err := m.store.Stat(path); err == nil {
		e.ModTime = info.ModTime
	}
	return nil
}

// Advance promotes an incubating entry to synced after its first successful
// push. Transitions never run backwards; any other stage is a no-op.
func (m *Manager) Advance(e *models.LocalEntry) error {
	if e.Stage != models.StageIncubating {
		return nil
	}
	return m.transition(e, models.StageSynced)
}

// Archive moves a synced entry to its terminal stage. Incubating entries
// cannot be archived; they have no remote counterpart to retire.
func (m *Manager) Archive(e *models.LocalEntry) error {
	switch e.Stage {
	case models.StageArchived:
		return nil
	case models.StageIncubating:
		return fmt.Errorf("workflow: cannot archive unpushed entry %s", e.Identifier)
	}
	return m.transition(e, models.StageArchived)
}

// transition moves the entry file into the directory of the target stage.
func (m *Manager) transition(e *models.LocalEntry, target models.Stage) error {
	oldPath := PathFor(e.Stage, e.Identifier)
	newPath := PathFor(target, e.Identifier)
	if err := m.store.Move(oldPath, newPath); err != nil {
		return err
	}
	e.Stage = target
	e.Path = newPath
	return nil
}

// metaFor projects an entry back onto its frontmatter schema.
func metaFor(e *models.LocalEntry) frontmatter.Meta {
	return frontmatter.Meta{
		Title:     e.Title,
		Date:      e.Date,
		Updated:   e.Updated,
		Tags:      e.Tags,
		Status:    string(e.Status),
		Category:  e.Category,
		Permalink: e.Permalink,
		ID:        e.RemoteID,
	}
}

// validIdentifier rejects identifiers that would escape the stage layout.
func validIdentifier(identifier string) error {
	if identifier == "" {
		return fmt.Errorf("workflow: empty identifier")
	}
	if strings.ContainsAny(identifier, "/\\") || identifier == "." || identifier == ".." {
		return fmt.Errorf("workflow: invalid identifier %q", identifier)
	}
	return nil
}
