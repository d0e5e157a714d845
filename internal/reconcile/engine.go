// Package reconcile implements the synchronization engine that keeps vault
// entries and their remote counterparts converged.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/bulldra/hatena-sync/internal/apperr"
	"github.com/bulldra/hatena-sync/internal/atompub"
	"github.com/bulldra/hatena-sync/internal/frontmatter"
	"github.com/bulldra/hatena-sync/internal/journal"
	"github.com/bulldra/hatena-sync/internal/links"
	"github.com/bulldra/hatena-sync/internal/models"
	"github.com/bulldra/hatena-sync/internal/workflow"
)

// Direction selects which halves of a reconciliation run execute.
type Direction string

const (
	DirectionBoth Direction = "both"
	DirectionPush Direction = "push"
	DirectionPull Direction = "pull"
)

// ParseDirection validates a direction flag value.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case DirectionBoth, DirectionPush, DirectionPull:
		return d, nil
	}
	return "", fmt.Errorf("reconcile: invalid direction %q (want pull, push, or both)", s)
}

// Action is the reconciliation decision for one entry.
type Action string

const (
	ActionNone   Action = "in-sync"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionPull   Action = "pull"
)

// Classify resolves which side of a tracked entry wins. The newer timestamp
// wins; a tie means the entry is in sync and nothing moves.
func Classify(localAt, remoteAt time.Time) Action {
	switch {
	case localAt.After(remoteAt):
		return ActionUpdate
	case remoteAt.After(localAt):
		return ActionPull
	default:
		return ActionNone
	}
}

// Result is the outcome of reconciling one entry.
type Result struct {
	Identifier string
	Action     Action
	Err        error
	Warnings   []links.Warning
}

// Report aggregates the results of one run.
type Report struct {
	Results []Result
}

func (r *Report) add(res Result) { r.Results = append(r.Results, res) }

// Failed counts entries whose reconciliation errored.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Changed counts entries that produced a remote or local change.
func (r *Report) Changed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil && res.Action != ActionNone {
			n++
		}
	}
	return n
}

// Engine drives reconciliation runs. Failures are isolated per entry; one
// bad entry never aborts the rest of the batch.
type Engine struct {
	manager *workflow.Manager
	repo    atompub.Repository
	journal journal.Store
	logger  *slog.Logger
	now     func() time.Time
}

// New builds an engine over the workflow manager, remote repository, and
// sync journal.
func New(manager *workflow.Manager, repo atompub.Repository, store journal.Store, logger *slog.Logger) *Engine {
	return &Engine{
		manager: manager,
		repo:    repo,
		journal: store,
		logger:  logger,
		now:     time.Now,
	}
}

// Run reconciles every entry in the vault.
func (e *Engine) Run(ctx context.Context, direction Direction) (*Report, error) {
	return e.run(ctx, direction, "")
}

// SyncOne reconciles a single entry by identifier.
func (e *Engine) SyncOne(ctx context.Context, direction Direction, identifier string) (*Report, error) {
	if identifier == "" {
		return nil, fmt.Errorf("reconcile: empty identifier")
	}
	return e.run(ctx, direction, identifier)
}

func (e *Engine) run(ctx context.Context, direction Direction, only string) (*Report, error) {
	files, err := e.manager.Files()
	if err != nil {
		return nil, err
	}

	// One pass loads every entry: the link map needs the whole vault even
	// when only a single entry reconciles.
	report := &Report{}
	var entries []*models.LocalEntry
	linkMap := links.Map{}
	for _, f := range files {
		identifier := strings.TrimSuffix(filepath.Base(f.Path), ".md")
		entry, err := e.manager.LoadPath(f.Path)
		if err != nil {
			if only != "" && identifier != only {
				continue
			}
			// Unreadable metadata skips the entry, loudly.
			e.logger.Error("entry skipped", slog.String("path", f.Path), slog.String("error", err.Error()))
			report.add(Result{Identifier: identifier, Action: ActionNone, Err: err})
			continue
		}
		if entry.Permalink != "" {
			linkMap[entry.Identifier] = entry.Permalink
		}
		if only != "" && entry.Identifier != only {
			continue
		}
		entries = append(entries, entry)
	}
	if only != "" && len(entries) == 0 && len(report.Results) == 0 {
		return nil, fmt.Errorf("%w: %s", apperr.ErrEntryNotFound, only)
	}

	inverse := linkMap.Invert()

	// Pulling fetches the whole collection once: the feed carries fresh
	// remote timestamps and bodies for every tracked entry.
	var remoteAll []models.RemoteEntry
	var remoteByID map[string]*models.RemoteEntry
	if direction != DirectionPush {
		remoteAll, err = e.repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("reconcile: list remote entries: %w", err)
		}
		remoteByID = make(map[string]*models.RemoteEntry, len(remoteAll))
		for i := range remoteAll {
			remoteByID[remoteAll[i].ID] = &remoteAll[i]
		}
	}

	known := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.HasRemote() {
			known[entry.RemoteID] = true
		}
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.add(e.syncEntry(ctx, entry, direction, linkMap, inverse, remoteByID))
	}

	// Remote-only entries materialize locally on pull.
	if direction != DirectionPush && only == "" {
		for i := range remoteAll {
			if known[remoteAll[i].ID] {
				continue
			}
			report.add(e.materialize(&remoteAll[i], inverse))
		}
	}

	return report, nil
}

func (e *Engine) syncEntry(ctx context.Context, entry *models.LocalEntry, direction Direction, lm links.Map, inverse map[string]string, remoteByID map[string]*models.RemoteEntry) Result {
	if entry.Stage == models.StageArchived {
		return Result{Identifier: entry.Identifier, Action: ActionNone}
	}

	if !entry.HasRemote() {
		if direction == DirectionPull {
			e.logger.Debug("unpushed entry held back in pull-only run", slog.String("identifier", entry.Identifier))
			return Result{Identifier: entry.Identifier, Action: ActionNone}
		}
		return e.create(ctx, entry, lm)
	}

	// Incubating entries stay out of bulk remote polling.
	var remote *models.RemoteEntry
	if entry.Stage != models.StageIncubating {
		remote = remoteByID[entry.RemoteID]
	}

	rec, err := e.journal.Get(entry.Identifier)
	if err != nil {
		e.logger.Warn("journal read failed", slog.String("identifier", entry.Identifier), slog.String("error", err.Error()))
	}
	localAt := localUpdatedAt(entry, rec)

	var remoteAt time.Time
	switch {
	case remote != nil:
		remoteAt = remote.UpdatedAt
	case rec != nil && !rec.LastSyncedAt.IsZero():
		remoteAt = rec.LastSyncedAt
	default:
		fetched, err := e.repo.Get(ctx, entry.RemoteID)
		if err != nil {
			return e.fail(entry, ActionNone, "get", err, nil)
		}
		remote = fetched
		// First sight of a tracked entry with no journal trail. When the
		// translated content already matches, seed the journal rather
		// than pushing a no-change update.
		if e.contentMatches(entry, remote, lm) {
			e.record(entry, remote.UpdatedAt)
			return Result{Identifier: entry.Identifier, Action: ActionNone}
		}
		remoteAt = remote.UpdatedAt
	}

	switch Classify(localAt, remoteAt) {
	case ActionUpdate:
		if direction == DirectionPull {
			e.logger.Debug("local change held back in pull-only run", slog.String("identifier", entry.Identifier))
			return Result{Identifier: entry.Identifier, Action: ActionNone}
		}
		return e.update(ctx, entry, lm)

	case ActionPull:
		if direction == DirectionPush {
			e.logger.Debug("remote change held back in push-only run", slog.String("identifier", entry.Identifier))
			return Result{Identifier: entry.Identifier, Action: ActionNone}
		}
		if remote == nil {
			fetched, err := e.repo.Get(ctx, entry.RemoteID)
			if err != nil {
				return e.fail(entry, ActionPull, "get", err, nil)
			}
			remote = fetched
		}
		return e.pull(entry, remote, inverse)

	default:
		return Result{Identifier: entry.Identifier, Action: ActionNone}
	}
}

// localUpdatedAt derives the effective local timestamp: an unchanged file
// carries its last-synced time, an edited one its mtime.
func localUpdatedAt(entry *models.LocalEntry, rec *journal.Record) time.Time {
	if rec != nil && rec.Checksum == entry.Checksum && !rec.LastSyncedAt.IsZero() {
		return rec.LastSyncedAt
	}
	return entry.ModTime
}

// contentMatches reports whether the entry, as it would be pushed, equals
// the remote copy.
func (e *Engine) contentMatches(entry *models.LocalEntry, remote *models.RemoteEntry, lm links.Map) bool {
	translated, _ := links.LocalToRemote(entry.Body, lm)
	return entry.Title == remote.Title &&
		strings.TrimSpace(translated) == strings.TrimSpace(remote.Body)
}

// create pushes a brand-new entry. It always lands remotely as a draft,
// whatever the local status field says.
func (e *Engine) create(ctx context.Context, entry *models.LocalEntry, lm links.Map) Result {
	body, warnings := links.LocalToRemote(entry.Body, lm)
	remote, err := e.repo.Create(ctx, atompub.EntryDraft{
		Title:    entry.Title,
		Body:     body,
		Category: entry.Category,
		Draft:    true,
	})
	if err != nil {
		return e.fail(entry, ActionCreate, "create", err, warnings)
	}
	if remote.ID == "" {
		return e.fail(entry, ActionCreate, "create", fmt.Errorf("response carries no entry id"), warnings)
	}
	return e.writeBack(entry, remote, ActionCreate, warnings)
}

// update replaces the remote copy with local content. The draft flag
// follows the local status field.
func (e *Engine) update(ctx context.Context, entry *models.LocalEntry, lm links.Map) Result {
	body, warnings := links.LocalToRemote(entry.Body, lm)
	remote, err := e.repo.Update(ctx, entry.RemoteID, atompub.EntryDraft{
		Title:    entry.Title,
		Body:     body,
		Category: entry.Category,
		Draft:    entry.Status != models.StatusPublished,
	})
	if err != nil {
		return e.fail(entry, ActionUpdate, "update", err, warnings)
	}
	return e.writeBack(entry, remote, ActionUpdate, warnings)
}

// writeBack persists the service's answer to a push: remote id, permalink,
// and updated timestamp flow into the entry's frontmatter, and a first
// successful push advances the entry out of incubation.
func (e *Engine) writeBack(entry *models.LocalEntry, remote *models.RemoteEntry, action Action, warnings []links.Warning) Result {
	if remote.ID != "" {
		entry.RemoteID = remote.ID
	}
	if remote.Permalink != "" {
		entry.Permalink = remote.Permalink
	}
	syncedAt := remote.UpdatedAt
	if syncedAt.IsZero() {
		syncedAt = e.now()
	}
	entry.Updated = frontmatter.FormatTime(syncedAt)

	if err := e.manager.Save(entry); err != nil {
		return e.failWriteBack(entry, action, warnings, err)
	}
	if err := e.manager.Advance(entry); err != nil {
		return e.failWriteBack(entry, action, warnings, err)
	}
	e.record(entry, syncedAt)
	e.logger.Info("entry pushed",
		slog.String("identifier", entry.Identifier),
		slog.String("action", string(action)),
		slog.String("remote_id", entry.RemoteID))
	return Result{Identifier: entry.Identifier, Action: action, Warnings: warnings}
}

// pull overwrites local content and metadata with the remote copy.
func (e *Engine) pull(entry *models.LocalEntry, remote *models.RemoteEntry, inverse map[string]string) Result {
	entry.Title = remote.Title
	entry.Body = links.RemoteToLocal(remote.Body, inverse)
	if remote.Category != "" {
		entry.Category = remote.Category
	}
	if remote.Permalink != "" {
		entry.Permalink = remote.Permalink
	}
	entry.Status = models.StatusPublished
	if remote.Draft {
		entry.Status = models.StatusDraft
	}
	entry.Updated = frontmatter.FormatTime(remote.UpdatedAt)

	if err := e.manager.Save(entry); err != nil {
		return e.failWriteBack(entry, ActionPull, nil, err)
	}
	e.record(entry, remote.UpdatedAt)
	e.logger.Info("entry pulled",
		slog.String("identifier", entry.Identifier),
		slog.String("remote_id", entry.RemoteID))
	return Result{Identifier: entry.Identifier, Action: ActionPull}
}

// materialize creates a local file for an entry that exists only remotely.
// The identifier is the remote update time plus a sanitized title.
func (e *Engine) materialize(remote *models.RemoteEntry, inverse map[string]string) Result {
	identifier := remoteIdentifier(remote)
	date := remote.PublishedAt
	if date.IsZero() {
		date = remote.UpdatedAt
	}
	status := models.StatusPublished
	if remote.Draft {
		status = models.StatusDraft
	}
	entry := &models.LocalEntry{
		Identifier: identifier,
		Stage:      models.StageSynced,
		Title:      remote.Title,
		Date:       date.Format("2006-01-02"),
		Updated:    frontmatter.FormatTime(remote.UpdatedAt),
		Status:     status,
		Category:   remote.Category,
		Permalink:  remote.Permalink,
		RemoteID:   remote.ID,
		Body:       links.RemoteToLocal(remote.Body, inverse),
	}
	if err := e.manager.Materialize(entry); err != nil {
		e.logger.Error("pull materialization failed",
			slog.String("identifier", identifier),
			slog.String("error", err.Error()))
		return Result{Identifier: identifier, Action: ActionPull, Err: err}
	}
	e.record(entry, remote.UpdatedAt)
	e.logger.Info("entry materialized from remote",
		slog.String("identifier", identifier),
		slog.String("remote_id", remote.ID))
	return Result{Identifier: identifier, Action: ActionPull}
}

// remoteIdentifier names a pulled entry after its update time and title.
func remoteIdentifier(remote *models.RemoteEntry) string {
	at := remote.UpdatedAt
	if at.IsZero() {
		at = remote.PublishedAt
	}
	title := strings.TrimSpace(remote.Title)
	title = strings.ReplaceAll(title, "/", "_")
	title = strings.ReplaceAll(title, "\\", "_")
	if title == "" {
		title = "untitled"
	}
	return at.Format("20060102150405") + "-" + title
}

// record caches the post-sync entry state in the journal. Journal failures
// degrade the next run to remote fetches, so they only warn.
func (e *Engine) record(entry *models.LocalEntry, syncedAt time.Time) {
	if syncedAt.IsZero() {
		syncedAt = e.now()
	}
	err := e.journal.Upsert(journal.Record{
		Identifier:   entry.Identifier,
		Stage:        string(entry.Stage),
		Title:        entry.Title,
		RemoteID:     entry.RemoteID,
		Permalink:    entry.Permalink,
		Checksum:     entry.Checksum,
		Tags:         entry.Tags,
		LastSyncedAt: syncedAt,
	}, entry.Body)
	if err != nil {
		e.logger.Warn("journal update failed", slog.String("identifier", entry.Identifier), slog.String("error", err.Error()))
	}
}

func (e *Engine) fail(entry *models.LocalEntry, action Action, op string, err error, warnings []links.Warning) Result {
	rerr := &apperr.RemoteError{Op: op, Identifier: entry.Identifier, Err: err}
	e.logger.Error("remote operation failed",
		slog.String("op", op),
		slog.String("identifier", entry.Identifier),
		slog.String("error", err.Error()))
	return Result{Identifier: entry.Identifier, Action: action, Err: rerr, Warnings: warnings}
}

// failWriteBack flags the dangerous half-synced state: the remote call
// succeeded but the local write did not.
func (e *Engine) failWriteBack(entry *models.LocalEntry, action Action, warnings []links.Warning, err error) Result {
	wberr := &apperr.WriteBackError{Identifier: entry.Identifier, Err: err}
	e.logger.Error("write-back failed; remote already holds the new state",
		slog.String("identifier", entry.Identifier),
		slog.String("error", err.Error()))
	return Result{Identifier: entry.Identifier, Action: action, Err: wberr, Warnings: warnings}
}
