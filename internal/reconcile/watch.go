package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bulldra/hatena-sync/internal/models"
	"github.com/bulldra/hatena-sync/internal/workflow"
)

// WatchCallback is called with the result of each watcher-driven push.
type WatchCallback func(res Result)

const watchDebounce = 500 * time.Millisecond

// Watch pushes entries as their files change on disk, until ctx is
// cancelled. Events are debounced so a burst of editor saves becomes one
// push per touched entry.
//
// Writes the engine itself makes echo back as watcher events; the journal
// checksum check settles those without network traffic.
func (e *Engine) Watch(ctx context.Context, root string, cb WatchCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, stage := range []models.Stage{models.StageIncubating, models.StageSynced} {
		dir := filepath.Join(root, workflow.Dir(stage))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("reconcile: create watch dir: %w", err)
		}
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("reconcile: watch %s: %w", dir, err)
		}
	}

	e.logger.Info("watch: started", slog.String("root", root))

	dirty := make(map[string]bool)

	// flushTimer is used to debounce bursts of file events.
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	scheduleFlush := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(watchDebounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(watchDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			e.logger.Info("watch: stopped")
			return nil

		case <-flushCh:
			ids := make([]string, 0, len(dirty))
			for id := range dirty {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			dirty = make(map[string]bool)

			for _, id := range ids {
				report, runErr := e.SyncOne(ctx, DirectionPush, id)
				if runErr != nil {
					// The file vanished before the debounce fired, or the
					// vault listing failed. Either way the next event for
					// this entry retries.
					e.logger.Warn("watch: sync failed",
						slog.String("identifier", id),
						slog.String("error", runErr.Error()))
					continue
				}
				for _, res := range report.Results {
					if cb != nil {
						cb(res)
					}
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			// Rename fires on the old path; the new path arrives as its
			// own Create event. Removed files have nothing to push.
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			dirty[strings.TrimSuffix(filepath.Base(ev.Name), ".md")] = true
			scheduleFlush()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("watch: error", slog.String("error", watchErr.Error()))
		}
	}
}
