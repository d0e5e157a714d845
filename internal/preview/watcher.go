package preview

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/bulldra/hatena-sync/internal/models"
	"github.com/bulldra/hatena-sync/internal/sse"
	"github.com/bulldra/hatena-sync/internal/workflow"
)

// Watch publishes vault file changes to the broker until ctx is cancelled,
// driving the live reload of open preview pages.
func Watch(ctx context.Context, root string, broker *sse.Broker, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, stage := range []models.Stage{models.StageIncubating, models.StageSynced, models.StageArchived} {
		dir := filepath.Join(root, workflow.Dir(stage))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("preview: create watch dir: %w", err)
		}
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("preview: watch %s: %w", dir, err)
		}
	}

	logger.Info("preview watcher: started", slog.String("root", root))

	for {
		select {
		case <-ctx.Done():
			logger.Info("preview watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			identifier := strings.TrimSuffix(filepath.Base(ev.Name), ".md")
			switch {
			case ev.Op&fsnotify.Create != 0:
				broker.PublishEntryEvent("created", identifier)
			case ev.Op&fsnotify.Write != 0:
				broker.PublishEntryEvent("updated", identifier)
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				broker.PublishEntryEvent("deleted", identifier)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("preview watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
