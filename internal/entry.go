// Package internal wires configuration, the vault, the journal, and the
// sync engine into the commands the CLI exposes.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/bulldra/hatena-sync/internal/atompub"
	"github.com/bulldra/hatena-sync/internal/journal"
	"github.com/bulldra/hatena-sync/internal/mcpserver"
	"github.com/bulldra/hatena-sync/internal/models"
	"github.com/bulldra/hatena-sync/internal/output"
	"github.com/bulldra/hatena-sync/internal/preview"
	"github.com/bulldra/hatena-sync/internal/reconcile"
	"github.com/bulldra/hatena-sync/internal/sse"
	"github.com/bulldra/hatena-sync/internal/vault"
	"github.com/bulldra/hatena-sync/internal/workflow"
)

// App bundles the long-lived pieces behind every CLI command.
type App struct {
	cfg     *Config
	logger  *slog.Logger
	printer *output.Printer
	store   vault.Provider
	manager *workflow.Manager
	db      *journal.DB
	repo    atompub.Repository
}

// NewApp builds the local half of the application: logger, vault, journal.
// The remote client is constructed lazily so that local commands never need
// credentials.
func NewApp(opts ...Option) (*App, error) {
	app := &App{}

	for _, opt := range opts {
		opt(app)
	}

	if app.cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.cfg

	// Logs go to stderr; stdout carries command output and, in MCP mode,
	// the protocol stream.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.Level(),
	}))
	slog.SetDefault(logger)
	app.logger = logger

	if app.printer == nil {
		app.printer = output.NewPrinter(output.Options{})
	}

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := vault.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init vault: %w", err)
	}
	app.store = store
	app.manager = workflow.NewManager(store)

	db, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	app.db = db

	logger.Debug("application ready",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("journal_path", cfg.Journal.Path),
		slog.String("log_level", cfg.App.LogLevel))

	return app, nil
}

// Close releases the journal handle.
func (a *App) Close() error {
	return a.db.Close()
}

// remote returns the blog client, building it on first use.
func (a *App) remote() (atompub.Repository, error) {
	if a.repo != nil {
		return a.repo, nil
	}
	if err := a.cfg.RequireRemote(); err != nil {
		return nil, err
	}
	r := a.cfg.Remote
	a.repo = atompub.NewClient(r.Endpoint, r.Username, r.BlogID, r.APIKey, a.logger)
	return a.repo, nil
}

func (a *App) engine() (*reconcile.Engine, error) {
	repo, err := a.remote()
	if err != nil {
		return nil, err
	}
	return reconcile.New(a.manager, repo, a.db, a.logger), nil
}

// RunNew scaffolds an entry in the feature stage and reports its path.
func (a *App) RunNew(identifier, title string) error {
	entry, err := a.manager.Scaffold(identifier, title)
	if err != nil {
		return err
	}
	a.printer.Success("created %s", filepath.Join(a.cfg.Vault.Path, entry.Path))
	return nil
}

// RunSync reconciles the vault against the remote blog, printing one line
// per entry. The returned error is non-nil when any entry failed, so the
// process exits non-zero.
func (a *App) RunSync(ctx context.Context, direction reconcile.Direction, identifier string) error {
	eng, err := a.engine()
	if err != nil {
		return err
	}

	var report *reconcile.Report
	if identifier != "" {
		report, err = eng.SyncOne(ctx, direction, identifier)
	} else {
		report, err = eng.Run(ctx, direction)
	}
	if err != nil {
		return err
	}

	for _, res := range report.Results {
		a.printResult(res)
	}
	a.printer.Info("%d changed, %d failed, %d total",
		report.Changed(), report.Failed(), len(report.Results))

	if n := report.Failed(); n > 0 {
		return fmt.Errorf("%d of %d entries failed", n, len(report.Results))
	}
	return nil
}

func (a *App) printResult(res reconcile.Result) {
	badge := a.printer.ActionBadge(string(res.Action))
	if res.Err != nil {
		a.printer.Error("%s %s: %v", badge, res.Identifier, res.Err)
		return
	}
	if res.Action == reconcile.ActionNone {
		a.printer.Print("%s %s", badge, a.printer.Dim(res.Identifier))
	} else {
		a.printer.Print("%s %s", badge, res.Identifier)
	}
	for _, w := range res.Warnings {
		a.printer.Warning("%s: unresolved wikilink [[%s]]", res.Identifier, w.Target)
	}
}

var stageOrder = map[models.Stage]int{
	models.StageIncubating: 0,
	models.StageSynced:     1,
	models.StageArchived:   2,
}

// RunList prints every vault entry, grouped by lifecycle stage.
func (a *App) RunList() error {
	files, err := a.manager.Files()
	if err != nil {
		return err
	}

	entries := make([]*models.LocalEntry, 0, len(files))
	for _, f := range files {
		entry, err := a.manager.LoadPath(f.Path)
		if err != nil {
			a.printer.Warning("%s: %v", f.Path, err)
			continue
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		a.printer.Info("vault is empty")
		return nil
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Stage != entries[j].Stage {
			return stageOrder[entries[i].Stage] < stageOrder[entries[j].Stage]
		}
		return entries[i].Identifier < entries[j].Identifier
	})

	table := output.NewTable(a.printer.Out(), []string{"Identifier", "Stage", "Status", "Title", "Date"})
	for _, e := range entries {
		table.AddRow([]string{e.Identifier, string(e.Stage), string(e.Status), e.Title, e.Date})
	}
	table.Render()
	return nil
}

// RunSearch queries the journal's full-text index.
func (a *App) RunSearch(query string) error {
	hits, err := a.db.Search(query, 20)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		a.printer.Info("no entries matched %q", query)
		return nil
	}

	table := output.NewTable(a.printer.Out(), []string{"Identifier", "Title", "Snippet"})
	for _, h := range hits {
		table.AddRow([]string{h.Identifier, h.Title, h.Snippet})
	}
	table.Render()
	return nil
}

// RunArchive moves an entry into the archived stage so sync runs leave it
// alone from now on.
func (a *App) RunArchive(identifier string) error {
	entry, err := a.manager.Load(identifier)
	if err != nil {
		return err
	}
	if err := a.manager.Archive(entry); err != nil {
		return err
	}

	// The engine skips archived entries, so the journal stage is updated
	// here or not at all.
	if rec, err := a.db.Get(identifier); err == nil && rec != nil {
		rec.Stage = string(models.StageArchived)
		if err := a.db.Upsert(*rec, entry.Body); err != nil {
			a.logger.Warn("journal update failed",
				slog.String("identifier", identifier),
				slog.String("error", err.Error()))
		}
	}

	a.printer.Success("archived %s", identifier)
	return nil
}

// RunPreview serves the vault as rendered HTML with live reload until the
// context is cancelled or a shutdown signal arrives.
func (a *App) RunPreview(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	srv := preview.NewServer(a.manager, broker, a.logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Mount("/", srv.Router())

	httpServer := &http.Server{
		Addr:    a.cfg.Preview.Address(),
		Handler: r,
	}

	a.printer.Info("preview running on http://localhost%s", a.cfg.Preview.Address())

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return preview.Watch(gCtx, a.cfg.Vault.Path, broker, a.logger)
	})

	g.Go(func() error {
		a.logger.Info("preview server starting", slog.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("preview server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			a.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}

		// Cancelling the parent context stops the watcher goroutine; the
		// errgroup context alone would only cancel on error.
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("preview server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	a.logger.Info("preview stopped")
	return nil
}

// RunWatch pushes local edits continuously until interrupted.
func (a *App) RunWatch(ctx context.Context) error {
	eng, err := a.engine()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return eng.Watch(gCtx, a.cfg.Vault.Path, func(res reconcile.Result) {
			a.printResult(res)
		})
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			a.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}
		cancel()
		return nil
	})

	return g.Wait()
}

// RunMCP serves the vault to MCP clients over stdio.
func (a *App) RunMCP() error {
	a.logger.Info("mcp server listening on stdio")
	return mcpserver.New(a.manager, a.store, a.db).ServeStdio()
}
