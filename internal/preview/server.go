package preview

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bulldra/hatena-sync/internal/apperr"
	"github.com/bulldra/hatena-sync/internal/links"
	"github.com/bulldra/hatena-sync/internal/models"
	"github.com/bulldra/hatena-sync/internal/sse"
	"github.com/bulldra/hatena-sync/internal/workflow"
)

// Server renders vault entries as HTML pages.
type Server struct {
	manager  *workflow.Manager
	renderer *Renderer
	broker   *sse.Broker
	logger   *slog.Logger
}

// NewServer creates a preview server over the workflow manager. broker may
// carry live-reload events from a vault watcher.
func NewServer(manager *workflow.Manager, broker *sse.Broker, logger *slog.Logger) *Server {
	return &Server{
		manager:  manager,
		renderer: NewRenderer(),
		broker:   broker,
		logger:   logger,
	}
}

// Router returns the preview routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.handleIndex)
	r.Get("/entry/*", s.handleEntry)
	r.Get("/events", s.broker.ServeHTTP)
	return r
}

type entryItem struct {
	Identifier string
	Ref        string
	Title      string
	Stage      string
	Date       string
}

type indexData struct {
	Title      string
	Identifier string
	Entries    []entryItem
}

type entryData struct {
	Title      string
	Identifier string
	Entry      *models.LocalEntry
	HTML       template.HTML
}

// entryRef extracts the entry identifier from the URL (everything after
// /entry/). Encoded characters are tolerated for identifiers with spaces.
func entryRef(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	entries, err := s.loadEntries()
	if err != nil {
		s.logger.Error("preview: list entries failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	items := make([]entryItem, 0, len(entries))
	for _, e := range entries {
		title := e.Title
		if title == "" {
			title = e.Identifier
		}
		items = append(items, entryItem{
			Identifier: e.Identifier,
			Ref:        url.PathEscape(e.Identifier),
			Title:      title,
			Stage:      string(e.Stage),
			Date:       e.Date,
		})
	}
	s.renderPage(w, http.StatusOK, "index", indexData{Title: "hatena-sync preview", Entries: items})
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	identifier := entryRef(r)
	if identifier == "" {
		http.Error(w, "identifier is required", http.StatusBadRequest)
		return
	}
	entry, err := s.manager.Load(identifier)
	if err != nil {
		if errors.Is(err, apperr.ErrEntryNotFound) {
			http.Error(w, "entry not found", http.StatusNotFound)
			return
		}
		s.logger.Error("preview: load entry failed",
			slog.String("identifier", identifier),
			slog.String("error", err.Error()))
		http.Error(w, "entry could not be read", http.StatusInternalServerError)
		return
	}

	html, err := s.renderer.Render(entry.Body, s.routes())
	if err != nil {
		s.logger.Error("preview: render failed",
			slog.String("identifier", identifier),
			slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	title := entry.Title
	if title == "" {
		title = entry.Identifier
	}
	s.renderPage(w, http.StatusOK, "entry", entryData{
		Title:      title,
		Identifier: entry.Identifier,
		Entry:      entry,
		HTML:       html,
	})
}

// routes maps every vault identifier to its preview URL so wikilinks stay
// navigable inside the preview.
func (s *Server) routes() links.Map {
	m := links.Map{}
	files, err := s.manager.Files()
	if err != nil {
		return m
	}
	for _, f := range files {
		identifier := strings.TrimSuffix(filepath.Base(f.Path), ".md")
		m[identifier] = "/entry/" + url.PathEscape(identifier)
	}
	return m
}

var stageRank = map[models.Stage]int{
	models.StageIncubating: 0,
	models.StageSynced:     1,
	models.StageArchived:   2,
}

func (s *Server) loadEntries() ([]*models.LocalEntry, error) {
	files, err := s.manager.Files()
	if err != nil {
		return nil, err
	}
	var out []*models.LocalEntry
	for _, f := range files {
		entry, err := s.manager.LoadPath(f.Path)
		if err != nil {
			s.logger.Warn("preview: entry unreadable",
				slog.String("path", f.Path),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if stageRank[out[i].Stage] != stageRank[out[j].Stage] {
			return stageRank[out[i].Stage] < stageRank[out[j].Stage]
		}
		return out[i].Identifier < out[j].Identifier
	})
	return out, nil
}

func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("preview: template render failed",
			slog.String("template", name),
			slog.String("error", err.Error()))
	}
}
