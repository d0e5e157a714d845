package preview

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bulldra/hatena-sync/internal/models"
	"github.com/bulldra/hatena-sync/internal/sse"
	"github.com/bulldra/hatena-sync/internal/vault"
	"github.com/bulldra/hatena-sync/internal/workflow"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	fs, err := vault.NewFS(root)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	broker := sse.NewBroker(time.Second)
	t.Cleanup(broker.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(workflow.NewManager(fs), broker, logger), root
}

func writeEntry(t *testing.T, root string, stage models.Stage, identifier, body string) {
	t.Helper()
	dir := filepath.Join(root, workflow.Dir(stage))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	content := strings.Join([]string{
		"---",
		"title: " + identifier,
		`date: "2024-04-01"`,
		"tags: []",
		"status: draft",
		"---",
		"",
		body,
	}, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, identifier+".md"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestIndex_ListsEntriesByStage(t *testing.T) {
	srv, root := testServer(t)
	writeEntry(t, root, models.StageSynced, "beta", "Synced entry.")
	writeEntry(t, root, models.StageIncubating, "alpha", "Incubating entry.")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`href="/entry/alpha"`, `href="/entry/beta"`, "incubating", "synced"} {
		if !strings.Contains(body, want) {
			t.Errorf("index page missing %q", want)
		}
	}
	// Incubating entries sort before synced ones.
	if strings.Index(body, "alpha") > strings.Index(body, "beta") {
		t.Error("entries out of stage order")
	}
}

func TestIndex_EmptyVault(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "vault is empty") {
		t.Error("empty vault message missing")
	}
}

func TestEntry_RendersMarkdown(t *testing.T) {
	srv, root := testServer(t)
	writeEntry(t, root, models.StageSynced, "post", "## Section\n\nSome **bold** text.")

	req := httptest.NewRequest(http.MethodGet, "/entry/post", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "<h2") || !strings.Contains(body, "Section") {
		t.Errorf("heading not rendered: %q", body)
	}
	if !strings.Contains(body, "<strong>bold</strong>") {
		t.Error("bold not rendered")
	}
	if !strings.Contains(body, `data-identifier="post"`) {
		t.Error("live reload identifier missing")
	}
}

func TestEntry_WikilinksBecomePreviewLinks(t *testing.T) {
	srv, root := testServer(t)
	writeEntry(t, root, models.StageSynced, "target", "Target body.")
	writeEntry(t, root, models.StageIncubating, "source", "See [[target]] and [[nowhere]].")

	req := httptest.NewRequest(http.MethodGet, "/entry/source", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `href="/entry/target"`) {
		t.Errorf("wikilink not rewritten: %q", body)
	}
	if !strings.Contains(body, "[[nowhere]]") {
		t.Error("unresolved wikilink should stay verbatim")
	}
}

func TestEntry_CodeBlockWikilinksUntouched(t *testing.T) {
	srv, root := testServer(t)
	writeEntry(t, root, models.StageSynced, "target", "Target body.")
	writeEntry(t, root, models.StageSynced, "snippets", "```\n[[target]]\n```")

	req := httptest.NewRequest(http.MethodGet, "/entry/snippets", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), `href="/entry/target"`) {
		t.Error("wikilink inside code fence was rewritten")
	}
}

func TestEntry_NotFound(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/entry/ghost", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestEntry_EscapedIdentifier(t *testing.T) {
	srv, root := testServer(t)
	writeEntry(t, root, models.StageSynced, "20240501120000-Pulled Entry", "Pulled body.")

	req := httptest.NewRequest(http.MethodGet, "/entry/20240501120000-Pulled%20Entry", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Pulled body.") {
		t.Error("entry body missing")
	}
}

func TestEvents_StreamsBrokerMessages(t *testing.T) {
	srv, _ := testServer(t)

	server := httptest.NewServer(srv.Router())
	defer server.Close()

	resp, err := http.Get(server.URL + "/events")
	if err != nil {
		t.Fatalf("GET /events: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	// The handler subscribes after flushing headers; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for srv.broker.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	srv.broker.PublishEntryEvent("updated", "post")

	buf := make([]byte, 1024)
	n, err := resp.Body.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(buf[:n]), "entry.updated") {
		t.Errorf("stream = %q", string(buf[:n]))
	}
}
