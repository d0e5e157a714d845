package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bulldra/hatena-sync/internal/journal"
	"github.com/bulldra/hatena-sync/internal/testutil"
	"github.com/bulldra/hatena-sync/internal/workflow"
)

func testServer(t *testing.T) (*Server, *journal.DB) {
	t.Helper()

	_, store := testutil.TestVault(t)
	db := testutil.TestJournal(t)

	srv := New(workflow.NewManager(store), store, db)
	return srv, db
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handler
	// functions are exercised directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_entries":
		result, err = srv.listEntries(ctx, req)
	case "read_entry":
		result, err = srv.readEntry(ctx, req)
	case "search_entries":
		result, err = srv.searchEntries(ctx, req)
	case "draft_entry":
		result, err = srv.draftEntry(ctx, req)
	case "get_entry_contract":
		result, err = srv.getEntryContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestDraftAndReadEntry(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "draft_entry", map[string]interface{}{
		"identifier": "first-post",
		"title":      "First Post",
		"body":       "Hello world.\n",
	})
	if r.IsError {
		t.Fatalf("draft failed: %s", resultText(r))
	}
	if got := resultText(r); got != "created: feature/first-post.md" {
		t.Errorf("draft result = %q", got)
	}

	r = callTool(t, srv, "read_entry", map[string]interface{}{
		"identifier": "first-post",
	})
	text := resultText(r)
	if !strings.HasPrefix(text, "---\n") {
		t.Errorf("entry content missing frontmatter: %q", text)
	}
	if !strings.Contains(text, "title: First Post") {
		t.Errorf("title missing: %q", text)
	}
	if !strings.Contains(text, "Hello world.") {
		t.Errorf("body missing: %q", text)
	}
}

func TestDraftEntryDuplicate(t *testing.T) {
	srv, _ := testServer(t)

	_ = callTool(t, srv, "draft_entry", map[string]interface{}{"identifier": "dup"})
	r := callTool(t, srv, "draft_entry", map[string]interface{}{"identifier": "dup"})
	if !r.IsError {
		t.Error("expected error for duplicate identifier")
	}
}

func TestListEntriesStageFilter(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "draft_entry", map[string]interface{}{"identifier": "one"})
	_ = callTool(t, srv, "draft_entry", map[string]interface{}{"identifier": "two"})

	r := callTool(t, srv, "list_entries", map[string]interface{}{"stage": "incubating"})
	text := resultText(r)
	if !strings.Contains(text, `"one"`) || !strings.Contains(text, `"two"`) {
		t.Errorf("list = %q", text)
	}

	r = callTool(t, srv, "list_entries", map[string]interface{}{"stage": "archived"})
	if got := resultText(r); strings.Contains(got, `"one"`) {
		t.Errorf("archived filter leaked entries: %q", got)
	}

	r = callTool(t, srv, "list_entries", map[string]interface{}{"stage": "limbo"})
	if !r.IsError {
		t.Error("expected error for unknown stage")
	}
}

func TestReadEntryMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_entry", map[string]interface{}{"identifier": "nope"})
	if !r.IsError {
		t.Error("expected error for missing entry")
	}
}

func TestSearchEntries(t *testing.T) {
	srv, db := testServer(t)
	err := db.Upsert(journal.Record{
		Identifier: "go-notes",
		Title:      "Notes on Go",
	}, "Channels and goroutines make concurrency tractable.")
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	r := callTool(t, srv, "search_entries", map[string]interface{}{"query": "goroutines"})
	if r.IsError {
		t.Fatalf("search failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "go-notes") {
		t.Errorf("search result = %q", resultText(r))
	}
}

func TestEntryContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_entry_contract", map[string]interface{}{})
	text := resultText(r)
	for _, want := range []string{"title", "status", "wikilinks", "feature/"} {
		if !strings.Contains(text, want) {
			t.Errorf("contract missing %q", want)
		}
	}
}
