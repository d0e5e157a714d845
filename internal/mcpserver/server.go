// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the vault to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bulldra/hatena-sync/internal/journal"
	"github.com/bulldra/hatena-sync/internal/models"
	"github.com/bulldra/hatena-sync/internal/vault"
	"github.com/bulldra/hatena-sync/internal/workflow"
)

// Server wraps the MCP server with vault tools.
type Server struct {
	mcp     *server.MCPServer
	manager *workflow.Manager
	store   vault.Provider
	db      journal.Store
}

// New creates an MCP server with all vault tools registered. Tools operate
// on local state only; nothing here talks to the remote blog.
func New(manager *workflow.Manager, store vault.Provider, db journal.Store) *Server {
	s := &Server{manager: manager, store: store, db: db}

	s.mcp = server.NewMCPServer(
		"hatena-sync",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List vault entries with their lifecycle stage and sync status."),
		mcp.WithString("stage", mcp.Description("Optional stage filter: incubating, synced, or archived")),
	), s.listEntries)

	s.mcp.AddTool(mcp.NewTool("read_entry",
		mcp.WithDescription("Read the full content of an entry, frontmatter included."),
		mcp.WithString("identifier", mcp.Required(), mcp.Description("Entry identifier (file name without .md)")),
	), s.readEntry)

	s.mcp.AddTool(mcp.NewTool("search_entries",
		mcp.WithDescription("Full-text search through entry titles and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchEntries)

	s.mcp.AddTool(mcp.NewTool("draft_entry",
		mcp.WithDescription("Create a new incubating entry. The body MUST follow the canonical "+
			"entry format (YAML frontmatter plus Markdown with [[wikilinks]]); read the contract "+
			"first via the get_entry_contract tool or the hatena-sync://entry-format resource. "+
			"Omit the body to scaffold an empty entry."),
		mcp.WithString("identifier", mcp.Required(), mcp.Description("Identifier for the new entry (file name without .md)")),
		mcp.WithString("title", mcp.Description("Entry title (defaults to the identifier)")),
		mcp.WithString("body", mcp.Description("Optional Markdown body, without frontmatter")),
	), s.draftEntry)

	s.mcp.AddTool(mcp.NewTool("get_entry_contract",
		mcp.WithDescription("Returns the canonical entry format contract. "+
			"Call this before drafting entries to ensure correct structure."),
	), s.getEntryContract)

	// Resource: entry format contract.
	s.mcp.AddResource(
		mcp.NewResource("hatena-sync://entry-format", "Entry Format Contract",
			mcp.WithResourceDescription("Canonical Markdown entry format that all vault entries follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEntryFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type entrySummary struct {
	Identifier string   `json:"identifier"`
	Title      string   `json:"title"`
	Stage      string   `json:"stage"`
	Status     string   `json:"status"`
	Date       string   `json:"date,omitempty"`
	RemoteID   string   `json:"remote_id,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

func (s *Server) listEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stageFilter := ""
	if v, err := req.RequireString("stage"); err == nil {
		stageFilter = v
	}
	switch models.Stage(stageFilter) {
	case "", models.StageIncubating, models.StageSynced, models.StageArchived:
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown stage %q", stageFilter)), nil
	}

	files, err := s.manager.Files()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var out []entrySummary
	for _, f := range files {
		entry, err := s.manager.LoadPath(f.Path)
		if err != nil {
			continue
		}
		if stageFilter != "" && entry.Stage != models.Stage(stageFilter) {
			continue
		}
		out = append(out, entrySummary{
			Identifier: entry.Identifier,
			Title:      entry.Title,
			Stage:      string(entry.Stage),
			Status:     string(entry.Status),
			Date:       entry.Date,
			RemoteID:   entry.RemoteID,
			Tags:       entry.Tags,
		})
	}
	text, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(text)), nil
}

func (s *Server) readEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identifier, err := req.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry, err := s.manager.Load(identifier)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", identifier)), nil
	}
	data, err := s.store.Read(entry.Path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) searchEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(text)), nil
}

func (s *Server) draftEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identifier, err := req.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title := ""
	if v, err := req.RequireString("title"); err == nil {
		title = v
	}
	body := ""
	if v, err := req.RequireString("body"); err == nil {
		body = v
	}

	entry, err := s.manager.Scaffold(identifier, title)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if body != "" {
		entry.Body = strings.TrimLeft(body, "\n")
		if err := s.manager.Save(entry); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", filepath.ToSlash(entry.Path))), nil
}

func (s *Server) getEntryContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(EntryFormatContract), nil
}

func (s *Server) readEntryFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "hatena-sync://entry-format",
			MIMEType: "text/markdown",
			Text:     EntryFormatContract,
		},
	}, nil
}
