// Package preview serves the vault as rendered HTML with live reload.
package preview

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/bulldra/hatena-sync/internal/links"
)

// Renderer turns entry Markdown into HTML. It is stateless, so one instance
// serves all requests without locking.
type Renderer struct {
	engine goldmark.Markdown
}

// NewRenderer builds the renderer with GFM extensions and auto heading ids.
// Raw HTML passes through; the preview renders the author's own entries.
func NewRenderer() *Renderer {
	return &Renderer{
		engine: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Render converts one entry body to HTML. Wikilinks that point at vault
// entries become preview-internal hyperlinks first, so the result stays
// navigable; unresolved targets render verbatim.
func (r *Renderer) Render(body string, routes links.Map) (template.HTML, error) {
	rewritten, _ := links.LocalToRemote(body, routes)
	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(rewritten), &buf); err != nil {
		return "", fmt.Errorf("preview: render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}
