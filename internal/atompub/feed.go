package atompub

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/bulldra/hatena-sync/internal/convert"
	"github.com/bulldra/hatena-sync/internal/models"
)

// Inbound Atom wire types. Tags match local names only, so the parser
// accepts both prefixed and default-namespace documents.
type feed struct {
	XMLName xml.Name    `xml:"feed"`
	Links   []atomLink  `xml:"link"`
	Entries []atomEntry `xml:"entry"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

type atomEntry struct {
	XMLName    xml.Name       `xml:"entry"`
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Updated    string         `xml:"updated"`
	Published  string         `xml:"published"`
	Links      []atomLink     `xml:"link"`
	Content    atomContent    `xml:"content"`
	Categories []atomCategory `xml:"category"`
	Control    *atomControl   `xml:"control"`
	Syntax     string         `xml:"syntax"`
}

type atomContent struct {
	Type string `xml:"type,attr"`
	Body string `xml:",chardata"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

type atomControl struct {
	Draft string `xml:"draft"`
}

// nextURL returns the href of the rel="next" pagination link, if any.
func (f *feed) nextURL() string {
	for _, l := range f.Links {
		if l.Rel == "next" {
			return l.Href
		}
	}
	return ""
}

func (e *atomEntry) link(rel string) string {
	for _, l := range e.Links {
		if l.Rel == rel {
			return l.Href
		}
	}
	return ""
}

// isMarkdown reports whether the entry body is already Markdown rather than
// legacy Hatena notation.
func (e *atomEntry) isMarkdown() bool {
	return e.Syntax == "markdown" || e.Content.Type == "text/x-markdown"
}

// entryID derives the member identifier: the last path segment of the edit
// link, or the tail of the Atom id after its final dash.
func (e *atomEntry) entryID() string {
	if edit := e.link("edit"); edit != "" {
		if i := strings.LastIndexByte(edit, '/'); i >= 0 {
			return edit[i+1:]
		}
	}
	id := e.ID
	if i := strings.LastIndexByte(id, '-'); i >= 0 {
		return id[i+1:]
	}
	return id
}

// toModel converts the wire entry into the engine's view. Bodies in Hatena
// notation are normalized to Markdown on the way in.
func (e *atomEntry) toModel() models.RemoteEntry {
	body := e.Content.Body
	if !e.isMarkdown() {
		body = convert.HatenaToMarkdown(body)
	}
	var category string
	if len(e.Categories) > 0 {
		category = e.Categories[0].Term
	}
	return models.RemoteEntry{
		ID:          e.entryID(),
		Title:       e.Title,
		Body:        body,
		Category:    category,
		Permalink:   e.link("alternate"),
		EditURL:     e.link("edit"),
		Draft:       e.Control != nil && e.Control.Draft == "yes",
		PublishedAt: parseAtomTime(e.Published),
		UpdatedAt:   parseAtomTime(e.Updated),
	}
}

func parseAtomTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Outbound wire types. Prefixes are spelled out because the service expects
// the draft control extension in the app namespace.
type entryRequest struct {
	XMLName  xml.Name         `xml:"entry"`
	Xmlns    string           `xml:"xmlns,attr"`
	XmlnsApp string           `xml:"xmlns:app,attr"`
	Title    string           `xml:"title"`
	Content  requestContent   `xml:"content"`
	Category *requestCategory `xml:"category,omitempty"`
	Control  requestControl   `xml:"app:control"`
}

type requestContent struct {
	Type string `xml:"type,attr"`
	Body string `xml:",chardata"`
}

type requestCategory struct {
	Term string `xml:"term,attr"`
}

type requestControl struct {
	Draft string `xml:"app:draft"`
}

const (
	atomNS = "http://www.w3.org/2005/Atom"
	appNS  = "http://www.w3.org/2007/app"
)

// marshalEntry renders the outbound document for create and update calls.
func marshalEntry(d EntryDraft) ([]byte, error) {
	draft := "no"
	if d.Draft {
		draft = "yes"
	}
	req := entryRequest{
		Xmlns:    atomNS,
		XmlnsApp: appNS,
		Title:    d.Title,
		Content:  requestContent{Type: "text/plain", Body: d.Body},
		Control:  requestControl{Draft: draft},
	}
	if d.Category != "" {
		req.Category = &requestCategory{Term: d.Category}
	}
	data, err := xml.Marshal(req)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), data...), nil
}
