// Package atompub talks to a Hatena-style AtomPub blog endpoint.
package atompub

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bulldra/hatena-sync/internal/apperr"
	"github.com/bulldra/hatena-sync/internal/models"
)

// Repository is the remote side of the sync engine.
type Repository interface {
	// List fetches every entry in the collection, following pagination.
	List(ctx context.Context) ([]models.RemoteEntry, error)
	// Get fetches a single entry by its member id.
	Get(ctx context.Context, id string) (*models.RemoteEntry, error)
	// Create posts a new entry and returns the service's view of it.
	Create(ctx context.Context, draft EntryDraft) (*models.RemoteEntry, error)
	// Update replaces the entry with the given member id.
	Update(ctx context.Context, id string, draft EntryDraft) (*models.RemoteEntry, error)
}

// EntryDraft is the outbound payload for create and update calls.
type EntryDraft struct {
	Title    string
	Body     string
	Category string
	Draft    bool
}

const maxResponseBytes = 10 << 20

// Client implements Repository against a live endpoint.
type Client struct {
	collection string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a client for one blog. The collection URL is
// {endpoint}/{username}/{blogID}/atom/entry.
func NewClient(endpoint, username, blogID, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		collection: fmt.Sprintf("%s/%s/%s/atom/entry", strings.TrimSuffix(endpoint, "/"), username, blogID),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

var _ Repository = (*Client)(nil)

// Collection returns the collection URL the client was built for.
func (c *Client) Collection() string { return c.collection }

func (c *Client) memberURL(id string) string {
	return c.collection + "/" + id
}

// List walks the paginated feed and returns every entry.
func (c *Client) List(ctx context.Context) ([]models.RemoteEntry, error) {
	var out []models.RemoteEntry
	url := c.collection
	for url != "" {
		data, err := c.do(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		var f feed
		if err := xml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("atompub: parse feed: %w", err)
		}
		for i := range f.Entries {
			out = append(out, f.Entries[i].toModel())
		}
		url = f.nextURL()
	}
	c.logger.Debug("fetched remote collection", slog.Int("entries", len(out)))
	return out, nil
}

// Get fetches one entry by member id.
func (c *Client) Get(ctx context.Context, id string) (*models.RemoteEntry, error) {
	data, err := c.do(ctx, http.MethodGet, c.memberURL(id), nil)
	if err != nil {
		return nil, err
	}
	return parseEntry(data)
}

// Create posts a new entry to the collection.
func (c *Client) Create(ctx context.Context, draft EntryDraft) (*models.RemoteEntry, error) {
	body, err := marshalEntry(draft)
	if err != nil {
		return nil, fmt.Errorf("atompub: marshal entry: %w", err)
	}
	data, err := c.do(ctx, http.MethodPost, c.collection, body)
	if err != nil {
		return nil, err
	}
	created, err := parseEntry(data)
	if err != nil {
		return nil, err
	}
	c.logger.Info("created remote entry",
		slog.String("id", created.ID),
		slog.String("title", draft.Title),
		slog.Bool("draft", draft.Draft))
	return created, nil
}

// Update replaces the entry with the given member id.
func (c *Client) Update(ctx context.Context, id string, draft EntryDraft) (*models.RemoteEntry, error) {
	body, err := marshalEntry(draft)
	if err != nil {
		return nil, fmt.Errorf("atompub: marshal entry: %w", err)
	}
	data, err := c.do(ctx, http.MethodPut, c.memberURL(id), body)
	if err != nil {
		return nil, err
	}
	updated, err := parseEntry(data)
	if err != nil {
		return nil, err
	}
	c.logger.Info("updated remote entry",
		slog.String("id", id),
		slog.String("title", draft.Title),
		slog.Bool("draft", draft.Draft))
	return updated, nil
}

// do performs one authenticated request and returns the response body.
// A 404 maps to apperr.ErrRemoteNotFound; any other non-2xx is an error.
func (c *Client) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("atompub: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/xml; charset=utf-8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("atompub: %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("atompub: read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s %s", apperr.ErrRemoteNotFound, method, url)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("atompub: %s %s: status %d: %s", method, url, resp.StatusCode, excerpt(data))
	}
	return data, nil
}

// parseEntry decodes a standalone entry document.
func parseEntry(data []byte) (*models.RemoteEntry, error) {
	var e atomEntry
	if err := xml.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("atompub: parse entry: %w", err)
	}
	m := e.toModel()
	return &m, nil
}

// excerpt trims a response body down to something loggable.
func excerpt(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
