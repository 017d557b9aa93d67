// Package osm is a minimal OpenStreetMap API v0.6 client: bulk element
// fetches and changeset uploads, which is all the safe-edit pipeline needs.
package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// maxFetchBatch is the id cap per multi-fetch request, respecting API limits.
const maxFetchBatch = 500

// Member is one relation member.
type Member struct {
	Type string `json:"type"`
	Ref  int64  `json:"ref"`
	Role string `json:"role"`
}

// Element is one OSM element as returned by the API.
type Element struct {
	Type    string            `json:"type"`
	ID      int64             `json:"id"`
	Version int               `json:"version"`
	Lat     float64           `json:"lat,omitempty"`
	Lon     float64           `json:"lon,omitempty"`
	Tags    map[string]string `json:"tags,omitempty"`
	Nodes   []int64           `json:"nodes,omitempty"`
	Members []Member          `json:"members,omitempty"`
}

// Changes is the content of one changeset upload.
type Changes struct {
	Create []Element
	Modify []Element
	Delete []Element
}

// Empty reports whether the changeset would contain nothing.
func (c Changes) Empty() bool {
	return len(c.Create)+len(c.Modify)+len(c.Delete) == 0
}

// Client is the feature read/write service.
type Client interface {
	// FetchByIDs retrieves current elements of one type, batching requests
	// as needed.
	FetchByIDs(ctx context.Context, elemType string, ids []int64) ([]Element, error)

	// UploadChangeset opens a changeset with the given tags, uploads the
	// changes and closes it, returning the changeset id.
	UploadChangeset(ctx context.Context, tags map[string]string, changes Changes) (int64, error)
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.httpClient = hc }
}

// WithBaseURL points the client at a non-default API endpoint (dev instance,
// test server).
func WithBaseURL(u string) Option {
	return func(c *client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithToken sets the OAuth bearer token used for writes.
func WithToken(token string) Option {
	return func(c *client) { c.token = token }
}

// WithRateLimit caps requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

type client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
}

// NewClient creates an API client with the given options.
func NewClient(opts ...Option) Client {
	c := &client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://api.openstreetmap.org",
		limiter:    rate.NewLimiter(1, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) FetchByIDs(ctx context.Context, elemType string, ids []int64) ([]Element, error) {
	var all []Element
	for start := 0; start < len(ids); start += maxFetchBatch {
		end := start + maxFetchBatch
		if end > len(ids) {
			end = len(ids)
		}
		batch, err := c.fetchBatch(ctx, elemType, ids[start:end])
		if err != nil {
			return all, eris.Wrap(err, fmt.Sprintf("osm: fetch %ss %d-%d", elemType, start, end))
		}
		all = append(all, batch...)
	}
	return all, nil
}

func (c *client) fetchBatch(ctx context.Context, elemType string, ids []int64) ([]Element, error) {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = strconv.FormatInt(id, 10)
	}
	url := fmt.Sprintf("%s/api/0.6/%ss.json?%ss=%s", c.baseURL, elemType, elemType, strings.Join(strs, ","))

	body, err := c.do(ctx, http.MethodGet, url, "", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Elements []Element `json:"elements"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "decode response")
	}
	return resp.Elements, nil
}

func (c *client) do(ctx context.Context, method, url, contentType string, body io.Reader) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, eris.Wrap(err, "build request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}
