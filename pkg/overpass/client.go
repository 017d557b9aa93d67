// Package overpass fetches the phone-bearing features of one subdivision
// from an Overpass API endpoint, streaming elements as they are decoded so
// nation-scale responses never sit in memory whole.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Center is the centroid Overpass computes for ways and relations.
type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Element is one feature from an Overpass response.
type Element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat,omitempty"`
	Lon    float64           `json:"lon,omitempty"`
	Center *Center           `json:"center,omitempty"`
	Tags   map[string]string `json:"tags"`
}

// Client streams subdivision features.
type Client interface {
	// Stream runs one area query and sends elements on the returned channel
	// until the response is exhausted; the error channel receives at most
	// one value after the element channel closes.
	Stream(ctx context.Context, areaISO string, keys []string) (<-chan Element, <-chan error)
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.httpClient = hc }
}

// WithBaseURL points at a non-default Overpass endpoint.
func WithBaseURL(u string) Option {
	return func(c *client) { c.baseURL = strings.TrimRight(u, "/") }
}

type client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// NewClient creates an Overpass client. Area queries are heavy, so requests
// are serialized and generously timed out.
func NewClient(opts ...Option) Client {
	c := &client{
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		baseURL:    "https://overpass-api.de",
		limiter:    rate.NewLimiter(rate.Every(10*time.Second), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) Stream(ctx context.Context, areaISO string, keys []string) (<-chan Element, <-chan error) {
	elements := make(chan Element)
	errc := make(chan error, 1)

	go func() {
		defer close(elements)
		defer close(errc)
		if err := c.stream(ctx, areaISO, keys, elements); err != nil {
			errc <- err
		}
	}()

	return elements, errc
}

func (c *client) stream(ctx context.Context, areaISO string, keys []string, out chan<- Element) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "overpass: rate limit")
	}

	query := fmt.Sprintf(
		`[out:json][timeout:900];area["ISO3166-2"=%q]->.a;nwr(area.a)[~"^(%s)$"~"."];out tags center;`,
		areaISO, strings.Join(keys, "|"))

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/interpreter", strings.NewReader(form.Encode()))
	if err != nil {
		return eris.Wrap(err, "overpass: build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "overpass: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("overpass: status %d", resp.StatusCode)
	}

	return decodeElements(ctx, json.NewDecoder(resp.Body), out)
}

// decodeElements walks the response tokens until the "elements" array, then
// decodes and forwards one element at a time.
func decodeElements(ctx context.Context, dec *json.Decoder, out chan<- Element) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return eris.Wrap(err, "overpass: decode header")
		}
		if key, ok := tok.(string); ok && key == "elements" {
			break
		}
	}

	// Opening bracket of the array.
	if _, err := dec.Token(); err != nil {
		return eris.Wrap(err, "overpass: decode array start")
	}

	for dec.More() {
		var e Element
		if err := dec.Decode(&e); err != nil {
			return eris.Wrap(err, "overpass: decode element")
		}
		select {
		case out <- e:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
