// Package wiki provides the fetch_wikipedia_content tool: a MediaWiki search
// followed by a plain-text intro extract of the best match.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	loggerpkg "github.com/minhyannv/toolchat-go/pkg/logger"
	"github.com/minhyannv/toolchat-go/pkg/schema"
	"github.com/minhyannv/toolchat-go/pkg/tools"
)

const (
	// ToolName is the catalog name of the Wikipedia tool.
	ToolName = "fetch_wikipedia_content"
	// DefaultEndpoint is the English Wikipedia action API.
	DefaultEndpoint = "https://en.wikipedia.org/w/api.php"
)

const description = "Search Wikipedia and fetch the introduction of the most relevant article. " +
	"Always use this if the user is asking for something that is likely on Wikipedia. " +
	"If the user has a typo in their search query, correct it before searching."

// maxResponseBytes caps a single API response.
const maxResponseBytes = 4 << 20

// Args are the Wikipedia tool arguments.
type Args struct {
	SearchQuery string `json:"search_query" jsonschema:"description=Search query for finding the Wikipedia article"`
}

// Article is the success payload.
type Article struct {
	Status  string `json:"status"`
	Content string `json:"content"`
	Title   string `json:"title"`
}

// Client queries a MediaWiki action API.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     loggerpkg.Logger
	verbose    bool
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint points the client at another MediaWiki API.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for verbose tracing.
func WithLogger(l loggerpkg.Logger, verbose bool) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
		c.verbose = verbose
	}
}

// New returns a client for English Wikipedia unless configured otherwise.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     loggerpkg.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch finds the most relevant article for query and returns its intro.
func (c *Client) Fetch(ctx context.Context, query string) tools.Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return tools.Failure("search_query is required")
	}
	notFound := tools.Failuref("No Wikipedia article found for '%s'", query)

	search, err := c.get(ctx, url.Values{
		"action":   {"query"},
		"format":   {"json"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {"1"},
	})
	if err != nil {
		return tools.Failure(err.Error())
	}
	title := gjson.GetBytes(search, "query.search.0.title").String()
	if title == "" {
		return notFound
	}
	loggerpkg.Debugf(c.verbose, c.logger, "[verbose] %s: query=%q matched title=%q", ToolName, query, title)

	extract, err := c.get(ctx, url.Values{
		"action":      {"query"},
		"format":      {"json"},
		"titles":      {title},
		"prop":        {"extracts"},
		"exintro":     {"true"},
		"explaintext": {"true"},
		"redirects":   {"1"},
	})
	if err != nil {
		return tools.Failure(err.Error())
	}

	var page gjson.Result
	gjson.GetBytes(extract, "query.pages").ForEach(func(key, value gjson.Result) bool {
		page = value
		if key.String() == "-1" {
			page = gjson.Result{}
		}
		return false
	})
	if !page.Exists() {
		return notFound
	}
	return tools.Success(Article{
		Status:  "success",
		Content: strings.TrimSpace(page.Get("extract").String()),
		Title:   page.Get("title").String(),
	})
}

func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build wikipedia request: %w", err)
	}
	req.Header.Set("User-Agent", "toolchat/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read wikipedia response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia returned HTTP %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("wikipedia returned invalid JSON")
	}
	return body, nil
}

func (c *Client) handle(ctx context.Context, raw json.RawMessage) (any, error) {
	var args Args
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return c.Fetch(ctx, args.SearchQuery), nil
}

// Descriptor is the hand-declared catalog entry for static mode.
func (c *Client) Descriptor() tools.Descriptor {
	return tools.Descriptor{
		Name:        ToolName,
		Description: description,
		Parameters:  schema.MustReflect[Args](),
		Handler:     c.handle,
		Title:       "Wikipedia",
	}
}
