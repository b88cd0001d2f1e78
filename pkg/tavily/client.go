// Package tavily is a client for the Tavily crawl and extract APIs,
// used to pull readable content from lead websites.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.tavily.com"

// Client defines the Tavily operations used by the scrape stage.
type Client interface {
	// Crawl fetches up to limit pages reachable from the root URL,
	// steered by the natural-language instructions.
	Crawl(ctx context.Context, rootURL, instructions string, limit int) ([]Page, error)
	// Extract pulls readable content from the given URLs directly.
	Extract(ctx context.Context, urls []string) ([]Page, error)
}

// Page is one crawled or extracted page.
type Page struct {
	URL     string `json:"url"`
	Content string `json:"raw_content"`
}

// APIError is returned when Tavily responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tavily: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Tavily client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 90 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Crawl(ctx context.Context, rootURL, instructions string, limit int) ([]Page, error) {
	if limit <= 0 {
		limit = 5
	}
	body := map[string]any{
		"url":          rootURL,
		"instructions": instructions,
		"limit":        limit,
		"max_depth":    1,
	}

	var resp struct {
		Results []Page `json:"results"`
	}
	if err := c.post(ctx, "/crawl", body, &resp); err != nil {
		return nil, eris.Wrapf(err, "tavily: crawl %s", rootURL)
	}
	return resp.Results, nil
}

func (c *httpClient) Extract(ctx context.Context, urls []string) ([]Page, error) {
	body := map[string]any{
		"urls": urls,
	}

	var resp struct {
		Results []Page `json:"results"`
	}
	if err := c.post(ctx, "/extract", body, &resp); err != nil {
		return nil, eris.Wrap(err, "tavily: extract")
	}
	return resp.Results, nil
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}

	return nil
}
