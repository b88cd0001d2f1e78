// Package instantly is a client for the Instantly v2 API, used to add
// enriched leads to an outreach campaign.
package instantly

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
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.instantly.ai/api/v2"

// maxBatchSize is the largest lead list accepted per add call.
const maxBatchSize = 1000

// Client defines the Instantly operations used by the push stage.
type Client interface {
	// BulkAddLeads adds leads to a campaign, splitting into API-sized
	// batches. Leads already present in the campaign are skipped.
	BulkAddLeads(ctx context.Context, campaignID string, leads []Lead) (*AddResult, error)
}

// Lead is one campaign lead with its personalization variables.
type Lead struct {
	Email           string            `json:"email"`
	FirstName       string            `json:"first_name,omitempty"`
	LastName        string            `json:"last_name,omitempty"`
	CompanyName     string            `json:"company_name,omitempty"`
	CustomVariables map[string]string `json:"custom_variables,omitempty"`
}

// AddResult aggregates the outcome across batches.
type AddResult struct {
	Added   int
	Skipped int
}

// APIError is returned when Instantly responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("instantly: HTTP %d: %s", e.StatusCode, e.Body)
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

// NewClient creates a new Instantly client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) BulkAddLeads(ctx context.Context, campaignID string, leads []Lead) (*AddResult, error) {
	total := &AddResult{}

	for start := 0; start < len(leads); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(leads) {
			end = len(leads)
		}
		batch := leads[start:end]

		body := map[string]any{
			"campaign_id":         campaignID,
			"skip_if_in_campaign": true,
			"leads":               batch,
		}

		var resp struct {
			Added   int `json:"leads_uploaded"`
			Skipped int `json:"duplicate_count"`
		}
		if err := c.post(ctx, "/leads/list", body, &resp); err != nil {
			return total, eris.Wrapf(err, "instantly: add leads batch %d-%d", start, end)
		}

		total.Added += resp.Added
		total.Skipped += resp.Skipped

		zap.L().Debug("instantly: batch added",
			zap.Int("batch_size", len(batch)),
			zap.Int("added", resp.Added),
			zap.Int("skipped", resp.Skipped),
		)
	}

	return total, nil
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

	if len(data) > 0 && out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return eris.Wrap(err, "decode response")
		}
	}

	return nil
}
