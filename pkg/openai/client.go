package openai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	sdk "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Client defines the OpenAI operations used by the enrichment and
// scrape stages.
type Client interface {
	// ChatJSON sends a system + user instruction pair and decodes the
	// reply as a JSON object. Code fences around the JSON are tolerated.
	ChatJSON(ctx context.Context, system, user string) (json.RawMessage, error)

	// ChatText sends a system + user instruction pair and returns the
	// reply as plain text with any surrounding code fence removed.
	ChatText(ctx context.Context, system, user string) (string, error)
}

// Option configures the sdkClient.
type Option func(*sdkClient)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *sdkClient) {
		c.model = model
	}
}

// WithTemperature sets a sampling temperature. Some models reject the
// parameter entirely; leave unset for those.
func WithTemperature(t float32) Option {
	return func(c *sdkClient) {
		c.temperature = &t
	}
}

// WithRateLimit caps requests per second across all goroutines.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *sdkClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithBaseURL points the client at a different endpoint (tests).
func WithBaseURL(url string) Option {
	return func(c *sdkClient) {
		c.baseURL = url
	}
}

type sdkClient struct {
	api         *sdk.Client
	model       string
	temperature *float32
	limiter     *rate.Limiter
	baseURL     string
}

// NewClient creates an OpenAI client with the given API key.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{
		model: sdk.GPT4oMini,
	}
	for _, opt := range opts {
		opt(c)
	}

	cfg := sdk.DefaultConfig(apiKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	c.api = sdk.NewClientWithConfig(cfg)
	return c
}

func (c *sdkClient) ChatJSON(ctx context.Context, system, user string) (json.RawMessage, error) {
	content, err := c.chat(ctx, system, user)
	if err != nil {
		return nil, err
	}
	content = StripFences(content)
	if !json.Valid([]byte(content)) {
		return nil, eris.New("openai: response is not valid JSON")
	}
	return json.RawMessage(content), nil
}

func (c *sdkClient) ChatText(ctx context.Context, system, user string) (string, error) {
	content, err := c.chat(ctx, system, user)
	if err != nil {
		return "", err
	}
	return StripFences(content), nil
}

func (c *sdkClient) chat(ctx context.Context, system, user string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "openai: rate limit wait")
		}
	}

	req := sdk.ChatCompletionRequest{
		Model: c.model,
		Messages: []sdk.ChatCompletionMessage{
			{Role: sdk.ChatMessageRoleSystem, Content: system},
			{Role: sdk.ChatMessageRoleUser, Content: user},
		},
	}
	if c.temperature != nil {
		req.Temperature = *c.temperature
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", eris.Wrap(err, "openai: chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("openai: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

// StripFences removes a surrounding markdown code fence, with or
// without a language tag, from model output.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
