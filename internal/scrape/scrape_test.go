package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcore/leadgen-cli/pkg/tavily"
)

type fakeTavily struct {
	crawlPages   []tavily.Page
	crawlErr     error
	extractPages []tavily.Page
	extractErr   error

	crawlCalls   int
	extractCalls int
}

func (f *fakeTavily) Crawl(_ context.Context, _, _ string, _ int) ([]tavily.Page, error) {
	f.crawlCalls++
	return f.crawlPages, f.crawlErr
}

func (f *fakeTavily) Extract(_ context.Context, _ []string) ([]tavily.Page, error) {
	f.extractCalls++
	return f.extractPages, f.extractErr
}

func longPage(marker string) tavily.Page {
	return tavily.Page{
		URL:     "https://fitstudio.com",
		Content: marker + " " + strings.Repeat("online coaching for busy people. ", 10),
	}
}

func TestScrapeUsesCrawlFirst(t *testing.T) {
	tc := &fakeTavily{crawlPages: []tavily.Page{longPage("crawl")}}
	s := New(tc, nil, Options{})

	res, err := s.Scrape(context.Background(), "fitstudio.com")
	require.NoError(t, err)

	assert.Equal(t, MethodTavilyCrawl, res.Method)
	assert.True(t, res.Findings.OffersOnlineCoaching)
	assert.Equal(t, 1, tc.crawlCalls)
	assert.Equal(t, 0, tc.extractCalls)
}

func TestScrapeFallsBackToExtract(t *testing.T) {
	tc := &fakeTavily{
		crawlErr:     errors.New("crawl unavailable"),
		extractPages: []tavily.Page{longPage("extract")},
	}
	s := New(tc, nil, Options{})

	res, err := s.Scrape(context.Background(), "fitstudio.com")
	require.NoError(t, err)
	assert.Equal(t, MethodTavilyExtract, res.Method)
}

func TestScrapeShortCrawlTriggersFallback(t *testing.T) {
	// A crawl that technically succeeds but yields too little text moves
	// the chain forward.
	tc := &fakeTavily{
		crawlPages:   []tavily.Page{{Content: "thin"}},
		extractPages: []tavily.Page{longPage("extract")},
	}
	s := New(tc, nil, Options{})

	res, err := s.Scrape(context.Background(), "fitstudio.com")
	require.NoError(t, err)
	assert.Equal(t, MethodTavilyExtract, res.Method)
}

func TestScrapeExhaustedChainFails(t *testing.T) {
	tc := &fakeTavily{
		crawlErr:   errors.New("down"),
		extractErr: errors.New("down"),
	}
	s := New(tc, nil, Options{})

	// The HTTP fallback gets no server to talk to either.
	_, err := s.Scrape(context.Background(), "203.0.113.1.invalid")
	assert.Error(t, err)
}

type fakeAI struct {
	response string
	err      error
}

func (f *fakeAI) ChatJSON(_ context.Context, _, _ string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.response), nil
}

func (f *fakeAI) ChatText(context.Context, string, string) (string, error) {
	return f.response, f.err
}

func TestClipKeepsRuneBoundary(t *testing.T) {
	s := strings.Repeat("ü", 8)
	cut := clip(s, 7)
	assert.True(t, utf8.ValidString(cut))
	assert.Len(t, cut, 6)

	assert.Equal(t, "short", clip("short", 7))
}

func TestScrapeAIMerge(t *testing.T) {
	tc := &fakeTavily{crawlPages: []tavily.Page{longPage("crawl")}}
	llm := &fakeAI{response: `{
		"business_summary": "Coaching for triathletes.",
		"services": "triathlon coaching",
		"offers_online": "true",
		"niche": "endurance sport"
	}`}
	s := New(tc, llm, Options{UseAI: true})

	res, err := s.Scrape(context.Background(), "fitstudio.com")
	require.NoError(t, err)

	assert.Contains(t, res.Findings.WebsiteDescription, "Coaching for triathletes.")
	assert.Contains(t, res.Findings.CoachingServices, "triathlon coaching")
	assert.True(t, res.Findings.OffersOnlineCoaching)
}

func TestScrapeAIFailureKeepsKeywordFindings(t *testing.T) {
	tc := &fakeTavily{crawlPages: []tavily.Page{longPage("crawl")}}
	llm := &fakeAI{err: errors.New("model down")}
	s := New(tc, llm, Options{UseAI: true})

	res, err := s.Scrape(context.Background(), "fitstudio.com")
	require.NoError(t, err)
	assert.True(t, res.Findings.OffersOnlineCoaching)
}
