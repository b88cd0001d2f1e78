// Package scrape pulls readable content from lead websites and turns
// it into structured coaching intel. Content comes from a fetch chain
// (Tavily crawl, then Tavily extract, then a plain HTTP GET) and is
// analyzed with keyword tables, optionally refined by a model pass.
package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fitcore/leadgen-cli/pkg/openai"
	"github.com/fitcore/leadgen-cli/pkg/tavily"
)

// Fetch methods recorded per lead for the run report.
const (
	MethodTavilyCrawl   = "tavily-crawl"
	MethodTavilyExtract = "tavily-extract"
	MethodHTTPFallback  = "http-fallback"
	MethodFailed        = "failed"
)

// minUsefulText is the shortest page text worth analyzing; anything
// shorter is treated as a failed fetch.
const minUsefulText = 100

const crawlInstructions = "Find pages about coaching services, programs, pricing, and the business itself (about, services, pricing, programs)."

// Options tunes the scraper.
type Options struct {
	// UseAI enables the model extraction pass on top of keywords.
	UseAI bool
	// CrawlLimit caps pages per Tavily crawl. Zero means 5.
	CrawlLimit int
}

// Result is the outcome of scraping one website.
type Result struct {
	Findings Findings
	Method   string
}

// Scraper runs the fetch chain and analysis for lead websites.
type Scraper struct {
	tavily tavily.Client
	llm    openai.Client
	http   *http.Client
	opts   Options
}

// New creates a Scraper. The llm client may be nil when Options.UseAI
// is false.
func New(tc tavily.Client, llm openai.Client, opts Options) *Scraper {
	if opts.CrawlLimit <= 0 {
		opts.CrawlLimit = 5
	}
	return &Scraper{
		tavily: tc,
		llm:    llm,
		http:   &http.Client{Timeout: fetchTimeout},
		opts:   opts,
	}
}

// Scrape fetches and analyzes one website. An exhausted fetch chain
// returns an error; the caller counts it and moves on.
func (s *Scraper) Scrape(ctx context.Context, websiteURL string) (*Result, error) {
	text, method := s.fetchText(ctx, websiteURL)
	if method == MethodFailed {
		return nil, eris.Errorf("scrape: all fetch methods failed for %s", websiteURL)
	}

	findings := Extract(text)

	if s.opts.UseAI && s.llm != nil {
		if ai, err := s.aiExtract(ctx, text, websiteURL); err != nil {
			zap.L().Warn("scrape: model extraction failed, keeping keyword findings",
				zap.String("website", websiteURL),
				zap.Error(err),
			)
		} else {
			mergeAI(&findings, ai)
		}
	}

	return &Result{Findings: findings, Method: method}, nil
}

// fetchText walks the chain until one source yields enough text.
func (s *Scraper) fetchText(ctx context.Context, websiteURL string) (string, string) {
	url := normalizeURL(websiteURL)
	if url == "" {
		return "", MethodFailed
	}

	if pages, err := s.tavily.Crawl(ctx, url, crawlInstructions, s.opts.CrawlLimit); err == nil {
		if text := joinPages(pages); len(text) > minUsefulText {
			return text, MethodTavilyCrawl
		}
	} else {
		zap.L().Debug("scrape: crawl failed, trying extract", zap.String("website", url), zap.Error(err))
	}

	if pages, err := s.tavily.Extract(ctx, []string{url}); err == nil {
		if text := joinPages(pages); len(text) > minUsefulText {
			return text, MethodTavilyExtract
		}
	} else {
		zap.L().Debug("scrape: extract failed, trying direct fetch", zap.String("website", url), zap.Error(err))
	}

	if rawHTML, err := FetchHTML(ctx, s.http, url); err == nil {
		if text := HTMLToText(rawHTML); len(text) > 50 {
			return text, MethodHTTPFallback
		}
	}

	return "", MethodFailed
}

func joinPages(pages []tavily.Page) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p.Content) != "" {
			parts = append(parts, p.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

const aiSystemPrompt = "You extract structured data from website text. Always respond with valid JSON only."

// aiFindings mirrors the model extraction schema.
type aiFindings struct {
	BusinessSummary string `json:"business_summary"`
	Services        string `json:"services"`
	Niche           string `json:"niche"`
	Pricing         string `json:"pricing"`
	Tools           string `json:"tools"`
	TargetAudience  string `json:"target_audience"`
	OffersOnline    string `json:"offers_online"`
	NotableDetail   string `json:"notable_detail"`
}

func (s *Scraper) aiExtract(ctx context.Context, text, websiteURL string) (*aiFindings, error) {
	snippet := text
	if len(snippet) > 3000 {
		snippet = snippet[:3000]
	}

	prompt := fmt.Sprintf(`Website text from %s (first 3000 chars):
%s

Return JSON with these fields (empty string if not found):
{
    "business_summary": "1-2 sentences: what they do and who they serve",
    "services": "comma-separated services offered (e.g. personal training, nutrition coaching)",
    "niche": "specific coaching niche if any (e.g. Irish dance fitness, seniors 55+, corporate wellness)",
    "pricing": "any pricing mentioned, or empty",
    "tools": "any software/booking/payment tools detected (e.g. Calendly, Trainerize)",
    "target_audience": "who they serve",
    "offers_online": "true or false, do they offer online/remote/virtual coaching?",
    "notable_detail": "ONE specific interesting fact about this business (a program name, method, unique angle)"
}`, websiteURL, snippet)

	raw, err := s.llm.ChatJSON(ctx, aiSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var out aiFindings
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, eris.Wrap(err, "scrape: decode model findings")
	}
	return &out, nil
}

// mergeAI layers model findings over the keyword pass. Model output
// wins for descriptive fields; keyword hits are kept and unioned for
// list fields.
func mergeAI(f *Findings, ai *aiFindings) {
	if ai.OffersOnline != "" {
		f.OffersOnlineCoaching = strings.EqualFold(strings.TrimSpace(ai.OffersOnline), "true")
	}
	if ai.BusinessSummary != "" {
		f.WebsiteDescription = clip(ai.BusinessSummary, 500)
	}
	if ai.Services != "" {
		f.CoachingServices = unionCSV(f.CoachingServices, ai.Services)
	}
	if ai.Tools != "" {
		f.ToolsDetected = unionCSV(f.ToolsDetected, ai.Tools)
	}
	if !f.PricingVisible && ai.Pricing != "" {
		f.PricingVisible = true
		f.PricingDetails = clip(ai.Pricing, 300)
	}

	var extras []string
	if ai.Niche != "" {
		extras = append(extras, "Niche: "+ai.Niche)
	}
	if ai.NotableDetail != "" {
		extras = append(extras, "Notable: "+ai.NotableDetail)
	}
	if len(extras) > 0 {
		extra := strings.Join(extras, " | ")
		if f.WebsiteDescription != "" {
			f.WebsiteDescription = clip(f.WebsiteDescription+" | "+extra, 500)
		} else {
			f.WebsiteDescription = clip(extra, 500)
		}
	}
}

func unionCSV(a, b string) string {
	seen := map[string]struct{}{}
	var out []string
	for _, part := range append(strings.Split(a, ","), strings.Split(b, ",")...) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key := strings.ToLower(part)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, part)
	}
	return strings.Join(out, ", ")
}

// clip cuts s to at most max bytes, backing up to a rune boundary so
// the result stays valid UTF-8.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
