package scrape

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
)

const (
	fetchTimeout = 10 * time.Second
	maxHTMLBytes = 80_000
	userAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// normalizeURL prefixes a scheme when the stored website lacks one.
func normalizeURL(raw string) string {
	url := strings.TrimSpace(raw)
	if url == "" {
		return ""
	}
	if !strings.HasPrefix(url, "http") {
		url = "https://" + url
	}
	return url
}

// FetchHTML performs a plain GET against a lead's website, the last
// resort of the fetch chain. Non-HTML responses are rejected and the
// body is capped to keep memory bounded.
func FetchHTML(ctx context.Context, hc *http.Client, websiteURL string) (string, error) {
	url := normalizeURL(websiteURL)
	if url == "" {
		return "", eris.New("scrape: empty website URL")
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", eris.Wrap(err, "scrape: create request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := hc.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "scrape: fetch %s", url)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text") {
		return "", eris.Errorf("scrape: fetch %s: non-text content type %q", url, contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHTMLBytes))
	if err != nil {
		return "", eris.Wrapf(err, "scrape: read body %s", url)
	}

	// Block detection runs before the status check so a Cloudflare 403
	// reports as a block rather than a bare HTTP error.
	if blocked, kind := DetectBlock(resp, body); blocked {
		return "", eris.Errorf("scrape: fetch %s: unusable page (%s)", url, kind)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", eris.Errorf("scrape: fetch %s: HTTP %d", url, resp.StatusCode)
	}
	return string(body), nil
}

// HTMLToText strips tags from HTML, skipping script, style, and
// noscript blocks, and joins the remaining text nodes with spaces.
func HTMLToText(rawHTML string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))

	var parts []string
	skipDepth := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(parts, " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if skippedTag(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if skippedTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				if text := strings.TrimSpace(string(tokenizer.Text())); text != "" {
					parts = append(parts, text)
				}
			}
		}
	}
}

func skippedTag(name string) bool {
	switch name {
	case "script", "style", "noscript":
		return true
	}
	return false
}
