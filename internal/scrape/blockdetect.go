package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes why a fetched page is unusable.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
	// BlockParked covers placeholder pages from registrars and site
	// builders. Small coaching businesses let domains lapse often, so a
	// parked page is common and carries no signal worth extracting.
	BlockParked BlockType = "parked"
)

var parkedMarkers = []string{
	"this domain is for sale",
	"buy this domain",
	"domain is parked",
	"parked free",
	"godaddy.com/park",
	"sedoparking",
	"coming soon",
	"under construction",
	"website is being built",
	"default web page",
}

// DetectBlock checks an HTTP response for anti-bot protection or a
// parked placeholder page. Either way the body is not worth keyword
// extraction and the fetch chain should report a failure.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	// Cloudflare: 403/503 with cf-* headers.
	if resp.StatusCode == 403 || resp.StatusCode == 503 {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-cache-status") != "" {
			return true, BlockCloudflare
		}
		if resp.Header.Get("server") == "cloudflare" {
			return true, BlockCloudflare
		}
	}

	lower := strings.ToLower(string(body))

	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") ||
		strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge") {
		return true, BlockCloudflare
	}

	if strings.Contains(lower, "captcha") ||
		strings.Contains(lower, "recaptcha") ||
		strings.Contains(lower, "hcaptcha") {
		return true, BlockCaptcha
	}

	for _, marker := range parkedMarkers {
		if strings.Contains(lower, marker) {
			return true, BlockParked
		}
	}

	// JS-only shell: very small body with noscript or meta refresh.
	if len(body) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, BlockJSShell
		}
		if strings.Contains(lower, "meta http-equiv=\"refresh\"") {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}
