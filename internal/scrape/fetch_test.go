package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://fitstudio.com", normalizeURL("fitstudio.com"))
	assert.Equal(t, "https://fitstudio.com", normalizeURL("  fitstudio.com "))
	assert.Equal(t, "http://fitstudio.com", normalizeURL("http://fitstudio.com"))
	assert.Equal(t, "https://fitstudio.com", normalizeURL("https://fitstudio.com"))
	assert.Empty(t, normalizeURL("   "))
}

func TestFetchHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><h1>Jane Fitness</h1></body></html>"))
	}))
	defer srv.Close()

	body, err := FetchHTML(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, body, "Jane Fitness")
}

func TestFetchHTMLRejectsNonText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	_, err := FetchHTML(context.Background(), srv.Client(), srv.URL)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "non-text content type")
}

func TestFetchHTMLRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("<html>not found</html>"))
	}))
	defer srv.Close()

	_, err := FetchHTML(context.Background(), srv.Client(), srv.URL)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestFetchHTMLDetectsParkedPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>This domain is for sale! Contact the registrar.</body></html>"))
	}))
	defer srv.Close()

	_, err := FetchHTML(context.Background(), srv.Client(), srv.URL)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parked")
}

func TestHTMLToText(t *testing.T) {
	raw := `<html><head><style>.x{color:red}</style>
<script>var x = 1;</script></head>
<body><h1>Jane Fitness</h1><p>Online coaching for everyone.</p>
<noscript>enable javascript</noscript></body></html>`

	text := HTMLToText(raw)
	assert.Contains(t, text, "Jane Fitness")
	assert.Contains(t, text, "Online coaching for everyone.")
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "color:red")
	assert.NotContains(t, text, "enable javascript")
}

func TestDetectBlockCaptcha(t *testing.T) {
	resp := &http.Response{StatusCode: 200, Header: http.Header{}}
	blocked, kind := DetectBlock(resp, []byte("<html>please solve this reCAPTCHA to continue</html>"))
	assert.True(t, blocked)
	assert.Equal(t, BlockCaptcha, kind)
}

func TestDetectBlockCloudflareHeaders(t *testing.T) {
	header := http.Header{}
	header.Set("cf-ray", "abc123")
	resp := &http.Response{StatusCode: 403, Header: header}

	blocked, kind := DetectBlock(resp, nil)
	assert.True(t, blocked)
	assert.Equal(t, BlockCloudflare, kind)
}

func TestDetectBlockCleanPage(t *testing.T) {
	resp := &http.Response{StatusCode: 200, Header: http.Header{}}
	blocked, kind := DetectBlock(resp, []byte("<html><body>Personal training in Austin since 2015.</body></html>"))
	assert.False(t, blocked)
	assert.Equal(t, BlockNone, kind)
}
