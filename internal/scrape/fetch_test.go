package scrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scout-cli/internal/config"
)

const acmeHTML = `<!doctype html>
<html>
<head>
  <title>  Acme Rockets  </title>
  <style>body { color: red; }</style>
  <script>var tracking = "secret";</script>
</head>
<body>
  <noscript>Enable JS for the full site.</noscript>
  <h1>Acme</h1>
  <p>We   build
     rockets.</p>
  <!-- hidden comment -->
  <a href="/about">About us</a>
</body>
</html>`

func TestFetcher_Fetch(t *testing.T) {
	var gotUA, gotReferer string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(acmeHTML))
	}))
	defer ts.Close()

	f := NewFetcher(config.CrawlConfig{TimeoutSecs: 5})
	page, err := f.Fetch(context.Background(), ts.URL, "https://referrer.example/")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultUserAgent, gotUA)
	assert.Equal(t, "https://referrer.example/", gotReferer)
	assert.Equal(t, ts.URL, page.URL)
	assert.Equal(t, 200, page.StatusCode)
	assert.Equal(t, "Acme Rockets", page.Title)
	assert.Equal(t, "Acme Rockets Acme We build rockets. About us", page.Text)
	assert.NotContains(t, page.Text, "tracking")
	assert.NotContains(t, page.Text, "color")
	assert.NotContains(t, page.Text, "Enable JS")
	assert.NotContains(t, page.Text, "hidden comment")
	assert.Equal(t, Fingerprint(page.Text), page.ContentHash)
	assert.Len(t, page.ContentHash, 64)
	assert.Contains(t, page.HTML, `href="/about"`)
}

func TestFetcher_NoRefererHeader(t *testing.T) {
	var sawReferer bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawReferer = r.Header["Referer"]
		_, _ = w.Write([]byte("<p>ok</p>"))
	}))
	defer ts.Close()

	_, err := NewFetcher(config.CrawlConfig{UserAgent: "custom/1.0"}).Fetch(context.Background(), ts.URL, "")
	require.NoError(t, err)
	assert.False(t, sawReferer)
}

func TestFetcher_ErrorStatusIsNotFetchError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("<html><title>Not Found</title><body>missing</body></html>"))
	}))
	defer ts.Close()

	page, err := NewFetcher(config.CrawlConfig{}).Fetch(context.Background(), ts.URL, "")
	require.NoError(t, err)
	assert.Equal(t, 404, page.StatusCode)
	assert.Equal(t, "Not Found", page.Title)
}

func TestFetcher_TransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := NewFetcher(config.CrawlConfig{}).Fetch(context.Background(), url, "")
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, url, fe.URL)
}

func TestFetcher_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()

	client := &http.Client{Timeout: 50 * time.Millisecond}
	_, err := NewFetcher(config.CrawlConfig{}, WithHTTPClient(client)).Fetch(context.Background(), ts.URL, "")

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
}

func TestFetcher_InvalidURL(t *testing.T) {
	_, err := NewFetcher(config.CrawlConfig{}).Fetch(context.Background(), "://nope", "")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
}

func TestFetcher_BodyCapped(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>abcdefghijklmnopqrstuvwxyz</p>"))
	}))
	defer ts.Close()

	page, err := NewFetcher(config.CrawlConfig{MaxBodyBytes: 10}).Fetch(context.Background(), ts.URL, "")
	require.NoError(t, err)
	assert.Equal(t, "abcdefg", page.Text)
}

func TestFingerprint_NormalizesUnicode(t *testing.T) {
	t.Parallel()
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"
	assert.Equal(t, Fingerprint(composed), Fingerprint(decomposed))
	assert.NotEqual(t, Fingerprint("a"), Fingerprint("b"))
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Fingerprint(""))
}

func TestParseHTML_NoTitle(t *testing.T) {
	t.Parallel()
	title, text, err := ParseHTML([]byte("<div>hello <b>world</b></div>"))
	require.NoError(t, err)
	assert.Empty(t, title)
	assert.Equal(t, "hello world", text)
}
