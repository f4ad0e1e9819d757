package scrape

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"

	"github.com/sells-group/scout-cli/internal/config"
	"github.com/sells-group/scout-cli/internal/metrics"
	"github.com/sells-group/scout-cli/internal/model"
)

const defaultMaxBodyBytes = 2 << 20

var _ PageFetcher = (*Fetcher)(nil)

// Fetcher issues plain GET requests and turns the markup into a
// FetchedPage.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
	limiter   *rate.Limiter
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// NewFetcher creates a Fetcher from crawl settings.
func NewFetcher(cfg config.CrawlConfig, opts ...Option) *Fetcher {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	f := &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		userAgent: ua,
		maxBody:   maxBody,
	}
	if rps := cfg.RequestsPerSecond; rps > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves targetURL. Any HTTP status yields a page; only transport
// and parse failures return a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, targetURL, referer string) (*model.FetchedPage, error) {
	page, err := f.fetch(ctx, targetURL, referer)
	if err != nil {
		metrics.ObserveFetchError()
		return nil, &FetchError{URL: targetURL, Err: err}
	}
	metrics.ObservePageFetched(page.StatusCode)
	return page, nil
}

func (f *Fetcher) fetch(ctx context.Context, targetURL, referer string) (*model.FetchedPage, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "scrape: rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: create request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: do request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, eris.Wrap(err, "scrape: read body")
	}

	if blocked, kind := DetectBlock(resp, body); blocked {
		metrics.ObserveBlocked(string(kind))
		zap.L().Debug("scrape: page looks blocked",
			zap.String("url", targetURL),
			zap.String("kind", string(kind)),
			zap.Int("status", resp.StatusCode),
		)
	}

	title, text, err := ParseHTML(body)
	if err != nil {
		return nil, err
	}

	return &model.FetchedPage{
		URL:         targetURL,
		Title:       title,
		Text:        text,
		StatusCode:  resp.StatusCode,
		ContentHash: Fingerprint(text),
		HTML:        string(body),
	}, nil
}

// ParseHTML strips script, style, and noscript elements and returns the
// trimmed title plus the visible text joined by single spaces.
func ParseHTML(body []byte) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", "", eris.Wrap(err, "scrape: parse html")
	}
	doc.Find("script, style, noscript").Remove()

	title = strings.TrimSpace(doc.Find("title").First().Text())
	return title, visibleText(doc.Selection), nil
}

func visibleText(sel *goquery.Selection) string {
	var words []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			words = append(words, strings.Fields(n.Data)...)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(words, " ")
}

// Fingerprint returns the hex SHA-256 of the NFC-normalized text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(norm.NFC.String(text)))
	return hex.EncodeToString(sum[:])
}
