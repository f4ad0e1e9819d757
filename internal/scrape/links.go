package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var skipPrefixes = []string{"#", "mailto:", "tel:", "javascript:"}

// ExtractLinks returns the candidate link targets in markup, in document
// order and without deduplication. Protocol-relative hrefs get https,
// root-relative hrefs take the base URL's scheme and host.
func ExtractLinks(markup, baseURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if link, ok := resolveHref(href, base); ok {
			links = append(links, link)
		}
	})
	return links
}

func resolveHref(href string, base *url.URL) (string, bool) {
	if href == "" {
		return "", false
	}
	lower := strings.ToLower(href)
	for _, p := range skipPrefixes {
		if strings.HasPrefix(lower, p) {
			return "", false
		}
	}

	switch {
	case strings.HasPrefix(href, "//"):
		return "https:" + href, true
	case strings.HasPrefix(href, "/"):
		return base.Scheme + "://" + base.Host + href, true
	case strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://"):
		return href, true
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if ref.Scheme != "" {
		// Other schemes (ftp:, data:, ...) are not crawlable.
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}
