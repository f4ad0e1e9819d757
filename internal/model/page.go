package model

import "time"

// FetchedPage is the result of fetching a single URL. It is produced once
// per fetch and never mutated afterwards.
type FetchedPage struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	StatusCode  int    `json:"status_code"`
	ContentHash string `json:"content_hash"`

	// HTML is the raw markup the text was extracted from. Used for link
	// extraction only; never persisted.
	HTML string `json:"-"`

	// Depth and Referer record where the crawler discovered the page.
	Depth   int    `json:"depth"`
	Referer string `json:"referer,omitempty"`
}

// CrawlLink is a queued crawl candidate.
type CrawlLink struct {
	URL     string
	Depth   int
	Referer string
}

// PersistedPage is a stored page. No two persisted pages share both URL
// and ContentHash.
type PersistedPage struct {
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Text        string    `json:"content_text"`
	ContentHash string    `json:"content_hash"`
	StatusCode  int       `json:"http_status"`
	Referer     string    `json:"referer_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToPersisted converts a fetched page into its storage form. withReferer
// controls whether the discovery referer is kept.
func (p FetchedPage) ToPersisted(withReferer bool) PersistedPage {
	pp := PersistedPage{
		URL:         p.URL,
		Title:       p.Title,
		Text:        p.Text,
		ContentHash: p.ContentHash,
		StatusCode:  p.StatusCode,
	}
	if withReferer {
		pp.Referer = p.Referer
	}
	return pp
}
