package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/scout-cli/internal/model"
	"github.com/sells-group/scout-cli/internal/scrape"
)

// siteFetcher serves canned HTML keyed by URL and records every fetch.
type siteFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	status  map[string]int
	fail    map[string]bool
	fetched []string
	referer map[string]string
}

func newSiteFetcher(pages map[string]string) *siteFetcher {
	return &siteFetcher{
		pages:   pages,
		status:  map[string]int{},
		fail:    map[string]bool{},
		referer: map[string]string{},
	}
}

func (f *siteFetcher) Fetch(_ context.Context, targetURL, referer string) (*model.FetchedPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, targetURL)
	f.referer[targetURL] = referer

	html, ok := f.pages[targetURL]
	if !ok || f.fail[targetURL] {
		return nil, &scrape.FetchError{URL: targetURL, Err: errors.New("connection refused")}
	}
	title, text, err := scrape.ParseHTML([]byte(html))
	if err != nil {
		return nil, &scrape.FetchError{URL: targetURL, Err: err}
	}
	status := 200
	if s, ok := f.status[targetURL]; ok {
		status = s
	}
	return &model.FetchedPage{
		URL:         targetURL,
		Title:       title,
		Text:        text,
		StatusCode:  status,
		ContentHash: scrape.Fingerprint(text),
		HTML:        html,
	}, nil
}

func (f *siteFetcher) Fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

func pageHTML(title, body string, links ...string) string {
	var b strings.Builder
	b.WriteString("<html><head><title>" + title + "</title></head><body><p>" + body + "</p>")
	for _, l := range links {
		b.WriteString(`<a href="` + l + `">link</a>`)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func urls(pages []model.FetchedPage) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.URL
	}
	return out
}

// mockGenerator is a testify mock of llm.Generator.
type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateJSON(ctx context.Context, system, user string) (map[string]any, error) {
	args := m.Called(ctx, system, user)
	obj, _ := args.Get(0).(map[string]any)
	return obj, args.Error(1)
}

// scriptedGenerator answers the classifier and extractor prompts with fixed
// objects.
type scriptedGenerator struct {
	mu             sync.Mutex
	classification map[string]any
	profile        map[string]any
	err            error
	calls          []string
}

func (g *scriptedGenerator) GenerateJSON(_ context.Context, system, user string) (map[string]any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, user)
	if g.err != nil {
		return nil, g.err
	}
	if system == classifierSystemPrompt {
		return g.classification, nil
	}
	return g.profile, nil
}
