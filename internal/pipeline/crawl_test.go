package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scout-cli/internal/config"
	"github.com/sells-group/scout-cli/internal/model"
	"github.com/sells-group/scout-cli/internal/scrape"
)

func TestCrawl_FixtureGraph(t *testing.T) {
	f := newSiteFetcher(map[string]string{
		"https://www.example.com/": pageHTML("A", "home",
			"https://blog.example.com/b", "https://external.com/x"),
		"https://blog.example.com/b": pageHTML("B", "blog", "https://www.example.com/"),
		"https://external.com/x":     pageHTML("X", "external"),
	})

	pages := NewCrawler(f, nil).Collect(context.Background(), "https://www.example.com/", 3, 1)

	assert.Equal(t, []string{"https://www.example.com/", "https://blog.example.com/b"}, urls(pages))
	assert.Equal(t, 0, pages[0].Depth)
	assert.Equal(t, "", pages[0].Referer)
	assert.Equal(t, 1, pages[1].Depth)
	assert.Equal(t, "https://www.example.com/", pages[1].Referer)
	assert.Equal(t, "https://www.example.com/", f.referer["https://blog.example.com/b"])
	assert.NotContains(t, f.Fetched(), "https://external.com/x")
}

func TestCrawl_UnlistedTLDSiblingsAreInternal(t *testing.T) {
	f := newSiteFetcher(map[string]string{
		"https://a.example/":    pageHTML("A", "home", "https://b.example/", "https://external.com/"),
		"https://b.example/":    pageHTML("B", "sibling", "https://a.example/"),
		"https://external.com/": pageHTML("X", "external"),
	})

	pages := NewCrawler(f, nil).Collect(context.Background(), "https://a.example/", 3, 1)

	assert.Equal(t, []string{"https://a.example/", "https://b.example/"}, urls(pages))
	assert.Equal(t, 1, pages[1].Depth)
	assert.NotContains(t, f.Fetched(), "https://external.com/")
	assert.Len(t, f.Fetched(), 2, "a.example is not revisited")
}

func TestCrawl_PageBudget(t *testing.T) {
	links := make([]string, 0, 10)
	pages := map[string]string{}
	for i := range 10 {
		u := fmt.Sprintf("https://example.com/p%d", i)
		links = append(links, u)
		pages[u] = pageHTML("p", "child")
	}
	pages["https://example.com/"] = pageHTML("root", "root", links...)
	f := newSiteFetcher(pages)

	got := NewCrawler(f, nil).Collect(context.Background(), "https://example.com/", 4, 3)

	assert.Len(t, got, 4)
	assert.Len(t, f.Fetched(), 4, "queue growth is bounded by the page budget")
	assert.Equal(t, "https://example.com/p2", got[3].URL)
}

func TestCrawl_DepthBudget(t *testing.T) {
	f := newSiteFetcher(map[string]string{
		"https://example.com/":  pageHTML("0", "zero", "https://example.com/1"),
		"https://example.com/1": pageHTML("1", "one", "https://example.com/2"),
		"https://example.com/2": pageHTML("2", "two", "https://example.com/3"),
		"https://example.com/3": pageHTML("3", "three"),
	})

	for depth := 0; depth <= 3; depth++ {
		t.Run(fmt.Sprintf("depth=%d", depth), func(t *testing.T) {
			got := NewCrawler(f, nil).Collect(context.Background(), "https://example.com/", 10, depth)
			require.Len(t, got, depth+1)
			for _, p := range got {
				assert.LessOrEqual(t, p.Depth, depth)
			}
		})
	}
}

func TestCrawl_NoDuplicates(t *testing.T) {
	f := newSiteFetcher(map[string]string{
		"https://example.com/": pageHTML("0", "zero",
			"https://example.com/a", "https://example.com/a", "/b", "https://example.com/"),
		"https://example.com/a": pageHTML("a", "a", "/b", "/"),
		"https://example.com/b": pageHTML("b", "b", "/a"),
	})

	got := NewCrawler(f, nil).Collect(context.Background(), "https://example.com/", 10, 5)

	assert.Equal(t, []string{"https://example.com/", "https://example.com/a", "https://example.com/b"}, urls(got))
	assert.Len(t, f.Fetched(), 3)
}

func TestCrawl_FetchFailureContinues(t *testing.T) {
	f := newSiteFetcher(map[string]string{
		"https://example.com/":   pageHTML("0", "zero", "/broken", "/ok"),
		"https://example.com/ok": pageHTML("ok", "ok"),
	})

	got := NewCrawler(f, nil).Collect(context.Background(), "https://example.com/", 5, 1)

	assert.Equal(t, []string{"https://example.com/", "https://example.com/ok"}, urls(got))
	assert.Equal(t, []string{"https://example.com/", "https://example.com/broken", "https://example.com/ok"}, f.Fetched())
}

func TestCrawl_StartUnreachable(t *testing.T) {
	f := newSiteFetcher(map[string]string{})
	got := NewCrawler(f, nil).Collect(context.Background(), "https://down.example.com/", 5, 2)
	assert.Empty(t, got)
}

func TestCrawl_ExcludedPaths(t *testing.T) {
	f := newSiteFetcher(map[string]string{
		"https://example.com/":          pageHTML("0", "zero", "/blog/post", "/about"),
		"https://example.com/about":     pageHTML("about", "about"),
		"https://example.com/blog/post": pageHTML("post", "post"),
	})

	got := NewCrawler(f, scrape.NewPathMatcher([]string{"/blog/*"})).
		Collect(context.Background(), "https://example.com/", 5, 1)

	assert.Equal(t, []string{"https://example.com/", "https://example.com/about"}, urls(got))
}

func TestCrawl_NotRestartable(t *testing.T) {
	f := newSiteFetcher(map[string]string{"https://example.com/": pageHTML("0", "zero")})
	seq := NewCrawler(f, nil).Crawl(context.Background(), "https://example.com/", 5, 1)

	var first, second []model.FetchedPage
	for p := range seq {
		first = append(first, p)
	}
	for p := range seq {
		second = append(second, p)
	}
	assert.Len(t, first, 1)
	assert.Empty(t, second)
}

func TestCrawl_StopsWhenConsumerBreaks(t *testing.T) {
	f := newSiteFetcher(map[string]string{
		"https://example.com/":  pageHTML("0", "zero", "/1", "/2"),
		"https://example.com/1": pageHTML("1", "one"),
		"https://example.com/2": pageHTML("2", "two"),
	})

	for range NewCrawler(f, nil).Crawl(context.Background(), "https://example.com/", 5, 1) {
		break
	}
	assert.Equal(t, []string{"https://example.com/"}, f.Fetched())
}

func TestCrawl_CancelledContext(t *testing.T) {
	f := newSiteFetcher(map[string]string{"https://example.com/": pageHTML("0", "zero")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := NewCrawler(f, nil).Collect(ctx, "https://example.com/", 5, 1)
	assert.Empty(t, got)
	assert.Empty(t, f.Fetched())
}

func TestCrawl_HTTPFixtureSite(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, pageHTML("Home", "welcome", "/about", "https://external.com/", "mailto:hi@example.com"))
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pageHTML("About", "about us", "/", "/missing"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fetcher := scrape.NewFetcher(config.CrawlConfig{TimeoutSecs: 5}, scrape.WithHTTPClient(srv.Client()))
	got := NewCrawler(fetcher, nil).Collect(context.Background(), srv.URL+"/", 5, 2)

	require.Len(t, got, 3)
	assert.Equal(t, srv.URL+"/", got[0].URL)
	assert.Equal(t, "Home", got[0].Title)
	assert.Equal(t, srv.URL+"/about", got[1].URL)
	assert.Equal(t, srv.URL+"/", got[1].Referer)
	assert.Equal(t, srv.URL+"/missing", got[2].URL)
	assert.Equal(t, http.StatusNotFound, got[2].StatusCode, "HTTP error status is recorded, not fatal")
}
