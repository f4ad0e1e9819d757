package pipeline

import (
	"context"
	"iter"
	"slices"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sells-group/scout-cli/internal/model"
	"github.com/sells-group/scout-cli/internal/scrape"
)

// Crawler walks a site breadth-first, one page at a time.
type Crawler struct {
	fetcher scrape.PageFetcher
	matcher *scrape.PathMatcher
}

// NewCrawler creates a Crawler. A nil matcher excludes nothing.
func NewCrawler(fetcher scrape.PageFetcher, matcher *scrape.PathMatcher) *Crawler {
	if matcher == nil {
		matcher = scrape.NewPathMatcher(nil)
	}
	return &Crawler{fetcher: fetcher, matcher: matcher}
}

// Crawl returns a lazy sequence of at most maxPages pages reachable from
// start within maxDepth link hops, restricted to start's registered domain.
// Pages are fetched as the sequence is consumed. The sequence can be ranged
// over once; later ranges yield nothing.
func (c *Crawler) Crawl(ctx context.Context, start string, maxPages, maxDepth int) iter.Seq[model.FetchedPage] {
	var used atomic.Bool
	return func(yield func(model.FetchedPage) bool) {
		if used.Swap(true) {
			return
		}
		c.walk(ctx, start, maxPages, maxDepth, yield)
	}
}

// Collect runs Crawl to completion and returns the pages in crawl order.
func (c *Crawler) Collect(ctx context.Context, start string, maxPages, maxDepth int) []model.FetchedPage {
	return slices.Collect(c.Crawl(ctx, start, maxPages, maxDepth))
}

func (c *Crawler) walk(ctx context.Context, start string, maxPages, maxDepth int, yield func(model.FetchedPage) bool) {
	log := zap.L().With(zap.String("start", start))

	queue := []model.CrawlLink{{URL: start, Depth: 0}}
	visited := map[string]bool{}
	enqueued := map[string]bool{start: true}
	produced := 0

	for len(queue) > 0 && produced < maxPages {
		if ctx.Err() != nil {
			log.Debug("crawl: context done", zap.Error(ctx.Err()))
			return
		}

		item := queue[0]
		queue = queue[1:]
		if item.Depth > maxDepth || visited[item.URL] {
			continue
		}

		page, err := c.fetcher.Fetch(ctx, item.URL, item.Referer)
		visited[item.URL] = true
		if err != nil {
			log.Warn("crawl: fetch failed", zap.String("url", item.URL), zap.Error(err))
			continue
		}

		page.Depth = item.Depth
		page.Referer = item.Referer
		produced++
		if !yield(*page) {
			return
		}

		if item.Depth >= maxDepth {
			continue
		}
		for _, link := range scrape.ExtractLinks(page.HTML, item.URL) {
			if produced+len(queue) >= maxPages {
				break
			}
			if visited[link] || enqueued[link] {
				continue
			}
			if !scrape.SameSite(start, link) || c.matcher.IsExcluded(link) {
				continue
			}
			enqueued[link] = true
			queue = append(queue, model.CrawlLink{URL: link, Depth: item.Depth + 1, Referer: item.URL})
		}
	}

	log.Debug("crawl: done", zap.Int("pages", produced), zap.Int("visited", len(visited)))
}
