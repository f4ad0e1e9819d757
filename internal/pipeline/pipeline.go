package pipeline

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/scout-cli/internal/config"
	"github.com/sells-group/scout-cli/internal/metrics"
	"github.com/sells-group/scout-cli/internal/model"
	"github.com/sells-group/scout-cli/internal/store"
)

// Pipeline runs the crawl, classify, extract, and store flow for one URL
// at a time.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	crawler   *Crawler
	gate      *Gate
	extractor *Extractor
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, st store.Store, crawler *Crawler, gate *Gate, extractor *Extractor) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		store:     st,
		crawler:   crawler,
		gate:      gate,
		extractor: extractor,
	}
}

// budgets resolves per-call crawl limits against config.
func (p *Pipeline) budgets(maxPages, maxDepth int) (int, int) {
	if maxPages <= 0 {
		maxPages = p.cfg.Crawl.MaxPages
	}
	if maxDepth < 0 {
		maxDepth = p.cfg.Crawl.MaxDepth
	}
	return max(maxPages, 1), max(maxDepth, 0)
}

// Scrape fetches the first page of url, asks the gate whether it is worth
// a full crawl, and if so crawls, extracts, and upserts a profile. It
// returns the entity ID, or nil when nothing was fetched or the gate
// rejected the site. A rejected site still has its first page stored.
func (p *Pipeline) Scrape(ctx context.Context, url string, maxPages, maxDepth int) (*int64, error) {
	maxPages, maxDepth = p.budgets(maxPages, maxDepth)
	log := zap.L().With(zap.String("run_id", uuid.NewString()), zap.String("url", url))

	first := p.crawler.Collect(ctx, url, 1, 0)
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: fetch first page")
	}
	if len(first) == 0 {
		log.Warn("pipeline: no content fetched")
		return nil, nil
	}
	home := first[0]

	cls, err := p.gate.Classify(ctx, home.URL, home.Title, home.Text)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: gate %s", url)
	}
	metrics.ObserveGateVerdict(string(cls.Verdict()))
	log.Info("pipeline: gate verdict",
		zap.String("verdict", string(cls.Verdict())),
		zap.Float64("confidence", cls.Confidence),
		zap.String("reason", cls.Reason),
	)

	if !cls.IsReal {
		if _, err := p.store.InsertPages(ctx, []model.PersistedPage{home.ToPersisted(false)}); err != nil {
			return nil, err
		}
		return nil, nil
	}

	pages := p.crawler.Collect(ctx, url, maxPages, maxDepth)
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: crawl")
	}
	if len(pages) == 0 {
		// The site went away between the gate fetch and the full crawl.
		pages = first
	}
	log.Info("pipeline: crawl complete",
		zap.Int("pages", len(pages)), zap.Int("max_pages", maxPages), zap.Int("max_depth", maxDepth))

	persisted := make([]model.PersistedPage, len(pages))
	texts := make([]string, len(pages))
	for i, pg := range pages {
		persisted[i] = pg.ToPersisted(true)
		texts[i] = pg.Text
	}
	inserted, err := p.store.InsertPages(ctx, persisted)
	if err != nil {
		return nil, err
	}

	profile, err := p.extractor.Extract(ctx, url, strings.Join(texts, "\n\n"))
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: extract %s", url)
	}

	id, err := p.store.UpsertEntity(ctx, profile)
	if err != nil {
		return nil, err
	}
	log.Info("pipeline: entity upserted",
		zap.Int64("entity_id", id), zap.Int("pages_inserted", inserted), zap.String("website", profile.Website))
	return &id, nil
}

// ScrapeResult is the outcome of one URL in a batch.
type ScrapeResult struct {
	URL      string `json:"url"`
	EntityID *int64 `json:"entity_id"`
	Err      error  `json:"-"`
}

// Error returns the failure message, or "" on success.
func (r ScrapeResult) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// ScrapeBatch runs Scrape for each URL in order. A failure is logged and
// recorded on that URL's result; the rest of the batch still runs unless
// ctx is done.
func (p *Pipeline) ScrapeBatch(ctx context.Context, urls []string, maxPages, maxDepth int) []ScrapeResult {
	results := make([]ScrapeResult, 0, len(urls))
	var failed, skipped int
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			results = append(results, ScrapeResult{URL: u, Err: err})
			failed++
			continue
		}
		id, err := p.Scrape(ctx, u, maxPages, maxDepth)
		switch {
		case err != nil:
			failed++
			zap.L().Error("pipeline: scrape failed", zap.String("url", u), zap.Error(err))
		case id == nil:
			skipped++
			zap.L().Info("pipeline: skipped or stored first page only", zap.String("url", u))
		}
		results = append(results, ScrapeResult{URL: u, EntityID: id, Err: err})
	}
	zap.L().Info("pipeline: batch complete",
		zap.Int("urls", len(urls)), zap.Int("failed", failed), zap.Int("skipped", skipped))
	return results
}

// Ingest upserts one profile per row and returns how many were written.
// It stops at the first storage failure.
func (p *Pipeline) Ingest(ctx context.Context, rows []model.EntityProfile) (int, error) {
	count := 0
	for i := range rows {
		row := rows[i]
		if _, err := p.store.UpsertEntity(ctx, &row); err != nil {
			return count, eris.Wrapf(err, "pipeline: ingest row %d", i+1)
		}
		count++
	}
	zap.L().Info("pipeline: ingested rows", zap.Int("count", count))
	return count, nil
}

// IngestSummary reports an ingest-then-scrape run.
type IngestSummary struct {
	Ingested int            `json:"ingested"`
	Scraped  int            `json:"scraped"`
	Results  []ScrapeResult `json:"results"`
}

// IngestAndScrape ingests rows, then scrapes every row that has a website.
// Websites without a scheme are fetched over https.
func (p *Pipeline) IngestAndScrape(ctx context.Context, rows []model.EntityProfile, maxPages, maxDepth int) (IngestSummary, error) {
	var summary IngestSummary
	n, err := p.Ingest(ctx, rows)
	summary.Ingested = n
	if err != nil {
		return summary, err
	}

	var urls []string
	for _, r := range rows {
		if site := EnsureScheme(r.Website); site != "" {
			urls = append(urls, site)
		}
	}
	summary.Results = p.ScrapeBatch(ctx, urls, maxPages, maxDepth)
	for _, r := range summary.Results {
		if r.EntityID != nil {
			summary.Scraped++
		}
	}
	zap.L().Info("pipeline: scraped websites from input", zap.Int("scraped", summary.Scraped))
	return summary, nil
}

// EnsureScheme trims u and prefixes https:// unless it already has an
// http or https scheme.
func EnsureScheme(u string) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return ""
	}
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return u
	}
	return "https://" + u
}
