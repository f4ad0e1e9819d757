package main

import (
	"context"

	"github.com/sells-group/scout-cli/internal/config"
	"github.com/sells-group/scout-cli/internal/llm"
	"github.com/sells-group/scout-cli/internal/pipeline"
	"github.com/sells-group/scout-cli/internal/scrape"
	"github.com/sells-group/scout-cli/internal/store"
)

// pipelineEnv holds the store and the pipeline built on it.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates config for mode, opens the store, and builds the
// Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	st, err := openStore(ctx, mode)
	if err != nil {
		return nil, err
	}
	p := buildPipeline(cfg, st, scrape.NewFetcher(cfg.Crawl), llm.NewFromConfig(cfg))
	return &pipelineEnv{Store: st, Pipeline: p}, nil
}

func buildPipeline(c *config.Config, st store.Store, fetcher scrape.PageFetcher, gen llm.Generator) *pipeline.Pipeline {
	crawler := pipeline.NewCrawler(fetcher, scrape.NewPathMatcher(c.Crawl.ExcludePaths))
	gate := pipeline.NewGate(gen, c.LLM.GateSnippetChars)
	extractor := pipeline.NewExtractor(gen, c.LLM.ExtractTextChars)
	return pipeline.New(c, st, crawler, gate, extractor)
}
