package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks that the values a command mode depends on are present
// and within range. Modes: scrape, ingest, serve, query.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "scrape", "serve":
		if !c.LLM.Offline && c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required (or set llm.offline)")
		}
		errs = append(errs, c.validateCrawl()...)
		errs = append(errs, c.validateLLM()...)
		if mode == "serve" && c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "ingest", "query":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	errs = append(errs, c.validateStore()...)

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

func (c *Config) validateCrawl() []string {
	var errs []string
	if c.Crawl.MaxPages < 1 {
		errs = append(errs, "crawl.max_pages must be >= 1")
	}
	if c.Crawl.MaxDepth < 0 {
		errs = append(errs, "crawl.max_depth must be >= 0")
	}
	if c.Crawl.TimeoutSecs <= 0 {
		errs = append(errs, "crawl.timeout_secs must be > 0")
	}
	if c.Crawl.RequestsPerSecond < 0 {
		errs = append(errs, "crawl.requests_per_second must be >= 0")
	}
	return errs
}

func (c *Config) validateLLM() []string {
	var errs []string
	if c.LLM.MaxAttempts < 1 {
		errs = append(errs, "llm.max_attempts must be >= 1")
	}
	if c.LLM.GateSnippetChars < 1 || c.LLM.ExtractTextChars < 1 {
		errs = append(errs, "llm text caps must be >= 1")
	}
	return errs
}
