package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/scout-cli/internal/pipeline"
)

var (
	scrapeURL      string
	scrapeInput    string
	scrapeMaxPages int
	scrapeMaxDepth int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape-urls",
	Short: "Gate, crawl, and extract profiles for one or more URLs",
	RunE: func(cmd *cobra.Command, args []string) error {
		urls, err := collectURLs(scrapeURL, scrapeInput)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		env, err := initPipeline(ctx, "scrape")
		if err != nil {
			return err
		}
		defer env.Close()

		results := env.Pipeline.ScrapeBatch(ctx, urls, scrapeMaxPages, scrapeMaxDepth)
		if err := printJSON(cmd.OutOrStdout(), batchOutput(results)); err != nil {
			return err
		}

		// A lone --url is a single invocation; its failure fails the command.
		if scrapeInput == "" && len(results) == 1 && results[0].Err != nil {
			return results[0].Err
		}
		return nil
	},
}

type scrapeOutput struct {
	URL      string `json:"url"`
	EntityID *int64 `json:"entity_id"`
	Error    string `json:"error,omitempty"`
}

func batchOutput(results []pipeline.ScrapeResult) []scrapeOutput {
	out := make([]scrapeOutput, len(results))
	for i, r := range results {
		out[i] = scrapeOutput{URL: r.URL, EntityID: r.EntityID, Error: r.Error()}
	}
	return out
}

// collectURLs merges --url with the non-blank lines of --input.
func collectURLs(single, inputPath string) ([]string, error) {
	var urls []string
	if u := pipeline.EnsureScheme(single); u != "" {
		urls = append(urls, u)
	}
	if inputPath != "" {
		f, err := os.Open(inputPath)
		if err != nil {
			return nil, eris.Wrap(err, "open url list")
		}
		defer f.Close() //nolint:errcheck

		sc := bufio.NewScanner(f)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			urls = append(urls, pipeline.EnsureScheme(line))
		}
		if err := sc.Err(); err != nil {
			return nil, eris.Wrap(err, "read url list")
		}
	}
	if len(urls) == 0 {
		return nil, eris.New("provide --url or --input file with URLs")
	}
	return urls, nil
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeURL, "url", "", "single URL to process")
	scrapeCmd.Flags().StringVar(&scrapeInput, "input", "", "text file with URLs, one per line")
	scrapeCmd.Flags().IntVar(&scrapeMaxPages, "max-pages", 0, "max pages to crawl per site (default from config)")
	scrapeCmd.Flags().IntVar(&scrapeMaxDepth, "max-depth", -1, "max crawl depth (default from config)")
	rootCmd.AddCommand(scrapeCmd)
}
