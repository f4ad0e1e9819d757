package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/scout-cli/internal/ingest"
	"github.com/sells-group/scout-cli/internal/model"
	"github.com/sells-group/scout-cli/internal/pipeline"
)

var (
	ingestCSV      string
	ingestFieldMap string
	ingestScrape   bool
	ingestMaxPages int
	ingestMaxDepth int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest-csv",
	Short: "Normalize a CSV or XLSX export into profiles, optionally scraping each website",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := loadRows(ingestCSV, ingestFieldMap)
		if err != nil {
			return err
		}

		mode := "ingest"
		if ingestScrape {
			mode = "scrape"
		}
		ctx := cmd.Context()
		env, err := initPipeline(ctx, mode)
		if err != nil {
			return err
		}
		defer env.Close()

		if !ingestScrape {
			n, err := env.Pipeline.Ingest(ctx, rows)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pipeline.IngestSummary{Ingested: n})
		}

		summary, err := env.Pipeline.IngestAndScrape(ctx, rows, ingestMaxPages, ingestMaxDepth)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), struct {
			Ingested int            `json:"ingested"`
			Scraped  int            `json:"scraped"`
			Results  []scrapeOutput `json:"results"`
		}{summary.Ingested, summary.Scraped, batchOutput(summary.Results)})
	},
}

// loadRows reads and normalizes the input file.
func loadRows(path, fieldMapPath string) ([]model.EntityProfile, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(err, "input not found: %s", path)
	}
	table, err := ingest.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var extra ingest.FieldMap
	if fieldMapPath != "" {
		if extra, err = ingest.LoadFieldMap(fieldMapPath); err != nil {
			return nil, err
		}
	}

	rows := ingest.Normalize(table, extra)
	zap.L().Info("ingest: normalized rows", zap.String("path", path), zap.Int("rows", len(rows)))
	return rows, nil
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCSV, "csv", "", "path to CSV or XLSX file")
	ingestCmd.Flags().StringVar(&ingestFieldMap, "field-map", "", "YAML file mapping column names to profile fields")
	ingestCmd.Flags().BoolVar(&ingestScrape, "scrape", false, "after ingest, scrape each row's website")
	ingestCmd.Flags().IntVar(&ingestMaxPages, "max-pages", 0, "max pages to crawl per site (default from config)")
	ingestCmd.Flags().IntVar(&ingestMaxDepth, "max-depth", -1, "max crawl depth (default from config)")
	_ = ingestCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(ingestCmd)
}
