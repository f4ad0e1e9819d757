package main

import (
	"github.com/spf13/cobra"
)

var pagesURL string

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Query stored pages",
}

var pagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored pages, optionally for one URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx, "query")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		pages, err := st.ListPages(ctx, pagesURL)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), pages)
	},
}

func init() {
	pagesListCmd.Flags().StringVar(&pagesURL, "url", "", "only pages fetched from this URL")
	pagesCmd.AddCommand(pagesListCmd)
	rootCmd.AddCommand(pagesCmd)
}
