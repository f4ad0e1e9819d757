package main

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/scout-cli/internal/model"
	"github.com/sells-group/scout-cli/internal/store"
)

var (
	entitiesLimit  int
	entitiesOffset int
)

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "Query stored entity profiles",
}

var entitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles, most recently updated first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx, "query")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		list, err := st.ListEntities(ctx, store.EntityFilter{Limit: entitiesLimit, Offset: entitiesOffset})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), list)
	},
}

var entitiesGetCmd = &cobra.Command{
	Use:   "get ID|WEBSITE",
	Short: "Show one profile by numeric ID or website",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx, "query")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ent, err := lookupEntity(ctx, st, args[0])
		if err != nil {
			return err
		}
		if ent == nil {
			return eris.Errorf("entity %s not found", args[0])
		}
		return printJSON(cmd.OutOrStdout(), ent)
	},
}

// lookupEntity treats a numeric key as an ID and anything else as a website.
func lookupEntity(ctx context.Context, st store.Store, key string) (*model.EntityProfile, error) {
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		return st.GetEntity(ctx, id)
	}
	return st.GetEntityByWebsite(ctx, key)
}

func init() {
	entitiesListCmd.Flags().IntVar(&entitiesLimit, "limit", 50, "max profiles to return")
	entitiesListCmd.Flags().IntVar(&entitiesOffset, "offset", 0, "profiles to skip")
	entitiesCmd.AddCommand(entitiesListCmd, entitiesGetCmd)
	rootCmd.AddCommand(entitiesCmd)
}
