package cli

import (
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"github.com/rcliao/mcp-memory/internal/store"
)

func (a *app) newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memories, most recently updated first",
		RunE:  a.runList,
	}

	cmd.Flags().StringP("ns", "n", "", "Filter by namespace")
	cmd.Flags().String("agent", "", "Filter by agent id")
	cmd.Flags().StringSlice("types", nil, "Filter by record types")
	cmd.Flags().StringSliceP("tags", "t", nil, "Filter by tags (any match)")
	cmd.Flags().Bool("pinned", false, "Only pinned (or, with =false, only unpinned)")
	cmd.Flags().Bool("archived", false, "Only archived (or, with =false, only live)")
	cmd.Flags().String("before", "", "Updated before this RFC 3339 time")
	cmd.Flags().String("after", "", "Updated after this RFC 3339 time")
	cmd.Flags().IntP("limit", "l", 50, "Page size")
	cmd.Flags().String("cursor", "", "Cursor from a previous page")
	cmd.Flags().Bool("ids-only", false, "Only output mem:// URIs")

	return cmd
}

func (a *app) runList(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	p := store.ListParams{Pinned: optionalBool(cmd, "pinned"), Archived: optionalBool(cmd, "archived")}
	p.NS, _ = flags.GetString("ns")
	p.AgentID, _ = flags.GetString("agent")
	p.Types, _ = flags.GetStringSlice("types")
	p.Tags, _ = flags.GetStringSlice("tags")
	p.Limit, _ = flags.GetInt("limit")
	p.Cursor, _ = flags.GetString("cursor")
	idsOnly, _ := flags.GetBool("ids-only")

	var err error
	if p.Before, err = timeFlag(cmd, "before"); err != nil {
		return err
	}
	if p.After, err = timeFlag(cmd, "after"); err != nil {
		return err
	}

	return a.withStore(func(s *store.SQLiteStore) error {
		page, err := s.List(cmd.Context(), p)
		if err != nil {
			return err
		}
		if idsOnly {
			for _, m := range page.Items {
				fmt.Fprintln(cmd.OutOrStdout(), m.ResourceURI())
			}
			return nil
		}
		return printJSON(cmd, page)
	})
}

func timeFlag(cmd *cobra.Command, name string) (*time.Time, error) {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid time", goerr.V("flag", name))
	}
	return &t, nil
}
