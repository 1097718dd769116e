package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/mcp-memory/internal/store"
)

func (a *app) newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Full-text search over content, tags and titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, _ := cmd.Flags().GetString("ns")
			limit, _ := cmd.Flags().GetInt("limit")

			return a.withStore(func(s *store.SQLiteStore) error {
				results, err := s.Search(cmd.Context(), store.SearchParams{
					Query: strings.Join(args, " "),
					NS:    ns,
					Limit: limit,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd, results)
			})
		},
	}

	cmd.Flags().StringP("ns", "n", "", "Filter by namespace")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	return cmd
}
