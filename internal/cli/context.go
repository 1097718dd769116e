package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/mcp-memory/internal/store"
)

func (a *app) newContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context [description]",
		Short: "Assemble relevant memories for a task",
		Long:  "Search and score memories, then greedily pack them into a token budget. Without a description the most recent memories are used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, _ := cmd.Flags().GetString("ns")
			tags, _ := cmd.Flags().GetStringSlice("tags")
			budget, _ := cmd.Flags().GetInt("budget")

			return a.withStore(func(s *store.SQLiteStore) error {
				result, err := s.Context(cmd.Context(), store.ContextParams{
					NS:     ns,
					Query:  strings.Join(args, " "),
					Tags:   tags,
					Budget: budget,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	}

	cmd.Flags().StringP("ns", "n", "", "Filter by namespace")
	cmd.Flags().StringSliceP("tags", "t", nil, "Filter by tags")
	cmd.Flags().IntP("budget", "b", 4000, "Max tokens in output")
	return cmd
}
