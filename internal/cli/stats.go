package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/mcp-memory/internal/store"
)

func (a *app) newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(func(s *store.SQLiteStore) error {
				stats, err := s.Stats(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, stats)
			})
		},
	}
}
