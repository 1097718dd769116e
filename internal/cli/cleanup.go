package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/mcp-memory/internal/store"
)

func (a *app) newCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired memories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ns, _ := cmd.Flags().GetString("ns")
			return a.withStore(func(s *store.SQLiteStore) error {
				n, err := s.Cleanup(cmd.Context(), ns)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]int{"removed": n})
			})
		},
	}

	cmd.Flags().StringP("ns", "n", "", "Only this namespace")
	return cmd
}
