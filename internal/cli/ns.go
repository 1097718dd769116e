package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/mcp-memory/internal/store"
)

func (a *app) newNSCmd() *cobra.Command {
	nsCmd := &cobra.Command{
		Use:   "ns",
		Short: "Namespace management",
	}

	nsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List namespaces with record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(func(s *store.SQLiteStore) error {
				stats, err := s.Stats(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, stats.Namespaces)
			})
		},
	})
	return nsCmd
}
