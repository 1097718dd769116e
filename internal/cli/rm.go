package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/mcp-memory/internal/store"
)

func (a *app) newRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Archive a memory, or delete it with --hard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hard, _ := cmd.Flags().GetBool("hard")
			return a.withStore(func(s *store.SQLiteStore) error {
				n, err := s.Delete(cmd.Context(), args[0], hard)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]int{"removed": n})
			})
		},
	}

	cmd.Flags().Bool("hard", false, "Permanent delete (irreversible)")
	return cmd
}
