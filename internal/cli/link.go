package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/mcp-memory/internal/store"
)

func (a *app) newLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link <from-id> <to-id>",
		Short: "Reference one memory from another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rel, _ := cmd.Flags().GetString("rel")
			return a.withStore(func(s *store.SQLiteStore) error {
				ok, err := s.Link(cmd.Context(), store.LinkParams{FromID: args[0], ToID: args[1], Relation: rel})
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]bool{"ok": ok})
			})
		},
	}

	cmd.Flags().StringP("rel", "r", "", "Relation label, e.g. relates_to, depends_on, refines")
	return cmd
}
