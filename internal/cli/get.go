package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/mcp-memory/internal/model"
	"github.com/rcliao/mcp-memory/internal/store"
)

type getOutput struct {
	*model.Memory
	Relations map[string]string `json:"relations,omitempty"`
}

func (a *app) newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Retrieve a memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *store.SQLiteStore) error {
				m, err := s.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, getOutput{Memory: m, Relations: store.Relations(m)})
			})
		},
	}
}
