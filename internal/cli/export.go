package cli

import (
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"github.com/rcliao/mcp-memory/internal/store"
)

func (a *app) newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export memories as NDJSON",
		Long:  "Export every memory, archived ones included, as newline-delimited JSON. Filter by namespace with -n.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ns, _ := cmd.Flags().GetString("ns")
			out, _ := cmd.Flags().GetString("out")

			return a.withStore(func(s *store.SQLiteStore) error {
				items, err := s.Export(cmd.Context(), ns)
				if err != nil {
					return err
				}

				var w io.Writer = cmd.OutOrStdout()
				if out != "" {
					f, err := os.Create(out)
					if err != nil {
						return goerr.Wrap(err, "create export file", goerr.V("path", out))
					}
					defer f.Close()
					w = f
				}
				return store.WriteNDJSON(w, items)
			})
		},
	}

	cmd.Flags().StringP("ns", "n", "", "Filter by namespace")
	cmd.Flags().StringP("out", "o", "", "Write to a file instead of stdout")
	return cmd
}
