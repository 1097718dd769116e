package cli

import (
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"github.com/rcliao/mcp-memory/internal/store"
)

func (a *app) newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Upsert memories from NDJSON",
		Long:  "Upsert memories by id from NDJSON (a file or stdin). Lines that do not parse are skipped.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return goerr.Wrap(err, "open import file", goerr.V("path", args[0]))
				}
				defer f.Close()
				r = f
			}

			return a.withStore(func(s *store.SQLiteStore) error {
				n, err := s.Import(cmd.Context(), r)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]int{"upserted": n})
			})
		},
	}
}
