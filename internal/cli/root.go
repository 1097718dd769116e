// Package cli implements the mcp-memory CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rcliao/mcp-memory/internal/config"
	"github.com/rcliao/mcp-memory/internal/logging"
	"github.com/rcliao/mcp-memory/internal/store"
)

// app is the state shared by one command tree.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	version string
}

// NewRootCmd builds the command tree with its own configuration state.
func NewRootCmd(version string) *cobra.Command {
	a := &app{v: config.New(), version: version}

	root := &cobra.Command{
		Use:           "mcp-memory",
		Short:         "Persistent memory server for MCP agents",
		Long:          "A SQLite-backed memory store served as JSON-RPC over stdio, TCP, WebSocket and HTTP.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			a.cfg = cfg

			logger := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
			logging.SetDefault(logger)
			cmd.SetContext(logging.With(cmd.Context(), logger))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringP(config.KeyConfig, "c", "", "Config file (yaml, json or toml)")
	pf.StringP(config.KeyDB, "d", "", "Database path (default: $MCP_MEMORY_DB or ~/.mcp-memory/memory.db)")
	pf.String(config.KeyLogLevel, "info", "Log level: debug, info, warn, error")
	if err := config.Bind(a.v, pf); err != nil {
		panic(err)
	}

	root.AddCommand(
		a.newServeCmd(),
		a.newPutCmd(),
		a.newGetCmd(),
		a.newListCmd(),
		a.newSearchCmd(),
		a.newRmCmd(),
		a.newLinkCmd(),
		a.newExportCmd(),
		a.newImportCmd(),
		a.newStatsCmd(),
		a.newNSCmd(),
		a.newCleanupCmd(),
		a.newContextCmd(),
		a.newTaskCmd(),
	)
	return root
}

func (a *app) openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(a.cfg.DB)
}

// withStore opens the store for the duration of fn.
func (a *app) withStore(fn func(*store.SQLiteStore) error) error {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}

// readInput joins args, or reads piped stdin when there are none.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return "", nil
		}
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// optionalBool returns a pointer only when the flag was given.
func optionalBool(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	b, _ := cmd.Flags().GetBool(name)
	return &b
}
