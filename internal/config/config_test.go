package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(KeyConfig, "", "")
	fs.String(KeyDB, "", "")
	fs.String(KeyLogLevel, "info", "")
	fs.Bool(KeyStdio, false, "")
	fs.String(KeyTCP, "", "")
	fs.String(KeyWS, "", "")
	fs.String(KeyHTTP, "", "")
	fs.Duration(KeySSEInterval, 15*time.Second, "")
	return fs
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, DefaultDBPath(), cfg.DB)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.SSEInterval)
	assert.False(t, cfg.AnyNetwork())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "mcp-memory.yaml")
	require.NoError(t, os.WriteFile(file, []byte("db: /from/file.db\ntcp: \"9000\"\nsse-interval: 2s\n"), 0o600))

	t.Setenv("MCP_MEMORY_DB", "/from/env.db")
	t.Setenv("MCP_MEMORY_LOG_LEVEL", "debug")

	v := New()
	v.Set(KeyConfig, file)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/from/env.db", cfg.DB)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "9000", cfg.TCP)
	assert.Equal(t, 2*time.Second, cfg.SSEInterval)
	assert.True(t, cfg.AnyNetwork())
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("MCP_MEMORY_DB", "/from/env.db")

	fs := newFlags()
	v := New()
	require.NoError(t, Bind(v, fs))
	require.NoError(t, fs.Parse([]string{"--db", "/from/flag.db", "--http", "127.0.0.1:8765", "--ws", "http://localhost:8080/"}))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/from/flag.db", cfg.DB)
	assert.Equal(t, "127.0.0.1:8765", cfg.HTTP)
	assert.Equal(t, "localhost:8080", cfg.WS)
}

func TestLoadRejectsBadValues(t *testing.T) {
	v := New()
	v.Set(KeyLogLevel, "chatty")
	_, err := Load(v)
	assert.Error(t, err)

	v = New()
	v.Set(KeySSEInterval, "0s")
	_, err = Load(v)
	assert.Error(t, err)

	v = New()
	v.Set(KeyConfig, filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load(v)
	assert.Error(t, err)
}
