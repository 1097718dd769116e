// Package config resolves server settings from flags, MCP_MEMORY_* environment
// variables and an optional config file.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rcliao/mcp-memory/internal/logging"
)

// EnvPrefix prefixes every environment variable, e.g. MCP_MEMORY_DB.
const EnvPrefix = "MCP_MEMORY"

// Keys shared by flags, environment and config file.
const (
	KeyConfig      = "config"
	KeyDB          = "db"
	KeyLogLevel    = "log-level"
	KeyStdio       = "stdio"
	KeyTCP         = "tcp"
	KeyWS          = "ws"
	KeyHTTP        = "http"
	KeySSEInterval = "sse-interval"
)

var keys = []string{KeyConfig, KeyDB, KeyLogLevel, KeyStdio, KeyTCP, KeyWS, KeyHTTP, KeySSEInterval}

// Config is the resolved configuration.
type Config struct {
	DB          string
	LogLevel    string
	Stdio       bool
	TCP         string
	WS          string
	HTTP        string
	SSEInterval time.Duration
}

// New returns a viper instance wired for MCP_MEMORY_* environment variables
// and the built-in defaults.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDB, DefaultDBPath())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeySSEInterval, 15*time.Second)
	return v
}

// DefaultDBPath is ~/.mcp-memory/memory.db, or memory.db in the working
// directory when the home directory is unknown.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "memory.db"
	}
	return filepath.Join(home, ".mcp-memory", "memory.db")
}

// Bind attaches every known key that has a flag in fs.
func Bind(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, key := range keys {
		flag := fs.Lookup(key)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return goerr.Wrap(err, "bind flag", goerr.V("flag", key))
		}
	}
	return nil
}

// Load reads the config file named by the config key, if any, and returns
// the merged settings. Flags beat environment, which beats the file.
func Load(v *viper.Viper) (*Config, error) {
	if path := strings.TrimSpace(v.GetString(KeyConfig)); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, goerr.Wrap(err, "read config file", goerr.V("path", path))
		}
	}

	cfg := &Config{
		DB:          v.GetString(KeyDB),
		LogLevel:    strings.TrimSpace(v.GetString(KeyLogLevel)),
		Stdio:       v.GetBool(KeyStdio),
		TCP:         strings.TrimSpace(v.GetString(KeyTCP)),
		WS:          listenAddr(v.GetString(KeyWS)),
		HTTP:        listenAddr(v.GetString(KeyHTTP)),
		SSEInterval: v.GetDuration(KeySSEInterval),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be fixed up silently.
func (c *Config) Validate() error {
	if c.DB == "" {
		return goerr.New("db path is empty")
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return goerr.New("unknown log level", goerr.V("level", c.LogLevel))
	}
	if c.SSEInterval <= 0 {
		return goerr.New("sse-interval must be positive", goerr.V("value", c.SSEInterval))
	}
	return nil
}

// AnyNetwork reports whether a network transport was requested.
func (c *Config) AnyNetwork() bool {
	return c.TCP != "" || c.WS != "" || c.HTTP != ""
}

// listenAddr accepts HOST:PORT or an http:// URL naming one.
func listenAddr(s string) string {
	s = strings.TrimSpace(s)
	for _, scheme := range []string{"http://", "https://"} {
		if len(s) >= len(scheme) && strings.EqualFold(s[:len(scheme)], scheme) {
			s = s[len(scheme):]
			break
		}
	}
	return strings.TrimSuffix(s, "/")
}
