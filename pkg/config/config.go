package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultFile is the optional config file read from the working directory
const DefaultFile = "resume-kg.toml"

// EnvPrefix prefixes every environment variable (e.g. RESUMEKG_PORT=9000)
const EnvPrefix = "RESUMEKG_"

// Config holds all configuration for the application
type Config struct {
	Addr              string   `koanf:"addr"`
	Port              int      `koanf:"port"`
	OpenBrowser       bool     `koanf:"open"`
	LogLevel          string   `koanf:"log-level"`
	LogFormat         string   `koanf:"log-format"`
	LogFile           string   `koanf:"log-file"`
	Skills            []string `koanf:"skills"`
	SkillsFile        string   `koanf:"skills-file"`
	FallbackPredicate string   `koanf:"fallback-predicate"`
	RelationRules     string   `koanf:"relation-rules"`
	UploadLimitMB     int      `koanf:"upload-limit-mb"`
	Physics           bool     `koanf:"physics"`
	GraphHeight       int      `koanf:"graph-height"`
}

// Defaults returns the built-in values, lowest in precedence.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"addr":               "127.0.0.1",
		"port":               8501,
		"open":               false,
		"log-level":          "info",
		"log-format":         "text",
		"log-file":           "",
		"skills":             []string{},
		"skills-file":        "",
		"fallback-predicate": "at",
		"relation-rules":     "",
		"upload-limit-mb":    32,
		"physics":            true,
		"graph-height":       700,
	}
}

// RegisterFlags adds the server flags to f.
func RegisterFlags(f *pflag.FlagSet) {
	f.String("config", DefaultFile, "Path to a TOML config file")
	f.String("addr", "127.0.0.1", "Address to listen on")
	f.IntP("port", "p", 8501, "Port to listen on")
	f.Bool("open", false, "Open the UI in a browser once the server is up")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text or json)")
	f.String("log-file", "", "Also write logs to this file, rotated")
	f.StringSlice("skills", nil, "Skills dictionary, comma-separated (default: built-in list)")
	f.String("skills-file", "", "File with one skill per line or comma-separated")
	f.String("fallback-predicate", "at", "Predicate for co-occurring types without a rule; empty disables")
	f.String("relation-rules", "", "Extra relation rules, e.g. PEOPLE:DATES=active_in")
	f.Int("upload-limit-mb", 32, "Maximum size of one upload request in MiB")
	f.Bool("physics", true, "Run the force simulation in the graph view")
	f.Int("graph-height", 700, "Height of the graph view in pixels")
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := DefaultFile
	if f != nil {
		if p, err := f.GetString("config"); err == nil && p != "" {
			path = p
		}
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// listKeys are split on commas when they come from the environment
var listKeys = map[string]bool{
	"skills": true,
}

// envValue maps RESUMEKG_LOG_LEVEL to log-level and splits list values.
func envValue(key, value string) (string, interface{}) {
	key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "_", "-")
	if !listKeys[key] {
		return key, value
	}

	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}
	if c.UploadLimitMB <= 0 {
		return fmt.Errorf("invalid upload limit %d MiB", c.UploadLimitMB)
	}
	if c.GraphHeight <= 0 {
		return fmt.Errorf("invalid graph height %d", c.GraphHeight)
	}
	return nil
}

// ListenAddr returns host:port.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Addr, c.Port)
}

// UploadLimit returns the upload limit in bytes.
func (c *Config) UploadLimit() int64 {
	return int64(c.UploadLimitMB) << 20
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
