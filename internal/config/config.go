// Package config provides configuration loading and validation for the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable the CLI reads.
const EnvPrefix = "COMPANY_AGENT"

// Config represents the CLI configuration. Values come from, in increasing
// priority: defaults, a config file, COMPANY_AGENT_* environment variables and
// command-line flags.
type Config struct {
	// Inputs
	URLs   []string `mapstructure:"urls" json:"urls,omitempty" validate:"dive,url"` // Pages to capture
	Forest string   `mapstructure:"forest" json:"forest,omitempty"`                 // Captured forest file

	// Outputs
	Companies    string `mapstructure:"companies" json:"companies,omitempty"`                                    // Stage-1 companies CSV
	JSONOutput   string `mapstructure:"json_output" json:"json_output,omitempty"`                                // Optional companies.json export
	SectorDir    string `mapstructure:"sector_dir" json:"sector_dir,omitempty"`                                  // Directory of per-sector CSVs
	SectorPrefix string `mapstructure:"sector_prefix" json:"sector_prefix,omitempty" validate:"excludesall=/\\"` // Per-sector file prefix

	// Capture
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout,omitempty" validate:"gte=0"`
	SettleDelay time.Duration `mapstructure:"settle_delay" json:"settle_delay,omitempty" validate:"gte=0"`
	Headless    bool          `mapstructure:"headless" json:"headless,omitempty"`
	Static      bool          `mapstructure:"static" json:"static,omitempty"`
	Concurrency int           `mapstructure:"concurrency" json:"concurrency,omitempty" validate:"gte=0,lte=16"`

	// Behavior
	Verbose     bool   `mapstructure:"verbose" json:"verbose,omitempty"`
	DatabaseURL string `mapstructure:"database_url" json:"database_url,omitempty"` // PostgreSQL connection URL
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Companies:    "companies.csv",
		SectorDir:    "by_sector",
		SectorPrefix: "sector_",
		Timeout:      60 * time.Second,
		SettleDelay:  3 * time.Second,
		Headless:     true,
		Concurrency:  2,
	}
}

// flagKeys maps CLI flag names to config keys. Several flags may share a key
// when different commands name the same setting differently.
var flagKeys = map[string]string{
	"url":          "urls",
	"forest":       "forest",
	"out":          "companies",
	"in":           "companies",
	"json":         "json_output",
	"out-dir":      "sector_dir",
	"prefix":       "sector_prefix",
	"timeout":      "timeout",
	"settle":       "settle_delay",
	"headless":     "headless",
	"static":       "static",
	"concurrency":  "concurrency",
	"verbose":      "verbose",
	"database-url": "database_url",
}

// Load builds the configuration. path names an optional config file (JSON,
// YAML or TOML by extension); flags, when non-nil, overrides everything else
// for each flag the user actually set.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("urls", []string{})
	v.SetDefault("forest", d.Forest)
	v.SetDefault("companies", d.Companies)
	v.SetDefault("json_output", d.JSONOutput)
	v.SetDefault("sector_dir", d.SectorDir)
	v.SetDefault("sector_prefix", d.SectorPrefix)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("settle_delay", d.SettleDelay)
	v.SetDefault("headless", d.Headless)
	v.SetDefault("static", d.Static)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("database_url", d.DatabaseURL)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// DATABASE_URL is honoured for compatibility with the usual Postgres tooling.
	_ = v.BindEnv("database_url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")

	if path != "" {
		abs, err := resolvePath(path)
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(abs)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", abs, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.URLs = cleanURLs(cfg.URLs)

	return &cfg, nil
}

// LoadConfig loads configuration from a file alone, without env or flags.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	return Load(path, nil)
}

func resolvePath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return filepath.Join(cwd, path), nil
}

// cleanURLs splits comma-joined entries (as they arrive from env vars), trims
// them and drops empties.
func cleanURLs(urls []string) []string {
	var out []string
	for _, u := range urls {
		for _, part := range strings.Split(u, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

var validate = validator.New()

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those depend on the command.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed the '%s' check", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.Forest != "" && len(c.URLs) == 0 {
		if _, err := os.Stat(c.Forest); os.IsNotExist(err) {
			return fmt.Errorf("config error: forest file not found: %s", c.Forest)
		}
	}

	return nil
}

// RequireSource checks that exactly one input was given: page URLs or a forest file.
func (c *Config) RequireSource() error {
	switch {
	case len(c.URLs) > 0 && c.Forest != "":
		return fmt.Errorf("config error: 'urls' and 'forest' are mutually exclusive")
	case len(c.URLs) == 0 && c.Forest == "":
		return fmt.Errorf("config error: one of 'urls' or 'forest' is required")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty string fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if len(result.URLs) == 0 {
		result.URLs = defaults.URLs
	}
	if result.Forest == "" {
		result.Forest = defaults.Forest
	}
	if result.Companies == "" {
		result.Companies = defaults.Companies
	}
	if result.JSONOutput == "" {
		result.JSONOutput = defaults.JSONOutput
	}
	if result.SectorDir == "" {
		result.SectorDir = defaults.SectorDir
	}
	if result.SectorPrefix == "" {
		result.SectorPrefix = defaults.SectorPrefix
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	if result.Timeout == 0 {
		result.Timeout = defaults.Timeout
	}
	if result.SettleDelay == 0 {
		result.SettleDelay = defaults.SettleDelay
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
