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

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"urls": ["https://example.com/startups"],
		"companies": "out/companies.csv",
		"settle_delay": "5s",
		"concurrency": 4,
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, []string{"https://example.com/startups"}, cfg.URLs)
	assert.Equal(t, "out/companies.csv", cfg.Companies)
	assert.Equal(t, 5*time.Second, cfg.SettleDelay)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.True(t, cfg.Verbose)

	// Unset values keep their defaults
	assert.Equal(t, "by_sector", cfg.SectorDir)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.True(t, cfg.Headless)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", "forest: forest.json\nsector_prefix: secteur_\nstatic: true\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "forest.json", cfg.Forest)
	assert.Equal(t, "secteur_", cfg.SectorPrefix)
	assert.True(t, cfg.Static)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{ invalid json }`)

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	d := Default()
	assert.Equal(t, d.Companies, cfg.Companies)
	assert.Equal(t, d.SectorPrefix, cfg.SectorPrefix)
	assert.Equal(t, d.Concurrency, cfg.Concurrency)
	assert.Empty(t, cfg.URLs)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "config.json", `{"concurrency": 4, "sector_dir": "from_file"}`)
	t.Setenv("COMPANY_AGENT_CONCURRENCY", "8")
	t.Setenv("COMPANY_AGENT_URLS", "https://a.example.com, https://b.example.com")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "from_file", cfg.SectorDir)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.URLs)
}

func TestLoad_DatabaseURLFallback(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/plain")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/plain", cfg.DatabaseURL)

	t.Setenv("COMPANY_AGENT_DATABASE_URL", "postgres://localhost/prefixed")
	cfg, err = Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/prefixed", cfg.DatabaseURL)
}

func TestLoad_FlagsWinWhenSet(t *testing.T) {
	path := writeConfig(t, "config.json", `{"concurrency": 4, "companies": "file.csv"}`)
	t.Setenv("COMPANY_AGENT_CONCURRENCY", "8")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("concurrency", 2, "")
	flags.String("out", "companies.csv", "")
	flags.Duration("settle", 3*time.Second, "")
	require.NoError(t, flags.Parse([]string{"--concurrency=1", "--settle=250ms"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, 250*time.Millisecond, cfg.SettleDelay)
	// --out was not set, so the file value stands
	assert.Equal(t, "file.csv", cfg.Companies)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid config",
			cfg:  Config{URLs: []string{"https://example.com"}, Concurrency: 2, SectorPrefix: "sector_"},
		},
		{
			name:    "bad url",
			cfg:     Config{URLs: []string{"not a url"}},
			wantErr: "URLs",
		},
		{
			name:    "negative concurrency",
			cfg:     Config{Concurrency: -1},
			wantErr: "Concurrency",
		},
		{
			name:    "prefix with separator",
			cfg:     Config{SectorPrefix: "out/sector_"},
			wantErr: "SectorPrefix",
		},
		{
			name:    "negative timeout",
			cfg:     Config{Timeout: -time.Second},
			wantErr: "Timeout",
		},
		{
			name:    "missing forest file",
			cfg:     Config{Forest: "/nonexistent/forest.json"},
			wantErr: "forest file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequireSource(t *testing.T) {
	both := &Config{URLs: []string{"https://example.com"}, Forest: "forest.json"}
	assert.ErrorContains(t, both.RequireSource(), "mutually exclusive")

	neither := &Config{}
	assert.ErrorContains(t, neither.RequireSource(), "is required")

	assert.NoError(t, (&Config{Forest: "forest.json"}).RequireSource())
	assert.NoError(t, (&Config{URLs: []string{"https://example.com"}}).RequireSource())
}

func TestMergeWithDefaults(t *testing.T) {
	partial := Config{
		Companies:   "custom.csv",
		Concurrency: 5,
	}

	merged := partial.MergeWithDefaults(Default())

	// Custom values should be preserved
	assert.Equal(t, "custom.csv", merged.Companies)
	assert.Equal(t, 5, merged.Concurrency)

	// Default values should fill in empty fields
	assert.Equal(t, "by_sector", merged.SectorDir)
	assert.Equal(t, "sector_", merged.SectorPrefix)
	assert.Equal(t, 60*time.Second, merged.Timeout)
	assert.Equal(t, 3*time.Second, merged.SettleDelay)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{Companies: "x.csv"}

	merged := cfg.MergeWithDefaults(Config{})

	assert.Equal(t, "x.csv", merged.Companies)
	assert.Empty(t, merged.SectorDir)
}
