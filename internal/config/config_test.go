package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp moves into an empty directory so no .pageauditrc is found.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Zero(t, cfg.AuditWorkers)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 9222, cfg.Browser.DebugPort)
	assert.Equal(t, 30*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, ProviderLighthouse, cfg.Measurement.Provider)
	assert.Equal(t, "mobile", cfg.Measurement.Strategy)
	assert.Equal(t, 25, cfg.Links.MaxChecks)
	assert.Equal(t, 8, cfg.Links.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.Links.Timeout)
	assert.Empty(t, cfg.Links.Exclude)
	assert.Equal(t, "audits", cfg.Output.Dir)
	assert.Equal(t, "console", cfg.Output.Format)
	assert.ErrorIs(t, cfg.RequireDatabase(), ErrNoDatabase)
}

func TestLoadFromRCFile(t *testing.T) {
	dir := chdirTemp(t)
	rc := `
auditWorkers: 3
log:
  format: json
measurement:
  provider: pagespeed
  timeout: 45s
links:
  maxChecks: 10
  exclude:
    - "*.pdf"
    - "example.org/**"
output:
  format: markdown
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".pageauditrc.yaml"), []byte(rc), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.AuditWorkers)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ProviderPageSpeed, cfg.Measurement.Provider)
	assert.Equal(t, 45*time.Second, cfg.Measurement.Timeout)
	assert.Equal(t, 10, cfg.Links.MaxChecks)
	assert.Equal(t, []string{"*.pdf", "example.org/**"}, cfg.Links.Exclude)
	assert.Equal(t, "markdown", cfg.Output.Format)
}

func TestLoadExplicitPath(t *testing.T) {
	chdirTemp(t)
	path := filepath.Join(t.TempDir(), "audit.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"listenAddr": ":9090", "browser": {"headless": false}}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.False(t, cfg.Browser.Headless)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PAGEAUDIT_LOG_LEVEL", "debug")
	t.Setenv("PAGEAUDIT_LINKS_CONCURRENCY", "2")
	t.Setenv("DATABASE_URL", "postgres://localhost/pageaudit")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 2, cfg.Links.Concurrency)
	assert.Equal(t, "postgres://localhost/pageaudit", cfg.DatabaseURL)
	assert.NoError(t, cfg.RequireDatabase())
}

func TestLoadPrefixedDatabaseURLWins(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PAGEAUDIT_DATABASE_URL", "postgres://primary/db")
	t.Setenv("DATABASE_URL", "postgres://fallback/db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://primary/db", cfg.DatabaseURL)
}

func TestLoadWithFlagOverride(t *testing.T) {
	chdirTemp(t)
	v := viper.New()
	v.Set("output.format", "json")

	cfg, err := LoadWith(v, "")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Output:      OutputConfig{Format: "console"},
			Measurement: MeasurementConfig{Provider: ProviderNone},
			Links:       LinksConfig{Concurrency: 1},
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad format", func(c *Config) { c.Output.Format = "html" }, "invalid output format"},
		{"bad provider", func(c *Config) { c.Measurement.Provider = "webpagetest" }, "invalid measurement provider"},
		{"negative workers", func(c *Config) { c.AuditWorkers = -1 }, "auditWorkers"},
		{"negative max checks", func(c *Config) { c.Links.MaxChecks = -1 }, "links.maxChecks"},
		{"zero concurrency", func(c *Config) { c.Links.Concurrency = 0 }, "links.concurrency"},
		{"bad glob", func(c *Config) { c.Links.Exclude = []string{"a/[b"} }, "links.exclude"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
