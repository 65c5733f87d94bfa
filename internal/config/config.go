// Package config loads pageaudit settings from defaults, an optional
// .pageauditrc file, PAGEAUDIT_* environment variables and bound flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pageaudit/internal/analyzers"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "PAGEAUDIT"

// Config represents the pageaudit configuration
type Config struct {
	Env          string            `mapstructure:"env"`
	ListenAddr   string            `mapstructure:"listenAddr"`
	DatabaseURL  string            `mapstructure:"databaseURL"`
	AuditWorkers int               `mapstructure:"auditWorkers"`
	PollInterval time.Duration     `mapstructure:"pollInterval"`
	Log          LogConfig         `mapstructure:"log"`
	Browser      BrowserConfig     `mapstructure:"browser"`
	Measurement  MeasurementConfig `mapstructure:"measurement"`
	Links        LinksConfig       `mapstructure:"links"`
	Output       OutputConfig      `mapstructure:"output"`
	Storage      StorageConfig     `mapstructure:"storage"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BrowserConfig controls the headless Chrome session.
type BrowserConfig struct {
	ExecPath          string        `mapstructure:"execPath"`
	Headless          bool          `mapstructure:"headless"`
	DebugPort         int           `mapstructure:"debugPort"`
	NavigationTimeout time.Duration `mapstructure:"navigationTimeout"`
}

// MeasurementConfig selects the web-vitals provider.
type MeasurementConfig struct {
	Provider      string        `mapstructure:"provider"`
	LighthouseBin string        `mapstructure:"lighthouseBin"`
	PageSpeedKey  string        `mapstructure:"pagespeedKey"`
	Strategy      string        `mapstructure:"strategy"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// LinksConfig bounds the broken-link checker.
type LinksConfig struct {
	MaxChecks   int           `mapstructure:"maxChecks"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Concurrency int           `mapstructure:"concurrency"`
	Exclude     []string      `mapstructure:"exclude"`
}

type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"`
}

type StorageConfig struct {
	SQLitePath string `mapstructure:"sqlitePath"`
}

// Measurement providers.
const (
	ProviderLighthouse = "lighthouse"
	ProviderPageSpeed  = "pagespeed"
	ProviderNone       = "none"
)

// ErrNoDatabase is returned by RequireDatabase when no DSN is configured.
var ErrNoDatabase = errors.New("databaseURL not set (PAGEAUDIT_DATABASE_URL or DATABASE_URL)")

// SetDefaults registers every key with its default value. Keys must be known
// to v for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("listenAddr", ":8080")
	v.SetDefault("databaseURL", "")
	v.SetDefault("auditWorkers", 0)
	v.SetDefault("pollInterval", 500*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("browser.execPath", "")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.debugPort", 9222)
	v.SetDefault("browser.navigationTimeout", 30*time.Second)

	v.SetDefault("measurement.provider", ProviderLighthouse)
	v.SetDefault("measurement.lighthouseBin", "lighthouse")
	v.SetDefault("measurement.pagespeedKey", "")
	v.SetDefault("measurement.strategy", "mobile")
	v.SetDefault("measurement.timeout", 120*time.Second)

	v.SetDefault("links.maxChecks", 25)
	v.SetDefault("links.timeout", 5*time.Second)
	v.SetDefault("links.concurrency", 8)
	v.SetDefault("links.exclude", []string{})

	v.SetDefault("output.dir", "audits")
	v.SetDefault("output.format", "console")

	v.SetDefault("storage.sqlitePath", "")
}

// Load reads configuration into a fresh viper instance.
func Load(path string) (*Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith reads configuration into v, which may already carry flag
// bindings. An explicit path must exist; otherwise .pageauditrc.* in the
// working directory is optional.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(".pageauditrc")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The DSN keeps the conventional names as well.
	if err := v.BindEnv("databaseURL", EnvPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "console", "json", "markdown":
	default:
		return fmt.Errorf("invalid output format: %s. Must be 'console', 'json', or 'markdown'", c.Output.Format)
	}
	switch c.Measurement.Provider {
	case ProviderLighthouse, ProviderPageSpeed, ProviderNone:
	default:
		return fmt.Errorf("invalid measurement provider: %s. Must be 'lighthouse', 'pagespeed', or 'none'", c.Measurement.Provider)
	}
	if c.AuditWorkers < 0 {
		return fmt.Errorf("auditWorkers must not be negative")
	}
	if c.Links.MaxChecks < 0 {
		return fmt.Errorf("links.maxChecks must not be negative")
	}
	if c.Links.Concurrency < 1 {
		return fmt.Errorf("links.concurrency must be at least 1")
	}
	if err := analyzers.ValidateExcludes(c.Links.Exclude); err != nil {
		return fmt.Errorf("links.exclude: %w", err)
	}
	return nil
}

// RequireDatabase reports ErrNoDatabase for commands that need Postgres.
func (c *Config) RequireDatabase() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return ErrNoDatabase
	}
	return nil
}
