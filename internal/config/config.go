// Package config loads and validates archiver configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures all archiver configuration knobs loaded via Viper.
type Config struct {
	Stores   StoresConfig   `mapstructure:"stores"`
	Database DatabaseConfig `mapstructure:"database"`
	Tools    ToolsConfig    `mapstructure:"tools"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Run      RunConfig      `mapstructure:"run"`
}

// StoresConfig locates the scrape and archive blob stores and the local cache.
type StoresConfig struct {
	ScrapeURI  string `mapstructure:"scrape_uri"`
	ArchiveURI string `mapstructure:"archive_uri"`
	CacheDir   string `mapstructure:"cache_dir"`
}

// DatabaseConfig controls access to the relational database.
type DatabaseConfig struct {
	URI      string `mapstructure:"uri"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

// ToolsConfig names the external PDF binaries.
type ToolsConfig struct {
	PDFInfo   string `mapstructure:"pdfinfo"`
	PDFToText string `mapstructure:"pdftotext"`
	QPDF      string `mapstructure:"qpdf"`
}

// PubSubConfig holds metadata for archive notifications. An empty project
// disables publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// MetricsConfig configures the optional Pushgateway export.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// RunConfig holds per-run operator options.
type RunConfig struct {
	StopOnError bool `mapstructure:"stop_on_error"`
	Limit       int  `mapstructure:"limit"`
}

// LoadDotEnv exports the variables of an optional .env file into the process
// environment. A missing file is not an error; existing variables win.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GAZETTES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Every key gets a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("stores.scrape_uri", "")
	v.SetDefault("stores.archive_uri", "")
	v.SetDefault("stores.cache_dir", ".cache/gazettes")
	v.SetDefault("database.uri", "")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 0)
	v.SetDefault("tools.pdfinfo", "pdfinfo")
	v.SetDefault("tools.pdftotext", "pdftotext")
	v.SetDefault("tools.qpdf", "qpdf")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic", "gazettes-archived")
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "gazettes_archive")
	v.SetDefault("logging.development", false)
	v.SetDefault("run.stop_on_error", false)
	v.SetDefault("run.limit", 0)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Stores.ScrapeURI == "" {
		return fmt.Errorf("stores.scrape_uri must be set")
	}
	if c.Stores.ArchiveURI == "" {
		return fmt.Errorf("stores.archive_uri must be set")
	}
	if c.Stores.CacheDir == "" {
		return fmt.Errorf("stores.cache_dir must be set")
	}
	if c.Database.URI == "" {
		return fmt.Errorf("database.uri must be set")
	}
	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("database.max_conns must be > 0")
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns must be between 0 and database.max_conns")
	}
	if c.Tools.PDFInfo == "" || c.Tools.PDFToText == "" || c.Tools.QPDF == "" {
		return fmt.Errorf("tools binaries must all be set")
	}
	if c.PubSub.ProjectID != "" && c.PubSub.Topic == "" {
		return fmt.Errorf("pubsub.topic must be set when pubsub.project_id is set")
	}
	if c.Metrics.PushgatewayURL != "" && c.Metrics.Job == "" {
		return fmt.Errorf("metrics.job must be set when metrics.pushgateway_url is set")
	}
	if c.Run.Limit < 0 {
		return fmt.Errorf("run.limit must be >= 0")
	}
	return nil
}
