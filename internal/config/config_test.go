package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
stores:
  scrape_uri: gs://scraped-gazettes
  archive_uri: gs://archived-gazettes/pdfs
  cache_dir: /var/cache/gazettes
database:
  uri: postgres://gazettes@localhost/gazettes
  max_conns: 8
  min_conns: 2
tools:
  qpdf: /opt/bin/qpdf
pubsub:
  project_id: gazettes-prod
  topic: archived
metrics:
  pushgateway_url: http://pushgateway:9091
logging:
  development: true
run:
  stop_on_error: true
  limit: 25
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Stores.ScrapeURI != "gs://scraped-gazettes" || cfg.Stores.ArchiveURI != "gs://archived-gazettes/pdfs" {
		t.Fatalf("expected store overrides to apply: %+v", cfg.Stores)
	}
	if cfg.Stores.CacheDir != "/var/cache/gazettes" {
		t.Fatalf("expected cache dir override, got %q", cfg.Stores.CacheDir)
	}
	if cfg.Database.MaxConns != 8 || cfg.Database.MinConns != 2 {
		t.Fatalf("expected database pool overrides: %+v", cfg.Database)
	}
	if cfg.Tools.QPDF != "/opt/bin/qpdf" || cfg.Tools.PDFInfo != "pdfinfo" {
		t.Fatalf("expected partial tool override with defaults: %+v", cfg.Tools)
	}
	if cfg.PubSub.Topic != "archived" || cfg.Metrics.Job != "gazettes_archive" {
		t.Fatalf("unexpected pubsub/metrics config: %+v %+v", cfg.PubSub, cfg.Metrics)
	}
	if !cfg.Logging.Development || !cfg.Run.StopOnError || cfg.Run.Limit != 25 {
		t.Fatalf("expected logging and run overrides: %+v %+v", cfg.Logging, cfg.Run)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("GAZETTES_STORES_SCRAPE_URI", "file:///srv/scraped")
	t.Setenv("GAZETTES_STORES_ARCHIVE_URI", "memory://")
	t.Setenv("GAZETTES_DATABASE_URI", "sqlite:///tmp/gazettes.db")
	t.Setenv("GAZETTES_RUN_LIMIT", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Stores.ScrapeURI != "file:///srv/scraped" || cfg.Database.URI != "sqlite:///tmp/gazettes.db" {
		t.Fatalf("expected env values to apply: %+v", cfg)
	}
	if cfg.Run.Limit != 3 {
		t.Fatalf("expected limit 3, got %d", cfg.Run.Limit)
	}
	if cfg.Stores.CacheDir != ".cache/gazettes" || cfg.Database.MaxConns != 4 {
		t.Fatalf("expected defaults to remain: %+v", cfg)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("GAZETTES_STORES_SCRAPE_URI", "")
	t.Setenv("GAZETTES_STORES_ARCHIVE_URI", "")
	t.Setenv("GAZETTES_DATABASE_URI", "")

	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "stores.scrape_uri") {
		t.Fatalf("expected scrape_uri error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read config") {
		t.Fatalf("expected read config error, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "GAZETTES_TEST_DOTENV_VALUE"
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(key+"=from-file\n"), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv(key); got != "from-file" {
		t.Fatalf("expected %s=from-file, got %q", key, got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "absent.env")); err != nil {
		t.Fatalf("missing env file should be ignored, got %v", err)
	}
	if err := LoadDotEnv(""); err != nil {
		t.Fatalf("empty path should be ignored, got %v", err)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Stores:   StoresConfig{ScrapeURI: "file:///a", ArchiveURI: "file:///b", CacheDir: "/tmp/c"},
		Database: DatabaseConfig{URI: "postgres://localhost/db", MaxConns: 4},
		Tools:    ToolsConfig{PDFInfo: "pdfinfo", PDFToText: "pdftotext", QPDF: "qpdf"},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "missing archive uri", mutate: func(c *Config) { c.Stores.ArchiveURI = "" }, want: "stores.archive_uri"},
		{name: "missing cache dir", mutate: func(c *Config) { c.Stores.CacheDir = "" }, want: "stores.cache_dir"},
		{name: "missing database", mutate: func(c *Config) { c.Database.URI = "" }, want: "database.uri"},
		{name: "invalid max conns", mutate: func(c *Config) { c.Database.MaxConns = 0 }, want: "database.max_conns"},
		{name: "min above max", mutate: func(c *Config) { c.Database.MinConns = 9 }, want: "database.min_conns"},
		{name: "missing tool", mutate: func(c *Config) { c.Tools.QPDF = "" }, want: "tools"},
		{name: "pubsub without topic", mutate: func(c *Config) { c.PubSub.ProjectID = "p" }, want: "pubsub.topic"},
		{name: "pushgateway without job", mutate: func(c *Config) { c.Metrics.PushgatewayURL = "http://pg" }, want: "metrics.job"},
		{name: "negative limit", mutate: func(c *Config) { c.Run.Limit = -1 }, want: "run.limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
