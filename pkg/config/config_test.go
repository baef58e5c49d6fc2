package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("server port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Corpus.Source != "data/problems.json" {
		t.Errorf("corpus source = %q", cfg.Corpus.Source)
	}
	if len(cfg.Scraper.Jobs) != 5 {
		t.Errorf("default scrape jobs = %d, want 5", len(cfg.Scraper.Jobs))
	}
	if cfg.Server.RateLimit.Requests != 600 || cfg.Server.RateLimit.Window != time.Minute {
		t.Errorf("rate limit = %+v, want 600 per minute", cfg.Server.RateLimit)
	}
	if cfg.Kafka.Enabled || cfg.Postgres.Enabled || cfg.Analytics.Enabled {
		t.Error("optional backends should be disabled by default")
	}
}

func TestLoadYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
server:
  port: 8088
corpus:
  source: /srv/snapshot.db
redis:
  cacheTTL: 90s
scraper:
  jobs:
    - platform: codeforces
      topic: graphs
      limit: 5
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PS_SERVER_PORT", "9001")
	t.Setenv("PS_KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("PS_ANALYTICS_ENABLED", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("env override ignored: port = %d", cfg.Server.Port)
	}
	if cfg.Corpus.Source != "/srv/snapshot.db" {
		t.Errorf("corpus source = %q", cfg.Corpus.Source)
	}
	if cfg.Redis.CacheTTL != 90*time.Second {
		t.Errorf("cache ttl = %v", cfg.Redis.CacheTTL)
	}
	if len(cfg.Scraper.Jobs) != 1 || cfg.Scraper.Jobs[0].Topic != "graphs" {
		t.Errorf("jobs = %+v", cfg.Scraper.Jobs)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	if !cfg.Analytics.Enabled {
		t.Error("analytics should be enabled by env")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
