package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
  rate_limit:
    requests_per_second: 5
    burst: 10
storage:
  database_path: "test.db"
  candidate_source: bleve
search:
  candidate_limit: 20
  cache_ttl: 2m
  ranking:
    result_limit: 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.RateLimit.RequestsPerSecond != 5 || cfg.Server.RateLimit.Burst != 10 {
		t.Errorf("rate limit = %+v", cfg.Server.RateLimit)
	}
	if cfg.Storage.CandidateSource != SourceBleve {
		t.Errorf("candidate_source = %s", cfg.Storage.CandidateSource)
	}
	if cfg.Search.CandidateLimit != 20 || cfg.Search.CacheTTL != 2*time.Minute {
		t.Errorf("search = %+v", cfg.Search)
	}
	if cfg.Search.Ranking.ResultLimit != 10 {
		t.Errorf("result_limit = %d, want 10", cfg.Search.Ranking.ResultLimit)
	}
	if cfg.Search.Ranking.ExactNameScore != 100 {
		t.Errorf("unset ranking values should default: exact_name_score = %d", cfg.Search.Ranking.ExactNameScore)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	cfg, err := Load(writeConfig(t, "debug: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "./data/db/products.db"
  bleve_index_path: "/abs/products.bleve"
watch:
  directories: ["./catalogs"]
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "db", "products.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
	if cfg.Storage.BleveIndexPath != "/abs/products.bleve" {
		t.Errorf("absolute path should be kept: %s", cfg.Storage.BleveIndexPath)
	}
	if len(cfg.Watch.Directories) != 1 || cfg.Watch.Directories[0] != filepath.Join(dir, "catalogs") {
		t.Errorf("watch directories = %v", cfg.Watch.Directories)
	}
	if !cfg.Watch.RecursiveOrDefault() {
		t.Error("recursive should default to true")
	}
}

func TestLoad_errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown candidate source", "storage:\n  candidate_source: redis\n", "candidate_source"},
		{"bad port", "server:\n  port: 70000\n", "server.port"},
		{"thresholds inverted", "search:\n  ranking:\n    exact_threshold: 20\n    partial_threshold: 50\n", "partial_threshold"},
		{"negative result limit", "search:\n  ranking:\n    result_limit: -1\n", "result_limit"},
		{"negative suggestion limit", "search:\n  ranking:\n    suggestion_limit: -3\n", "suggestion_limit"},
		{"malformed yaml", "server: [", "failed to parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults: %+v", cfg.Server)
	}
	if cfg.Storage.CandidateSource != SourceSQLite {
		t.Errorf("candidate source default: %s", cfg.Storage.CandidateSource)
	}
	if cfg.Search.CandidateLimit != 12 {
		t.Errorf("candidate limit: got %d, want 12", cfg.Search.CandidateLimit)
	}
	if cfg.Search.Ranking.ResultLimit != 6 || cfg.Search.Ranking.SuggestionLimit != 5 {
		t.Errorf("ranking page sizes: %+v", cfg.Search.Ranking)
	}
	if cfg.Import.Workers != 4 {
		t.Errorf("import workers: got %d", cfg.Import.Workers)
	}
	if cfg.Watch.Debounce != 400*time.Millisecond {
		t.Errorf("debounce: got %v", cfg.Watch.Debounce)
	}
	if len(cfg.Watch.Extensions) != 4 || cfg.Watch.Extensions[0] != ".yaml" || cfg.Watch.Extensions[3] != ".xlsx" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	cfg.Watch.Extensions[0] = ".changed"
	if DefaultWatchExtensions[0] != ".yaml" {
		t.Error("ApplyDefaults must copy DefaultWatchExtensions")
	}
}

func TestApplyDefaults_negativeCacheTTLKept(t *testing.T) {
	cfg := &Config{Search: SearchConfig{CacheTTL: -time.Second}}
	ApplyDefaults(cfg)
	if cfg.Search.CacheTTL != -time.Second {
		t.Errorf("negative TTL should disable caching, got %v", cfg.Search.CacheTTL)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Watch.Directories = []string{"/srv/catalogs"}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Watch.Directories) != 1 || loaded.Watch.Directories[0] != "/srv/catalogs" {
		t.Errorf("watch directories after save: %v", loaded.Watch.Directories)
	}
	if loaded.Search.CacheTTL != cfg.Search.CacheTTL {
		t.Errorf("cache ttl after save: %v", loaded.Search.CacheTTL)
	}
}
