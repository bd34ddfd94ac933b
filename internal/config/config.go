// Package config provides configuration loading and structs for the tenpo server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/tenpo/internal/ranking"
)

// Candidate source names for StorageConfig.CandidateSource.
const (
	SourceSQLite = "sqlite"
	SourceBleve  = "bleve"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Search  SearchConfig  `yaml:"search"`
	Import  ImportConfig  `yaml:"import"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host      string          `yaml:"host"`
	Port      int             `yaml:"port"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig is a per-client token bucket for the search routes.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// StorageConfig holds paths for the database and the keyword index, and which
// of them answers candidate lookups.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	BleveIndexPath  string `yaml:"bleve_index_path"`
	CandidateSource string `yaml:"candidate_source"`
}

// SearchConfig holds candidate lookup, caching, and ranking settings.
type SearchConfig struct {
	CandidateLimit int                   `yaml:"candidate_limit"`
	CacheTTL       time.Duration         `yaml:"cache_ttl"`
	CacheSize      int                   `yaml:"cache_size"`
	Ranking        ranking.RankingConfig `yaml:"ranking"`
}

// ImportConfig holds catalog import settings.
type ImportConfig struct {
	Workers int `yaml:"workers"`
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directories []string      `yaml:"directories"`
	Extensions  []string      `yaml:"extensions"`
	Recursive   *bool         `yaml:"recursive"`
	Debounce    time.Duration `yaml:"debounce"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, applies defaults, expands paths,
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that defaults cannot repair.
func (c *Config) Validate() error {
	switch c.Storage.CandidateSource {
	case SourceSQLite, SourceBleve:
	default:
		return fmt.Errorf("invalid storage.candidate_source %q (want %s or %s)",
			c.Storage.CandidateSource, SourceSQLite, SourceBleve)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Search.Ranking.ResultLimit < 0 {
		return fmt.Errorf("invalid search.ranking.result_limit %d", c.Search.Ranking.ResultLimit)
	}
	if c.Search.Ranking.SuggestionLimit < 0 {
		return fmt.Errorf("invalid search.ranking.suggestion_limit %d", c.Search.Ranking.SuggestionLimit)
	}
	if c.Search.Ranking.PartialThreshold > c.Search.Ranking.ExactThreshold {
		return fmt.Errorf("search.ranking.partial_threshold (%d) exceeds exact_threshold (%d)",
			c.Search.Ranking.PartialThreshold, c.Search.Ranking.ExactThreshold)
	}
	return nil
}

// Save writes the config to path. Used for persisting watch directory add/remove.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
