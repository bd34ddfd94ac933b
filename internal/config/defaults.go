package config

import "time"

// Default locations used when the config file leaves them empty.
const (
	DefaultDatabasePath   = "/usr/local/var/tenpo/data/db/products.db"
	DefaultBleveIndexPath = "/usr/local/var/tenpo/data/indices/products.bleve"
)

// DefaultWatchExtensions are the catalog formats the importer understands.
var DefaultWatchExtensions = []string{".yaml", ".yml", ".json", ".xlsx"}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimit.RequestsPerSecond == 0 {
		cfg.Server.RateLimit.RequestsPerSecond = 20
	}
	if cfg.Server.RateLimit.Burst == 0 {
		cfg.Server.RateLimit.Burst = 40
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = DefaultDatabasePath
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = DefaultBleveIndexPath
	}
	if cfg.Storage.CandidateSource == "" {
		cfg.Storage.CandidateSource = SourceSQLite
	}
	if cfg.Search.CandidateLimit == 0 {
		cfg.Search.CandidateLimit = 12
	}
	// A negative TTL disables the candidate cache.
	if cfg.Search.CacheTTL == 0 {
		cfg.Search.CacheTTL = 30 * time.Second
	}
	if cfg.Search.CacheSize == 0 {
		cfg.Search.CacheSize = 1024
	}
	cfg.Search.Ranking.ApplyDefaults()
	if cfg.Import.Workers <= 0 {
		cfg.Import.Workers = 4
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = append([]string(nil), DefaultWatchExtensions...)
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 400 * time.Millisecond
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
