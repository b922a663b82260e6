package config

import "time"

// Config holds runtime settings for the Billfold client.
//
// Units: all intervals are time.Duration (e.g., 3*time.Second).
type Config struct {
	// ServerAddr is the base URL of the sync server, e.g. "http://127.0.0.1:8080".
	ServerAddr string
	// DatabasePath is the path to the local sqlite database file.
	DatabasePath string
	// SyncInterval is how often a background sync cycle is started.
	SyncInterval time.Duration
	// OnlineCheckInterval is how often the client probes server reachability.
	OnlineCheckInterval time.Duration
	// TombstoneRetention is how long soft-deleted rows are kept before purge.
	TombstoneRetention time.Duration
	// DeferredMaxAge is how long a pulled document may wait for a missing
	// parent before it is flagged as a data-integrity problem.
	DeferredMaxAge time.Duration
	// PullPageSize caps documents per changed-since page.
	PullPageSize int
	// PushBatchSize caps documents per batch write.
	PushBatchSize int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "http://127.0.0.1:8080"
	c.DatabasePath = "billfold.db"
	c.SyncInterval = 5 * time.Minute
	c.OnlineCheckInterval = 3 * time.Second
	c.TombstoneRetention = 30 * 24 * time.Hour
	c.DeferredMaxAge = 24 * time.Hour
	c.PullPageSize = 200
	c.PushBatchSize = 100
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
