package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/billfold/internal/flagx"
	"github.com/dmitrijs2005/billfold/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerAddr          string         `json:"server_addr"`
	DatabasePath        string         `json:"database_path"`
	SyncInterval        timex.Duration `json:"sync_interval"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	TombstoneRetention  timex.Duration `json:"tombstone_retention"`
	DeferredMaxAge      timex.Duration `json:"deferred_max_age"`
	PullPageSize        int            `json:"pull_page_size"`
	PushBatchSize       int            `json:"push_batch_size"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c or -config flags (flagx.JsonConfigFlags);
// when neither is present no JSON is loaded. Read or unmarshal errors panic.
// Fields absent from the file keep their current values, so the intended
// usage remains: defaults -> parseJson -> parseFlags.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerAddr != "" {
		cfg.ServerAddr = jc.ServerAddr
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.SyncInterval.Duration != 0 {
		cfg.SyncInterval = time.Duration(jc.SyncInterval.Duration)
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.TombstoneRetention.Duration != 0 {
		cfg.TombstoneRetention = time.Duration(jc.TombstoneRetention.Duration)
	}
	if jc.DeferredMaxAge.Duration != 0 {
		cfg.DeferredMaxAge = time.Duration(jc.DeferredMaxAge.Duration)
	}
	if jc.PullPageSize != 0 {
		cfg.PullPageSize = jc.PullPageSize
	}
	if jc.PushBatchSize != 0 {
		cfg.PushBatchSize = jc.PushBatchSize
	}
}
