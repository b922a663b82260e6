package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/billfold/internal/flagx"
	"github.com/dmitrijs2005/billfold/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It uses
// timex.Duration for interval fields, which allows parsing both string
// values such as "24h" and integer nanoseconds. After unmarshalling, its
// fields are copied into the runtime Config which uses time.Duration.
type JsonConfig struct {
	EndpointAddr          string         `json:"endpoint_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	TombstoneRetention    timex.Duration `json:"tombstone_retention"`
	PurgeInterval         timex.Duration `json:"purge_interval"`
	MaxPageSize           int            `json:"max_page_size"`
}

// parseJson overlays Config with values loaded from a JSON file selected
// via the -c or -config flags (flagx.JsonConfigFlags). When neither flag is
// present no JSON is loaded. Read or unmarshal errors panic. Fields absent
// from the file keep their current values.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.TokenValidityDuration.Duration != 0 {
		config.TokenValidityDuration = time.Duration(c.TokenValidityDuration.Duration)
	}
	if c.TombstoneRetention.Duration != 0 {
		config.TombstoneRetention = time.Duration(c.TombstoneRetention.Duration)
	}
	if c.PurgeInterval.Duration != 0 {
		config.PurgeInterval = time.Duration(c.PurgeInterval.Duration)
	}
	if c.MaxPageSize != 0 {
		config.MaxPageSize = c.MaxPageSize
	}
}
