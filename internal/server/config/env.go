package config

import (
	"os"
	"time"
)

// parseEnv overlays Config with values from environment variables. The
// server main loads a .env file first (godotenv), so containerized
// deployments can configure everything without flags.
//
// Recognized variables:
//
//	BILLFOLD_ENDPOINT_ADDR
//	BILLFOLD_DATABASE_DSN
//	BILLFOLD_SECRET_KEY
//	BILLFOLD_TOKEN_VALIDITY   (Go duration string, e.g. "24h")
//	BILLFOLD_TOMBSTONE_RETENTION
//	BILLFOLD_PURGE_INTERVAL
func parseEnv(config *Config) {
	if v := os.Getenv("BILLFOLD_ENDPOINT_ADDR"); v != "" {
		config.EndpointAddr = v
	}
	if v := os.Getenv("BILLFOLD_DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("BILLFOLD_SECRET_KEY"); v != "" {
		config.SecretKey = v
	}
	if v := os.Getenv("BILLFOLD_TOKEN_VALIDITY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.TokenValidityDuration = d
		}
	}
	if v := os.Getenv("BILLFOLD_TOMBSTONE_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.TombstoneRetention = d
		}
	}
	if v := os.Getenv("BILLFOLD_PURGE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.PurgeInterval = d
		}
	}
}
