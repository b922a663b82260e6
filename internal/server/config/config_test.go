package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddr)
	assert.Equal(t, 24*time.Hour, c.TokenValidityDuration)
	assert.Equal(t, 30*24*time.Hour, c.TombstoneRetention)
	assert.Equal(t, time.Hour, c.PurgeInterval)
	assert.Equal(t, 500, c.MaxPageSize)
	assert.NotEmpty(t, c.DatabaseDSN)
}

func TestParseEnv_Overrides(t *testing.T) {
	t.Setenv("BILLFOLD_ENDPOINT_ADDR", ":9999")
	t.Setenv("BILLFOLD_SECRET_KEY", "env-secret")
	t.Setenv("BILLFOLD_TOKEN_VALIDITY", "30m")
	t.Setenv("BILLFOLD_TOMBSTONE_RETENTION", "not-a-duration")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, ":9999", c.EndpointAddr)
	assert.Equal(t, "env-secret", c.SecretKey)
	assert.Equal(t, 30*time.Minute, c.TokenValidityDuration)
	assert.Equal(t, 30*24*time.Hour, c.TombstoneRetention, "bad duration is ignored")
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, ":8080", cfg.EndpointAddr)
}
