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

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerAddr)
	assert.Equal(t, "billfold.db", c.DatabasePath)
	assert.Equal(t, 5*time.Minute, c.SyncInterval)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, 30*24*time.Hour, c.TombstoneRetention)
	assert.Equal(t, 24*time.Hour, c.DeferredMaxAge)
	assert.Equal(t, 200, c.PullPageSize)
	assert.Equal(t, 100, c.PushBatchSize)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerAddr)
	assert.Equal(t, 3*time.Second, cfg.OnlineCheckInterval)
}
