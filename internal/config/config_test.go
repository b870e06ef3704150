package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(EnvMap{})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8545", cfg.RPCURL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.RPCTimeout)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 100, cfg.LatestBlocksCount)
	assert.Equal(t, 500, cfg.MaxBlocksCount)
	assert.Equal(t, 20, cfg.AccountTxCount)
	assert.Equal(t, 100, cfg.MaxAccountTxCount)
	assert.Equal(t, uint64(5000), cfg.ScanMaxBlocks)
	assert.Equal(t, CacheBackendNone, cfg.CacheBackend)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.LogFile)
	assert.Empty(t, cfg.OtelEndpoint)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(EnvMap{
		"RPC_URL":              "https://rpc.example.org",
		"HTTP_ADDR":            "127.0.0.1:9000",
		"RPC_TIMEOUT":          "2s",
		"LATEST_BLOCKS_COUNT":  "10",
		"SCAN_MAX_BLOCKS":      "0",
		"MAX_ACCOUNT_TX_COUNT": "50",
		"CACHE_BACKEND":        "Redis",
		"REDIS_ADDR":           "cache:6379",
		"CACHE_TTL":            "5m",
		"LOG_LEVEL":            "debug",
		"LOG_FILE":             " logs/explorer.log ",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://rpc.example.org", cfg.RPCURL)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	assert.Equal(t, 2*time.Second, cfg.RPCTimeout)
	assert.Equal(t, 10, cfg.LatestBlocksCount)
	assert.Equal(t, uint64(0), cfg.ScanMaxBlocks)
	assert.Equal(t, 50, cfg.MaxAccountTxCount)
	assert.Equal(t, CacheBackendRedis, cfg.CacheBackend)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "logs/explorer.log", cfg.LogFile)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]EnvMap{
		"bad timeout":       {"RPC_TIMEOUT": "soon"},
		"negative timeout":  {"REQUEST_TIMEOUT": "-1s"},
		"bad count":         {"ACCOUNT_TX_COUNT": "-3"},
		"count above max":   {"LATEST_BLOCKS_COUNT": "600"},
		"account above max": {"ACCOUNT_TX_COUNT": "30", "MAX_ACCOUNT_TX_COUNT": "25"},
		"unknown backend":   {"CACHE_BACKEND": "memcached"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(env)
			assert.Error(t, err)
		})
	}

	_, err := Load(nil)
	assert.Error(t, err)
}
