package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	CacheBackendNone   = "none"
	CacheBackendRedis  = "redis"
	CacheBackendSQLite = "sqlite"
)

type Config struct {
	RPCURL            string
	HTTPAddr          string
	RPCTimeout        time.Duration
	RequestTimeout    time.Duration
	LatestBlocksCount int
	MaxBlocksCount    int
	AccountTxCount    int
	MaxAccountTxCount int
	ScanMaxBlocks     uint64
	CacheBackend      string
	RedisAddr         string
	CacheDBPath       string
	CacheTTL          time.Duration
	OtelEndpoint      string
	LogLevel          string
	LogFormat         string
	LogFile           string
	LogMaxSizeMB      int
	LogMaxBackups     int
}

type EnvSource interface {
	Lookup(key string) (string, bool)
}

type EnvMap map[string]string

func (e EnvMap) Lookup(key string) (string, bool) {
	value, ok := e[key]
	return value, ok
}

func FromEnviron() EnvSource {
	env := make(EnvMap)
	for _, entry := range os.Environ() {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		env[parts[0]] = parts[1]
	}
	return env
}

func Load(source EnvSource) (Config, error) {
	if source == nil {
		return Config{}, errors.New("env source is required")
	}

	rpcURL := lookupString(source, "RPC_URL", "http://localhost:8545")
	httpAddr := lookupString(source, "HTTP_ADDR", ":8080")

	rpcTimeout, err := parseDurationEnv(source, "RPC_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	requestTimeout, err := parseDurationEnv(source, "REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	latestBlocks, err := parseUintEnv(source, "LATEST_BLOCKS_COUNT", 100)
	if err != nil {
		return Config{}, err
	}
	maxBlocks, err := parseUintEnv(source, "MAX_BLOCKS_COUNT", 500)
	if err != nil {
		return Config{}, err
	}
	if latestBlocks > maxBlocks {
		return Config{}, fmt.Errorf("LATEST_BLOCKS_COUNT (%d) exceeds MAX_BLOCKS_COUNT (%d)", latestBlocks, maxBlocks)
	}
	accountTxCount, err := parseUintEnv(source, "ACCOUNT_TX_COUNT", 20)
	if err != nil {
		return Config{}, err
	}
	maxAccountTx, err := parseUintEnv(source, "MAX_ACCOUNT_TX_COUNT", 100)
	if err != nil {
		return Config{}, err
	}
	if accountTxCount > maxAccountTx {
		return Config{}, fmt.Errorf("ACCOUNT_TX_COUNT (%d) exceeds MAX_ACCOUNT_TX_COUNT (%d)", accountTxCount, maxAccountTx)
	}
	scanMaxBlocks, err := parseUintEnv(source, "SCAN_MAX_BLOCKS", 5000)
	if err != nil {
		return Config{}, err
	}

	cacheBackend := strings.ToLower(lookupString(source, "CACHE_BACKEND", CacheBackendNone))
	switch cacheBackend {
	case CacheBackendNone, CacheBackendRedis, CacheBackendSQLite:
	default:
		return Config{}, fmt.Errorf("invalid CACHE_BACKEND %q", cacheBackend)
	}
	cacheTTL, err := parseDurationEnv(source, "CACHE_TTL", time.Hour)
	if err != nil {
		return Config{}, err
	}

	logMaxSize, err := parseUintEnv(source, "LOG_MAX_SIZE_MB", 100)
	if err != nil {
		return Config{}, err
	}
	logMaxBackups, err := parseUintEnv(source, "LOG_MAX_BACKUPS", 3)
	if err != nil {
		return Config{}, err
	}
	logFile, _ := source.Lookup("LOG_FILE")
	otelEndpoint, _ := source.Lookup("OTEL_EXPORTER_OTLP_ENDPOINT")

	return Config{
		RPCURL:            rpcURL,
		HTTPAddr:          httpAddr,
		RPCTimeout:        rpcTimeout,
		RequestTimeout:    requestTimeout,
		LatestBlocksCount: int(latestBlocks),
		MaxBlocksCount:    int(maxBlocks),
		AccountTxCount:    int(accountTxCount),
		MaxAccountTxCount: int(maxAccountTx),
		ScanMaxBlocks:     scanMaxBlocks,
		CacheBackend:      cacheBackend,
		RedisAddr:         lookupString(source, "REDIS_ADDR", "127.0.0.1:6379"),
		CacheDBPath:       lookupString(source, "CACHE_DB_PATH", "data/cache.db"),
		CacheTTL:          cacheTTL,
		OtelEndpoint:      strings.TrimSpace(otelEndpoint),
		LogLevel:          lookupString(source, "LOG_LEVEL", "info"),
		LogFormat:         lookupString(source, "LOG_FORMAT", "text"),
		LogFile:           strings.TrimSpace(logFile),
		LogMaxSizeMB:      int(logMaxSize),
		LogMaxBackups:     int(logMaxBackups),
	}, nil
}

func lookupString(source EnvSource, key, defaultValue string) string {
	raw, ok := source.Lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return defaultValue
	}
	return strings.TrimSpace(raw)
}

func parseUintEnv(source EnvSource, key string, defaultValue uint64) (uint64, error) {
	raw, ok := source.Lookup(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func parseDurationEnv(source EnvSource, key string, defaultValue time.Duration) (time.Duration, error) {
	raw, ok := source.Lookup(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return value, nil
}
