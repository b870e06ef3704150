package main

import (
	"context"
	"fmt"
	"log/slog"

	"chainexplorer/internal/application"
	"chainexplorer/internal/config"
	"chainexplorer/internal/infrastructure/ethrpc"
	"chainexplorer/internal/infrastructure/redis"
	"chainexplorer/internal/infrastructure/sqlite"
	"chainexplorer/internal/infrastructure/storage"
	"chainexplorer/internal/infrastructure/telemetry"
)

type cacheStore interface {
	storage.Store
	Ping(ctx context.Context) error
	Close() error
}

// app holds the wired read path shared by the server and the query commands.
type app struct {
	metrics  *telemetry.Metrics
	client   *ethrpc.Client
	cache    cacheStore
	explorer *application.Explorer
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	metrics := telemetry.NewMetrics()
	metrics.SetBuildInfo(version, commit)

	client, err := ethrpc.NewClient(ctx, ethrpc.Config{
		URL:     cfg.RPCURL,
		Timeout: cfg.RPCTimeout,
		Metrics: metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("rpc client: %w", err)
	}

	a := &app{metrics: metrics, client: client}
	var chain application.ChainReader = client
	if store, err := openCache(ctx, cfg); err != nil {
		slog.Warn("cache disabled", "backend", cfg.CacheBackend, "err", err)
	} else if store != nil {
		a.cache = store
		chain = storage.NewCachedChain(client, store, cfg.CacheTTL, metrics)
		slog.Info("cache enabled", "backend", cfg.CacheBackend)
	}

	a.explorer = application.NewExplorer(chain, metrics, application.ExplorerConfig{
		ScanLimit: cfg.ScanMaxBlocks,
	})
	return a, nil
}

func openCache(ctx context.Context, cfg config.Config) (cacheStore, error) {
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		return redis.NewStore(ctx, redis.Config{Addr: cfg.RedisAddr, TTL: cfg.CacheTTL})
	case config.CacheBackendSQLite:
		return sqlite.NewStore(ctx, cfg.CacheDBPath)
	default:
		return nil, nil
	}
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			slog.Warn("cache close", "err", err)
		}
	}
	a.client.Close()
}
