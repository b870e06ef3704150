package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"chainexplorer/internal/application"
	"chainexplorer/internal/domain"
	"chainexplorer/internal/infrastructure/telemetry"
)

const (
	kindBlock       = "block"
	kindTransaction = "transaction"
	kindReceipt     = "receipt"

	defaultTTL = time.Hour
)

// Store is a byte-oriented key/value cache with expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedChain is a read-through cache in front of a ChainReader. Only
// objects addressed by hash are cached. Head and by-number lookups always go
// upstream since their answer changes as the chain grows.
type CachedChain struct {
	chain   application.ChainReader
	store   Store
	ttl     time.Duration
	metrics *telemetry.Metrics
}

var _ application.ChainReader = (*CachedChain)(nil)

func NewCachedChain(chain application.ChainReader, store Store, ttl time.Duration, metrics *telemetry.Metrics) *CachedChain {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &CachedChain{chain: chain, store: store, ttl: ttl, metrics: metrics}
}

func (c *CachedChain) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.chain.LatestBlockNumber(ctx)
}

func (c *CachedChain) BlockByNumber(ctx context.Context, number uint64, full bool) (*domain.Block, error) {
	return c.chain.BlockByNumber(ctx, number, full)
}

func (c *CachedChain) BlockByHash(ctx context.Context, hash string, full bool) (*domain.Block, error) {
	return readThrough(ctx, c, kindBlock, BlockKey(hash, full),
		func() (*domain.Block, error) { return c.chain.BlockByHash(ctx, hash, full) },
		nil,
	)
}

func (c *CachedChain) TransactionByHash(ctx context.Context, hash string) (*domain.Transaction, error) {
	return readThrough(ctx, c, kindTransaction, TransactionKey(hash),
		func() (*domain.Transaction, error) { return c.chain.TransactionByHash(ctx, hash) },
		func(tx *domain.Transaction) bool { return !tx.Pending() },
	)
}

func (c *CachedChain) TransactionReceipt(ctx context.Context, hash string) (*domain.Receipt, error) {
	return readThrough(ctx, c, kindReceipt, ReceiptKey(hash),
		func() (*domain.Receipt, error) { return c.chain.TransactionReceipt(ctx, hash) },
		nil,
	)
}

// readThrough serves key from the store, falling back to fetch. Store
// failures are logged and never returned to the caller.
func readThrough[T any](ctx context.Context, c *CachedChain, kind, key string, fetch func() (*T, error), cacheable func(*T) bool) (*T, error) {
	payload, ok, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		slog.WarnContext(ctx, "cache get failed", "key", key, "err", err)
	case ok:
		var cached T
		decodeErr := json.Unmarshal(payload, &cached)
		if decodeErr == nil {
			c.metrics.ObserveCache(kind, telemetry.OutcomeHit)
			return &cached, nil
		}
		slog.WarnContext(ctx, "cache entry corrupt", "key", key, "err", decodeErr)
	}
	c.metrics.ObserveCache(kind, telemetry.OutcomeMiss)

	value, err := fetch()
	if err != nil {
		return nil, err
	}
	if cacheable != nil && !cacheable(value) {
		return value, nil
	}
	payload, err = json.Marshal(value)
	if err != nil {
		return value, nil
	}
	if err := c.store.Set(ctx, key, payload, c.ttl); err != nil {
		slog.WarnContext(ctx, "cache set failed", "key", key, "err", err)
	}
	return value, nil
}

func BlockKey(hash string, full bool) string {
	if full {
		return kindBlock + ":" + strings.ToLower(hash) + ":full"
	}
	return kindBlock + ":" + strings.ToLower(hash) + ":hashes"
}

func TransactionKey(hash string) string {
	return "tx:" + strings.ToLower(hash)
}

func ReceiptKey(hash string) string {
	return kindReceipt + ":" + strings.ToLower(hash)
}
