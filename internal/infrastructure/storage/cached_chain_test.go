package storage

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"chainexplorer/internal/domain"
	"chainexplorer/internal/infrastructure/telemetry"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	blockHash = "0x88E96D4537BEA4D9C05D12549907B32561D3BF31F45AAE734CDC119F13406CB6"
	txHash    = "0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"
)

type memoryStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
	setErr  error
	sets    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string][]byte)}
}

func (s *memoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	v, ok := s.entries[key]
	return v, ok, nil
}

func (s *memoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.entries[key] = value
	return nil
}

type countingChain struct {
	calls   map[string]int
	pending bool
	err     error
}

func (c *countingChain) count(name string) {
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[name]++
}

func (c *countingChain) LatestBlockNumber(ctx context.Context) (uint64, error) {
	c.count("head")
	return 100, nil
}

func (c *countingChain) BlockByNumber(ctx context.Context, number uint64, full bool) (*domain.Block, error) {
	c.count("byNumber")
	return &domain.Block{Number: number}, nil
}

func (c *countingChain) BlockByHash(ctx context.Context, hash string, full bool) (*domain.Block, error) {
	c.count("block")
	if c.err != nil {
		return nil, c.err
	}
	baseFee, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	return &domain.Block{
		Hash:         hash,
		Number:       99,
		BaseFee:      baseFee,
		Transactions: []domain.Transaction{{Hash: txHash}},
	}, nil
}

func (c *countingChain) TransactionByHash(ctx context.Context, hash string) (*domain.Transaction, error) {
	c.count("tx")
	tx := &domain.Transaction{Hash: hash, From: "0xaa", Value: big.NewInt(5)}
	if !c.pending {
		number := uint64(99)
		tx.BlockNumber = &number
	}
	return tx, nil
}

func (c *countingChain) TransactionReceipt(ctx context.Context, hash string) (*domain.Receipt, error) {
	c.count("receipt")
	return &domain.Receipt{Status: domain.Status(domain.ReceiptStatusSuccess), GasUsed: 21000}, nil
}

func TestCachedChain_BlockHitAvoidsUpstream(t *testing.T) {
	chain := &countingChain{}
	store := newMemoryStore()
	metrics := telemetry.NewMetrics()
	cached := NewCachedChain(chain, store, time.Minute, metrics)
	ctx := context.Background()

	first, err := cached.BlockByHash(ctx, blockHash, false)
	require.NoError(t, err)
	second, err := cached.BlockByHash(ctx, blockHash, false)
	require.NoError(t, err)

	assert.Equal(t, 1, chain.calls["block"])
	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, 0, first.BaseFee.Cmp(second.BaseFee))
	assert.Equal(t, first.Transactions, second.Transactions)
	assert.Contains(t, store.entries, BlockKey(blockHash, false))

	_, err = cached.BlockByHash(ctx, blockHash, true)
	require.NoError(t, err)
	assert.Equal(t, 2, chain.calls["block"])

	expected := `
# HELP explorer_cache_lookups_total Read-through cache lookups by object kind and result.
# TYPE explorer_cache_lookups_total counter
explorer_cache_lookups_total{kind="block",result="hit"} 1
explorer_cache_lookups_total{kind="block",result="miss"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "explorer_cache_lookups_total"))
}

func TestCachedChain_PendingTransactionsNotCached(t *testing.T) {
	chain := &countingChain{pending: true}
	store := newMemoryStore()
	cached := NewCachedChain(chain, store, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		tx, err := cached.TransactionByHash(ctx, txHash)
		require.NoError(t, err)
		assert.True(t, tx.Pending())
	}
	assert.Equal(t, 2, chain.calls["tx"])
	assert.Zero(t, store.sets)

	chain.pending = false
	for i := 0; i < 2; i++ {
		_, err := cached.TransactionByHash(ctx, txHash)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, chain.calls["tx"])
}

func TestCachedChain_ReceiptAndPassThrough(t *testing.T) {
	chain := &countingChain{}
	cached := NewCachedChain(chain, newMemoryStore(), 0, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		receipt, err := cached.TransactionReceipt(ctx, txHash)
		require.NoError(t, err)
		assert.Equal(t, uint64(21000), receipt.GasUsed)
		_, err = cached.LatestBlockNumber(ctx)
		require.NoError(t, err)
		_, err = cached.BlockByNumber(ctx, 7, false)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, chain.calls["receipt"])
	assert.Equal(t, 3, chain.calls["head"])
	assert.Equal(t, 3, chain.calls["byNumber"])
}

func TestCachedChain_StoreFailuresAreBypassed(t *testing.T) {
	chain := &countingChain{}
	store := newMemoryStore()
	store.getErr = errors.New("connection reset")
	store.setErr = errors.New("connection reset")
	cached := NewCachedChain(chain, store, time.Minute, nil)

	block, err := cached.BlockByHash(context.Background(), blockHash, false)
	require.NoError(t, err)
	assert.Equal(t, blockHash, block.Hash)

	store.getErr = nil
	store.entries[TransactionKey(txHash)] = []byte("{not json")
	tx, err := cached.TransactionByHash(context.Background(), txHash)
	require.NoError(t, err)
	assert.Equal(t, txHash, tx.Hash)
}

func TestCachedChain_ErrorsAreNotCached(t *testing.T) {
	chain := &countingChain{err: domain.ErrNotFound}
	store := newMemoryStore()
	cached := NewCachedChain(chain, store, time.Minute, nil)

	_, err := cached.BlockByHash(context.Background(), blockHash, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, store.sets)
}

func TestKeysAreCaseInsensitive(t *testing.T) {
	assert.Equal(t, BlockKey(blockHash, true), BlockKey(strings.ToLower(blockHash), true))
	assert.NotEqual(t, BlockKey(blockHash, true), BlockKey(blockHash, false))
	assert.Equal(t, "tx:"+txHash, TransactionKey("0x"+strings.ToUpper(txHash[2:])))
	assert.Equal(t, "receipt:"+txHash, ReceiptKey(txHash))
}
