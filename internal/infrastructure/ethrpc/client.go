package ethrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"chainexplorer/internal/domain"
	"chainexplorer/internal/infrastructure/telemetry"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const (
	methodBlockNumber        = "eth_blockNumber"
	methodBlockByNumber      = "eth_getBlockByNumber"
	methodBlockByHash        = "eth_getBlockByHash"
	methodTransactionByHash  = "eth_getTransactionByHash"
	methodTransactionReceipt = "eth_getTransactionReceipt"
)

// Client reads chain data from a JSON-RPC endpoint. It is safe for
// concurrent use.
type Client struct {
	rpc     *rpc.Client
	eth     *ethclient.Client
	timeout time.Duration
	metrics *telemetry.Metrics
}

type Config struct {
	URL     string
	Timeout time.Duration
	Metrics *telemetry.Metrics
	// HTTPClient overrides the traced default transport.
	HTTPClient *http.Client
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("rpc url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	rpcClient, err := rpc.DialOptions(ctx, cfg.URL, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}
	return &Client{
		rpc:     rpcClient,
		eth:     ethclient.NewClient(rpcClient),
		timeout: cfg.Timeout,
		metrics: cfg.Metrics,
	}, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	ctx, span := telemetry.StartClientSpan(ctx, "ethrpc", methodBlockNumber, rpcAttrs(methodBlockNumber)...)
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	number, err := c.eth.BlockNumber(ctx)
	if err != nil {
		err = upstreamError(methodBlockNumber, err)
	} else {
		c.metrics.SetLatestBlock(number)
		span.SetAttributes(attribute.Int64("block.number", int64(number)))
	}
	c.observe(methodBlockNumber, err, start)
	telemetry.EndSpan(span, err)
	return number, err
}

func (c *Client) BlockByNumber(ctx context.Context, number uint64, full bool) (*domain.Block, error) {
	var block rpcBlock
	if err := c.call(ctx, methodBlockByNumber, &block, hexutil.EncodeUint64(number), full); err != nil {
		return nil, err
	}
	return block.toDomain()
}

func (c *Client) BlockByHash(ctx context.Context, hash string, full bool) (*domain.Block, error) {
	var block rpcBlock
	if err := c.call(ctx, methodBlockByHash, &block, hash, full); err != nil {
		return nil, err
	}
	return block.toDomain()
}

func (c *Client) TransactionByHash(ctx context.Context, hash string) (*domain.Transaction, error) {
	var tx rpcTransaction
	if err := c.call(ctx, methodTransactionByHash, &tx, hash); err != nil {
		return nil, err
	}
	out := tx.toDomain()
	return &out, nil
}

func (c *Client) TransactionReceipt(ctx context.Context, hash string) (*domain.Receipt, error) {
	var receipt rpcReceipt
	if err := c.call(ctx, methodTransactionReceipt, &receipt, hash); err != nil {
		return nil, err
	}
	return receipt.toDomain(), nil
}

// call performs one JSON-RPC request. A null result maps to
// domain.ErrNotFound, everything else that fails to domain.ErrUpstream.
func (c *Client) call(ctx context.Context, method string, result any, args ...any) (err error) {
	ctx, span := telemetry.StartClientSpan(ctx, "ethrpc", method, rpcAttrs(method)...)
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	defer func() {
		c.observe(method, err, start)
		telemetry.EndSpan(span, ignoreNotFound(err))
	}()

	var raw json.RawMessage
	if err := c.rpc.CallContext(ctx, &raw, method, args...); err != nil {
		if errors.Is(err, rpc.ErrNoResult) {
			return domain.ErrNotFound
		}
		return upstreamError(method, err)
	}
	if isNull(raw) {
		return domain.ErrNotFound
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return upstreamError(method, fmt.Errorf("decode result: %w", err))
	}
	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) observe(method string, err error, start time.Time) {
	outcome := telemetry.OutcomeOK
	switch {
	case errors.Is(err, domain.ErrNotFound):
		outcome = telemetry.OutcomeNotFound
	case err != nil:
		outcome = telemetry.OutcomeError
	}
	c.metrics.ObserveRPC(method, outcome, time.Since(start))
}

func upstreamError(method string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrUpstream, method, err)
}

func ignoreNotFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func rpcAttrs(method string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("rpc.system", "jsonrpc"),
		attribute.String("rpc.method", method),
	}
}
