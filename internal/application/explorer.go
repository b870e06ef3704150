package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"chainexplorer/internal/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ChainReader is the raw chain access the explorer is built on.
type ChainReader interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, number uint64, full bool) (*domain.Block, error)
	BlockByHash(ctx context.Context, hash string, full bool) (*domain.Block, error)
	TransactionByHash(ctx context.Context, hash string) (*domain.Transaction, error)
	TransactionReceipt(ctx context.Context, hash string) (*domain.Receipt, error)
}

type ScanObserver interface {
	AddBlocksScanned(n int)
}

type ExplorerConfig struct {
	// ScanLimit caps the blocks visited by one RecentTransactions call.
	// Zero means the scan may run down to genesis.
	ScanLimit uint64
}

type Explorer struct {
	chain    ChainReader
	observer ScanObserver
	cfg      ExplorerConfig
}

func NewExplorer(chain ChainReader, observer ScanObserver, cfg ExplorerConfig) *Explorer {
	return &Explorer{chain: chain, observer: observer, cfg: cfg}
}

// LatestBlocks returns up to count blocks, newest first, walking down from
// the current head. Blocks that fail to load are skipped.
func (e *Explorer) LatestBlocks(ctx context.Context, count int) ([]domain.Block, error) {
	if count <= 0 {
		return []domain.Block{}, nil
	}
	head, err := e.chain.LatestBlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest block number: %w", err)
	}

	blocks := make([]domain.Block, 0, min(uint64(count), head+1))
	for i := uint64(0); i < uint64(count) && i <= head; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		number := head - i
		block, err := e.chain.BlockByNumber(ctx, number, false)
		if err != nil {
			slog.WarnContext(ctx, "skipping block", "number", number, "err", err)
			continue
		}
		blocks = append(blocks, *block)
	}
	return blocks, nil
}

func (e *Explorer) BlockByHash(ctx context.Context, hash string) (*domain.Block, error) {
	return e.block(ctx, hash, false)
}

// BlockWithTransactions is BlockByHash with full transaction objects.
func (e *Explorer) BlockWithTransactions(ctx context.Context, hash string) (*domain.Block, error) {
	return e.block(ctx, hash, true)
}

func (e *Explorer) block(ctx context.Context, hash string, full bool) (*domain.Block, error) {
	if err := ValidateHash(hash); err != nil {
		return nil, err
	}
	return e.chain.BlockByHash(ctx, hash, full)
}

// Transaction returns the transaction with its receipt attached. A pending
// transaction has no receipt yet and is reported as not found.
func (e *Explorer) Transaction(ctx context.Context, hash string) (*domain.Transaction, error) {
	if err := ValidateHash(hash); err != nil {
		return nil, err
	}
	tx, err := e.chain.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	receipt, err := e.chain.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, err
	}
	tx.Receipt = receipt
	return tx, nil
}

// RecentTransactions scans backward from the head for transactions sent
// from or to address and returns at most count of them, newest first.
func (e *Explorer) RecentTransactions(ctx context.Context, address string, count int) ([]domain.Transaction, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}
	matches := []domain.Transaction{}
	if count <= 0 {
		return matches, nil
	}
	head, err := e.chain.LatestBlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest block number: %w", err)
	}

	scanned := 0
	defer func() {
		if e.observer != nil {
			e.observer.AddBlocksScanned(scanned)
		}
	}()

	number := head
	for len(matches) < count {
		if e.cfg.ScanLimit > 0 && uint64(scanned) >= e.cfg.ScanLimit {
			slog.DebugContext(ctx, "account scan limit reached", "address", address, "scanned", scanned, "found", len(matches))
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		block, err := e.chain.BlockByNumber(ctx, number, true)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: block %d missing below head %d", domain.ErrUpstream, number, head)
		}
		if err != nil {
			return nil, fmt.Errorf("scan block %d: %w", number, err)
		}
		scanned++
		for _, tx := range block.Transactions {
			if !tx.Involves(address) {
				continue
			}
			tx.Timestamp = block.Timestamp
			matches = append(matches, tx)
			if len(matches) == count {
				break
			}
		}
		if number == 0 {
			break
		}
		number--
	}
	return matches, nil
}

// ValidateHash checks for a 0x-prefixed 32-byte hex string.
func ValidateHash(hash string) error {
	b, err := hexutil.Decode(hash)
	if err != nil || len(b) != common.HashLength {
		return fmt.Errorf("%w: malformed hash %q", domain.ErrInvalidInput, hash)
	}
	return nil
}

func ValidateAddress(address string) error {
	if !common.IsHexAddress(address) || !has0xPrefix(address) {
		return fmt.Errorf("%w: malformed address %q", domain.ErrInvalidInput, address)
	}
	return nil
}

// IsNotFound reports whether err means the object does not exist or the
// request named something that cannot exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput)
}

func has0xPrefix(s string) bool {
	return strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
}
