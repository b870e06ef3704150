package ethrpc

import (
	"encoding/json"
	"fmt"
	"strings"

	"chainexplorer/internal/domain"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

type rpcBlock struct {
	Hash          string            `json:"hash"`
	Number        hexutil.Uint64    `json:"number"`
	ParentHash    string            `json:"parentHash"`
	Timestamp     hexutil.Uint64    `json:"timestamp"`
	Miner         string            `json:"miner"`
	GasUsed       hexutil.Uint64    `json:"gasUsed"`
	GasLimit      hexutil.Uint64    `json:"gasLimit"`
	BaseFeePerGas *hexutil.Big      `json:"baseFeePerGas"`
	Size          hexutil.Uint64    `json:"size"`
	Nonce         string            `json:"nonce"`
	Transactions  []json.RawMessage `json:"transactions"`
}

type rpcTransaction struct {
	Hash             string          `json:"hash"`
	BlockHash        *string         `json:"blockHash"`
	BlockNumber      *hexutil.Uint64 `json:"blockNumber"`
	TransactionIndex *hexutil.Uint64 `json:"transactionIndex"`
	From             string          `json:"from"`
	To               *string         `json:"to"`
	Value            *hexutil.Big    `json:"value"`
	GasPrice         *hexutil.Big    `json:"gasPrice"`
	Gas              hexutil.Uint64  `json:"gas"`
	Nonce            hexutil.Uint64  `json:"nonce"`
	Input            string          `json:"input"`
}

type rpcReceipt struct {
	Status            *hexutil.Uint64 `json:"status"`
	GasUsed           hexutil.Uint64  `json:"gasUsed"`
	ContractAddress   *string         `json:"contractAddress"`
	EffectiveGasPrice *hexutil.Big    `json:"effectiveGasPrice"`
}

func (b *rpcBlock) toDomain() (*domain.Block, error) {
	block := &domain.Block{
		Hash:         b.Hash,
		Number:       uint64(b.Number),
		ParentHash:   b.ParentHash,
		Timestamp:    uint64(b.Timestamp),
		Miner:        b.Miner,
		GasUsed:      uint64(b.GasUsed),
		GasLimit:     uint64(b.GasLimit),
		Size:         uint64(b.Size),
		Nonce:        b.Nonce,
		Transactions: make([]domain.Transaction, 0, len(b.Transactions)),
	}
	if b.BaseFeePerGas != nil {
		block.BaseFee = b.BaseFeePerGas.ToInt()
	}
	for i, raw := range b.Transactions {
		tx, err := decodeBlockTransaction(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: block %s transaction %d: %w", domain.ErrUpstream, b.Hash, i, err)
		}
		block.Transactions = append(block.Transactions, tx)
	}
	return block, nil
}

// decodeBlockTransaction accepts either a bare hash or a full transaction
// object, depending on how the block was requested.
func decodeBlockTransaction(raw json.RawMessage) (domain.Transaction, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, `"`) {
		var hash string
		if err := json.Unmarshal(raw, &hash); err != nil {
			return domain.Transaction{}, err
		}
		return domain.Transaction{Hash: hash}, nil
	}
	var tx rpcTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return domain.Transaction{}, err
	}
	return tx.toDomain(), nil
}

func (t *rpcTransaction) toDomain() domain.Transaction {
	tx := domain.Transaction{
		Hash:  t.Hash,
		From:  t.From,
		To:    t.To,
		Gas:   uint64(t.Gas),
		Nonce: uint64(t.Nonce),
		Input: t.Input,
	}
	if t.BlockHash != nil {
		tx.BlockHash = *t.BlockHash
	}
	if t.BlockNumber != nil {
		number := uint64(*t.BlockNumber)
		tx.BlockNumber = &number
	}
	if t.TransactionIndex != nil {
		index := uint(*t.TransactionIndex)
		tx.TransactionIndex = &index
	}
	if t.Value != nil {
		tx.Value = t.Value.ToInt()
	}
	if t.GasPrice != nil {
		tx.GasPrice = t.GasPrice.ToInt()
	}
	return tx
}

func (r *rpcReceipt) toDomain() *domain.Receipt {
	receipt := &domain.Receipt{
		GasUsed:         uint64(r.GasUsed),
		ContractAddress: r.ContractAddress,
	}
	if r.Status != nil {
		receipt.Status = domain.Status(uint(*r.Status))
	}
	if r.EffectiveGasPrice != nil {
		receipt.EffectiveGasPrice = r.EffectiveGasPrice.ToInt()
	}
	return receipt
}
