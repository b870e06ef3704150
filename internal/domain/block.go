package domain

import "math/big"

// Block is a read-only projection of a chain block. Transactions carry only
// their hash unless the block was requested with full transaction objects.
type Block struct {
	Hash         string        `json:"hash"`
	Number       uint64        `json:"number"`
	ParentHash   string        `json:"parentHash"`
	Timestamp    uint64        `json:"timestamp"`
	Miner        string        `json:"miner"`
	GasUsed      uint64        `json:"gasUsed"`
	GasLimit     uint64        `json:"gasLimit"`
	BaseFee      *big.Int      `json:"baseFeePerGas,omitempty"`
	Size         uint64        `json:"size"`
	Nonce        string        `json:"nonce"`
	Transactions []Transaction `json:"transactions"`
}

// HasFullTransactions reports whether the transactions were fetched as objects.
func (b *Block) HasFullTransactions() bool {
	for _, tx := range b.Transactions {
		if tx.From != "" {
			return true
		}
	}
	return false
}

type blockFields Block

type wireBlock struct {
	blockFields
	Transactions any `json:"transactions"`
}

// Shape returns the block as it goes on the wire. Hash-only transaction
// lists become a plain array of hashes, as eth_getBlockByHash returns them.
func (b *Block) Shape() any {
	if b.HasFullTransactions() {
		return wireBlock{blockFields: blockFields(*b), Transactions: b.Transactions}
	}
	var hashes []string
	if b.Transactions != nil {
		hashes = make([]string, len(b.Transactions))
		for i, tx := range b.Transactions {
			hashes[i] = tx.Hash
		}
	}
	return wireBlock{blockFields: blockFields(*b), Transactions: hashes}
}
