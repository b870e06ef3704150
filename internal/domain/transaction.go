package domain

import "math/big"

// Transaction represents a chain transaction. A nil To means contract creation,
// a nil BlockNumber means the transaction is still pending.
type Transaction struct {
	Hash             string   `json:"hash"`
	BlockHash        string   `json:"blockHash,omitempty"`
	BlockNumber      *uint64  `json:"blockNumber,omitempty"`
	TransactionIndex *uint    `json:"transactionIndex,omitempty"`
	From             string   `json:"from"`
	To               *string  `json:"to"`
	Value            *big.Int `json:"value"`
	GasPrice         *big.Int `json:"gasPrice,omitempty"`
	Gas              uint64   `json:"gas"`
	Nonce            uint64   `json:"nonce"`
	Input            string   `json:"input"`
	Timestamp        uint64   `json:"timestamp,omitempty"`
	Receipt          *Receipt `json:"receipt,omitempty"`
}

// Pending reports whether the transaction has not been included in a block yet.
func (t *Transaction) Pending() bool {
	return t.BlockNumber == nil
}

// ContractCreation reports whether the transaction deploys a contract.
func (t *Transaction) ContractCreation() bool {
	return t.To == nil && t.From != ""
}

// Involves reports whether address is the sender or the recipient.
func (t *Transaction) Involves(address string) bool {
	if address == "" {
		return false
	}
	if equalFoldHex(t.From, address) {
		return true
	}
	return t.To != nil && equalFoldHex(*t.To, address)
}
