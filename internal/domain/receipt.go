package domain

import "math/big"

const (
	ReceiptStatusFailed  uint = 0
	ReceiptStatusSuccess uint = 1
)

// Receipt is the execution outcome of a mined transaction. Status is nil for
// pre-Byzantium receipts, which carry a state root instead.
type Receipt struct {
	Status            *uint    `json:"status"`
	GasUsed           uint64   `json:"gasUsed"`
	ContractAddress   *string  `json:"contractAddress,omitempty"`
	EffectiveGasPrice *big.Int `json:"effectiveGasPrice,omitempty"`
}

// Status returns a receipt status value for Receipt.Status.
func Status(s uint) *uint {
	return &s
}

func (r *Receipt) Succeeded() bool {
	return r.Status != nil && *r.Status == ReceiptStatusSuccess
}

func (r *Receipt) Failed() bool {
	return r.Status != nil && *r.Status == ReceiptStatusFailed
}
