package domain

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when the node has no such block or transaction.
	ErrNotFound = errors.New("not found")
	// ErrUpstream wraps failures talking to the RPC endpoint.
	ErrUpstream = errors.New("upstream unavailable")
	// ErrInvalidInput is returned for malformed hashes, addresses or counts.
	ErrInvalidInput = errors.New("invalid input")
)

func equalFoldHex(a, b string) bool {
	return strings.EqualFold(a, b)
}
