// Package format holds the display conventions shared by the pages and the CLI.
package format

import (
	"math/big"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	Placeholder = "N/A"

	hashHead    = 10
	hashTail    = 9
	addressHead = 6
	addressTail = 6

	EtherDecimals = 18
	GweiDecimals  = 9

	timestampLayout = "2006-01-02 15:04:05 UTC"
)

// TruncateHash shortens a hash to "first 10...last 9". A 66-character hash
// becomes 22 characters.
func TruncateHash(hash string) string {
	return truncate(hash, hashHead, hashTail)
}

// ShortAddress shortens an address to "first 6...last 6".
func ShortAddress(address string) string {
	return truncate(address, addressHead, addressTail)
}

func truncate(value string, head, tail int) string {
	if value == "" {
		return Placeholder
	}
	if len(value) <= head+tail+3 {
		return value
	}
	return value[:head] + "..." + value[len(value)-tail:]
}

// FormatEther renders a wei amount in ether.
func FormatEther(wei *big.Int) string {
	return FormatUnits(wei, EtherDecimals)
}

// FormatGwei renders a wei amount in gwei.
func FormatGwei(wei *big.Int) string {
	return FormatUnits(wei, GweiDecimals)
}

// FormatUnits divides value by 10^decimals and prints the exact result with
// trailing zeros removed.
func FormatUnits(value *big.Int, decimals int) string {
	if value == nil {
		return "0"
	}
	negative := value.Sign() < 0
	digits := new(big.Int).Abs(value).String()
	if decimals > 0 {
		if len(digits) <= decimals {
			digits = strings.Repeat("0", decimals-len(digits)+1) + digits
		}
		split := len(digits) - decimals
		whole, fraction := digits[:split], strings.TrimRight(digits[split:], "0")
		digits = whole
		if fraction != "" {
			digits += "." + fraction
		}
	}
	if negative && digits != "0" {
		return "-" + digits
	}
	return digits
}

// FormatTimestamp renders unix seconds in UTC.
func FormatTimestamp(seconds uint64) string {
	return time.Unix(int64(seconds), 0).UTC().Format(timestampLayout)
}

// TimeAgo renders unix seconds relative to now, e.g. "3 minutes ago".
func TimeAgo(seconds uint64) string {
	return humanize.Time(time.Unix(int64(seconds), 0))
}

// Comma groups the digits of n, e.g. 30000000 -> "30,000,000".
func Comma(n uint64) string {
	return humanize.Comma(int64(n))
}

// BigComma is Comma for arbitrary-precision values.
func BigComma(n *big.Int) string {
	if n == nil {
		return Placeholder
	}
	return humanize.BigComma(n)
}
