package utils

import (
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const (
	ipfsScheme = "ipfs://"

	// DefaultIPFSGateway replaces the ipfs:// scheme when no gateway is configured.
	DefaultIPFSGateway = "https://ipfs.io/ipfs/"

	zeroAmount = "0.0000"
)

// ResolveIPFS maps an ipfs:// URI onto the public gateway. Anything else is returned as is.
func ResolveIPFS(uri string) string {
	return ResolveIPFSWithGateway(uri, DefaultIPFSGateway)
}

// ResolveIPFSWithGateway is ResolveIPFS with an explicit gateway prefix.
func ResolveIPFSWithGateway(uri, gateway string) string {
	if uri == "" {
		return ""
	}
	if strings.HasPrefix(uri, ipfsScheme) {
		return gateway + uri[len(ipfsScheme):]
	}
	return uri
}

// FormatAddress shortens an address to "0x1234...abcd".
// Inputs shorter than 10 characters are returned unchanged.
func FormatAddress(address string) string {
	if len(address) < 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// FormatTokenAmount is FormatTokenAmountDecimals with 18 decimals.
func FormatTokenAmount(amount any) string {
	return FormatTokenAmountDecimals(amount, 18)
}

// FormatTokenAmountDecimals divides amount by 10^decimals and renders four
// fractional digits. It never fails: unusable input yields "0.0000".
func FormatTokenAmountDecimals(amount any, decimals int) string {
	if decimals < 0 {
		return zeroAmount
	}
	value, ok := toBigFloat(amount)
	if !ok {
		return zeroAmount
	}
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	return new(big.Float).Quo(value, divisor).Text('f', 4)
}

func toBigFloat(amount any) (*big.Float, bool) {
	switch v := amount.(type) {
	case *big.Int:
		if v == nil {
			return nil, false
		}
		return new(big.Float).SetInt(v), true
	case big.Int:
		return new(big.Float).SetInt(&v), true
	case string:
		f, ok := new(big.Float).SetString(strings.TrimSpace(v))
		if !ok || f.IsInf() {
			return nil, false
		}
		return f, true
	case int:
		return new(big.Float).SetInt64(int64(v)), true
	case int64:
		return new(big.Float).SetInt64(v), true
	case uint64:
		return new(big.Float).SetUint64(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		return big.NewFloat(v), true
	default:
		return nil, false
	}
}

// IsValidAddress reports whether address is "0x" followed by exactly 40 hex digits.
func IsValidAddress(address string) bool {
	return strings.HasPrefix(address, "0x") && common.IsHexAddress(address)
}
