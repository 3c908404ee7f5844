package utils

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

func TruncateString(str string, num int) string {
	if len(str) <= num {
		return str
	}
	if num <= 3 {
		return str[:num]
	}
	return str[0:num-3] + "..."
}

// MaxDecimals is the largest decimals value a token contract can declare
// (ERC-20 decimals is a uint8).
const MaxDecimals = 255

// FormatUnits renders raw / 10^decimals exactly. raw must be an unsigned
// integer. The fraction is trimmed of trailing zeros but always keeps one
// digit, so 10^18 wei at 18 decimals is "1.0".
func FormatUnits(raw string, decimals int) (string, error) {
	if decimals < 0 || decimals > MaxDecimals {
		return "", fmt.Errorf("decimals %d out of range", decimals)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty balance")
	}
	if strings.ContainsAny(raw, "+-") {
		return "", fmt.Errorf("balance %q must be unsigned", raw)
	}
	if strings.ContainsAny(raw, ".eE") {
		return "", fmt.Errorf("balance %q is not an integer", raw)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return "", fmt.Errorf("invalid balance %q: %w", raw, err)
	}

	s := d.Shift(int32(-decimals)).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s, nil
}

// DisplayAddress returns the EIP-55 checksum form of hex addresses and the
// trimmed input for anything else, such as ENS names.
func DisplayAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if common.IsHexAddress(addr) {
		return common.HexToAddress(addr).Hex()
	}
	return addr
}

// ShortAddress abbreviates long addresses to 0x1234...abcd.
func ShortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
