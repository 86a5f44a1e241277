package utils

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// TokenDecimals is the fixed-point precision used for both the native coin
// and the designated token.
const TokenDecimals = 18

var ErrNonPositiveAmount = errors.New("amount must be greater than 0")

// ParseUnits converts a decimal string such as "0.01" into base units.
func ParseUnits(amount string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("invalid numeric value %q: %w", amount, err)
	}
	return DecimalToUnits(d, decimals)
}

// DecimalToUnits scales d by 10^decimals. Values with more fractional digits
// than decimals are rejected rather than truncated.
func DecimalToUnits(d decimal.Decimal, decimals int32) (*big.Int, error) {
	if !d.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	scaled := d.Shift(decimals)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", d, decimals)
	}
	return scaled.BigInt(), nil
}

// FormatUnits renders base units as a decimal string, always keeping at
// least one fractional digit ("1.0", "0.25").
func FormatUnits(v *big.Int, decimals int32) string {
	if v == nil {
		return "0.0"
	}
	s := decimal.NewFromBigInt(v, -decimals).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// MaskAddress keeps the first 6 and last 4 characters of an address.
func MaskAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
