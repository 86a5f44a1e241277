package utils

import (
	"fmt"
	"strings"

	ethcmn "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// PrivateKeyHexLength is the length of a 0x-prefixed 32 byte secret.
const PrivateKeyHexLength = 66

// FormatError reports an input that does not satisfy its format contract.
type FormatError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ValidatePrivateKey accepts a 0x-prefixed hex string of exactly 66 characters.
// The key itself is never echoed back in the error.
func ValidatePrivateKey(key string) error {
	if !strings.HasPrefix(key, "0x") {
		return &FormatError{Field: "private key", Reason: hexutil.ErrMissingPrefix.Error()}
	}
	if _, err := hexutil.Decode(key); err != nil {
		return &FormatError{Field: "private key", Reason: err.Error()}
	}
	if len(key) != PrivateKeyHexLength {
		return &FormatError{
			Field:  "private key",
			Reason: fmt.Sprintf("expected %d characters, got %d", PrivateKeyHexLength, len(key)),
		}
	}
	return nil
}

// ValidateAddress accepts 40 hex digits with an optional lower case 0x prefix.
// Mixed-case input must carry a valid EIP-55 checksum.
func ValidateAddress(addr string) error {
	if strings.HasPrefix(addr, "0X") {
		return &FormatError{Field: "address", Value: addr, Reason: "prefix must be 0x"}
	}
	if !ethcmn.IsHexAddress(addr) {
		return &FormatError{Field: "address", Value: addr, Reason: "not a 20 byte hex address"}
	}
	digits := strings.TrimPrefix(addr, "0x")
	if isMixedCase(digits) {
		checksummed := ethcmn.HexToAddress(digits).Hex()
		if checksummed[2:] != digits {
			return &FormatError{Field: "address", Value: addr, Reason: "bad checksum"}
		}
	}
	return nil
}

func isMixedCase(s string) bool {
	return strings.ToLower(s) != s && strings.ToUpper(s) != s
}

// SameAddress reports whether two hex strings decode to the same address,
// whatever their case or prefix.
func SameAddress(a, b string) bool {
	return ethcmn.HexToAddress(a) == ethcmn.HexToAddress(b)
}
