package utils

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	ethcmn "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet is a signing key and the address derived from it
type Wallet struct {
	Index   int
	Key     *ecdsa.PrivateKey
	Address ethcmn.Address
}

// NewWallet validates a hex secret and derives its address. Index is the
// 1-based position used in console output.
func NewWallet(index int, hexKey string) (*Wallet, error) {
	if err := ValidatePrivateKey(hexKey); err != nil {
		return nil, err
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, &FormatError{Field: "private key", Reason: err.Error()}
	}
	return &Wallet{
		Index:   index,
		Key:     key,
		Address: GetEthAddressFromPK(key),
	}, nil
}

// Masked returns the display form of the wallet address.
func (w *Wallet) Masked() string {
	return MaskAddress(w.Address.Hex())
}

func (w *Wallet) String() string {
	return fmt.Sprintf("wallet %d (%s)", w.Index, w.Masked())
}
