package utils

import (
	"bufio"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strings"

	ethcmm "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
)

var (
	// ErrFileNotFound is returned when an input list does not exist
	ErrFileNotFound = errors.New("file not found")
	// ErrFileEmpty is returned when an input list holds no usable line
	ErrFileEmpty = errors.New("file is empty")
)

// ReadDataFromFile reads a newline-delimited list, trimming every line and
// dropping blank ones.
func ReadDataFromFile(filepath string) ([]string, error) {
	f, err := os.Open(filepath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filepath)
		}
		return nil, fmt.Errorf("failed to open file %s: %w", filepath, err)
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			log.Warn("Failed to close file", "path", filepath, "err", err)
		}
	}(f)

	log.Debug("Loading data from file", "path", filepath)

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filepath, err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFileEmpty, filepath)
	}

	log.Debug("Records loaded", "path", filepath, "count", len(lines))
	return lines, nil
}

// LoadAccounts reads the recipient and secret key lists and validates every
// entry. Nothing is returned unless all of them pass.
func LoadAccounts(keysPath, addressesPath string) (keys []string, addresses []string, err error) {
	addresses, err = ReadDataFromFile(addressesPath)
	if err != nil {
		return nil, nil, err
	}
	keys, err = ReadDataFromFile(keysPath)
	if err != nil {
		return nil, nil, err
	}

	for i, key := range keys {
		if err := ValidatePrivateKey(key); err != nil {
			return nil, nil, fmt.Errorf("security validation failed for key #%d: %w", i+1, err)
		}
	}
	for i, addr := range addresses {
		if err := ValidateAddress(addr); err != nil {
			return nil, nil, fmt.Errorf("security validation failed for address #%d: %w", i+1, err)
		}
	}
	return keys, addresses, nil
}

// GetEthAddressFromPK converts an ECDSA private key to an Ethereum address
func GetEthAddressFromPK(privateKey *ecdsa.PrivateKey) ethcmm.Address {
	pubkeyECDSA, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		panic(fmt.Errorf("convert into pubkey failed"))
	}
	return crypto.PubkeyToAddress(*pubkeyECDSA)
}
