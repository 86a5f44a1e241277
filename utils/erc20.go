package utils

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcmn "github.com/ethereum/go-ethereum/common"
)

// ERC20ABI is the subset of the ERC-20 interface the tool calls
const ERC20ABI = `[
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

var (
	erc20Once   sync.Once
	erc20Parsed abi.ABI
	erc20Err    error
)

func erc20ABI() (abi.ABI, error) {
	erc20Once.Do(func() {
		erc20Parsed, erc20Err = abi.JSON(strings.NewReader(ERC20ABI))
	})
	return erc20Parsed, erc20Err
}

// PackTransfer encodes an ERC-20 transfer(to, amount) call
func PackTransfer(to ethcmn.Address, amount *big.Int) ([]byte, error) {
	tABI, err := erc20ABI()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ERC20 ABI: %w", err)
	}
	return tABI.Pack("transfer", to, amount)
}

func packBalanceOf(owner ethcmn.Address) ([]byte, error) {
	tABI, err := erc20ABI()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ERC20 ABI: %w", err)
	}
	return tABI.Pack("balanceOf", owner)
}

func packName() ([]byte, error) {
	tABI, err := erc20ABI()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ERC20 ABI: %w", err)
	}
	return tABI.Pack("name")
}

func unpackBalance(data []byte) (*big.Int, error) {
	tABI, err := erc20ABI()
	if err != nil {
		return nil, err
	}
	out, err := tABI.Unpack("balanceOf", data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf: %w", err)
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", out[0])
	}
	return balance, nil
}

func unpackName(data []byte) (string, error) {
	tABI, err := erc20ABI()
	if err != nil {
		return "", err
	}
	out, err := tABI.Unpack("name", data)
	if err != nil {
		return "", fmt.Errorf("failed to unpack name: %w", err)
	}
	name, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected name result type %T", out[0])
	}
	return name, nil
}
