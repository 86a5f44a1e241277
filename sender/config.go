package sender

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okx/xlayer-toolkit/tools/multisend/utils"
)

var (
	ErrInvalidCount  = errors.New("number of transactions must be a positive integer")
	ErrInvalidDelay  = errors.New("delay must be a non-negative integer")
	ErrInvalidAmount = errors.New("amount must be a positive number")
)

// SendConfig holds every parameter of one dispatch session
type SendConfig struct {
	UseNative       bool
	NumTransactions int
	DelaySeconds    int
	Amount          decimal.Decimal
}

// Validate checks the parameters as a unit
func (c SendConfig) Validate() error {
	if c.NumTransactions <= 0 {
		return ErrInvalidCount
	}
	if c.DelaySeconds < 0 {
		return ErrInvalidDelay
	}
	if _, err := c.AmountUnits(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return nil
}

// AmountUnits returns the amount in 18-decimal base units
func (c SendConfig) AmountUnits() (*big.Int, error) {
	return utils.DecimalToUnits(c.Amount, utils.TokenDecimals)
}

// AssetLabel names the asset being sent in console output
func (c SendConfig) AssetLabel() string {
	if c.UseNative {
		return "native coin"
	}
	return "custom token"
}

// ParseSendConfig builds a SendConfig from raw answers: a y/n native flag,
// a transaction count, a delay in seconds and an amount per transaction.
func ParseSendConfig(useNative, count, delay, amount string) (SendConfig, error) {
	var cfg SendConfig
	cfg.UseNative = strings.EqualFold(strings.TrimSpace(useNative), "y")

	n, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil {
		return cfg, ErrInvalidCount
	}
	cfg.NumTransactions = n

	d, err := strconv.Atoi(strings.TrimSpace(delay))
	if err != nil {
		return cfg, ErrInvalidDelay
	}
	cfg.DelaySeconds = d

	a, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return cfg, ErrInvalidAmount
	}
	cfg.Amount = a

	return cfg, cfg.Validate()
}
