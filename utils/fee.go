package utils

import "math/big"

const (
	// GasPriceMarkupPercent is applied to the node's suggested gas price on every attempt
	GasPriceMarkupPercent = 110
	// GasPriceRetryPercent is compounded once for each retry of the same transfer
	GasPriceRetryPercent = 120
)

// AdjustGasPrice returns the price offered on the given 1-based attempt:
// base * 1.10 * 1.20^(attempt-1), truncated to wei at each step.
func AdjustGasPrice(base *big.Int, attempt int) *big.Int {
	hundred := big.NewInt(100)
	price := new(big.Int).Mul(base, big.NewInt(GasPriceMarkupPercent))
	price.Quo(price, hundred)
	for i := 1; i < attempt; i++ {
		price.Mul(price, big.NewInt(GasPriceRetryPercent))
		price.Quo(price, hundred)
	}
	return price
}
