package sender

import (
	"context"
	"fmt"
	"math/big"

	ethcmn "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/okx/xlayer-toolkit/tools/multisend/utils"
)

// DefaultTokenLabel is shown when the token contract does not answer name()
const DefaultTokenLabel = "Token"

// Balance is one wallet's row in a balance report
type Balance struct {
	Address   ethcmn.Address
	Native    *big.Int
	Token     *big.Int
	TokenName string
	Err       error
}

// Reporter prints native and token balances for every wallet
type Reporter struct {
	client utils.Client
	token  ethcmn.Address
	keys   []string
	logger log.Logger
}

func NewReporter(client utils.Client, token ethcmn.Address, keys []string, logger log.Logger) *Reporter {
	return &Reporter{
		client: client,
		token:  token,
		keys:   keys,
		logger: logger,
	}
}

// Report queries every wallet in order. A failure on one wallet is logged
// and recorded in its row; the remaining wallets are still queried.
func (r *Reporter) Report(ctx context.Context) []Balance {
	r.logger.Info("🔍 Checking balances for all wallets...")
	rows := make([]Balance, 0, len(r.keys))
	for i, key := range r.keys {
		if ctx.Err() != nil {
			break
		}
		row := r.walletBalance(ctx, i+1, key)
		rows = append(rows, row)
	}
	return rows
}

func (r *Reporter) walletBalance(ctx context.Context, index int, key string) Balance {
	w, err := utils.NewWallet(index, key)
	if err != nil {
		r.logger.Error("❌ Failed to check balance", "wallet", index, "err", err)
		return Balance{Err: err}
	}
	row := Balance{Address: w.Address}
	logger := r.logger.New("wallet", w.Masked())

	row.Native, err = r.client.NativeBalance(ctx, w.Address)
	if err != nil {
		row.Err = fmt.Errorf("native balance: %w", err)
		logger.Error("❌ Failed to check balance", "err", row.Err)
		return row
	}
	logger.Info("💰 Native balance", "amount", utils.FormatUnits(row.Native, utils.TokenDecimals))

	row.Token, err = r.client.TokenBalance(ctx, r.token, w.Address)
	if err != nil {
		row.Err = fmt.Errorf("token balance: %w", err)
		logger.Error("❌ Failed to check balance", "err", row.Err)
		return row
	}

	row.TokenName = DefaultTokenLabel
	if name, err := r.client.TokenName(ctx, r.token); err != nil {
		logger.Warn("⚠️ Unable to detect token name", "contract", r.token, "err", err)
	} else if name != "" {
		row.TokenName = name
	}
	logger.Info("💰 "+row.TokenName+" balance", "amount", utils.FormatUnits(row.Token, utils.TokenDecimals))
	return row
}
