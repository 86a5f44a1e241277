package sender

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	ethcmn "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/okx/xlayer-toolkit/tools/multisend/utils"
)

// MaxAttempts is the number of submissions tried for one transfer
const MaxAttempts = 3

// TxRecorder receives the hash of every successfully broadcast transfer
type TxRecorder interface {
	Record(hash ethcmn.Hash)
}

// Result holds the outcome of a dispatch session
type Result struct {
	Succeeded int
	Failed    int
	Skipped   int
	// PerWallet is the success count of each wallet, in key order
	PerWallet []int
	// Completed is set when the global target was reached
	Completed bool
}

// Dispatcher sends transfers from every wallet to the shared recipient list
type Dispatcher struct {
	client     utils.Client
	token      ethcmn.Address
	keys       []string
	recipients []string
	logger     log.Logger

	Pacer        Pacer
	Recorder     TxRecorder
	NonceRetries uint64
	// NonceBackoff is the first delay between nonce query retries
	NonceBackoff time.Duration
}

func NewDispatcher(client utils.Client, token ethcmn.Address, keys, recipients []string, logger log.Logger) *Dispatcher {
	return &Dispatcher{
		client:       client,
		token:        token,
		keys:         keys,
		recipients:   recipients,
		logger:       logger,
		Pacer:        NewCountdown(),
		NonceRetries: 3,
		NonceBackoff: 500 * time.Millisecond,
	}
}

// session is the mutable state of one Dispatch call
type session struct {
	cfg    SendConfig
	amount *big.Int
	target int
	logger log.Logger

	cursor int
	// idle counts consecutive iterations without an eligible recipient
	idle   int
	result Result
}

// next returns the recipient under the cursor and advances it
func (s *session) next(recipients []string) string {
	r := recipients[s.cursor]
	s.cursor = (s.cursor + 1) % len(recipients)
	return r
}

// walletTurn is the per-wallet state of a session
type walletTurn struct {
	*utils.Wallet
	nonce uint64
	sent  int
}

// Dispatch runs a full session. Per-transfer failures never surface as an
// error; only context cancellation does.
func (d *Dispatcher) Dispatch(ctx context.Context, cfg SendConfig) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if len(d.recipients) == 0 {
		return Result{}, errors.New("no recipient addresses loaded")
	}
	amount, _ := cfg.AmountUnits()

	s := &session{
		cfg:    cfg,
		amount: amount,
		target: cfg.NumTransactions * len(d.keys),
		logger: d.logger.New("session", uuid.NewString()[:8]),
		result: Result{PerWallet: make([]int, len(d.keys))},
	}

	s.logger.Info("📋 Dispatch starting",
		"addresses", len(d.recipients),
		"wallets", len(d.keys),
		"perWallet", cfg.NumTransactions,
		"asset", cfg.AssetLabel())

	for i, key := range d.keys {
		done, err := d.runWallet(ctx, s, i, key)
		if err != nil {
			return s.result, err
		}
		if done {
			s.result.Completed = true
			s.logger.Info("✅ All wallets have completed their transactions",
				"succeeded", s.result.Succeeded, "failed", s.result.Failed)
			return s.result, nil
		}
	}

	s.logger.Info("✅ All transactions completed",
		"succeeded", s.result.Succeeded, "failed", s.result.Failed, "skipped", s.result.Skipped)
	return s.result, nil
}

// runWallet sends cfg.NumTransactions transfers from one wallet. It reports
// true once the global target is reached.
func (d *Dispatcher) runWallet(ctx context.Context, s *session, idx int, key string) (bool, error) {
	w, err := utils.NewWallet(idx+1, key)
	if err != nil {
		s.logger.Error("❌ Invalid private key, skipping wallet", "wallet", idx+1, "err", err)
		return false, nil
	}
	logger := s.logger.New("wallet", w.Index, "from", w.Masked())
	logger.Info("🔑 Using wallet")

	nonce, err := d.fetchNonce(ctx, w.Address)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		logger.Error("❌ Failed to query nonce, skipping wallet", "err", err)
		return false, nil
	}
	turn := &walletTurn{Wallet: w, nonce: nonce}

	for turn.sent < s.cfg.NumTransactions {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		recipient := s.next(d.recipients)
		if err := utils.ValidateAddress(recipient); err != nil {
			logger.Error("❌ Invalid recipient address", "err", err)
			d.skip(s, logger)
			continue
		}
		to := ethcmn.HexToAddress(recipient)
		masked := utils.MaskAddress(to.Hex())
		if utils.SameAddress(recipient, w.Address.Hex()) {
			logger.Warn("⚠️ Recipient is the sender address, skipping", "to", masked)
			d.skip(s, logger)
			continue
		}
		s.idle = 0

		hash, ok, err := d.transfer(ctx, s, turn, to, logger.New("to", masked))
		if err != nil {
			return false, err
		}
		if !ok {
			s.result.Failed++
			continue
		}

		s.result.Succeeded++
		s.result.PerWallet[idx]++
		turn.sent++
		if d.Recorder != nil {
			d.Recorder.Record(hash)
		}

		if s.result.Succeeded >= s.target {
			return true, nil
		}
		if d.Pacer != nil {
			if err := d.Pacer.Wait(ctx, s.cfg.DelaySeconds); err != nil {
				return false, err
			}
		}
	}

	logger.Info("✅ Wallet completed", "sent", turn.sent)
	return false, nil
}

// skip records an iteration that produced no send. A full rotation without an
// eligible recipient means the wallet cannot make progress; it is reported
// but the loop keeps going until cancelled.
func (d *Dispatcher) skip(s *session, logger log.Logger) {
	s.result.Skipped++
	s.idle++
	if s.idle%len(d.recipients) == 0 {
		logger.Warn("⚠️ No eligible recipient in a full rotation of the address list", "rotations", s.idle/len(d.recipients))
	}
}

// transfer submits one logical transfer with up to MaxAttempts attempts. The
// local nonce moves forward after every attempt, successful or not.
func (d *Dispatcher) transfer(ctx context.Context, s *session, turn *walletTurn, to ethcmn.Address, logger log.Logger) (ethcmn.Hash, bool, error) {
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		hash, err := d.attempt(ctx, s, turn, to, attempt)
		turn.nonce++
		if err == nil {
			if s.cfg.UseNative {
				logger.Info("✅ Transaction successfully sent", "hash", hash)
			} else {
				logger.Info("✅ Token transaction successfully sent", "hash", hash)
			}
			return hash, true, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ethcmn.Hash{}, false, ctxErr
		}
		logger.Error("❌ Failed to send", "attempt", attempt, "err", err)
		warnKnownFailure(logger, err)
	}
	logger.Error("❌ Permanently failed to send", "attempts", MaxAttempts)
	return ethcmn.Hash{}, false, nil
}

func (d *Dispatcher) attempt(ctx context.Context, s *session, turn *walletTurn, to ethcmn.Address, attempt int) (ethcmn.Hash, error) {
	base, err := d.client.GasPrice(ctx)
	if err != nil {
		return ethcmn.Hash{}, err
	}
	gasPrice := utils.AdjustGasPrice(base, attempt)

	if s.cfg.UseNative {
		return d.client.SendNative(ctx, turn.Key, to, s.amount, turn.nonce, gasPrice)
	}
	return d.client.SendToken(ctx, turn.Key, d.token, to, s.amount, turn.nonce, gasPrice)
}

func (d *Dispatcher) fetchNonce(ctx context.Context, addr ethcmn.Address) (uint64, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.NonceBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(b, d.NonceRetries), ctx)

	var nonce uint64
	err := backoff.Retry(func() error {
		n, err := d.client.QueryNonce(ctx, addr)
		if err != nil {
			return err
		}
		nonce = n
		return nil
	}, policy)
	return nonce, err
}

func warnKnownFailure(logger log.Logger, err error) {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "replacement transaction underpriced"):
		logger.Warn("⚠️ Replacement transaction has too low a fee, increasing gas price")
	case strings.Contains(msg, "nonce too low"):
		logger.Warn("⚠️ Nonce too low, moving to the next nonce")
	case strings.Contains(msg, "insufficient funds"):
		logger.Warn("⚠️ Insufficient funds for amount plus gas")
	}
}
