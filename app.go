package main

import (
	"context"
	"os"

	ethcmn "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/okx/xlayer-toolkit/tools/multisend/config"
	"github.com/okx/xlayer-toolkit/tools/multisend/menu"
	"github.com/okx/xlayer-toolkit/tools/multisend/sender"
	"github.com/okx/xlayer-toolkit/tools/multisend/utils"
)

// app wires the loaded inputs to the balance reporter and the dispatcher
type app struct {
	logger    log.Logger
	client    *utils.EthClient
	token     ethcmn.Address
	keys      []string
	addresses []string
	journal   *utils.TxHashWriter
}

var _ menu.Actions = (*app)(nil)

func newLogger() log.Logger {
	useColor := term.IsTerminal(int(os.Stdout.Fd()))
	handler := log.NewTerminalHandlerWithLevel(os.Stdout, log.FromLegacyLevel(config.GetInt(config.LogLevelKey)), useColor)
	logger := log.NewLogger(handler)
	log.SetDefault(logger)
	return logger
}

// newApp loads and validates both input files before dialing the RPC
// endpoint, so malformed input never reaches the network.
func newApp(ctx context.Context) (*app, error) {
	logger := newLogger()

	keys, addresses, err := utils.LoadAccounts(
		config.GetString(config.PrivateKeysFileKey),
		config.GetString(config.AddressesFileKey),
	)
	if err != nil {
		return nil, err
	}

	client, err := utils.NewEthClient(ctx, utils.ClientConfig{
		URL:       config.GetString(config.RPCURLKey),
		RateLimit: config.GetFloat(config.RPCRateLimitKey),
		Timeout:   config.GetDuration(config.RPCTimeoutKey),
	})
	if err != nil {
		return nil, err
	}

	a := &app{
		logger:    logger,
		client:    client,
		token:     config.GetTokenContract(),
		keys:      keys,
		addresses: addresses,
	}

	if config.GetBool(config.SaveTxHashesKey) {
		a.journal, err = utils.NewTxHashWriter(config.GetString(config.TxHashesFileKey))
		if err != nil {
			client.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) header() menu.Header {
	return menu.Header{
		Wallets:       len(a.keys),
		Addresses:     len(a.addresses),
		TokenContract: a.token.Hex(),
	}
}

// CheckBalances prints every wallet's balances
func (a *app) CheckBalances(ctx context.Context) error {
	sender.NewReporter(a.client, a.token, a.keys, a.logger).Report(ctx)
	return nil
}

// Send runs one dispatch session with cfg
func (a *app) Send(ctx context.Context, cfg sender.SendConfig) error {
	d := sender.NewDispatcher(a.client, a.token, a.keys, a.addresses, a.logger)
	d.NonceRetries = uint64(config.GetInt(config.NonceFetchRetriesKey))
	if a.journal != nil {
		d.Recorder = a.journal
	}

	res, err := d.Dispatch(ctx, cfg)
	color.New(color.FgGreen).Printf("✅ Total successful transactions: %d\n", res.Succeeded)
	color.New(color.FgRed).Printf("❌ Total failed transactions: %d\n", res.Failed)
	return err
}

func (a *app) Close() {
	if err := a.journal.Close(); err != nil {
		a.logger.Warn("⚠️  Failed to close tx hash file", "err", err)
	}
	a.client.Close()
}
