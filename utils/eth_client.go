package utils

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum"
	ethcmn "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

var (
	_ Client = (*EthClient)(nil)
)

// Client defines the chain capabilities the balance reporter and the
// dispatch loop depend on
type Client interface {
	NativeBalance(ctx context.Context, addr ethcmn.Address) (*big.Int, error)
	QueryNonce(ctx context.Context, addr ethcmn.Address) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	SendNative(ctx context.Context, key *ecdsa.PrivateKey, to ethcmn.Address, amount *big.Int, nonce uint64, gasPrice *big.Int) (ethcmn.Hash, error)
	SendToken(ctx context.Context, key *ecdsa.PrivateKey, token, to ethcmn.Address, amount *big.Int, nonce uint64, gasPrice *big.Int) (ethcmn.Hash, error)
	TokenBalance(ctx context.Context, token, owner ethcmn.Address) (*big.Int, error)
	TokenName(ctx context.Context, token ethcmn.Address) (string, error)
}

// ClientConfig tunes the JSON-RPC connection
type ClientConfig struct {
	URL string
	// RateLimit caps requests per second, 0 means no limit
	RateLimit float64
	Timeout   time.Duration
}

// EthClient wraps the ethereum client with signing and request pacing
type EthClient struct {
	*ethclient.Client
	rpcClient *rpc.Client
	signer    types.Signer
	limiter   *rate.Limiter
}

func createHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// NewEthClient dials the RPC endpoint and resolves the chain id used for signing
func NewEthClient(ctx context.Context, cfg ClientConfig) (*EthClient, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	rpcClient, err := rpc.DialOptions(ctx, cfg.URL, rpc.WithHTTPClient(createHTTPClient(cfg.Timeout)))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rpc client: %w", err)
	}

	cli := ethclient.NewClient(rpcClient)

	chainId, err := cli.ChainID(ctx)
	if err != nil {
		rpcClient.Close()
		return nil, fmt.Errorf("failed to query chain id from %s: %w", cfg.URL, err)
	}

	limit := rate.Inf
	burst := 0
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = 1
	}

	return &EthClient{
		Client:    cli,
		rpcClient: rpcClient,
		signer:    types.NewLondonSigner(chainId),
		limiter:   rate.NewLimiter(limit, burst),
	}, nil
}

func (e *EthClient) wait(ctx context.Context) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// NativeBalance returns the latest native coin balance of addr
func (e *EthClient) NativeBalance(ctx context.Context, addr ethcmn.Address) (*big.Int, error) {
	if err := e.wait(ctx); err != nil {
		return nil, err
	}
	return e.BalanceAt(ctx, addr, nil)
}

// QueryNonce returns the transaction count of addr at the latest block
func (e *EthClient) QueryNonce(ctx context.Context, addr ethcmn.Address) (uint64, error) {
	if err := e.wait(ctx); err != nil {
		return 0, err
	}
	return e.NonceAt(ctx, addr, nil)
}

// GasPrice returns the node's suggested legacy gas price
func (e *EthClient) GasPrice(ctx context.Context) (*big.Int, error) {
	if err := e.wait(ctx); err != nil {
		return nil, err
	}
	return e.SuggestGasPrice(ctx)
}

// SendNative transfers amount wei of the native coin to to
func (e *EthClient) SendNative(ctx context.Context, key *ecdsa.PrivateKey, to ethcmn.Address, amount *big.Int, nonce uint64, gasPrice *big.Int) (ethcmn.Hash, error) {
	return e.SendEthereumTx(ctx, key, nonce, to, amount, gasPrice, nil)
}

// SendToken calls transfer(to, amount) on the token contract
func (e *EthClient) SendToken(ctx context.Context, key *ecdsa.PrivateKey, token, to ethcmn.Address, amount *big.Int, nonce uint64, gasPrice *big.Int) (ethcmn.Hash, error) {
	data, err := PackTransfer(to, amount)
	if err != nil {
		return ethcmn.Hash{}, err
	}
	return e.SendEthereumTx(ctx, key, nonce, token, nil, gasPrice, data)
}

// SendEthereumTx estimates gas, signs and sends a legacy transaction
func (e *EthClient) SendEthereumTx(ctx context.Context, privatekey *ecdsa.PrivateKey, nonce uint64, to ethcmn.Address, amount *big.Int, gasPrice *big.Int, data []byte) (ethcmn.Hash, error) {
	if amount == nil {
		amount = new(big.Int)
	}

	// 1. Estimate gas
	if err := e.wait(ctx); err != nil {
		return ethcmn.Hash{}, err
	}
	gasLimit, err := e.EstimateGas(ctx, ethereum.CallMsg{
		From:     GetEthAddressFromPK(privatekey),
		To:       &to,
		GasPrice: gasPrice,
		Value:    amount,
		Data:     data,
	})
	if err != nil {
		return ethcmn.Hash{}, fmt.Errorf("failed to estimate gas: %w", err)
	}

	// 2. Create and sign transaction
	unsignedTx := types.NewTransaction(nonce, to, amount, gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(unsignedTx, e.signer, privatekey)
	if err != nil {
		return ethcmn.Hash{}, err
	}

	// 3. Send transaction
	if err := e.wait(ctx); err != nil {
		return ethcmn.Hash{}, err
	}
	if err := e.SendTransaction(ctx, signedTx); err != nil {
		return ethcmn.Hash{}, err
	}

	return signedTx.Hash(), nil
}

// TokenBalance calls balanceOf(owner) on the token contract
func (e *EthClient) TokenBalance(ctx context.Context, token, owner ethcmn.Address) (*big.Int, error) {
	data, err := packBalanceOf(owner)
	if err != nil {
		return nil, err
	}
	out, err := e.call(ctx, token, data)
	if err != nil {
		return nil, err
	}
	return unpackBalance(out)
}

// TokenName calls name() on the token contract
func (e *EthClient) TokenName(ctx context.Context, token ethcmn.Address) (string, error) {
	data, err := packName()
	if err != nil {
		return "", err
	}
	out, err := e.call(ctx, token, data)
	if err != nil {
		return "", err
	}
	return unpackName(out)
}

func (e *EthClient) call(ctx context.Context, contract ethcmn.Address, data []byte) ([]byte, error) {
	if err := e.wait(ctx); err != nil {
		return nil, err
	}
	return e.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
}

// Close releases the underlying RPC connection
func (e *EthClient) Close() {
	e.rpcClient.Close()
}
