package sender

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	ethcmn "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/okx/xlayer-toolkit/tools/multisend/utils"
)

var errSend = errors.New("send failed")

// sendCall records one submission attempt seen by fakeClient
type sendCall struct {
	From     ethcmn.Address
	To       ethcmn.Address
	Token    ethcmn.Address
	Native   bool
	Amount   *big.Int
	Nonce    uint64
	GasPrice *big.Int
}

// fakeClient is an in-memory utils.Client
type fakeClient struct {
	mu sync.Mutex

	nonces     map[ethcmn.Address]uint64
	nonceErr   error
	nonceCalls []ethcmn.Address

	baseGasPrice *big.Int
	gasPriceErr  error

	// sendErr decides the outcome of the n-th (0-based) submission
	sendErr func(call sendCall, n int) error
	calls   []sendCall

	native     map[ethcmn.Address]*big.Int
	tokens     map[ethcmn.Address]*big.Int
	balanceErr map[ethcmn.Address]error
	tokenName  string
	nameErr    error
}

var _ utils.Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{
		nonces:       map[ethcmn.Address]uint64{},
		baseGasPrice: big.NewInt(1_000_000_000),
		native:       map[ethcmn.Address]*big.Int{},
		tokens:       map[ethcmn.Address]*big.Int{},
		balanceErr:   map[ethcmn.Address]error{},
	}
}

func (f *fakeClient) NativeBalance(_ context.Context, addr ethcmn.Address) (*big.Int, error) {
	if err := f.balanceErr[addr]; err != nil {
		return nil, err
	}
	if b, ok := f.native[addr]; ok {
		return b, nil
	}
	return new(big.Int), nil
}

func (f *fakeClient) QueryNonce(_ context.Context, addr ethcmn.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonceCalls = append(f.nonceCalls, addr)
	if f.nonceErr != nil {
		return 0, f.nonceErr
	}
	return f.nonces[addr], nil
}

func (f *fakeClient) GasPrice(context.Context) (*big.Int, error) {
	if f.gasPriceErr != nil {
		return nil, f.gasPriceErr
	}
	return new(big.Int).Set(f.baseGasPrice), nil
}

func (f *fakeClient) record(call sendCall) (ethcmn.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.calls)
	f.calls = append(f.calls, call)
	if f.sendErr != nil {
		if err := f.sendErr(call, n); err != nil {
			return ethcmn.Hash{}, err
		}
	}
	return ethcmn.BigToHash(big.NewInt(int64(n + 1))), nil
}

func (f *fakeClient) SendNative(_ context.Context, key *ecdsa.PrivateKey, to ethcmn.Address, amount *big.Int, nonce uint64, gasPrice *big.Int) (ethcmn.Hash, error) {
	return f.record(sendCall{
		From:     crypto.PubkeyToAddress(key.PublicKey),
		To:       to,
		Native:   true,
		Amount:   amount,
		Nonce:    nonce,
		GasPrice: gasPrice,
	})
}

func (f *fakeClient) SendToken(_ context.Context, key *ecdsa.PrivateKey, token, to ethcmn.Address, amount *big.Int, nonce uint64, gasPrice *big.Int) (ethcmn.Hash, error) {
	return f.record(sendCall{
		From:     crypto.PubkeyToAddress(key.PublicKey),
		To:       to,
		Token:    token,
		Amount:   amount,
		Nonce:    nonce,
		GasPrice: gasPrice,
	})
}

func (f *fakeClient) TokenBalance(_ context.Context, _ ethcmn.Address, owner ethcmn.Address) (*big.Int, error) {
	if b, ok := f.tokens[owner]; ok {
		return b, nil
	}
	return new(big.Int), nil
}

func (f *fakeClient) TokenName(context.Context, ethcmn.Address) (string, error) {
	if f.nameErr != nil {
		return "", f.nameErr
	}
	return f.tokenName, nil
}

// testKey returns a deterministic 0x-prefixed secret and its address
func testKey(t *testing.T, n int) (string, ethcmn.Address) {
	t.Helper()
	hexKey := fmt.Sprintf("0x%064x", n)
	w, err := utils.NewWallet(n, hexKey)
	require.NoError(t, err)
	return hexKey, w.Address
}

func testAddress(n int) string {
	return ethcmn.BigToAddress(big.NewInt(int64(0x1000 + n))).Hex()
}

// recordingPacer captures every requested delay without sleeping
type recordingPacer struct {
	waits []int
}

func (p *recordingPacer) Wait(_ context.Context, seconds int) error {
	p.waits = append(p.waits, seconds)
	return nil
}

type hashRecorder struct {
	hashes []ethcmn.Hash
}

func (r *hashRecorder) Record(hash ethcmn.Hash) {
	r.hashes = append(r.hashes, hash)
}

func discardLogger() log.Logger {
	return log.NewLogger(log.DiscardHandler())
}
