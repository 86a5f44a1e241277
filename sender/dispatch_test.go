package sender

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	ethcmn "github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(cli *fakeClient, keys, recipients []string) (*Dispatcher, *recordingPacer) {
	d := NewDispatcher(cli, ethcmn.HexToAddress("0xaC6719bcF3E276410D3aE0F6860B90f4bE6cbb53"), keys, recipients, discardLogger())
	pacer := &recordingPacer{}
	d.Pacer = pacer
	d.NonceRetries = 0
	d.NonceBackoff = time.Millisecond
	return d, pacer
}

func nativeConfig(n int) SendConfig {
	return SendConfig{
		UseNative:       true,
		NumTransactions: n,
		DelaySeconds:    5,
		Amount:          decimal.RequireFromString("0.5"),
	}
}

func TestDispatchRetriesWithEscalatingFeeAndNonce(t *testing.T) {
	key, from := testKey(t, 1)
	to := testAddress(1)

	cli := newFakeClient()
	cli.nonces[from] = 7
	cli.sendErr = func(_ sendCall, n int) error {
		if n < 2 {
			return errSend
		}
		return nil
	}

	d, _ := newTestDispatcher(cli, []string{key}, []string{to})
	res, err := d.Dispatch(context.Background(), nativeConfig(1))
	require.NoError(t, err)

	require.Len(t, cli.calls, 3)
	wantPrices := []int64{1_100_000_000, 1_320_000_000, 1_584_000_000}
	for i, call := range cli.calls {
		require.Equal(t, uint64(7+i), call.Nonce, "attempt %d", i+1)
		require.Equal(t, big.NewInt(wantPrices[i]), call.GasPrice, "attempt %d", i+1)
		require.Equal(t, ethcmn.HexToAddress(to), call.To)
		require.True(t, call.Native)
	}
	require.Equal(t, 1, res.Succeeded)
	require.Equal(t, 0, res.Failed)
	require.True(t, res.Completed)
}

func TestDispatchPermanentFailureMovesToNextRecipient(t *testing.T) {
	key, from := testKey(t, 1)
	bad, good := testAddress(1), testAddress(2)

	cli := newFakeClient()
	cli.nonces[from] = 0
	cli.sendErr = func(call sendCall, _ int) error {
		if call.To == ethcmn.HexToAddress(bad) {
			return errors.New("insufficient funds for gas * price + value")
		}
		return nil
	}

	d, pacer := newTestDispatcher(cli, []string{key}, []string{bad, good})
	res, err := d.Dispatch(context.Background(), nativeConfig(1))
	require.NoError(t, err)

	require.Len(t, cli.calls, 4)
	for i := 0; i < 3; i++ {
		require.Equal(t, ethcmn.HexToAddress(bad), cli.calls[i].To)
		require.Equal(t, uint64(i), cli.calls[i].Nonce)
	}
	// the nonce has moved past all three failed attempts
	require.Equal(t, ethcmn.HexToAddress(good), cli.calls[3].To)
	require.Equal(t, uint64(3), cli.calls[3].Nonce)

	require.Equal(t, 1, res.Failed)
	require.Equal(t, 1, res.Succeeded)
	// no delay after a permanent failure, none after the final success
	require.Empty(t, pacer.waits)
}

func TestDispatchSkipsSelfAndInvalidRecipients(t *testing.T) {
	key, from := testKey(t, 1)
	other := testAddress(1)

	cli := newFakeClient()
	d, _ := newTestDispatcher(cli, []string{key}, []string{from.Hex(), "0xnot-an-address", other})

	res, err := d.Dispatch(context.Background(), nativeConfig(1))
	require.NoError(t, err)

	require.Len(t, cli.calls, 1)
	require.Equal(t, ethcmn.HexToAddress(other), cli.calls[0].To)
	require.Equal(t, uint64(0), cli.calls[0].Nonce)
	require.Equal(t, 2, res.Skipped)
	require.Equal(t, 1, res.Succeeded)
}

func TestDispatchSelfSendIsCaseInsensitive(t *testing.T) {
	key, from := testKey(t, 1)
	other := testAddress(1)
	lower := "0x" + ethcmn.Bytes2Hex(from.Bytes())

	cli := newFakeClient()
	d, _ := newTestDispatcher(cli, []string{key}, []string{lower, other})

	res, err := d.Dispatch(context.Background(), nativeConfig(1))
	require.NoError(t, err)
	require.Len(t, cli.calls, 1)
	require.Equal(t, ethcmn.HexToAddress(other), cli.calls[0].To)
	require.Equal(t, 1, res.Skipped)
}

func TestDispatchSelfSendAnyPrefix(t *testing.T) {
	key, from := testKey(t, 1)
	digits := strings.TrimPrefix(from.Hex(), "0x")

	cli := newFakeClient()
	d, _ := newTestDispatcher(cli, []string{key}, []string{digits, "0X" + strings.ToLower(digits)})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := d.Dispatch(ctx, nativeConfig(2))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Empty(t, cli.calls)
}

func TestDispatchCursorIsGlobalAndWraps(t *testing.T) {
	key1, _ := testKey(t, 1)
	key2, _ := testKey(t, 2)
	recipients := []string{testAddress(1), testAddress(2), testAddress(3), testAddress(4)}

	cli := newFakeClient()
	d, pacer := newTestDispatcher(cli, []string{key1, key2}, recipients)

	res, err := d.Dispatch(context.Background(), nativeConfig(3))
	require.NoError(t, err)

	wantTo := []string{recipients[0], recipients[1], recipients[2], recipients[3], recipients[0], recipients[1]}
	require.Len(t, cli.calls, len(wantTo))
	for i, call := range cli.calls {
		require.Equal(t, ethcmn.HexToAddress(wantTo[i]), call.To, "send %d", i)
	}
	require.Equal(t, 6, res.Succeeded)
	require.Equal(t, []int{3, 3}, res.PerWallet)
	require.True(t, res.Completed)
	// the loop stops the moment the sixth transfer lands
	require.Equal(t, []int{5, 5, 5, 5, 5}, pacer.waits)
}

func TestDispatchNoncePerWallet(t *testing.T) {
	key1, from1 := testKey(t, 1)
	key2, from2 := testKey(t, 2)

	cli := newFakeClient()
	cli.nonces[from1] = 10
	cli.nonces[from2] = 40
	d, _ := newTestDispatcher(cli, []string{key1, key2}, []string{testAddress(1)})

	_, err := d.Dispatch(context.Background(), nativeConfig(2))
	require.NoError(t, err)

	require.Len(t, cli.calls, 4)
	require.Equal(t, []uint64{10, 11, 40, 41},
		[]uint64{cli.calls[0].Nonce, cli.calls[1].Nonce, cli.calls[2].Nonce, cli.calls[3].Nonce})
	require.Equal(t, from1, cli.calls[1].From)
	require.Equal(t, from2, cli.calls[2].From)
	// the nonce is read once per wallet turn
	require.Equal(t, []ethcmn.Address{from1, from2}, cli.nonceCalls)
}

func TestDispatchSkipsInvalidWallet(t *testing.T) {
	key, from := testKey(t, 2)

	cli := newFakeClient()
	d, _ := newTestDispatcher(cli, []string{"0x1234", key}, []string{testAddress(1)})

	res, err := d.Dispatch(context.Background(), nativeConfig(1))
	require.NoError(t, err)

	require.Equal(t, []ethcmn.Address{from}, cli.nonceCalls)
	require.Len(t, cli.calls, 1)
	require.Equal(t, []int{0, 1}, res.PerWallet)
	// the target counts every loaded key, so it is never reached
	require.False(t, res.Completed)
}

func TestDispatchSkipsWalletWhenNonceUnavailable(t *testing.T) {
	key, _ := testKey(t, 1)

	cli := newFakeClient()
	cli.nonceErr = errors.New("rpc unavailable")
	d, _ := newTestDispatcher(cli, []string{key}, []string{testAddress(1)})
	d.NonceRetries = 2

	res, err := d.Dispatch(context.Background(), nativeConfig(1))
	require.NoError(t, err)
	require.Len(t, cli.nonceCalls, 3)
	require.Empty(t, cli.calls)
	require.Equal(t, 0, res.Succeeded)
}

func TestDispatchGasPriceErrorConsumesAttempt(t *testing.T) {
	key, _ := testKey(t, 1)

	cli := newFakeClient()
	cli.gasPriceErr = errors.New("fee data unavailable")
	d, _ := newTestDispatcher(cli, []string{key}, []string{testAddress(1)})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res, err := d.Dispatch(ctx, nativeConfig(1))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Empty(t, cli.calls)
	require.Greater(t, res.Failed, 0)
}

func TestDispatchTokenTransfer(t *testing.T) {
	key, _ := testKey(t, 1)
	to := testAddress(1)

	cli := newFakeClient()
	d, _ := newTestDispatcher(cli, []string{key}, []string{to})
	rec := &hashRecorder{}
	d.Recorder = rec

	cfg := nativeConfig(1)
	cfg.UseNative = false
	cfg.Amount = decimal.RequireFromString("2.25")

	_, err := d.Dispatch(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, cli.calls, 1)
	call := cli.calls[0]
	require.False(t, call.Native)
	require.Equal(t, ethcmn.HexToAddress("0xaC6719bcF3E276410D3aE0F6860B90f4bE6cbb53"), call.Token)
	require.Equal(t, ethcmn.HexToAddress(to), call.To)
	want, _ := new(big.Int).SetString("2250000000000000000", 10)
	require.Equal(t, want, call.Amount)
	require.Len(t, rec.hashes, 1)
}

func TestDispatchSelfOnlyRecipientNeverTerminates(t *testing.T) {
	key, from := testKey(t, 1)

	cli := newFakeClient()
	d, _ := newTestDispatcher(cli, []string{key}, []string{from.Hex()})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, err := d.Dispatch(ctx, nativeConfig(1))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Empty(t, cli.calls)
	require.Equal(t, 0, res.Succeeded)
	require.Greater(t, res.Skipped, 1)
}

func TestDispatchRejectsInvalidConfig(t *testing.T) {
	key, _ := testKey(t, 1)
	cli := newFakeClient()
	d, _ := newTestDispatcher(cli, []string{key}, []string{testAddress(1)})

	cfg := nativeConfig(0)
	_, err := d.Dispatch(context.Background(), cfg)
	require.ErrorIs(t, err, ErrInvalidCount)
	require.Empty(t, cli.nonceCalls)
}
