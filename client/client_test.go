package client

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MRAlirad/fundme-go/blockchain"
	"github.com/MRAlirad/fundme-go/constants"
	"github.com/MRAlirad/fundme-go/internal/testutil"
	waittx "github.com/MRAlirad/fundme-go/internal/wait-tx"
	sdkcrypto "github.com/MRAlirad/fundme-go/pkg/crypto"
	sdklog "github.com/MRAlirad/fundme-go/pkg/log"
	"github.com/MRAlirad/fundme-go/types"
)

const devKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var devAddr = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

func newBackend() *testutil.Backend {
	b := testutil.NewBackend(constants.DefaultChainID)
	b.Deploy(common.HexToAddress(constants.DefaultContractAddress))
	b.AutoMine = true
	return b
}

func devSigner(t *testing.T) sdkcrypto.Signer {
	t.Helper()
	s, err := sdkcrypto.NewPrivateKeySigner(devKey)
	require.NoError(t, err)
	return s
}

func newTestClient(t *testing.T, backend blockchain.Backend, signer sdkcrypto.Signer, opts ...Option) *Client {
	t.Helper()
	c, err := NewWithBackend(context.Background(), DefaultConfig(), backend, signer, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RPCEndpoint = ""
	_, err := NewWithBackend(context.Background(), cfg, newBackend(), nil)
	require.ErrorIs(t, err, types.ErrInvalidConfig)

	_, err = New(context.Background(), DefaultConfig(), nil, WithContractAddress("nope"))
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestNewDialsLazily(t *testing.T) {
	c, err := New(context.Background(), DefaultConfig(), nil, WithRPCEndpoint("http://127.0.0.1:1"))
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:1", c.Config().RPCEndpoint)
	require.NoError(t, c.Close())
}

func TestConnect(t *testing.T) {
	_, err := newTestClient(t, newBackend(), nil).Connect(context.Background())
	require.ErrorIs(t, err, types.ErrWalletNotFound)

	core, logs := observer.New(zap.InfoLevel)
	c := newTestClient(t, newBackend(), devSigner(t), WithLogger(sdklog.NewZap(zap.New(core))))
	addr, err := c.Connect(context.Background())
	require.NoError(t, err)
	require.Equal(t, devAddr, addr)
	require.Equal(t, 1, logs.FilterMessageSnippet("connected "+devAddr.Hex()).Len())
}

func TestFundWaitsForConfirmation(t *testing.T) {
	backend := newBackend()
	reg := prometheus.NewRegistry()
	c := newTestClient(t, backend, devSigner(t), WithMetrics(reg))

	res, err := c.Fund(context.Background(), "0.1")
	require.NoError(t, err)
	require.True(t, res.Mined)
	require.True(t, res.Succeeded())
	require.Equal(t, uint64(1), res.Confirmations)
	require.Equal(t, "100000000000000000", res.Value.String())

	bal, err := c.Balance(context.Background())
	require.NoError(t, err)
	require.Equal(t, "0.1", bal.Ether)

	n, err := promtestutil.GatherAndCount(reg, "fundme_waittx_total")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestFundSignsForNodeChain(t *testing.T) {
	backend := testutil.NewBackend(11155111)
	backend.Deploy(common.HexToAddress(constants.DefaultContractAddress))
	backend.AutoMine = true
	c := newTestClient(t, backend, devSigner(t))

	_, err := c.Fund(context.Background(), "0.1")
	require.NoError(t, err)
	require.Len(t, backend.Sent(), 1)
	require.Equal(t, int64(11155111), backend.Sent()[0].ChainId().Int64())
}

func TestFundRejectsChainMismatch(t *testing.T) {
	backend := testutil.NewBackend(11155111)
	backend.Deploy(common.HexToAddress(constants.DefaultContractAddress))
	c := newTestClient(t, backend, devSigner(t), WithChainID(constants.DefaultChainID))

	_, err := c.Fund(context.Background(), "0.1")
	require.ErrorIs(t, err, types.ErrInvalidConfig)
	require.Empty(t, backend.Sent())
}

func TestFundRejectsBadAmount(t *testing.T) {
	backend := newBackend()
	c := newTestClient(t, backend, devSigner(t))

	for _, amt := range []string{"", "abc", "-1", "0"} {
		_, err := c.Fund(context.Background(), amt)
		require.ErrorIs(t, err, types.ErrInvalidAmount, amt)
	}
	require.Empty(t, backend.Sent())
}

func TestFundWithoutWallet(t *testing.T) {
	c := newTestClient(t, newBackend(), nil)
	_, err := c.Fund(context.Background(), "1")
	require.ErrorIs(t, err, types.ErrWalletNotFound)
}

func TestFundReverted(t *testing.T) {
	backend := newBackend()
	backend.Reverts = true
	c := newTestClient(t, backend, devSigner(t))

	res, err := c.Fund(context.Background(), "0.01")
	require.ErrorIs(t, err, types.ErrTxFailed)
	require.True(t, res.Mined)
	require.False(t, res.Succeeded())
}

func TestWithdrawWithoutWait(t *testing.T) {
	backend := newBackend()
	backend.AutoMine = false
	c := newTestClient(t, backend, devSigner(t), WithoutWait())

	res, err := c.Withdraw(context.Background())
	require.NoError(t, err)
	require.False(t, res.Mined)
	require.Len(t, backend.Sent(), 1)
	require.Equal(t, backend.Sent()[0].Hash(), res.TxHash)
}

func TestWaitTxTimeout(t *testing.T) {
	wait := DefaultWaitTxConfig()
	wait.Timeout = 20 * time.Millisecond
	wait.PollInterval = 5 * time.Millisecond
	c := newTestClient(t, newBackend(), nil, WithWaitTx(wait))

	_, err := c.WaitTx(context.Background(), common.HexToHash("0xabc"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestListenRequiresStreamingBackend(t *testing.T) {
	c := newTestClient(t, newBackend(), nil)
	err := c.Listen(context.Background(), waittx.ActionHandle{Hash: common.HexToHash("0xabc")})
	require.Error(t, err)
}

func TestListenOverHeadSubscription(t *testing.T) {
	backend := &streamingBackend{Backend: newBackend()}
	c := newTestClient(t, backend, nil)

	hash := common.HexToHash("0xabc")
	backend.Mine(hash, ethtypes.ReceiptStatusSuccessful)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Listen(ctx, waittx.ActionHandle{Hash: hash}))

	res, err := c.WaitTx(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, uint64(1), res.Confirmations)
	require.Equal(t, 1, backend.subscribes())
}

func TestLoadSigner(t *testing.T) {
	_, err := LoadSigner(WalletConfig{})
	require.ErrorIs(t, err, types.ErrWalletNotFound)

	s, err := LoadSigner(WalletConfig{PrivateKey: devKey})
	require.NoError(t, err)
	require.Equal(t, devAddr, s.Address())

	path := filepath.Join(t.TempDir(), "mnemonic.txt")
	require.NoError(t, os.WriteFile(path, []byte("test test test test test test test test test test test junk"), 0o600))
	s, err = LoadSigner(WalletConfig{MnemonicFile: path})
	require.NoError(t, err)
	require.Equal(t, devAddr, s.Address())

	_, err = LoadSigner(WalletConfig{KeystoreDir: t.TempDir()})
	require.Error(t, err)
}

func TestFactory(t *testing.T) {
	_, err := NewFactory(Config{})
	require.Error(t, err)

	f, err := NewFactory(DefaultConfig(), WithRPCEndpoint("http://127.0.0.1:1"))
	require.NoError(t, err)

	_, err = f.WithSigner(context.Background(), nil)
	require.Error(t, err)

	c, err := f.WithSigner(context.Background(), devSigner(t), WithGasLimit(100000))
	require.NoError(t, err)
	defer c.Close() //nolint:errcheck
	require.Equal(t, devAddr, c.Signer().Address())
	require.Equal(t, uint64(100000), c.Config().GasLimit)

	_, err = f.WithWallet(context.Background(), WalletConfig{})
	require.ErrorIs(t, err, types.ErrWalletNotFound)
}

// streamingBackend adds new-head subscriptions to the scripted backend.
type streamingBackend struct {
	*testutil.Backend
	mu    sync.Mutex
	count int
}

func (b *streamingBackend) SubscribeNewHead(context.Context, chan<- *ethtypes.Header) (ethereum.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.count++
	return &idleSub{errCh: make(chan error)}, nil
}

func (b *streamingBackend) subscribes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

type idleSub struct {
	errCh chan error
	once  sync.Once
}

func (s *idleSub) Unsubscribe()      { s.once.Do(func() { close(s.errCh) }) }
func (s *idleSub) Err() <-chan error { return s.errCh }
