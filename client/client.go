package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/MRAlirad/fundme-go/blockchain"
	waittx "github.com/MRAlirad/fundme-go/internal/wait-tx"
	sdkcrypto "github.com/MRAlirad/fundme-go/pkg/crypto"
	sdklog "github.com/MRAlirad/fundme-go/pkg/log"
	"github.com/MRAlirad/fundme-go/pkg/units"
	"github.com/MRAlirad/fundme-go/types"
)

// Client provides unified access to the FundMe contract and the wallet behind it.
type Client struct {
	// High-level modules
	Blockchain *blockchain.Client

	// Configuration
	config   *Config
	signer   sdkcrypto.Signer
	logger   sdklog.Logger
	waiter   *waittx.Waiter
	notifier waittx.NotificationSource
	closers  []func()
}

// New dials the configured endpoints and creates a unified FundMe client.
// signer may be nil; state-changing calls then fail with types.ErrWalletNotFound.
func New(ctx context.Context, cfg Config, signer sdkcrypto.Signer, opts ...Option) (*Client, error) {
	cfg, err := prepare(cfg, opts)
	if err != nil {
		return nil, err
	}

	blockchainClient, err := blockchain.New(ctx, blockchainConfig(cfg), signer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blockchain client: %w", err)
	}

	c := &Client{Blockchain: blockchainClient, config: &cfg, signer: signer, logger: cfg.Logger}
	if err := c.initWaiter(ctx); err != nil {
		_ = blockchainClient.Close()
		return nil, err
	}
	return c, nil
}

// NewWithBackend creates a client over an existing chain backend. If the
// backend can stream new heads it is used for confirmations.
func NewWithBackend(ctx context.Context, cfg Config, backend blockchain.Backend, signer sdkcrypto.Signer, opts ...Option) (*Client, error) {
	cfg, err := prepare(cfg, opts)
	if err != nil {
		return nil, err
	}

	blockchainClient, err := blockchain.NewWithBackend(ctx, blockchainConfig(cfg), backend, signer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blockchain client: %w", err)
	}

	c := &Client{Blockchain: blockchainClient, config: &cfg, signer: signer, logger: cfg.Logger}
	var heads waittx.HeadSubscriber
	if hs, ok := backend.(waittx.HeadSubscriber); ok {
		heads = hs
	}
	if err := c.buildWaiter(heads); err != nil {
		_ = blockchainClient.Close()
		return nil, err
	}
	return c, nil
}

func prepare(cfg Config, opts []Option) (Config, error) {
	// Apply options
	for _, opt := range opts {
		opt(&cfg)
	}

	// Validate config
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", types.ErrInvalidConfig, err)
	}
	return cfg, nil
}

func blockchainConfig(cfg Config) blockchain.Config {
	return blockchain.Config{
		RPCEndpoint:     cfg.RPCEndpoint,
		ChainID:         cfg.ChainID,
		ContractAddress: cfg.ContractAddress,
		GasLimit:        cfg.GasLimit,
		Timeout:         cfg.BlockchainTimeout,
		PollInterval:    cfg.WaitTx.PollInterval,
	}
}

// initWaiter opens a head subscription when a streaming endpoint is
// configured. Failing to open one only disables push notifications.
func (c *Client) initWaiter(ctx context.Context) error {
	var heads waittx.HeadSubscriber
	if endpoint := c.config.SubscriptionEndpoint(); endpoint != "" {
		if hs, ok := c.Blockchain.Backend().(waittx.HeadSubscriber); ok && endpoint == c.config.RPCEndpoint {
			heads = hs
		} else {
			dialCtx, cancel := context.WithTimeout(ctx, c.config.BlockchainTimeout)
			ws, err := ethclient.DialContext(dialCtx, endpoint)
			cancel()
			if err != nil {
				sdklog.Warnf(c.logger, "fundme: head subscription unavailable, polling only: %v", err)
			} else {
				heads = ws
				c.closers = append(c.closers, ws.Close)
			}
		}
	}
	return c.buildWaiter(heads)
}

func (c *Client) buildWaiter(heads waittx.HeadSubscriber) error {
	opts := []waittx.Option{waittx.WithLogger(c.logger)}
	if heads != nil {
		notifier := waittx.NewHeadNotifier(heads, c.Blockchain.Backend(), c.config.WaitTx.MinConfirmations, c.logger)
		c.notifier = notifier
		c.closers = append(c.closers, notifier.Close)
		opts = append(opts, waittx.WithNotificationSource(notifier))
	}
	if c.config.Metrics != nil {
		m, err := waittx.NewMetrics(c.config.Metrics)
		if err != nil {
			return fmt.Errorf("wait-tx metrics: %w", err)
		}
		opts = append(opts, waittx.WithMetrics(m))
	}

	w, err := waittx.New(c.config.WaitTx, c.Blockchain.Backend(), opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize tx waiter: %w", err)
	}
	c.waiter = w
	return nil
}

// Connect asks the wallet for its accounts and returns the first one.
func (c *Client) Connect(ctx context.Context) (common.Address, error) {
	accts, err := c.Blockchain.RequestAccounts(ctx)
	if err != nil {
		if !errors.Is(err, types.ErrWalletNotFound) {
			sdklog.Warnf(c.logger, "fundme: connect: %v", err)
		}
		return common.Address{}, err
	}
	sdklog.Infof(c.logger, "fundme: connected %s", accts[0].Hex())
	return accts[0], nil
}

// Balance returns the ether held by the FundMe contract.
func (c *Client) Balance(ctx context.Context) (types.BalanceResult, error) {
	return c.BalanceOf(ctx, c.Blockchain.FundMe.Address())
}

// BalanceOf returns the ether held by addr.
func (c *Client) BalanceOf(ctx context.Context, addr common.Address) (types.BalanceResult, error) {
	wei, err := c.Blockchain.Balance(ctx, addr)
	if err != nil {
		sdklog.Warnf(c.logger, "fundme: %v", err)
		return types.BalanceResult{}, err
	}
	return types.BalanceResult{Address: addr, Wei: wei, Ether: units.FormatEther(wei)}, nil
}

// Fund sends amountEther (a decimal string such as "0.1") to the contract
// and, unless waiting is disabled, blocks until it is confirmed.
func (c *Client) Fund(ctx context.Context, amountEther string) (*types.TxResult, error) {
	wei, err := units.ParseEther(amountEther)
	if err != nil {
		return nil, err
	}
	sdklog.Infof(c.logger, "fundme: funding with %s ETH", amountEther)

	tx, err := c.Blockchain.FundMe.Fund(ctx, wei)
	if err != nil {
		return nil, c.callFailed(err)
	}
	return c.await(ctx, tx)
}

// Withdraw drains the contract to its owner.
func (c *Client) Withdraw(ctx context.Context) (*types.TxResult, error) {
	sdklog.Infof(c.logger, "fundme: withdrawing")

	tx, err := c.Blockchain.FundMe.Withdraw(ctx)
	if err != nil {
		return nil, c.callFailed(err)
	}
	return c.await(ctx, tx)
}

// WaitTx blocks until hash is confirmed per the WaitTx settings.
func (c *Client) WaitTx(ctx context.Context, hash common.Hash) (*types.TxResult, error) {
	res := &types.TxResult{TxHash: hash}
	rc, err := c.waiter.Wait(ctx, hash)
	if err != nil {
		return res, fmt.Errorf("wait for %s: %w", hash.Hex(), err)
	}
	res.Mined = true
	res.BlockNumber = rc.BlockNumber
	res.Confirmations = rc.Confirmations
	res.GasUsed = rc.GasUsed
	res.Status = rc.Status
	if !rc.Succeeded() {
		return res, fmt.Errorf("%w: %s reverted in block %d", types.ErrTxFailed, hash.Hex(), rc.BlockNumber)
	}
	return res, nil
}

// ActionHandle identifies a submitted transaction for Listen.
type ActionHandle = waittx.ActionHandle

// Listen blocks until the handle's transaction is confirmed by the head
// subscription. It needs a websocket or IPC endpoint.
func (c *Client) Listen(ctx context.Context, handle ActionHandle) error {
	if c.notifier == nil {
		return errors.New("listen requires a websocket or ipc endpoint")
	}
	return waittx.Listen(ctx, handle, c.notifier, c.logger)
}

func (c *Client) await(ctx context.Context, tx *ethtypes.Transaction) (*types.TxResult, error) {
	if c.config.WaitTx.Disabled {
		return &types.TxResult{TxHash: tx.Hash(), Value: tx.Value()}, nil
	}
	res, err := c.WaitTx(ctx, tx.Hash())
	res.Value = tx.Value()
	if err != nil {
		sdklog.Warnf(c.logger, "fundme: %v", err)
	}
	return res, err
}

func (c *Client) callFailed(err error) error {
	if !errors.Is(err, types.ErrWalletNotFound) {
		sdklog.Warnf(c.logger, "fundme: %v", err)
	}
	return err
}

// Signer returns the configured signer, or nil.
func (c *Client) Signer() sdkcrypto.Signer {
	return c.signer
}

// Close releases all resources
func (c *Client) Close() error {
	var errs []error

	if c.waiter != nil {
		c.waiter.Close()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil

	if c.Blockchain != nil {
		if err := c.Blockchain.Close(); err != nil {
			errs = append(errs, fmt.Errorf("blockchain close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}

	return nil
}

// Config returns the client configuration
func (c *Client) Config() Config {
	return *c.config
}
