package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	sdkcrypto "github.com/MRAlirad/fundme-go/pkg/crypto"
	"github.com/MRAlirad/fundme-go/types"
)

// Config for blockchain client
type Config struct {
	RPCEndpoint     string
	ChainID         int64 // 0 => use whatever chain the node reports
	ContractAddress string
	GasLimit        uint64 // 0 => estimate
	Timeout         time.Duration
	// PollInterval is the cadence of WaitForTxInclusion. Default: 1s.
	PollInterval time.Duration
}

// Backend is the subset of *ethclient.Client the SDK relies on.
type Backend interface {
	bind.ContractBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	Close()
}

// Client provides access to blockchain operations
type Client struct {
	// Module-specific clients
	FundMe *FundMeClient

	// Internal
	backend Backend
	signer  sdkcrypto.Signer
	config  Config

	chainMu sync.Mutex
	chainID *big.Int // resolved on first use
}

// New dials the RPC endpoint and creates a blockchain client. signer may be
// nil for read-only use.
func New(ctx context.Context, cfg Config, signer sdkcrypto.Signer) (*Client, error) {
	dialCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	ec, err := ethclient.DialContext(dialCtx, cfg.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.RPCEndpoint, err)
	}

	c, err := NewWithBackend(dialCtx, cfg, ec, signer)
	if err != nil {
		ec.Close()
		return nil, err
	}
	return c, nil
}

// NewWithBackend creates a client over an existing backend. The chain ID is
// resolved against the node on first use, so construction does not touch
// the network.
func NewWithBackend(ctx context.Context, cfg Config, backend Backend, signer sdkcrypto.Signer) (*Client, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}

	if cfg.ChainID < 0 {
		return nil, fmt.Errorf("invalid chain id %d", cfg.ChainID)
	}

	c := &Client{
		backend: backend,
		signer:  signer,
		config:  cfg,
	}

	fundMe, err := NewFundMeClient(common.HexToAddress(cfg.ContractAddress), backend, c.transactOpts)
	if err != nil {
		return nil, err
	}
	c.FundMe = fundMe
	return c, nil
}

// Backend exposes the underlying chain backend.
func (c *Client) Backend() Backend { return c.backend }

// ChainID returns the chain the client signs for. The node is asked once;
// a configured chain ID that differs from the node's is an error.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	c.chainMu.Lock()
	defer c.chainMu.Unlock()
	if c.chainID != nil {
		return new(big.Int).Set(c.chainID), nil
	}

	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("query chain id: %w", err)
	}
	if c.config.ChainID != 0 && id.Cmp(big.NewInt(c.config.ChainID)) != 0 {
		return nil, fmt.Errorf("%w: configured chain id %d, node reports %s",
			types.ErrInvalidConfig, c.config.ChainID, id)
	}
	c.chainID = id
	return new(big.Int).Set(id), nil
}

// Close closes the blockchain client connection
func (c *Client) Close() error {
	if c.backend != nil {
		c.backend.Close()
	}
	return nil
}
