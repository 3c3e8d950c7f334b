package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	sdklog "github.com/MRAlirad/fundme-go/pkg/log"
)

// Option is a function that modifies Config
type Option func(*Config)

// WithChainID sets the chain ID
func WithChainID(chainID int64) Option {
	return func(c *Config) {
		c.ChainID = chainID
	}
}

// WithRPCEndpoint sets the JSON-RPC endpoint
func WithRPCEndpoint(endpoint string) Option {
	return func(c *Config) {
		c.RPCEndpoint = endpoint
	}
}

// WithWSEndpoint sets the endpoint used for new-head subscriptions
func WithWSEndpoint(endpoint string) Option {
	return func(c *Config) {
		c.WSEndpoint = endpoint
	}
}

// WithContractAddress sets the FundMe contract address
func WithContractAddress(addr string) Option {
	return func(c *Config) {
		c.ContractAddress = addr
	}
}

// WithGasLimit fixes the gas limit instead of estimating it
func WithGasLimit(limit uint64) Option {
	return func(c *Config) {
		c.GasLimit = limit
	}
}

// WithBlockchainTimeout sets the blockchain timeout
func WithBlockchainTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.BlockchainTimeout = timeout
	}
}

// WithWaitTx replaces the wait-tx settings
func WithWaitTx(cfg WaitTxConfig) Option {
	return func(c *Config) {
		c.WaitTx = cfg
	}
}

// WithoutWait returns from state-changing calls once the tx is submitted
func WithoutWait() Option {
	return func(c *Config) {
		c.WaitTx.Disabled = true
	}
}

// WithLogger sets the logger
func WithLogger(logger sdklog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics registers wait-tx metrics on reg
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Config) {
		c.Metrics = reg
	}
}
