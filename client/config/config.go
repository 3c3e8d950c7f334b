package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MRAlirad/fundme-go/constants"
	sdklog "github.com/MRAlirad/fundme-go/pkg/log"
)

// Config holds all configuration for the FundMe client.
type Config struct {
	// Chain connection
	ChainID     int64  `yaml:"chainId" env:"CHAIN_ID"` // 0 => ask the node
	RPCEndpoint string `yaml:"rpcEndpoint" env:"RPC_URL"`
	// WSEndpoint is used for new-head subscriptions when RPCEndpoint is plain HTTP.
	WSEndpoint string `yaml:"wsEndpoint" env:"WS_URL"`

	// Contract settings
	ContractAddress string `yaml:"contractAddress" env:"CONTRACT"`
	GasLimit        uint64 `yaml:"gasLimit" env:"GAS_LIMIT"` // 0 => estimate

	// Timeouts
	BlockchainTimeout time.Duration `yaml:"blockchainTimeout" env:"BLOCKCHAIN_TIMEOUT"`

	// Wallet selects the local signer standing in for a browser wallet.
	Wallet WalletConfig `yaml:"wallet" envPrefix:"WALLET_"`

	// WaitTx controls transaction confirmation behaviour.
	WaitTx WaitTxConfig `yaml:"waitTx" envPrefix:"WAIT_"`

	// Logger is optional; when set, SDK operations emit diagnostics.
	Logger sdklog.Logger `yaml:"-"`

	// Metrics, when set, receives the wait-tx collectors.
	Metrics prometheus.Registerer `yaml:"-"`
}

// WalletConfig selects one of the supported signers. Exactly one source is
// used, in order: PrivateKey, MnemonicFile, KeystoreDir.
type WalletConfig struct {
	PrivateKey   string `yaml:"-" env:"PRIVATE_KEY"`
	MnemonicFile string `yaml:"mnemonicFile" env:"MNEMONIC_FILE"`
	AccountIndex uint32 `yaml:"accountIndex" env:"ACCOUNT_INDEX"`
	KeystoreDir  string `yaml:"keystoreDir" env:"KEYSTORE_DIR"`
	Account      string `yaml:"account" env:"ACCOUNT"`
	Passphrase   string `yaml:"-" env:"PASSPHRASE"`
}

// Configured reports whether any signer source is set.
func (w WalletConfig) Configured() bool {
	return w.PrivateKey != "" || w.MnemonicFile != "" || w.KeystoreDir != ""
}

// WaitTxConfig configures how the SDK waits for transaction confirmation.
type WaitTxConfig struct {
	// Disabled returns from state-changing calls as soon as the tx is submitted.
	Disabled bool `yaml:"disabled" env:"DISABLED"`

	// Timeout bounds the whole wait (0 => bounded only by the caller's context).
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`

	// MinConfirmations is the number of blocks (inclusive) a tx must be buried under.
	MinConfirmations uint64 `yaml:"minConfirmations" env:"MIN_CONFIRMATIONS"`

	// SubscriberSetupTimeout defines how long we wait for the head subscription to become ready.
	SubscriberSetupTimeout time.Duration `yaml:"subscriberSetupTimeout" env:"SUBSCRIBER_SETUP_TIMEOUT"`

	// Polling is a fallback mechanism when a head subscription is not available.
	// PollInterval controls how frequently the fallback poller queries the receipt.
	PollInterval time.Duration `yaml:"pollInterval" env:"POLL_INTERVAL"`
	// PollMaxRetries limits the number of poll attempts before failing (0 => unlimited until ctx deadline).
	PollMaxRetries int `yaml:"pollMaxRetries" env:"POLL_MAX_RETRIES"`
	// PollBackoffMultiplier > 1 enables exponential growth for poll intervals.
	PollBackoffMultiplier float64 `yaml:"pollBackoffMultiplier" env:"POLL_BACKOFF_MULTIPLIER"`
	// PollBackoffMaxInterval caps the exponential backoff delay (0 => unlimited).
	PollBackoffMaxInterval time.Duration `yaml:"pollBackoffMaxInterval" env:"POLL_BACKOFF_MAX_INTERVAL"`
	// PollBackoffJitter randomizes delays (0..1) to avoid synced retries.
	PollBackoffJitter float64 `yaml:"pollBackoffJitter" env:"POLL_BACKOFF_JITTER"`
	// PollRateLimit caps receipt queries per second across all waits (0 => unlimited).
	PollRateLimit float64 `yaml:"pollRateLimit" env:"POLL_RATE_LIMIT"`
}

// Validate checks if the configuration is valid and populates defaults.
func (c *Config) Validate() error {
	if c.RPCEndpoint == "" {
		return fmt.Errorf("rpc_endpoint is required")
	}
	if c.ChainID < 0 {
		return fmt.Errorf("chain_id must not be negative")
	}
	if c.ContractAddress == "" {
		c.ContractAddress = constants.DefaultContractAddress
	}
	if !common.IsHexAddress(c.ContractAddress) {
		return fmt.Errorf("contract_address %q is not a hex address", c.ContractAddress)
	}
	if c.Wallet.Account != "" && !common.IsHexAddress(c.Wallet.Account) {
		return fmt.Errorf("wallet account %q is not a hex address", c.Wallet.Account)
	}

	// Set defaults
	if c.BlockchainTimeout == 0 {
		c.BlockchainTimeout = constants.DefaultBlockchainTimeout
	}
	ApplyWaitTxDefaults(&c.WaitTx)

	return nil
}

// SubscriptionEndpoint returns the endpoint able to stream new heads, if any.
func (c Config) SubscriptionEndpoint() string {
	if c.WSEndpoint != "" {
		return c.WSEndpoint
	}
	if isStreamingEndpoint(c.RPCEndpoint) {
		return c.RPCEndpoint
	}
	return ""
}

func isStreamingEndpoint(endpoint string) bool {
	e := strings.ToLower(endpoint)
	return strings.HasPrefix(e, "ws://") || strings.HasPrefix(e, "wss://") || strings.HasSuffix(e, ".ipc")
}

// Default returns a configuration with sensible defaults for a local dev
// node. The chain ID is left at 0 so the client signs for whatever chain
// the node reports.
func Default() Config {
	return Config{
		RPCEndpoint:       constants.DefaultRPCEndpoint,
		ContractAddress:   constants.DefaultContractAddress,
		BlockchainTimeout: constants.DefaultBlockchainTimeout,
		WaitTx:            DefaultWaitTxConfig(),
	}
}

// DefaultWaitTxConfig returns recommended defaults for wait-tx behaviour.
func DefaultWaitTxConfig() WaitTxConfig {
	return WaitTxConfig{
		Timeout:                2 * time.Minute,
		MinConfirmations:       1,
		SubscriberSetupTimeout: 5 * time.Second,
		PollInterval:           500 * time.Millisecond,
		PollMaxRetries:         0,
		PollBackoffMultiplier:  1.5,
		PollBackoffMaxInterval: 10 * time.Second,
		PollBackoffJitter:      0,
	}
}

// ApplyWaitTxDefaults normalizes zero or negative values using defaults.
// A zero Timeout is kept: it means the caller's context alone bounds the wait.
func ApplyWaitTxDefaults(cfg *WaitTxConfig) {
	if cfg == nil {
		return
	}
	def := DefaultWaitTxConfig()

	if cfg.Timeout < 0 {
		cfg.Timeout = 0
	}
	if cfg.MinConfirmations == 0 {
		cfg.MinConfirmations = def.MinConfirmations
	}
	if cfg.SubscriberSetupTimeout <= 0 {
		cfg.SubscriberSetupTimeout = def.SubscriberSetupTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.PollMaxRetries < 0 {
		cfg.PollMaxRetries = 0
	}
	if cfg.PollBackoffMultiplier <= 0 {
		cfg.PollBackoffMultiplier = def.PollBackoffMultiplier
	}
	if cfg.PollBackoffMaxInterval <= 0 {
		cfg.PollBackoffMaxInterval = def.PollBackoffMaxInterval
	}
	if cfg.PollBackoffJitter < 0 {
		cfg.PollBackoffJitter = 0
	}
	if cfg.PollRateLimit < 0 {
		cfg.PollRateLimit = 0
	}
}
