package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MRAlirad/fundme-go/client"
	clientconfig "github.com/MRAlirad/fundme-go/client/config"
	sdkcrypto "github.com/MRAlirad/fundme-go/pkg/crypto"
	sdklog "github.com/MRAlirad/fundme-go/pkg/log"
	"github.com/MRAlirad/fundme-go/pkg/telemetry"
	"github.com/MRAlirad/fundme-go/types"
)

var version = "dev"

type dialFunc func(ctx context.Context, cfg client.Config, signer sdkcrypto.Signer) (*client.Client, error)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile   string
	rpcURL       string
	wsURL        string
	chainID      int64
	contract     string
	key          string
	keystoreDir  string
	account      string
	mnemonicFile string
	accountIndex uint32
	noWait       bool
	timeout      time.Duration
	logFormat    string

	dial     dialFunc
	log      *zap.Logger
	shutdown func(context.Context) error
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(func(ctx context.Context, cfg client.Config, signer sdkcrypto.Signer) (*client.Client, error) {
		return client.New(ctx, cfg, signer)
	})
}

func newRootCmdWith(dial dialFunc) *cobra.Command {
	o := &rootOptions{dial: dial}

	cmd := &cobra.Command{
		Use:   "fundme",
		Short: "Fund, withdraw from and inspect a FundMe contract",
		Long: `fundme talks to a FundMe contract over JSON-RPC. State-changing commands
sign with a local wallet (private key, mnemonic file or keystore) and wait
for the transaction to be confirmed unless --no-wait is given.

Every setting can also come from a YAML file (--config) or FUNDME_*
environment variables, e.g. FUNDME_RPC_URL or FUNDME_WALLET_PASSPHRASE.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.init(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return o.close(cmd.Context())
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&o.configFile, "config", "", "YAML config file")
	pf.StringVar(&o.rpcURL, "rpc-url", "", "JSON-RPC endpoint (default "+clientconfig.Default().RPCEndpoint+")")
	pf.StringVar(&o.wsURL, "ws-url", "", "websocket endpoint for new-head notifications")
	pf.Int64Var(&o.chainID, "chain-id", 0, "chain ID to sign for (default: ask the node)")
	pf.StringVar(&o.contract, "contract", "", "FundMe contract address")
	pf.StringVar(&o.key, "key", "", "hex private key (prefer FUNDME_WALLET_PRIVATE_KEY)")
	pf.StringVar(&o.keystoreDir, "keystore-dir", "", "keystore directory")
	pf.StringVar(&o.account, "account", "", "keystore account address (default: first account)")
	pf.StringVar(&o.mnemonicFile, "mnemonic-file", "", "file holding a BIP-39 mnemonic")
	pf.Uint32Var(&o.accountIndex, "account-index", 0, "mnemonic account index")
	pf.BoolVar(&o.noWait, "no-wait", false, "return once the transaction is submitted")
	pf.DurationVar(&o.timeout, "timeout", 0, "confirmation timeout (0 keeps the configured value)")
	pf.StringVar(&o.logFormat, "log-format", "console", "log format: console|json")

	cmd.AddCommand(
		newConnectCmd(o),
		newBalanceCmd(o),
		newFundCmd(o),
		newWithdrawCmd(o),
		newWaitCmd(o),
	)
	return cmd
}

func (o *rootOptions) init(ctx context.Context) error {
	logger, err := newLogger(o.logFormat)
	if err != nil {
		return err
	}
	o.log = logger

	shutdown, err := telemetry.Setup(ctx, "fundme", version)
	if err != nil {
		o.log.Warn("tracing disabled", zap.Error(err))
		shutdown = func(context.Context) error { return nil }
	}
	o.shutdown = shutdown
	return nil
}

func (o *rootOptions) close(ctx context.Context) error {
	if o.shutdown != nil {
		if err := o.shutdown(ctx); err != nil {
			o.log.Warn("flush traces", zap.Error(err))
		}
	}
	if o.log != nil {
		_ = o.log.Sync()
	}
	return nil
}

func newLogger(format string) (*zap.Logger, error) {
	switch format {
	case "json":
		return zap.NewProduction()
	case "console", "":
		return zap.NewDevelopment()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// config resolves file, then environment, then flags.
func (o *rootOptions) config() (client.Config, error) {
	cfg, err := clientconfig.Load(o.configFile)
	if err != nil {
		return client.Config{}, err
	}
	if o.rpcURL != "" {
		cfg.RPCEndpoint = o.rpcURL
	}
	if o.wsURL != "" {
		cfg.WSEndpoint = o.wsURL
	}
	if o.chainID != 0 {
		cfg.ChainID = o.chainID
	}
	if o.contract != "" {
		cfg.ContractAddress = o.contract
	}
	if o.key != "" {
		cfg.Wallet.PrivateKey = o.key
	}
	if o.mnemonicFile != "" {
		cfg.Wallet.MnemonicFile = o.mnemonicFile
		cfg.Wallet.AccountIndex = o.accountIndex
	}
	if o.keystoreDir != "" {
		cfg.Wallet.KeystoreDir = o.keystoreDir
	}
	if o.account != "" {
		cfg.Wallet.Account = o.account
	}
	if o.noWait {
		cfg.WaitTx.Disabled = true
	}
	if o.timeout > 0 {
		cfg.WaitTx.Timeout = o.timeout
	}
	if o.log != nil {
		cfg.Logger = sdklog.NewZap(o.log)
	}
	return cfg, nil
}

// open builds a client. When needWallet is set a missing wallet is reported
// to the user and returned as types.ErrWalletNotFound.
func (o *rootOptions) open(cmd *cobra.Command, needWallet bool) (*client.Client, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}

	signer, err := client.LoadSigner(cfg.Wallet)
	switch {
	case errors.Is(err, types.ErrWalletNotFound):
		if needWallet {
			fmt.Fprintln(cmd.ErrOrStderr(), "Please configure a wallet (--key, --mnemonic-file or --keystore-dir)")
			return nil, err
		}
		signer = nil
	case err != nil:
		return nil, err
	}

	return o.dial(cmd.Context(), cfg, signer)
}
