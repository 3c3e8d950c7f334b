package client

import (
	"context"
	"fmt"

	sdkcrypto "github.com/MRAlirad/fundme-go/pkg/crypto"
)

// Factory keeps a base configuration so callers can easily create
// per-signer clients without re-specifying shared settings.
type Factory struct {
	baseCfg Config
	opts    []Option
}

// NewFactory captures the shared configuration. The base config's Wallet
// section is ignored; signers are supplied per client.
func NewFactory(cfg Config, opts ...Option) (*Factory, error) {
	if cfg.RPCEndpoint == "" {
		return nil, fmt.Errorf("rpc endpoint is required")
	}
	cfg.Wallet = WalletConfig{}
	return &Factory{
		baseCfg: cfg,
		opts:    append([]Option{}, opts...),
	}, nil
}

// WithSigner returns a Client bound to signer. Extra options override/extend
// the factory defaults for this instance.
func (f *Factory) WithSigner(ctx context.Context, signer sdkcrypto.Signer, extraOpts ...Option) (*Client, error) {
	if signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	return New(ctx, f.baseCfg, signer, f.options(extraOpts)...)
}

// WithWallet loads the signer described by w and binds a client to it.
func (f *Factory) WithWallet(ctx context.Context, w WalletConfig, extraOpts ...Option) (*Client, error) {
	signer, err := LoadSigner(w)
	if err != nil {
		return nil, err
	}
	cfg := f.baseCfg
	cfg.Wallet = w
	return New(ctx, cfg, signer, f.options(extraOpts)...)
}

func (f *Factory) options(extra []Option) []Option {
	opts := append([]Option{}, f.opts...)
	return append(opts, extra...)
}
