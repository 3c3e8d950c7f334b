package crypto

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Signer is the local stand-in for a browser wallet: it owns one account and
// produces transaction options signed by it.
type Signer interface {
	// Address returns the account address without unlocking anything.
	Address() common.Address
	// Unlock makes the account usable for signing. Keyed signers are always unlocked.
	Unlock() error
	// TransactOpts returns bind options that sign for chainID.
	TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error)
}

// KeySigner signs with an in-memory ECDSA private key.
type KeySigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// NewPrivateKeySigner parses a hex private key, with or without 0x prefix.
func NewPrivateKeySigner(hexKey string) (*KeySigner, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, fmt.Errorf("private key is required")
	}
	key, err := ethcrypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return NewKeySigner(key)
}

// NewKeySigner wraps an already parsed key.
func NewKeySigner(key *ecdsa.PrivateKey) (*KeySigner, error) {
	if key == nil {
		return nil, fmt.Errorf("private key is required")
	}
	return &KeySigner{key: key, addr: ethcrypto.PubkeyToAddress(key.PublicKey)}, nil
}

// Address returns the key's account address.
func (s *KeySigner) Address() common.Address { return s.addr }

// Unlock is a no-op; the key is held in memory.
func (s *KeySigner) Unlock() error { return nil }

// TransactOpts returns options that sign with the key for chainID.
func (s *KeySigner) TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	if chainID == nil {
		return nil, fmt.Errorf("chain id is required")
	}
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("keyed transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}
