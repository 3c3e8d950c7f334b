package crypto

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
)

// KeystoreParams holds configuration for opening an encrypted key directory.
type KeystoreParams struct {
	// Dir is the keystore directory. Default: $HOME/.fundme/keystore
	Dir string
	// Address selects the account. Empty selects the first account found.
	Address string
	// Passphrase decrypts the account on Unlock.
	Passphrase string
	// LightScrypt uses cheap scrypt parameters (tests and dev chains only).
	LightScrypt bool
}

// DefaultKeystoreParams returns sensible defaults:
//   - Dir: $HOME/.fundme/keystore
func DefaultKeystoreParams() KeystoreParams {
	home, _ := os.UserHomeDir()
	return KeystoreParams{
		Dir: filepath.Join(home, ".fundme", "keystore"),
	}
}

// KeystoreSigner signs with an account from a go-ethereum keystore directory.
type KeystoreSigner struct {
	ks         *keystore.KeyStore
	account    accounts.Account
	passphrase string
}

// NewKeystoreSigner opens the keystore and resolves the account. It does not
// decrypt the key; call Unlock before signing.
func NewKeystoreSigner(p KeystoreParams) (*KeystoreSigner, error) {
	dir := p.Dir
	if dir == "" {
		dir = DefaultKeystoreParams().Dir
	}
	if strings.HasPrefix(dir, "~/") {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, dir[2:])
	}

	scryptN, scryptP := keystore.StandardScryptN, keystore.StandardScryptP
	if p.LightScrypt {
		scryptN, scryptP = keystore.LightScryptN, keystore.LightScryptP
	}
	ks := keystore.NewKeyStore(dir, scryptN, scryptP)

	var acct accounts.Account
	if p.Address == "" {
		all := ks.Accounts()
		if len(all) == 0 {
			return nil, fmt.Errorf("no accounts in keystore %s", dir)
		}
		acct = all[0]
	} else {
		if !common.IsHexAddress(p.Address) {
			return nil, fmt.Errorf("invalid account address %q", p.Address)
		}
		found, err := ks.Find(accounts.Account{Address: common.HexToAddress(p.Address)})
		if err != nil {
			return nil, fmt.Errorf("account %s not found in %s: %w", p.Address, dir, err)
		}
		acct = found
	}

	return &KeystoreSigner{ks: ks, account: acct, passphrase: p.Passphrase}, nil
}

// Address returns the selected account's address.
func (s *KeystoreSigner) Address() common.Address { return s.account.Address }

// Unlock decrypts the account with the configured passphrase.
func (s *KeystoreSigner) Unlock() error {
	if err := s.ks.Unlock(s.account, s.passphrase); err != nil {
		return fmt.Errorf("unlock %s: %w", s.account.Address.Hex(), err)
	}
	return nil
}

// TransactOpts returns options that sign through the keystore for chainID.
func (s *KeystoreSigner) TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	if chainID == nil {
		return nil, fmt.Errorf("chain id is required")
	}
	opts, err := bind.NewKeyStoreTransactorWithChainID(s.ks, s.account, chainID)
	if err != nil {
		return nil, fmt.Errorf("keystore transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}
