package client

import (
	"fmt"

	sdkcrypto "github.com/MRAlirad/fundme-go/pkg/crypto"
	"github.com/MRAlirad/fundme-go/types"
)

// LoadSigner builds the signer selected by w. It returns
// types.ErrWalletNotFound when no wallet source is configured.
func LoadSigner(w WalletConfig) (sdkcrypto.Signer, error) {
	switch {
	case w.PrivateKey != "":
		s, err := sdkcrypto.NewPrivateKeySigner(w.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("private key signer: %w", err)
		}
		return s, nil
	case w.MnemonicFile != "":
		s, err := sdkcrypto.LoadMnemonicSigner(w.MnemonicFile, w.AccountIndex)
		if err != nil {
			return nil, fmt.Errorf("mnemonic signer: %w", err)
		}
		return s, nil
	case w.KeystoreDir != "":
		s, err := sdkcrypto.NewKeystoreSigner(sdkcrypto.KeystoreParams{
			Dir:        w.KeystoreDir,
			Address:    w.Account,
			Passphrase: w.Passphrase,
		})
		if err != nil {
			return nil, fmt.Errorf("keystore signer: %w", err)
		}
		return s, nil
	default:
		return nil, types.ErrWalletNotFound
	}
}
