package crypto

import (
	"fmt"
	"os"
	"strings"

	"github.com/cosmos/go-bip39"
	"github.com/decred/dcrd/hdkeychain/v3"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/MRAlirad/fundme-go/constants"
)

// bip32Net supplies the mainnet xprv/xpub version bytes; they only matter for
// serialization, never for derived keys.
type bip32Net struct{}

func (bip32Net) HDPrivKeyVersion() [4]byte { return [4]byte{0x04, 0x88, 0xad, 0xe4} }
func (bip32Net) HDPubKeyVersion() [4]byte  { return [4]byte{0x04, 0x88, 0xb2, 0x1e} }

// NewMnemonicSigner derives the account at m/44'/60'/0'/0/index from a BIP-39
// mnemonic and returns a signer for it.
func NewMnemonicSigner(mnemonic string, index uint32) (*KeySigner, error) {
	path := fmt.Sprintf("%s/%d", constants.DefaultDerivationPath, index)
	return NewMnemonicSignerAtPath(mnemonic, path)
}

// NewMnemonicSignerAtPath derives the key at an explicit derivation path.
func NewMnemonicSignerAtPath(mnemonic, path string) (*KeySigner, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("mnemonic seed: %w", err)
	}
	dpath, err := accounts.ParseDerivationPath(path)
	if err != nil {
		return nil, fmt.Errorf("derivation path %q: %w", path, err)
	}

	key, err := hdkeychain.NewMaster(seed, bip32Net{})
	if err != nil {
		return nil, fmt.Errorf("master key: %w", err)
	}
	for _, idx := range dpath {
		key, err = key.ChildBIP32Std(idx)
		if err != nil {
			return nil, fmt.Errorf("derive %s: %w", path, err)
		}
	}
	raw, err := key.SerializedPrivKey()
	if err != nil {
		return nil, fmt.Errorf("serialize derived key: %w", err)
	}
	priv, err := ethcrypto.ToECDSA(common.LeftPadBytes(raw, 32))
	if err != nil {
		return nil, fmt.Errorf("derived key: %w", err)
	}
	return NewKeySigner(priv)
}

// LoadMnemonicSigner reads a mnemonic from a file and derives the account at index.
func LoadMnemonicSigner(mnemonicFile string, index uint32) (*KeySigner, error) {
	mnemonic, err := readMnemonicFile(mnemonicFile)
	if err != nil {
		return nil, err
	}
	return NewMnemonicSigner(mnemonic, index)
}

func readMnemonicFile(mnemonicFile string) (string, error) {
	mnemonicRaw, err := os.ReadFile(mnemonicFile)
	if err != nil {
		return "", fmt.Errorf("read mnemonic file: %w", err)
	}
	mnemonic := strings.TrimSpace(string(mnemonicRaw))
	if mnemonic == "" {
		return "", fmt.Errorf("mnemonic file is empty")
	}
	return mnemonic, nil
}
