package constants

import "time"

const (
	// DefaultRPCEndpoint is a local hardhat/anvil node.
	DefaultRPCEndpoint = "http://127.0.0.1:8545"

	// DefaultChainID is the hardhat/anvil development chain.
	DefaultChainID int64 = 31337

	// DefaultContractAddress is where the FundMe deployment scripts place the
	// contract on a fresh local node.
	DefaultContractAddress = "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"

	// EtherDecimals is the number of wei decimals in one ether.
	EtherDecimals int32 = 18

	// DefaultDerivationPath is the BIP-44 Ethereum account path prefix.
	DefaultDerivationPath = "m/44'/60'/0'/0"

	// DefaultBlockchainTimeout bounds a single RPC round trip.
	DefaultBlockchainTimeout = 10 * time.Second
)
