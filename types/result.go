package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TxResult contains the result of a contract call that changed state.
type TxResult struct {
	TxHash common.Hash
	Value  *big.Int

	// Set once the transaction has been observed on chain.
	Mined         bool
	BlockNumber   uint64
	Confirmations uint64
	GasUsed       uint64
	Status        uint64
}

// Succeeded reports whether the transaction was mined without reverting.
func (r TxResult) Succeeded() bool {
	return r.Mined && r.Status == 1
}

// BalanceResult contains an account balance in wei and its ether rendering.
type BalanceResult struct {
	Address common.Address
	Wei     *big.Int
	Ether   string
}
