// Package testutil provides an in-memory chain backend for package tests.
package testutil

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Backend is a scripted chain. It satisfies bind.ContractBackend for the
// calls a bound contract makes plus the receipt and balance reads. Unset
// methods of the embedded ContractBackend panic when called.
type Backend struct {
	bind.ContractBackend

	mu       sync.Mutex
	chainID  *big.Int
	head     uint64
	nonce    uint64
	code     map[common.Address][]byte
	balances map[common.Address]*big.Int
	receipts map[common.Hash]*types.Receipt
	sent     []*types.Transaction

	// CallFn answers eth_call. Required for contract reads.
	CallFn func(msg ethereum.CallMsg) ([]byte, error)
	// SendErr, when set, rejects every submitted transaction.
	SendErr error
	// AutoMine includes each submitted tx in a new block.
	AutoMine bool
	// Reverts marks auto-mined receipts as failed.
	Reverts bool
	closed  bool
}

// NewBackend returns a backend for chainID with the head at block 1.
func NewBackend(chainID int64) *Backend {
	return &Backend{
		chainID:  big.NewInt(chainID),
		head:     1,
		code:     make(map[common.Address][]byte),
		balances: make(map[common.Address]*big.Int),
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

// Deploy marks addr as a contract so bound calls do not fail with ErrNoCode.
func (b *Backend) Deploy(addr common.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.code[addr] = []byte{0x60, 0x80}
}

// SetBalance sets the wei balance of addr.
func (b *Backend) SetBalance(addr common.Address, wei *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[addr] = new(big.Int).Set(wei)
}

// Mine includes hash in the next block.
func (b *Backend) Mine(hash common.Hash, status uint64) *types.Receipt {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mineLocked(hash, status)
}

// Advance adds n empty blocks.
func (b *Backend) Advance(n uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head += n
}

// Sent returns the submitted transactions in order.
func (b *Backend) Sent() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*types.Transaction(nil), b.sent...)
}

// Closed reports whether Close was called.
func (b *Backend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Backend) mineLocked(hash common.Hash, status uint64) *types.Receipt {
	b.head++
	r := &types.Receipt{
		TxHash:      hash,
		Status:      status,
		GasUsed:     21000,
		BlockNumber: new(big.Int).SetUint64(b.head),
	}
	b.receipts[hash] = r
	return r
}

func (b *Backend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.chainID), nil
}

func (b *Backend) BalanceAt(_ context.Context, addr common.Address, _ *big.Int) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v, ok := b.balances[addr]; ok {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}

func (b *Backend) BlockNumber(context.Context) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.head, nil
}

func (b *Backend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (b *Backend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	// nil BaseFee selects legacy gas pricing in bound transactions
	return &types.Header{Number: new(big.Int).SetUint64(b.head)}, nil
}

func (b *Backend) CodeAt(_ context.Context, addr common.Address, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.code[addr], nil
}

func (b *Backend) PendingCodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	return b.CodeAt(ctx, addr, nil)
}

func (b *Backend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if b.CallFn == nil {
		return nil, errors.New("testutil: no call handler")
	}
	return b.CallFn(msg)
}

func (b *Backend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonce, nil
}

func (b *Backend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *Backend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *Backend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 60000, nil
}

func (b *Backend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SendErr != nil {
		return b.SendErr
	}
	b.sent = append(b.sent, tx)
	b.nonce++
	if to := tx.To(); to != nil && tx.Value().Sign() > 0 {
		bal := b.balances[*to]
		if bal == nil {
			bal = new(big.Int)
		}
		b.balances[*to] = new(big.Int).Add(bal, tx.Value())
	}
	if b.AutoMine {
		status := types.ReceiptStatusSuccessful
		if b.Reverts {
			status = types.ReceiptStatusFailed
		}
		b.mineLocked(tx.Hash(), status)
	}
	return nil
}

func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}
