package waittx

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeChain implements ReceiptReader and HeadSubscriber in memory.
type fakeChain struct {
	mu           sync.Mutex
	head         uint64
	receipts     map[common.Hash]*types.Receipt
	receiptErr   error
	subscribeErr error
	subscribes   int
	receiptCalls int
	heads        chan<- *types.Header
	sub          *fakeSub
}

func newFakeChain(head uint64) *fakeChain {
	return &fakeChain{head: head, receipts: make(map[common.Hash]*types.Receipt)}
}

func (f *fakeChain) TransactionReceipt(_ context.Context, h common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receiptCalls++
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	r, ok := f.receipts[h]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (f *fakeChain) BlockNumber(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.head, nil
}

func (f *fakeChain) SubscribeNewHead(_ context.Context, ch chan<- *types.Header) (ethereum.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes++
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	f.heads = ch
	f.sub = &fakeSub{errCh: make(chan error, 1)}
	return f.sub, nil
}

func (f *fakeChain) mine(h common.Hash, block uint64, status uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts[h] = &types.Receipt{
		TxHash:      h,
		Status:      status,
		GasUsed:     21000,
		BlockNumber: new(big.Int).SetUint64(block),
	}
}

// advance moves the head forward and, if subscribed, announces it.
func (f *fakeChain) advance(to uint64) {
	f.mu.Lock()
	f.head = to
	ch := f.heads
	f.mu.Unlock()
	if ch != nil {
		ch <- &types.Header{Number: new(big.Int).SetUint64(to)}
	}
}

func (f *fakeChain) drop(err error) {
	f.mu.Lock()
	sub := f.sub
	f.mu.Unlock()
	sub.errCh <- err
}

func (f *fakeChain) calls() (subscribes, receipts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribes, f.receiptCalls
}

type fakeSub struct {
	errCh chan error
	once  sync.Once
}

func (s *fakeSub) Unsubscribe()      { s.once.Do(func() { close(s.errCh) }) }
func (s *fakeSub) Err() <-chan error { return s.errCh }

var errDisconnected = errors.New("provider disconnected")
