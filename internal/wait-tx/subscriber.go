package waittx

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	sdklog "github.com/MRAlirad/fundme-go/pkg/log"
)

const (
	headBuffer   = 16
	checkTimeout = 10 * time.Second
)

// ErrNotifierClosed is delivered to pending registrations when the notifier closes.
var ErrNotifierClosed = errors.New("waittx: head notifier closed")

// HeadNotifier is a NotificationSource backed by a new-head subscription.
// On every head it checks the receipts of all registered transactions and
// fires each handler once its transaction is buried under enough blocks.
type HeadNotifier struct {
	heads    HeadSubscriber
	receipts ReceiptReader
	minConfs uint64
	logger   sdklog.Logger

	mu        sync.Mutex
	listeners map[common.Hash]map[uint64]*headListener
	nextID    uint64
	sub       ethereum.Subscription
	stop      chan struct{}
	kick      chan struct{}
	closed    bool
}

type headListener struct {
	fn    Handler
	errCh chan error
}

// NewHeadNotifier creates a notifier. The head subscription is opened lazily
// on the first registration.
func NewHeadNotifier(heads HeadSubscriber, receipts ReceiptReader, minConfs uint64, logger sdklog.Logger) *HeadNotifier {
	if minConfs == 0 {
		minConfs = 1
	}
	return &HeadNotifier{
		heads:     heads,
		receipts:  receipts,
		minConfs:  minConfs,
		logger:    logger,
		listeners: make(map[common.Hash]map[uint64]*headListener),
		kick:      make(chan struct{}, 1),
	}
}

// Once registers fn for the transaction key. Errors from opening the head
// subscription are returned unchanged.
func (n *HeadNotifier) Once(ctx context.Context, key common.Hash, fn Handler) (Subscription, error) {
	if fn == nil {
		return nil, errors.New("waittx: handler is required")
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, ErrNotifierClosed
	}
	if err := n.startLocked(ctx); err != nil {
		return nil, err
	}

	id := n.nextID
	n.nextID++
	l := &headListener{fn: fn, errCh: make(chan error, 1)}
	if n.listeners[key] == nil {
		n.listeners[key] = make(map[uint64]*headListener)
	}
	n.listeners[key][id] = l

	// The tx may already be mined; check without waiting for the next head.
	select {
	case n.kick <- struct{}{}:
	default:
	}
	return &headSubscription{n: n, key: key, id: id, errCh: l.errCh}, nil
}

// Close stops the head subscription and fails every pending registration.
func (n *HeadNotifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	if n.stop != nil {
		close(n.stop)
		n.stop = nil
	}
	n.sub = nil
	ls := n.takeAllLocked()
	n.mu.Unlock()
	failAll(ls, ErrNotifierClosed)
}

func (n *HeadNotifier) startLocked(ctx context.Context) error {
	if n.sub != nil {
		return nil
	}
	ch := make(chan *types.Header, headBuffer)
	sub, err := n.heads.SubscribeNewHead(ctx, ch)
	if err != nil {
		return err
	}
	n.sub = sub
	n.stop = make(chan struct{})
	go n.run(sub, ch, n.stop)
	return nil
}

func (n *HeadNotifier) run(sub ethereum.Subscription, heads <-chan *types.Header, stop <-chan struct{}) {
	defer sub.Unsubscribe()
	for {
		select {
		case <-stop:
			return
		case err := <-sub.Err():
			if err == nil {
				err = errors.New("subscription closed")
			}
			sdklog.Warnf(n.logger, "waittx: head subscription dropped: %v", err)
			// Registrations made after this point open a fresh subscription
			// and must not see this error.
			n.mu.Lock()
			var ls map[common.Hash]map[uint64]*headListener
			if n.sub == sub {
				n.sub = nil
				n.stop = nil
				ls = n.takeAllLocked()
			}
			n.mu.Unlock()
			failAll(ls, fmt.Errorf("waittx: head subscription dropped: %w", err))
			return
		case h := <-heads:
			if h != nil {
				n.check(h.Number)
			}
		case <-n.kick:
			n.check(nil)
		}
	}
}

// check fetches receipts for every registered key against head. A nil head
// means the current block number is looked up first.
func (n *HeadNotifier) check(head *big.Int) {
	keys := n.keys()
	if len(keys) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	var headNum uint64
	if head != nil {
		headNum = head.Uint64()
	} else {
		num, err := n.receipts.BlockNumber(ctx)
		if err != nil {
			sdklog.Warnf(n.logger, "waittx: block number: %v", err)
			return
		}
		headNum = num
	}

	for _, key := range keys {
		r, err := n.receipts.TransactionReceipt(ctx, key)
		if err != nil {
			if !errors.Is(err, ethereum.NotFound) {
				sdklog.Warnf(n.logger, "waittx: receipt %s: %v", key.Hex(), err)
			}
			continue
		}
		if r == nil {
			continue
		}
		res := receiptAt(r, headNum)
		if res.Confirmations < n.minConfs {
			continue
		}
		n.fire(key, res)
	}
}

func (n *HeadNotifier) keys() []common.Hash {
	n.mu.Lock()
	defer n.mu.Unlock()
	keys := make([]common.Hash, 0, len(n.listeners))
	for k := range n.listeners {
		keys = append(keys, k)
	}
	return keys
}

func (n *HeadNotifier) fire(key common.Hash, res Receipt) {
	n.mu.Lock()
	ls := n.listeners[key]
	delete(n.listeners, key)
	n.mu.Unlock()

	for _, l := range ls {
		l.fn(res)
	}
}

func (n *HeadNotifier) takeAllLocked() map[common.Hash]map[uint64]*headListener {
	all := n.listeners
	n.listeners = make(map[common.Hash]map[uint64]*headListener)
	return all
}

func failAll(all map[common.Hash]map[uint64]*headListener, err error) {
	for _, ls := range all {
		for _, l := range ls {
			l.errCh <- err
		}
	}
}

func (n *HeadNotifier) remove(key common.Hash, id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ls := n.listeners[key]
	if ls == nil {
		return
	}
	delete(ls, id)
	if len(ls) == 0 {
		delete(n.listeners, key)
	}
}

func (n *HeadNotifier) pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, ls := range n.listeners {
		total += len(ls)
	}
	return total
}

type headSubscription struct {
	n     *HeadNotifier
	key   common.Hash
	id    uint64
	errCh chan error
}

func (s *headSubscription) Unsubscribe()      { s.n.remove(s.key, s.id) }
func (s *headSubscription) Err() <-chan error { return s.errCh }
