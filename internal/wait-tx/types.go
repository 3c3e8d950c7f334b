package waittx

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Receipt represents the outcome produced by waiting on a tx.
type Receipt struct {
	TxHash        common.Hash
	BlockNumber   uint64
	Status        uint64
	GasUsed       uint64
	Confirmations uint64
}

// Succeeded reports whether the transaction executed without reverting.
func (r Receipt) Succeeded() bool {
	return r.Status == types.ReceiptStatusSuccessful
}

// Source abstracts a tx wait mechanism (poller, subscriber, etc).
type Source interface {
	Wait(ctx context.Context, txHash common.Hash) (Receipt, error)
}

// Backoff controls polling cadence.
type Backoff interface {
	Next(attempt int) time.Duration
}

// ReceiptReader fetches receipts and the current chain head.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// HeadSubscriber streams new chain heads (websocket or IPC endpoints only).
type HeadSubscriber interface {
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
}

func receiptAt(r *types.Receipt, head uint64) Receipt {
	var block uint64
	if r.BlockNumber != nil {
		block = r.BlockNumber.Uint64()
	}
	return Receipt{
		TxHash:        r.TxHash,
		BlockNumber:   block,
		Status:        r.Status,
		GasUsed:       r.GasUsed,
		Confirmations: confirmations(head, block),
	}
}

// confirmations counts the including block itself, so a tx mined in the head
// block has one confirmation.
func confirmations(head, block uint64) uint64 {
	if block == 0 || head < block {
		return 0
	}
	return head - block + 1
}
