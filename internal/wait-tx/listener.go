package waittx

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	sdklog "github.com/MRAlirad/fundme-go/pkg/log"
)

// ErrEmptyHash is returned when a handle carries no transaction hash.
var ErrEmptyHash = errors.New("waittx: action handle has no transaction hash")

// ActionHandle identifies a submitted state-changing action.
type ActionHandle struct {
	Hash common.Hash
	// Tx is the signed transaction, when the caller still has it.
	Tx *types.Transaction
}

// HandleFromTx builds a handle for a signed transaction.
func HandleFromTx(tx *types.Transaction) ActionHandle {
	if tx == nil {
		return ActionHandle{}
	}
	return ActionHandle{Hash: tx.Hash(), Tx: tx}
}

// Handler receives the receipt of a confirmed transaction.
type Handler func(Receipt)

// Subscription is a registration returned by a NotificationSource.
type Subscription interface {
	// Unsubscribe revokes the registration. It is safe to call more than once.
	Unsubscribe()
	// Err delivers an error if the source gives up before the handler fires.
	Err() <-chan error
}

// NotificationSource delivers one-shot, keyed confirmations. A handler
// registered with Once fires at most once and is revoked after firing.
type NotificationSource interface {
	Once(ctx context.Context, key common.Hash, fn Handler) (Subscription, error)
}

// Listen blocks until the transaction behind handle is confirmed by src.
// Registration errors are returned unchanged. If ctx ends first, the
// registration is revoked and ctx.Err() is returned.
func Listen(ctx context.Context, handle ActionHandle, src NotificationSource, logger sdklog.Logger) error {
	p, err := register(ctx, handle, src, logger)
	if err != nil {
		return err
	}
	_, err = p.await(ctx, logger)
	return err
}

type pending struct {
	hash common.Hash
	ch   chan Receipt
	sub  Subscription
}

func register(ctx context.Context, handle ActionHandle, src NotificationSource, logger sdklog.Logger) (*pending, error) {
	if handle.Hash == (common.Hash{}) {
		return nil, ErrEmptyHash
	}
	if src == nil {
		return nil, errors.New("waittx: notification source is required")
	}

	sdklog.Infof(logger, "waittx: mining %s", handle.Hash.Hex())

	ch := make(chan Receipt, 1)
	sub, err := src.Once(ctx, handle.Hash, func(r Receipt) {
		select {
		case ch <- r:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	return &pending{hash: handle.Hash, ch: ch, sub: sub}, nil
}

func (p *pending) await(ctx context.Context, logger sdklog.Logger) (Receipt, error) {
	defer p.sub.Unsubscribe()

	select {
	case r := <-p.ch:
		sdklog.Infof(logger, "waittx: %s completed with %d confirmations", p.hash.Hex(), r.Confirmations)
		return r, nil
	case err := <-p.sub.Err():
		if err == nil {
			err = errors.New("waittx: notification source closed")
		}
		return Receipt{}, err
	case <-ctx.Done():
		return Receipt{}, ctx.Err()
	}
}
