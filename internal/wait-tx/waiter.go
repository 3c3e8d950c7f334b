package waittx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	clientconfig "github.com/MRAlirad/fundme-go/client/config"
	sdklog "github.com/MRAlirad/fundme-go/pkg/log"
)

const tracerName = "github.com/MRAlirad/fundme-go/internal/wait-tx"

// Waiter coordinates a notification source (new heads) and a poller to observe a tx.
type Waiter struct {
	heads      HeadSubscriber
	notifier   NotificationSource
	poller     Source
	setupDelay time.Duration
	timeout    time.Duration
	logger     sdklog.Logger
	metrics    *Metrics
	closeFn    func()
}

// Option customizes a Waiter.
type Option func(*Waiter)

// WithHeadSubscriber enables push notifications over a new-head subscription.
func WithHeadSubscriber(heads HeadSubscriber) Option {
	return func(w *Waiter) { w.heads = heads }
}

// WithNotificationSource uses src instead of a head subscription.
func WithNotificationSource(src NotificationSource) Option {
	return func(w *Waiter) { w.notifier = src }
}

// WithLogger sets the logger for wait progress.
func WithLogger(logger sdklog.Logger) Option {
	return func(w *Waiter) { w.logger = logger }
}

// WithMetrics records wait outcomes.
func WithMetrics(m *Metrics) Option {
	return func(w *Waiter) { w.metrics = m }
}

// New creates a waiter based on the provided config and receipt reader.
func New(cfg clientconfig.WaitTxConfig, receipts ReceiptReader, opts ...Option) (*Waiter, error) {
	if receipts == nil {
		return nil, fmt.Errorf("receipt reader is required")
	}

	normalized := cfg
	clientconfig.ApplyWaitTxDefaults(&normalized)

	w := &Waiter{
		poller:     newPoller(receipts, normalized),
		setupDelay: normalized.SubscriberSetupTimeout,
		timeout:    normalized.Timeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.notifier == nil && w.heads != nil {
		hn := NewHeadNotifier(w.heads, receipts, normalized.MinConfirmations, w.logger)
		w.notifier = hn
		w.closeFn = hn.Close
	}
	return w, nil
}

// Wait blocks until the transaction is confirmed, the configured timeout
// elapses, or ctx ends.
func (w *Waiter) Wait(ctx context.Context, txHash common.Hash) (Receipt, error) {
	if txHash == (common.Hash{}) {
		return Receipt{}, ErrEmptyHash
	}
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "waittx.Wait",
		trace.WithAttributes(attribute.String("tx.hash", txHash.Hex())))
	defer span.End()

	start := time.Now()
	res, source, err := w.wait(ctx, txHash)
	w.metrics.observe(source, res, err, time.Since(start))

	span.SetAttributes(attribute.String("waittx.source", source))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Receipt{}, err
	}
	span.SetAttributes(
		attribute.Int64("tx.block", int64(res.BlockNumber)),
		attribute.Int64("tx.confirmations", int64(res.Confirmations)),
	)
	return res, nil
}

func (w *Waiter) wait(ctx context.Context, txHash common.Hash) (Receipt, string, error) {
	if w.notifier != nil {
		p, err := w.subscribe(ctx, txHash)
		if err == nil {
			res, err := p.await(ctx, w.logger)
			if err == nil {
				return res, sourceSubscriber, nil
			}
			if ctx.Err() != nil {
				return Receipt{}, sourceSubscriber, ctx.Err()
			}
			sdklog.Warnf(w.logger, "waittx: notifications for %s failed, polling: %v", txHash.Hex(), err)
		} else {
			if ctx.Err() != nil {
				return Receipt{}, sourceSubscriber, ctx.Err()
			}
			sdklog.Warnf(w.logger, "waittx: subscribe for %s failed, polling: %v", txHash.Hex(), err)
		}
	}

	if w.poller == nil {
		return Receipt{}, sourcePoller, errors.New("waittx: poller is not configured")
	}
	res, err := w.poller.Wait(ctx, txHash)
	return res, sourcePoller, err
}

// subscribe registers with the notifier, giving up after the setup delay.
func (w *Waiter) subscribe(ctx context.Context, txHash common.Hash) (*pending, error) {
	type result struct {
		p   *pending
		err error
	}
	setupCtx, cancel := context.WithTimeout(ctx, w.setupDelay)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		p, err := register(setupCtx, ActionHandle{Hash: txHash}, w.notifier, w.logger)
		ch <- result{p: p, err: err}
	}()

	select {
	case r := <-ch:
		return r.p, r.err
	case <-setupCtx.Done():
		// A registration that completes late must not leak.
		go func() {
			if r := <-ch; r.p != nil {
				r.p.sub.Unsubscribe()
			}
		}()
		return nil, fmt.Errorf("subscription setup: %w", setupCtx.Err())
	}
}

// Close releases the head subscription, if one was opened.
func (w *Waiter) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}
