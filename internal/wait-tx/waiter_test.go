package waittx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	clientconfig "github.com/MRAlirad/fundme-go/client/config"
)

type stubSource struct {
	res   Receipt
	err   error
	calls int
}

func (s *stubSource) Wait(ctx context.Context, txHash common.Hash) (Receipt, error) {
	s.calls++
	return s.res, s.err
}

// instantSource confirms every registration immediately.
type instantSource struct{ res Receipt }

func (s instantSource) Once(_ context.Context, _ common.Hash, fn Handler) (Subscription, error) {
	fn(s.res)
	return noopSub{}, nil
}

// blockingSource never completes registration until ctx ends.
type blockingSource struct{}

func (blockingSource) Once(ctx context.Context, _ common.Hash, _ Handler) (Subscription, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type failingSource struct{ err error }

func (s failingSource) Once(context.Context, common.Hash, Handler) (Subscription, error) {
	return nil, s.err
}

type noopSub struct{}

func (noopSub) Unsubscribe()      {}
func (noopSub) Err() <-chan error { return nil }

func TestWaiterPrefersNotifications(t *testing.T) {
	poller := &stubSource{res: Receipt{Confirmations: 9}}
	w := &Waiter{
		poller:     poller,
		notifier:   instantSource{res: Receipt{Confirmations: 1, Status: types.ReceiptStatusSuccessful}},
		setupDelay: 50 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := w.Wait(ctx, testHash)
	require.NoError(t, err)
	require.Equal(t, uint64(1), res.Confirmations)
	require.Zero(t, poller.calls, "poller should not be used when notifications succeed")
}

func TestWaiterFallsBackToPoller(t *testing.T) {
	for name, src := range map[string]NotificationSource{
		"registration error": failingSource{err: errors.New("boom")},
		"setup timeout":      blockingSource{},
	} {
		t.Run(name, func(t *testing.T) {
			poller := &stubSource{res: Receipt{Confirmations: 2}}
			w := &Waiter{poller: poller, notifier: src, setupDelay: 10 * time.Millisecond}

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			res, err := w.Wait(ctx, testHash)
			require.NoError(t, err)
			require.Equal(t, uint64(2), res.Confirmations)
			require.Equal(t, 1, poller.calls)
		})
	}
}

func TestWaiterRejectsEmptyHash(t *testing.T) {
	w := &Waiter{poller: &stubSource{}}
	_, err := w.Wait(context.Background(), common.Hash{})
	require.ErrorIs(t, err, ErrEmptyHash)
}

func TestNewRequiresReader(t *testing.T) {
	_, err := New(clientconfig.DefaultWaitTxConfig(), nil)
	require.Error(t, err)
}

func TestNewPollsWithoutHeadSubscriber(t *testing.T) {
	chain := newFakeChain(3)
	chain.mine(testHash, 3, types.ReceiptStatusSuccessful)

	w, err := New(clientconfig.DefaultWaitTxConfig(), chain)
	require.NoError(t, err)
	defer w.Close()

	res, err := w.Wait(context.Background(), testHash)
	require.NoError(t, err)
	require.Equal(t, uint64(1), res.Confirmations)
	subs, _ := chain.calls()
	require.Zero(t, subs)
}

func TestNewUsesHeadSubscriber(t *testing.T) {
	chain := newFakeChain(3)
	chain.mine(testHash, 2, types.ReceiptStatusSuccessful)

	w, err := New(clientconfig.DefaultWaitTxConfig(), chain, WithHeadSubscriber(chain))
	require.NoError(t, err)
	defer w.Close()

	res, err := w.Wait(context.Background(), testHash)
	require.NoError(t, err)
	require.Equal(t, uint64(2), res.Confirmations)
	subs, _ := chain.calls()
	require.Equal(t, 1, subs)
}

func TestWaiterTimeout(t *testing.T) {
	cfg := clientconfig.DefaultWaitTxConfig()
	cfg.Timeout = 30 * time.Millisecond
	cfg.PollInterval = 5 * time.Millisecond

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	w, err := New(cfg, newFakeChain(1), WithMetrics(m))
	require.NoError(t, err)

	_, err = w.Wait(context.Background(), testHash)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 1.0, testutil.ToFloat64(m.waits.WithLabelValues(sourcePoller, "timeout")))
}

func TestWaiterDropFallsBackToPoller(t *testing.T) {
	chain := newFakeChain(1)
	cfg := clientconfig.DefaultWaitTxConfig()
	cfg.PollInterval = 5 * time.Millisecond

	w, err := New(cfg, chain, WithHeadSubscriber(chain))
	require.NoError(t, err)
	defer w.Close()

	done := make(chan error, 1)
	go func() {
		_, err := w.Wait(context.Background(), testHash)
		done <- err
	}()

	require.Eventually(t, func() bool {
		subs, _ := chain.calls()
		return subs == 1
	}, time.Second, 5*time.Millisecond)
	chain.drop(errDisconnected)
	chain.mine(testHash, 1, types.ReceiptStatusSuccessful)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("wait did not fall back to polling")
	}
}

func TestWaiterRecordsSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	w := &Waiter{poller: &stubSource{res: Receipt{Confirmations: 1, Status: types.ReceiptStatusSuccessful}}}
	_, err := w.Wait(context.Background(), testHash)
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "waittx.Wait", spans[0].Name())
	require.Contains(t, spans[0].Attributes(), attribute.String("waittx.source", sourcePoller))
}
