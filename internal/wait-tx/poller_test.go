package waittx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	clientconfig "github.com/MRAlirad/fundme-go/client/config"
)

var testHash = common.HexToHash("0xabc")

func TestPollerStopsAfterMaxRetries(t *testing.T) {
	chain := newFakeChain(1)
	chain.receiptErr = errors.New("unavailable")
	p := &poller{
		reader:   chain,
		backoff:  constantBackoff{every: time.Millisecond},
		maxTries: 3,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := p.Wait(ctx, testHash)
	if err == nil {
		t.Fatalf("expected error when retries exhausted")
	}
	if _, calls := chain.calls(); calls != 3 {
		t.Fatalf("want 3 receipt queries; got %d", calls)
	}
}

func TestPollerReturnsMinedReceipt(t *testing.T) {
	chain := newFakeChain(7)
	chain.mine(testHash, 5, types.ReceiptStatusFailed)
	p := &poller{
		reader:   chain,
		backoff:  constantBackoff{every: 0},
		maxTries: 1,
		minConfs: 1,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := p.Wait(ctx, testHash)
	if err != nil {
		t.Fatalf("wait error: %v", err)
	}
	if res.BlockNumber != 5 || res.Confirmations != 3 {
		t.Fatalf("unexpected receipt: %+v", res)
	}
	if res.Succeeded() {
		t.Fatalf("reverted tx reported as succeeded")
	}
}

func TestPollerKeepsPollingWhileNotFound(t *testing.T) {
	chain := newFakeChain(10)
	p := &poller{
		reader:   chain,
		backoff:  constantBackoff{every: 5 * time.Millisecond},
		minConfs: 1,
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		chain.mine(testHash, 10, types.ReceiptStatusSuccessful)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := p.Wait(ctx, testHash)
	if err != nil {
		t.Fatalf("wait error: %v", err)
	}
	if res.Confirmations != 1 {
		t.Fatalf("want 1 confirmation; got %d", res.Confirmations)
	}
}

func TestPollerWaitsForConfirmations(t *testing.T) {
	chain := newFakeChain(10)
	chain.mine(testHash, 10, types.ReceiptStatusSuccessful)
	p := &poller{
		reader:   chain,
		backoff:  constantBackoff{every: time.Millisecond},
		maxTries: 2,
		minConfs: 3,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := p.Wait(ctx, testHash)
	if !errors.Is(err, errPending) {
		t.Fatalf("want pending error; got %v", err)
	}

	chain.advance(12)
	res, err := p.Wait(ctx, testHash)
	if err != nil {
		t.Fatalf("wait error: %v", err)
	}
	if res.Confirmations != 3 {
		t.Fatalf("want 3 confirmations; got %d", res.Confirmations)
	}
}

func TestPollerHonorsContext(t *testing.T) {
	p := newPoller(newFakeChain(1), clientconfig.DefaultWaitTxConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if _, err := p.Wait(ctx, testHash); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded; got %v", err)
	}
}

func TestNewPollerRateLimit(t *testing.T) {
	cfg := clientconfig.DefaultWaitTxConfig()
	if p := newPoller(newFakeChain(1), cfg); p.limiter != nil {
		t.Fatalf("rate limiter should be off by default")
	}
	cfg.PollRateLimit = 2.5
	p := newPoller(newFakeChain(1), cfg)
	if p.limiter == nil || p.limiter.Burst() != 3 {
		t.Fatalf("want limiter with burst 3")
	}
}

func TestExponentialBackoffSequence(t *testing.T) {
	b := &exponentialBackoff{
		initial:    time.Second,
		multiplier: 2,
		max:        5 * time.Second,
	}
	want := []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		5 * time.Second,
		5 * time.Second,
	}
	for i, expected := range want {
		if got := b.Next(i + 1); got != expected {
			t.Fatalf("attempt %d: want %v; got %v", i+1, expected, got)
		}
	}
}

func TestExponentialBackoffJitter(t *testing.T) {
	base := time.Second
	b := &exponentialBackoff{
		initial: base,
		jitter:  0.5,
	}
	b.randFn = func() float64 { return 0 }
	if got := b.Next(1); got != base/2 {
		t.Fatalf("jitter low bound: want %v; got %v", base/2, got)
	}
	b.randFn = func() float64 { return 1 }
	if got := b.Next(1); got != base+base/2 {
		t.Fatalf("jitter high bound: want %v; got %v", base+base/2, got)
	}
}

func TestExponentialBackoffDefaults(t *testing.T) {
	b := &exponentialBackoff{}
	if got := b.Next(0); got != 500*time.Millisecond {
		t.Fatalf("default initial: want %v; got %v", 500*time.Millisecond, got)
	}

	b = &exponentialBackoff{multiplier: 0.5}
	if got := b.Next(3); got != 500*time.Millisecond {
		t.Fatalf("multiplier <= 1 should not shrink delay: want %v; got %v", 500*time.Millisecond, got)
	}

	b = &exponentialBackoff{initial: time.Hour, multiplier: 1e6}
	if got := b.Next(100); got <= 0 {
		t.Fatalf("overflow must be clamped; got %v", got)
	}
}

func TestNewBackoffSelection(t *testing.T) {
	if _, ok := NewBackoff(clientconfig.WaitTxConfig{PollInterval: time.Second}).(constantBackoff); !ok {
		t.Fatalf("plain interval should poll at a constant rate")
	}
	if _, ok := NewBackoff(clientconfig.DefaultWaitTxConfig()).(*exponentialBackoff); !ok {
		t.Fatalf("default config should back off exponentially")
	}
}
