package waittx

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/time/rate"

	clientconfig "github.com/MRAlirad/fundme-go/client/config"
)

// errPending marks a receipt that is missing or not yet buried deep enough.
var errPending = errors.New("transaction pending")

// poller repeatedly asks the node for a receipt until it has enough confirmations.
type poller struct {
	reader   ReceiptReader
	backoff  Backoff
	maxTries int
	minConfs uint64
	limiter  *rate.Limiter
}

func newPoller(r ReceiptReader, cfg clientconfig.WaitTxConfig) *poller {
	p := &poller{
		reader:   r,
		backoff:  NewBackoff(cfg),
		maxTries: cfg.PollMaxRetries,
		minConfs: cfg.MinConfirmations,
	}
	if cfg.PollRateLimit > 0 {
		burst := int(math.Max(1, math.Ceil(cfg.PollRateLimit)))
		p.limiter = rate.NewLimiter(rate.Limit(cfg.PollRateLimit), burst)
	}
	return p
}

func (p *poller) Wait(ctx context.Context, txHash common.Hash) (Receipt, error) {
	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		default:
		}

		res, err := p.check(ctx, txHash)
		if err == nil {
			return res, nil
		}

		attempt++
		if p.maxTries > 0 && attempt >= p.maxTries {
			return Receipt{}, fmt.Errorf("polling exhausted after %d attempts: %w", attempt, err)
		}

		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		case <-sleepCtx(ctx, p.backoff.Next(attempt)):
		}
	}
}

func (p *poller) check(ctx context.Context, txHash common.Hash) (Receipt, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return Receipt{}, err
		}
	}
	r, err := p.reader.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) || (err == nil && r == nil) {
		return Receipt{}, errPending
	}
	if err != nil {
		return Receipt{}, err
	}
	head, err := p.reader.BlockNumber(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("block number: %w", err)
	}
	res := receiptAt(r, head)
	if res.Confirmations < p.minConfs {
		return Receipt{}, fmt.Errorf("%w: %d of %d confirmations", errPending, res.Confirmations, p.minConfs)
	}
	return res, nil
}

func sleepCtx(ctx context.Context, d time.Duration) <-chan struct{} {
	ch := make(chan struct{})
	if d <= 0 {
		close(ch)
		return ch
	}
	go func() {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
		}
		close(ch)
	}()
	return ch
}
