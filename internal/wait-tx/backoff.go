package waittx

import (
	"math"
	"math/rand"
	"time"

	clientconfig "github.com/MRAlirad/fundme-go/client/config"
)

const defaultPollInterval = 500 * time.Millisecond

// maxDelay keeps float arithmetic below the time.Duration overflow point.
const maxDelay = float64(math.MaxInt64) - 2048

type constantBackoff struct{ every time.Duration }

func (b constantBackoff) Next(int) time.Duration { return b.every }

type exponentialBackoff struct {
	initial    time.Duration
	multiplier float64
	max        time.Duration
	jitter     float64
	randFn     func() float64
}

func (b *exponentialBackoff) Next(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	initial := b.initial
	if initial <= 0 {
		initial = defaultPollInterval
	}

	base := float64(initial)
	if b.multiplier > 1 {
		base *= math.Pow(b.multiplier, float64(attempt-1))
	}
	if b.max > 0 {
		base = math.Min(base, float64(b.max))
	}
	base = clampDelay(base)

	if j := math.Min(math.Max(b.jitter, 0), 1); j > 0 {
		randFn := b.randFn
		if randFn == nil {
			randFn = rand.Float64
		}
		factor := math.Max(1+(randFn()*2-1)*j, 0)
		base = clampDelay(base * factor)
	}

	delay := time.Duration(base)
	if delay <= 0 {
		delay = time.Millisecond
	}
	return delay
}

func clampDelay(v float64) float64 {
	if v > maxDelay {
		return maxDelay
	}
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// NewBackoff constructs a poller backoff from the WaitTx configuration.
// A constant cadence is used unless growth, jitter or a distinct cap is configured.
func NewBackoff(cfg clientconfig.WaitTxConfig) Backoff {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	exponential := cfg.PollBackoffMultiplier > 1 ||
		cfg.PollBackoffJitter > 0 ||
		(cfg.PollBackoffMaxInterval > 0 && cfg.PollBackoffMaxInterval != interval)
	if !exponential {
		return constantBackoff{every: interval}
	}
	return &exponentialBackoff{
		initial:    interval,
		multiplier: cfg.PollBackoffMultiplier,
		max:        cfg.PollBackoffMaxInterval,
		jitter:     cfg.PollBackoffJitter,
	}
}
