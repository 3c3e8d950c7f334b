package waittx

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	sourceSubscriber = "subscriber"
	sourcePoller     = "poller"
)

// Metrics records wait outcomes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	waits    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the wait collectors on reg. Registering twice on the
// same registry reuses the existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	waits, err := registerCollector(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fundme",
		Subsystem: "waittx",
		Name:      "total",
		Help:      "Transaction waits by confirming source and outcome.",
	}, []string{"source", "outcome"}))
	if err != nil {
		return nil, err
	}
	duration, err := registerCollector(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fundme",
		Subsystem: "waittx",
		Name:      "duration_seconds",
		Help:      "Time from registration until a transaction wait resolved.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"source"}))
	if err != nil {
		return nil, err
	}
	return &Metrics{waits: waits, duration: duration}, nil
}

func registerCollector[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observe(source string, res Receipt, err error, took time.Duration) {
	if m == nil {
		return
	}
	m.waits.WithLabelValues(source, outcome(res, err)).Inc()
	m.duration.WithLabelValues(source).Observe(took.Seconds())
}

func outcome(res Receipt, err error) string {
	switch {
	case err == nil && res.Succeeded():
		return "confirmed"
	case err == nil:
		return "reverted"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
