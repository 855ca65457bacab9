// Package resilience wraps upstream calls in a circuit breaker that reports
// its state and outcomes to Prometheus.
package resilience

import (
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"moodflix/internal/metrics"
)

// Settings tunes a Breaker. Zero values fall back to defaults.
type Settings struct {
	// MinRequests is the number of calls in one interval before the failure
	// ratio is considered.
	MinRequests  uint32
	FailureRatio float64
	Interval     time.Duration
	OpenTimeout  time.Duration
	// Expected lists errors that are answers, not outages (e.g. 404).
	Expected []error
}

// Breaker guards calls to one upstream.
type Breaker[T any] struct {
	cb       *gobreaker.CircuitBreaker[T]
	upstream string
	expected []error
}

// NewBreaker builds a breaker named after the upstream it protects.
func NewBreaker[T any](upstream string, s Settings) *Breaker[T] {
	if s.MinRequests == 0 {
		s.MinRequests = 5
	}
	if s.FailureRatio <= 0 {
		s.FailureRatio = 0.6
	}
	if s.Interval <= 0 {
		s.Interval = time.Minute
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	b := &Breaker[T]{upstream: upstream, expected: s.Expected}
	metrics.BreakerState.WithLabelValues(upstream).Set(0)
	b.cb = gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        upstream,
		MaxRequests: 2,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
		IsSuccessful: b.isExpected,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return b
}

// Execute runs fn under the breaker and records the outcome for operation.
func (b *Breaker[T]) Execute(operation string, fn func() (T, error)) (T, error) {
	result, err := b.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.UpstreamRequests.WithLabelValues(b.upstream, operation, "success").Inc()
	case IsRejected(err):
		metrics.UpstreamRequests.WithLabelValues(b.upstream, operation, "rejected").Inc()
	case b.isExpected(err):
		metrics.UpstreamRequests.WithLabelValues(b.upstream, operation, "client_error").Inc()
	default:
		metrics.UpstreamRequests.WithLabelValues(b.upstream, operation, "failure").Inc()
	}
	return result, err
}

// State reports the current breaker state.
func (b *Breaker[T]) State() gobreaker.State {
	return b.cb.State()
}

// IsRejected reports whether err came from an open or saturated breaker
// rather than from the upstream itself.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func (b *Breaker[T]) isExpected(err error) bool {
	if err == nil {
		return true
	}
	for _, target := range b.expected {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
