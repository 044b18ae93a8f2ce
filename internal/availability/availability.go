// Package availability answers whether source imagery exists for a WRS-2
// region on a given day.
//
// An Oracle error means the question could not be answered; it is never a
// disguised "no imagery". Memo bounds the calls one submission makes and
// Breaker stops hammering a failing backend.
package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"sapsdispatch/internal/logging"
	"sapsdispatch/internal/wrs"
)

// Oracle reports whether a qualifying source image exists for region on day.
type Oracle interface {
	Available(ctx context.Context, region wrs.Region, day time.Time) (bool, error)
}

// Func adapts a function to Oracle.
type Func func(ctx context.Context, region wrs.Region, day time.Time) (bool, error)

// Available implements Oracle.
func (f Func) Available(ctx context.Context, region wrs.Region, day time.Time) (bool, error) {
	return f(ctx, region, day)
}

// Always answers true for every pair. It backs dry runs.
var Always Oracle = Func(func(context.Context, wrs.Region, time.Time) (bool, error) { return true, nil })

type memoKey struct {
	region wrs.Region
	day    string
}

// Memo caches answers for the lifetime of one submission. Errors are not
// cached so a later lookup of the same pair asks again.
type Memo struct {
	next Oracle

	mu      sync.Mutex
	answers map[memoKey]bool
	calls   int
}

// NewMemo wraps next with a per-submission cache.
func NewMemo(next Oracle) *Memo {
	return &Memo{next: next, answers: make(map[memoKey]bool)}
}

// Available implements Oracle.
func (m *Memo) Available(ctx context.Context, region wrs.Region, day time.Time) (bool, error) {
	key := memoKey{region: region, day: day.UTC().Format(time.DateOnly)}
	m.mu.Lock()
	if answer, ok := m.answers[key]; ok {
		m.mu.Unlock()
		return answer, nil
	}
	m.calls++
	m.mu.Unlock()

	answer, err := m.next.Available(ctx, region, day)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	m.answers[key] = answer
	m.mu.Unlock()
	return answer, nil
}

// Calls returns how many lookups reached the wrapped oracle.
func (m *Memo) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ErrBreakerOpen reports that the breaker rejected a lookup without asking the backend.
var ErrBreakerOpen = errors.New("availability breaker open")

// BreakerSettings tunes NewBreaker.
type BreakerSettings struct {
	// MaxFailures consecutive errors open the breaker.
	MaxFailures int
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	Logger      *slog.Logger
}

// Breaker guards an Oracle with a circuit breaker.
type Breaker struct {
	next Oracle
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next. Cancelled lookups do not count as failures.
func NewBreaker(next Oracle, settings BreakerSettings) *Breaker {
	logger := logging.NewComponentLogger(settings.Logger, "availability")
	maxFailures := uint32(max(settings.MaxFailures, 1))
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "availability",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.WarnWithContext(logger, "availability breaker state changed", "availability_breaker",
				logging.String("from", from.String()),
				logging.String("to", to.String()),
				logging.Hint("check the image catalog backend"),
				logging.Impact("submissions fail fast while the breaker is open"),
			)
		},
	})
	return &Breaker{next: next, cb: cb}
}

// Available implements Oracle. A rejected call returns ErrBreakerOpen, never false.
func (b *Breaker) Available(ctx context.Context, region wrs.Region, day time.Time) (bool, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Available(ctx, region, day)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false, fmt.Errorf("%w: %w", ErrBreakerOpen, err)
	}
	if err != nil {
		return false, err
	}
	return out.(bool), nil
}

// State returns the breaker state name.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
