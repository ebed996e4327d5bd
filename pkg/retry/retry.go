// Package retry runs fallible operations under an exponential backoff policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrExhausted is returned when every attempt failed. It wraps the last error.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy describes how failed operations are retried.
//
// An operation is run at most MaxAttempts+1 times: the first try plus
// MaxAttempts retries. After the n-th failure the policy waits ExpBase^n
// units before trying again.
type Policy struct {
	MaxAttempts int
	ExpBase     float64
	Unit        time.Duration

	// Retryable reports whether err should be retried. Nil retries everything.
	Retryable func(err error) bool

	// OnRetry, if set, is called before each wait.
	OnRetry func(attempt int, wait time.Duration, err error)

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Default matches the scrape job defaults: 3 retries, base 3, seconds.
func Default() Policy {
	return Policy{MaxAttempts: 3, ExpBase: 3, Unit: time.Second}
}

// Backoff returns the wait after the given failed attempt (1-based).
func (p Policy) Backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(p.ExpBase, float64(attempt)) * float64(p.Unit))
}

// Attempts is the total number of times an operation may run.
func (p Policy) Attempts() int {
	if p.MaxAttempts < 0 {
		return 1
	}
	return p.MaxAttempts + 1
}

func (p Policy) retryable(err error) bool {
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs op until it succeeds or the policy gives up.
// Non-retryable errors and context cancellation are returned as-is.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := p.Attempts()
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if !p.retryable(err) {
			return zero, err
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		wait := p.Backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}
		if err := p.sleep(ctx, wait); err != nil {
			return zero, err
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, lastErr)
}
