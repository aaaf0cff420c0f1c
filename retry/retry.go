// Package retry provides the retry policies used around remote operations.
package retry

import (
	"context"
	"time"

	"github.com/nuln/filebox"
)

// Policy describes how a failed call is retried.
type Policy struct {
	Name        string
	MaxAttempts int           // total attempts, including the first
	Wait        time.Duration // pause between attempts

	// Retryable decides whether an error may be retried. Nil retries
	// every error.
	Retryable func(error) bool
}

// Once runs a failed call exactly one more time regardless of the error.
var Once = Policy{Name: "retryOnce", MaxAttempts: 2}

// OnceTransient runs a failed call one more time only when the error
// looks transient (timeouts, network faults).
var OnceTransient = Policy{Name: "retryOnceTransient", MaxAttempts: 2, Retryable: filebox.IsTransient}

// For returns the policy selected by cfg.
func For(cfg *filebox.Config) Policy {
	if cfg != nil && cfg.RetryTransientOnly {
		return OnceTransient
	}
	return Once
}

func (p Policy) retryable(err error) bool {
	return p.Retryable == nil || p.Retryable(err)
}

// Do executes fn under p and returns the last error.
// onRetry, when set, sees every error that is about to be retried.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error), onRetry func(attempt int, err error)) (T, error) {
	var result T
	var lastErr error

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		r, err := fn(ctx)
		if err == nil {
			return r, nil
		}
		lastErr = err

		if attempt == attempts || !p.retryable(err) {
			break
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}

		if p.Wait > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(p.Wait):
			}
		}
	}

	return result, lastErr
}
