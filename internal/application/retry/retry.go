// Package retry runs provider calls under a bounded exponential backoff.
// Only failures that outbound.IsRetryable accepts are retried.
package retry

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
)

// Policy bounds the attempts made for one call
type Policy struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// DefaultPolicy makes 3 attempts, waiting 2s and then 4s between them
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseBackoff: 2 * time.Second}
}

// Backoff returns the wait after the given failed attempt (1-based).
// It doubles from BaseBackoff, so a policy with MaxAttempts n sleeps n-1 times.
func (p Policy) Backoff(attempt int) time.Duration {
	return p.BaseBackoff << (attempt - 1)
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the timer based Sleeper
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Notify is called before each backoff wait
type Notify func(attempt int, wait time.Duration, err error)

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// policy runs out of attempts. It returns the attempts made and the last error.
// When a wait is cut short the context error is joined to the last failure.
func Do(ctx context.Context, p Policy, sleep Sleeper, notify Notify, fn func(ctx context.Context, attempt int) error) (int, error) {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return attempt, nil
		}
		if !outbound.IsRetryable(lastErr) || attempt == p.MaxAttempts {
			return attempt, lastErr
		}

		wait := p.Backoff(attempt)
		if notify != nil {
			notify(attempt, wait, lastErr)
		}
		if err := sleep(ctx, wait); err != nil {
			return attempt, stderrors.Join(lastErr, err)
		}
	}
	return p.MaxAttempts, lastErr
}
