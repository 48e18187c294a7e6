// Package retry runs an operation a bounded number of times, pausing a
// constant interval between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultInterval separates attempts made through Do.
const DefaultInterval = 500 * time.Millisecond

// Op is one attempt. attempt counts from 1.
type Op func(ctx context.Context, attempt int) error

// ExhaustedError is returned when every attempt failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Permanent marks err as not worth retrying; Do returns it unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Policy bounds a retry loop.
type Policy struct {
	Attempts int
	Interval time.Duration
	// OnRetry, when set, sees every failed attempt that will be retried.
	OnRetry func(attempt int, err error)
}

// Do runs op up to attempts times with DefaultInterval between attempts.
func Do(ctx context.Context, attempts int, op Op) error {
	return Policy{Attempts: attempts, Interval: DefaultInterval}.Do(ctx, op)
}

// Do runs op until it succeeds, returns a Permanent error, the context
// ends or the attempt budget is spent. A budget below one runs op once.
func (p Policy) Do(ctx context.Context, op Op) error {
	attempts := max(p.Attempts, 1)
	var b backoff.BackOff = backoff.NewConstantBackOff(p.Interval)
	b = backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)

	attempt := 0
	var last error
	err := backoff.RetryNotify(func() error {
		attempt++
		last = op(ctx, attempt)
		return last
	}, b, func(err error, _ time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
	})
	if err == nil {
		return nil
	}

	var perm *backoff.PermanentError
	if errors.As(last, &perm) {
		return perm.Unwrap()
	}
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("retry interrupted after %d attempts: %w", attempt, cerr)
	}
	return &ExhaustedError{Attempts: attempt, Last: last}
}
