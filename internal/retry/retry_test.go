package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var errFlaky = errors.New("cve id already exists")

func TestBudgetIsHonoured(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		budget := rapid.IntRange(1, 12).Draw(t, "budget")
		failures := rapid.IntRange(0, 15).Draw(t, "failures")

		calls := 0
		err := Policy{Attempts: budget}.Do(context.Background(), func(_ context.Context, attempt int) error {
			calls++
			if attempt != calls {
				t.Fatalf("attempt %d reported on call %d", attempt, calls)
			}
			if calls <= failures {
				return errFlaky
			}
			return nil
		})

		if failures < budget {
			if err != nil || calls != failures+1 {
				t.Fatalf("budget %d failures %d: err=%v calls=%d", budget, failures, err, calls)
			}
			return
		}
		var ex *ExhaustedError
		if !errors.As(err, &ex) || ex.Attempts != budget || calls != budget {
			t.Fatalf("budget %d failures %d: err=%v calls=%d", budget, failures, err, calls)
		}
		if !errors.Is(err, errFlaky) {
			t.Fatalf("exhausted error must wrap the last failure: %v", err)
		}
	})
}

func TestPermanentStopsImmediately(t *testing.T) {
	calls := 0
	err := Policy{Attempts: 10}.Do(context.Background(), func(context.Context, int) error {
		calls++
		return Permanent(errFlaky)
	})
	require.ErrorIs(t, err, errFlaky)
	var ex *ExhaustedError
	assert.False(t, errors.As(err, &ex))
	assert.Equal(t, 1, calls)
	assert.NoError(t, Permanent(nil))
}

func TestOnRetry(t *testing.T) {
	var seen []int
	p := Policy{Attempts: 3, OnRetry: func(attempt int, err error) {
		assert.ErrorIs(t, err, errFlaky)
		seen = append(seen, attempt)
	}}
	err := p.Do(context.Background(), func(context.Context, int) error { return errFlaky })
	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, seen)
}

func TestZeroBudgetRunsOnce(t *testing.T) {
	calls := 0
	err := Policy{}.Do(context.Background(), func(context.Context, int) error {
		calls++
		return errFlaky
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Policy{Attempts: 10, Interval: time.Hour}.Do(ctx, func(context.Context, int) error {
		calls++
		cancel()
		return errFlaky
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoUsesDefaultInterval(t *testing.T) {
	start := time.Now()
	err := Do(context.Background(), 2, func(_ context.Context, attempt int) error {
		if attempt == 1 {
			return errFlaky
		}
		return nil
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), DefaultInterval)
}
