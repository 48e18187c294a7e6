package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/RedHatProductSecurity/osim/internal/locator"
)

// DefaultPollInterval is the spacing between condition probes.
const DefaultPollInterval = 250 * time.Millisecond

// Poll evaluates cond until it reports true, the timeout expires or ctx is
// cancelled. Probe errors are remembered and reported on timeout but do not
// stop polling: elements routinely go stale while the page re-renders.
func Poll(ctx context.Context, timeout, interval time.Duration, what string, cond func(context.Context) (bool, error)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.Now().Add(timeout)
	var last error
	for {
		ok, err := cond(ctx)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			last = err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("waiting for %s: %w", what, ctxErr)
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return &TimeoutError{What: what, After: timeout, Last: last}
		}
		sleep := interval
		if remaining < sleep {
			sleep = remaining
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", what, ctx.Err())
		case <-time.After(sleep):
		}
	}
}

// Find resolves loc to its first match without waiting.
func Find(ctx context.Context, d Driver, loc locator.Locator) (Element, error) {
	els, err := d.FindAll(ctx, loc)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, &NotFoundError{Locator: loc}
	}
	return els[0], nil
}

// RequireAll is FindAll that treats an empty match set as NotFound.
func RequireAll(ctx context.Context, d Driver, loc locator.Locator) ([]Element, error) {
	els, err := d.FindAll(ctx, loc)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, &NotFoundError{Locator: loc}
	}
	return els, nil
}

// Exists is a non-blocking probe; lookup failures count as absent.
func Exists(ctx context.Context, d Driver, loc locator.Locator) bool {
	els, err := d.FindAll(ctx, loc)
	return err == nil && len(els) > 0
}

// WaitFind polls until loc matches at least one element.
func WaitFind(ctx context.Context, d Driver, loc locator.Locator, timeout time.Duration) (Element, error) {
	var found Element
	err := Poll(ctx, timeout, DefaultPollInterval, "presence of "+loc.String(), func(ctx context.Context) (bool, error) {
		el, err := Find(ctx, d, loc)
		if err != nil {
			return false, err
		}
		found = el
		return true, nil
	})
	return found, err
}

// WaitVisible polls until the first match of loc is visible.
func WaitVisible(ctx context.Context, d Driver, loc locator.Locator, timeout time.Duration) (Element, error) {
	var found Element
	err := Poll(ctx, timeout, DefaultPollInterval, "visibility of "+loc.String(), func(ctx context.Context) (bool, error) {
		el, err := Find(ctx, d, loc)
		if err != nil {
			return false, err
		}
		ok, err := Visible(ctx, el)
		if err != nil || !ok {
			return false, err
		}
		found = el
		return true, nil
	})
	return found, err
}

// WaitAbsent polls until loc matches nothing.
func WaitAbsent(ctx context.Context, d Driver, loc locator.Locator, timeout time.Duration) error {
	return Poll(ctx, timeout, DefaultPollInterval, "removal of "+loc.String(), func(ctx context.Context) (bool, error) {
		els, err := d.FindAll(ctx, loc)
		if err != nil {
			return false, err
		}
		return len(els) == 0, nil
	})
}

// WaitInvisible polls until no match of loc is visible. A missing element
// counts as invisible.
func WaitInvisible(ctx context.Context, d Driver, loc locator.Locator, timeout time.Duration) error {
	return Poll(ctx, timeout, DefaultPollInterval, "invisibility of "+loc.String(), func(ctx context.Context) (bool, error) {
		els, err := d.FindAll(ctx, loc)
		if err != nil {
			return false, err
		}
		for _, el := range els {
			ok, err := Visible(ctx, el)
			if err != nil {
				continue
			}
			if ok {
				return false, nil
			}
		}
		return true, nil
	})
}

// WaitCount polls until the number of matches of loc satisfies pred and
// returns that number.
func WaitCount(ctx context.Context, d Driver, loc locator.Locator, timeout time.Duration, what string, pred func(n int) bool) (int, error) {
	var n int
	err := Poll(ctx, timeout, DefaultPollInterval, what, func(ctx context.Context) (bool, error) {
		els, err := d.FindAll(ctx, loc)
		if err != nil {
			return false, err
		}
		n = len(els)
		return pred(n), nil
	})
	return n, err
}
