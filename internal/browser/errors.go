package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/RedHatProductSecurity/osim/internal/locator"
)

var (
	// ErrNotFound means a locator matched no element on the current page.
	ErrNotFound = errors.New("element not found")
	// ErrTimeout means a bounded wait expired before its condition held.
	ErrTimeout = errors.New("timed out")
)

// NotFoundError reports the locator that matched nothing.
type NotFoundError struct {
	Locator locator.Locator
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotFound, e.Locator)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// TimeoutError reports what was awaited and for how long. Last holds the
// most recent probe error, if any.
type TimeoutError struct {
	What  string
	After time.Duration
	Last  error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("%s after %s waiting for %s", ErrTimeout, e.After, e.What)
	if e.Last != nil {
		msg += ": " + e.Last.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrTimeout) hold while Unwrap still exposes Last.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

func (e *TimeoutError) Unwrap() error { return e.Last }

// IsTimeout reports whether err came from an expired wait.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

// IsNotFound reports whether err came from a locator with no match.
func IsNotFound(err error) bool {
	var te *TimeoutError
	if errors.As(err, &te) {
		return false
	}
	return errors.Is(err, ErrNotFound)
}
