// Package browser resolves locators to live elements and drives a single
// browser session through either the Chrome DevTools protocol or a remote
// WebDriver endpoint.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/RedHatProductSecurity/osim/internal/locator"
)

// Driver is one browser session.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	Reload(ctx context.Context) error
	// FindAll resolves loc without waiting. No match is an empty slice.
	FindAll(ctx context.Context, loc locator.Locator) ([]Element, error)
	// Execute evaluates a JavaScript expression in the page and decodes
	// its JSON value into result.
	Execute(ctx context.Context, expr string, result any) error
	Screenshot(ctx context.Context) ([]byte, error)
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Element is a handle on one DOM node.
type Element interface {
	// Click issues a native (trusted) mouse click.
	Click(ctx context.Context) error
	// SendKeys types text into the element.
	SendKeys(ctx context.Context, text string) error
	// SelectAllAndDelete sends ctrl+a followed by backspace.
	SelectAllAndDelete(ctx context.Context) error
	// Call runs fn, a JavaScript function declaration, with this bound to
	// the element and decodes its return value into result.
	Call(ctx context.Context, fn string, result any, args ...any) error
	// Locator is the locator the element was resolved from.
	Locator() locator.Locator
}

// Backend selects the automation protocol.
type Backend string

const (
	BackendCDP       Backend = "cdp"
	BackendWebDriver Backend = "webdriver"
)

// ParseBackend validates a backend name.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case BackendCDP, "chrome", "chromedp":
		return BackendCDP, nil
	case BackendWebDriver, "selenium", "firefox":
		return BackendWebDriver, nil
	}
	return "", fmt.Errorf("unknown browser backend %q (want cdp|webdriver)", s)
}

// Options configures a session.
type Options struct {
	Backend Backend
	// Headless applies to locally launched Chrome only.
	Headless bool
	// RemoteURL is a DevTools websocket URL; empty launches Chrome locally.
	RemoteURL string
	// WebDriverURL is the remote WebDriver/Selenium endpoint.
	WebDriverURL string
	// BrowserName is the WebDriver browserName capability.
	BrowserName string
	Width       int
	Height      int
	// SessionTimeout bounds the whole session; zero means no bound.
	SessionTimeout time.Duration
	Logf           func(format string, args ...any)
}

// DefaultOptions returns a headless local Chrome session.
func DefaultOptions() Options {
	return Options{
		Backend:     BackendCDP,
		Headless:    true,
		BrowserName: "firefox",
		Width:       1920,
		Height:      1080,
		Logf:        func(string, ...any) {},
	}
}

// Open starts a session for the configured backend.
func Open(ctx context.Context, opts Options) (Driver, error) {
	if opts.Logf == nil {
		opts.Logf = func(string, ...any) {}
	}
	if opts.Width == 0 || opts.Height == 0 {
		opts.Width, opts.Height = 1920, 1080
	}
	switch opts.Backend {
	case BackendCDP, "":
		return NewCDP(ctx, opts)
	case BackendWebDriver:
		return NewWebDriver(opts)
	}
	return nil, fmt.Errorf("unknown browser backend %q", opts.Backend)
}
