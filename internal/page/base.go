// Package page holds the OSIM page objects. Every page embeds a *Base,
// which resolves the page's symbolic locators through a browser.Driver and
// provides the interaction helpers shared by all pages.
package page

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/RedHatProductSecurity/osim/internal/browser"
	"github.com/RedHatProductSecurity/osim/internal/locator"
)

const (
	// DefaultTimeout bounds waits on a Base built without a page timeout.
	DefaultTimeout = 60 * time.Second
	// PageTimeout is the wait bound used by the concrete pages.
	PageTimeout = 15 * time.Second
)

// Target is either a symbolic locator name or an element handle already
// in hand.
type Target struct {
	name string
	el   browser.Element
}

// Named targets the registry entry called name.
func Named(name string) Target { return Target{name: name} }

// Handle targets an element that was resolved elsewhere.
func Handle(el browser.Element) Target { return Target{el: el} }

func (t Target) String() string {
	if t.el != nil {
		return t.el.Locator().String()
	}
	return t.name
}

// Base is the capability set every page object composes.
type Base struct {
	Driver   browser.Driver
	Registry *locator.Registry
	Timeout  time.Duration
	Log      *log.Logger
}

// NewBase builds a Base. A zero timeout selects DefaultTimeout and a nil
// logger discards output.
func NewBase(d browser.Driver, reg *locator.Registry, timeout time.Duration, logger *log.Logger) *Base {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.New(io.Discard)
		logger.SetLevel(log.FatalLevel)
	}
	return &Base{
		Driver:   d,
		Registry: reg,
		Timeout:  timeout,
		Log:      logger.WithPrefix(reg.Page()),
	}
}

// Locator looks a name up in the page registry.
func (b *Base) Locator(name string) (locator.Locator, error) {
	return b.Registry.Lookup(name)
}

// Element resolves name, waiting up to the page timeout for it to appear.
func (b *Base) Element(ctx context.Context, name string) (browser.Element, error) {
	loc, err := b.Locator(name)
	if err != nil {
		return nil, err
	}
	return browser.WaitFind(ctx, b.Driver, loc, b.Timeout)
}

// Elements resolves every match of name without waiting.
func (b *Base) Elements(ctx context.Context, name string) ([]browser.Element, error) {
	loc, err := b.Locator(name)
	if err != nil {
		return nil, err
	}
	return b.Driver.FindAll(ctx, loc)
}

func (b *Base) resolve(ctx context.Context, t Target) (browser.Element, error) {
	if t.el != nil {
		return t.el, nil
	}
	return b.Element(ctx, t.name)
}

// ClickJS scrolls the target into view and clicks it through script, which
// works even when another element overlaps it.
func (b *Base) ClickJS(ctx context.Context, t Target) error {
	el, err := b.resolve(ctx, t)
	if err != nil {
		return err
	}
	b.Log.Debug("click (js)", "target", t)
	if err := browser.ScrollIntoView(ctx, el); err != nil {
		return err
	}
	return browser.ClickJS(ctx, el)
}

// Click scrolls the target into view and issues a native click.
func (b *Base) Click(ctx context.Context, t Target) error {
	el, err := b.resolve(ctx, t)
	if err != nil {
		return err
	}
	b.Log.Debug("click", "target", t)
	if err := browser.ScrollIntoView(ctx, el); err != nil {
		return err
	}
	return el.Click(ctx)
}

// ClearText scrolls the target into view and empties its value.
func (b *Base) ClearText(ctx context.Context, t Target) error {
	el, err := b.resolve(ctx, t)
	if err != nil {
		return err
	}
	if err := browser.ScrollIntoView(ctx, el); err != nil {
		return err
	}
	return browser.ClearJS(ctx, el)
}

// SetText clears the target and types value.
func (b *Base) SetText(ctx context.Context, t Target, value string) error {
	el, err := b.resolve(ctx, t)
	if err != nil {
		return err
	}
	if err := browser.ClearJS(ctx, el); err != nil {
		return err
	}
	return el.SendKeys(ctx, value)
}

// Text returns the rendered text of the target.
func (b *Base) Text(ctx context.Context, t Target) (string, error) {
	el, err := b.resolve(ctx, t)
	if err != nil {
		return "", err
	}
	return browser.Text(ctx, el)
}

// WaitVisible waits for the named element to become visible.
func (b *Base) WaitVisible(ctx context.Context, name string) (browser.Element, error) {
	loc, err := b.Locator(name)
	if err != nil {
		return nil, err
	}
	return browser.WaitVisible(ctx, b.Driver, loc, b.Timeout)
}

// WaitMessage waits for the named toast or status message to be visible.
func (b *Base) WaitMessage(ctx context.Context, name string) error {
	_, err := b.WaitVisible(ctx, name)
	if err == nil {
		b.Log.Debug("message shown", "name", name)
	}
	return err
}

func textLocator(value string) locator.Locator {
	return locator.ByXPath("text "+value, "//*[contains(text(), "+locator.Literal(value)+")]")
}

// AssertTextPresent waits until some element's own text contains value.
func (b *Base) AssertTextPresent(ctx context.Context, value string) error {
	_, err := browser.WaitFind(ctx, b.Driver, textLocator(value), b.Timeout)
	return err
}

// AssertTextAbsent waits until no element's own text contains value.
func (b *Base) AssertTextAbsent(ctx context.Context, value string) error {
	return browser.WaitAbsent(ctx, b.Driver, textLocator(value), b.Timeout)
}

// Exists probes loc without waiting.
func (b *Base) Exists(ctx context.Context, loc locator.Locator) bool {
	return browser.Exists(ctx, b.Driver, loc)
}

// Has probes the named locator without waiting. Unknown names are absent.
func (b *Base) Has(ctx context.Context, name string) bool {
	loc, err := b.Locator(name)
	if err != nil {
		return false
	}
	return b.Exists(ctx, loc)
}

// IsCheckboxSelected reports whether the first match of name is checked.
func (b *Base) IsCheckboxSelected(ctx context.Context, name string) (bool, error) {
	loc, err := b.Locator(name)
	if err != nil {
		return false, err
	}
	el, err := browser.Find(ctx, b.Driver, loc)
	if err != nil {
		return false, err
	}
	return browser.Selected(ctx, el)
}

var stickyBars = []string{"bottomFooter", "bottomBar"}

// HideStickyBars hides the status footer and the floating action bar so
// they cannot intercept clicks. Bars missing from the page are skipped.
func (b *Base) HideStickyBars(ctx context.Context) error {
	return b.setStickyVisibility(ctx, "hidden")
}

// ShowStickyBars reverses HideStickyBars.
func (b *Base) ShowStickyBars(ctx context.Context) error {
	return b.setStickyVisibility(ctx, "visible")
}

func (b *Base) setStickyVisibility(ctx context.Context, v string) error {
	for _, name := range stickyBars {
		els, err := b.Elements(ctx, name)
		if err != nil {
			continue
		}
		for _, el := range els {
			if err := browser.SetVisibility(ctx, el, v); err != nil {
				return fmt.Errorf("%s %s: %w", v, name, err)
			}
		}
	}
	return nil
}

// withStickyBarsHidden runs fn with the sticky bars hidden and restores
// them afterwards, whatever fn returns.
func (b *Base) withStickyBarsHidden(ctx context.Context, fn func() error) error {
	if err := b.HideStickyBars(ctx); err != nil {
		return err
	}
	ferr := fn()
	if err := b.ShowStickyBars(ctx); err != nil && ferr == nil {
		return err
	}
	return ferr
}

// CloseToast dismisses the visible toast, if any.
func (b *Base) CloseToast(ctx context.Context) error {
	loc, err := b.Locator("toastMsgCloseBtn")
	if err != nil {
		return err
	}
	els, err := b.Driver.FindAll(ctx, loc)
	if err != nil || len(els) == 0 {
		return err
	}
	return browser.ClickJS(ctx, els[0])
}

// countFromLabel parses labels such as "References: 3".
func countFromLabel(label string) (int, error) {
	_, raw, ok := strings.Cut(label, ":")
	if !ok {
		return 0, fmt.Errorf("no count in label %q", label)
	}
	var n int
	if _, err := fmt.Sscan(strings.TrimSpace(raw), &n); err != nil {
		return 0, fmt.Errorf("no count in label %q: %w", label, err)
	}
	return n, nil
}

// joinURL resolves an application path against the OSIM base URL.
func joinURL(base, path string) string {
	u, err := url.Parse(base)
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	}
	return u.JoinPath(path).String()
}
