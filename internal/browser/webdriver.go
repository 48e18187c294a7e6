package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/sclevine/agouti"

	"github.com/RedHatProductSecurity/osim/internal/locator"
)

// WebDriver drives a browser through a remote WebDriver endpoint, typically
// a Selenium container holding a Kerberos keytab for the OSIM login.
type WebDriver struct {
	page *agouti.Page
	logf func(string, ...any)
}

// WebDriver key codes.
const (
	keyNull      = "\ue000"
	keyBackspace = "\ue003"
	keyControl   = "\ue009"
)

// NewWebDriver opens a page on opts.WebDriverURL.
func NewWebDriver(opts Options) (*WebDriver, error) {
	if opts.WebDriverURL == "" {
		return nil, fmt.Errorf("webdriver backend needs a WebDriver URL")
	}
	name := opts.BrowserName
	if name == "" {
		name = "firefox"
	}
	caps := agouti.NewCapabilities().Browser(name).With("acceptInsecureCerts")
	switch name {
	case "firefox":
		args := []string{}
		if opts.Headless {
			args = append(args, "-headless")
		}
		caps["moz:firefoxOptions"] = map[string]any{
			"args": args,
			"prefs": map[string]any{
				// Negotiate (Kerberos) auth against the OSIM/OSIDB hosts.
				"network.negotiate-auth.trusted-uris": "https://",
			},
		}
	case "chrome":
		args := []string{fmt.Sprintf("--window-size=%d,%d", opts.Width, opts.Height), "--ignore-certificate-errors"}
		if opts.Headless {
			args = append(args, "--headless=new")
		}
		caps["goog:chromeOptions"] = map[string]any{"args": args}
	}

	agoutiOpts := []agouti.Option{agouti.Desired(caps)}
	if opts.SessionTimeout > 0 {
		agoutiOpts = append(agoutiOpts, agouti.Timeout(int(opts.SessionTimeout.Seconds())))
	}
	page, err := agouti.NewPage(opts.WebDriverURL, agoutiOpts...)
	if err != nil {
		return nil, fmt.Errorf("open webdriver session at %s: %w", opts.WebDriverURL, err)
	}
	if err := page.SetImplicitWait(0); err != nil {
		_ = page.Destroy()
		return nil, fmt.Errorf("set implicit wait: %w", err)
	}
	if err := page.Size(opts.Width, opts.Height); err != nil {
		opts.Logf("[browser] resize window: %v", err)
	}
	return &WebDriver{page: page, logf: opts.Logf}, nil
}

func (d *WebDriver) Navigate(_ context.Context, url string) error {
	return d.page.Navigate(url)
}

func (d *WebDriver) URL(_ context.Context) (string, error) {
	return d.page.URL()
}

func (d *WebDriver) Reload(_ context.Context) error {
	return d.page.Refresh()
}

func (d *WebDriver) FindAll(ctx context.Context, loc locator.Locator) ([]Element, error) {
	q, err := queryAllJS(loc)
	if err != nil {
		return nil, err
	}
	var n int
	if err := d.page.RunScript("return "+q+".length;", nil, &n); err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	idx := narrow(loc, n)
	els := make([]Element, 0, len(idx))
	for _, i := range idx {
		els = append(els, &wdElement{d: d, loc: loc, index: i})
	}
	return els, nil
}

func (d *WebDriver) Execute(_ context.Context, expr string, result any) error {
	return d.page.RunScript("return ("+expr+");", nil, result)
}

func (d *WebDriver) Screenshot(_ context.Context) ([]byte, error) {
	dir, err := os.MkdirTemp("", "osim-e2e-shot-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "page.png")
	if err := d.page.Screenshot(path); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (d *WebDriver) HTML(_ context.Context) (string, error) {
	return d.page.HTML()
}

func (d *WebDriver) Close() error {
	return d.page.Destroy()
}

// wdElement addresses a node as the index-th match of its locator; WebDriver
// element references cannot be passed into scripts through agouti, so the
// node is re-resolved on each call.
type wdElement struct {
	d     *WebDriver
	loc   locator.Locator
	index int
}

func (e *wdElement) Locator() locator.Locator { return e.loc }

func (e *wdElement) selection() *agouti.Selection {
	kind, expr := e.loc.Query()
	if kind == locator.QueryXPath {
		return e.d.page.AllByXPath(expr).At(e.index)
	}
	return e.d.page.All(expr).At(e.index)
}

func (e *wdElement) Click(_ context.Context) error {
	return e.selection().Click()
}

func (e *wdElement) SendKeys(_ context.Context, text string) error {
	return e.selection().SendKeys(text)
}

func (e *wdElement) SelectAllAndDelete(_ context.Context) error {
	sel := e.selection()
	if err := sel.SendKeys(keyControl + "a" + keyNull); err != nil {
		return err
	}
	return sel.SendKeys(keyBackspace)
}

func (e *wdElement) Call(_ context.Context, fn string, result any, args ...any) error {
	q, err := queryAllJS(e.loc)
	if err != nil {
		return err
	}
	if args == nil {
		args = []any{}
	}
	// Round-trip through JSON so agouti sees plain values.
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode script args: %w", err)
	}
	var plain []any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return fmt.Errorf("decode script args: %w", err)
	}
	body := fmt.Sprintf(`var el = %s[%d];
if (!el) { throw new Error('stale element: %s'); }
return (%s).apply(el, fnArgs);`, q, e.index, jsEscape(e.loc.String()), fn)
	return e.d.page.RunScript(body, map[string]any{"fnArgs": plain}, result)
}

func jsEscape(s string) string {
	raw, _ := json.Marshal(s)
	// Strip the surrounding quotes and escape single quotes for a '…' literal.
	inner := string(raw[1 : len(raw)-1])
	out := make([]rune, 0, len(inner))
	for _, r := range inner {
		if r == '\'' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
