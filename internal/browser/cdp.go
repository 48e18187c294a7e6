package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/RedHatProductSecurity/osim/internal/locator"
)

// CDP drives Chrome over the DevTools protocol.
type CDP struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logf        func(string, ...any)
}

// NewCDP launches a local Chrome, or attaches to opts.RemoteURL when set.
func NewCDP(parent context.Context, opts Options) (*CDP, error) {
	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if opts.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(parent, opts.RemoteURL)
	} else {
		execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("ignore-certificate-errors", true),
			chromedp.WindowSize(opts.Width, opts.Height),
		)
		allocCtx, allocCancel = chromedp.NewExecAllocator(parent, execOpts...)
	}

	ctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		opts.Logf("[browser] "+format, args...)
	}))
	if opts.SessionTimeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, opts.SessionTimeout)
		inner := cancel
		cancel = func() { timeoutCancel(); inner() }
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		if e, ok := ev.(*runtime.EventConsoleAPICalled); ok {
			args := make([]string, 0, len(e.Args))
			for _, a := range e.Args {
				if len(a.Value) > 0 {
					args = append(args, string(a.Value))
				} else if a.Description != "" {
					args = append(args, a.Description)
				}
			}
			opts.Logf("[console.%s] %s", e.Type, strings.Join(args, " "))
		}
	})

	// First Run starts the browser.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	return &CDP{ctx: ctx, cancel: cancel, allocCancel: allocCancel, logf: opts.Logf}, nil
}

// scope derives a context bound to the browser that also honours the
// caller's deadline and cancellation.
func (d *CDP) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(d.ctx)
	if deadline, ok := ctx.Deadline(); ok {
		var dc context.CancelFunc
		runCtx, dc = context.WithDeadline(runCtx, deadline)
		prev := cancel
		cancel = func() { dc(); prev() }
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() { stop(); cancel() }
}

func (d *CDP) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := d.scope(ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (d *CDP) Navigate(ctx context.Context, url string) error {
	return d.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery))
}

func (d *CDP) URL(ctx context.Context) (string, error) {
	var u string
	err := d.run(ctx, chromedp.Location(&u))
	return u, err
}

func (d *CDP) Reload(ctx context.Context) error {
	return d.run(ctx, chromedp.Reload(), chromedp.WaitReady("body", chromedp.ByQuery))
}

func (d *CDP) FindAll(ctx context.Context, loc locator.Locator) ([]Element, error) {
	kind, expr := loc.Query()
	by := chromedp.ByQueryAll
	if kind == locator.QueryXPath {
		by = chromedp.BySearch
	}
	var nodes []*cdp.Node
	if err := d.run(ctx, chromedp.Nodes(expr, &nodes, by, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	idx := narrow(loc, len(nodes))
	els := make([]Element, 0, len(idx))
	for _, i := range idx {
		els = append(els, &cdpElement{d: d, node: nodes[i], loc: loc})
	}
	return els, nil
}

func (d *CDP) Execute(ctx context.Context, expr string, result any) error {
	return d.run(ctx, chromedp.Evaluate(expr, result))
}

func (d *CDP) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := d.run(ctx, chromedp.CaptureScreenshot(&buf))
	return buf, err
}

func (d *CDP) HTML(ctx context.Context) (string, error) {
	var html string
	err := d.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (d *CDP) Close() error {
	d.cancel()
	d.allocCancel()
	return nil
}

type cdpElement struct {
	d    *CDP
	node *cdp.Node
	loc  locator.Locator
}

func (e *cdpElement) ids() []cdp.NodeID { return []cdp.NodeID{e.node.NodeID} }

func (e *cdpElement) Locator() locator.Locator { return e.loc }

func (e *cdpElement) Click(ctx context.Context) error {
	return e.d.run(ctx, chromedp.MouseClickNode(e.node))
}

func (e *cdpElement) SendKeys(ctx context.Context, text string) error {
	return e.d.run(ctx, chromedp.SendKeys(e.ids(), text, chromedp.ByNodeID))
}

func (e *cdpElement) SelectAllAndDelete(ctx context.Context) error {
	return e.d.run(ctx,
		chromedp.Focus(e.ids(), chromedp.ByNodeID),
		chromedp.KeyEvent("a", chromedp.KeyModifiers(input.ModifierCtrl)),
		chromedp.KeyEvent(kb.Backspace),
	)
}

func (e *cdpElement) Call(ctx context.Context, fn string, result any, args ...any) error {
	return e.d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		err = chromedp.CallFunctionOn(fn, result,
			func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
				return p.WithObjectID(obj.ObjectID)
			},
			args...,
		).Do(ctx)
		_ = runtime.ReleaseObject(obj.ObjectID).Do(ctx)
		return err
	}))
}
