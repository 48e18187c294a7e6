// Package browsertest provides an in-memory browser.Driver for page-object
// tests. Nodes are registered under the exact selector string of the
// locator that should find them.
package browsertest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/RedHatProductSecurity/osim/internal/browser"
	"github.com/RedHatProductSecurity/osim/internal/locator"
)

// Node is a fake DOM node.
type Node struct {
	Text    string
	Value   string
	Attrs   map[string]string
	Styles  map[string]string
	Checked bool
	Hidden  bool
	Options []browser.Option

	// Relatives maps "tag direction" (e.g. "input below") to the node a
	// relative lookup anchored here should return.
	Relatives map[string]*Node

	// OnClick runs after native and script clicks alike.
	OnClick func()

	Keys             []string
	Clicks           int
	JSClicks         int
	Clears           int
	Scrolls          int
	SelectAllDeletes int
}

// Fake is a scripted browser. It is not safe for concurrent use.
type Fake struct {
	nodes map[string][]*Node

	CurrentURL string
	Visits     []string
	Reloads    int
	Closed     bool

	// OnNavigate runs after every Navigate and Reload.
	OnNavigate func(url string)
	// Evaluate answers Driver.Execute.
	Evaluate func(expr string) (any, error)
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{nodes: map[string][]*Node{}}
}

// Set replaces the nodes registered under selector.
func (f *Fake) Set(selector string, nodes ...*Node) *Fake {
	f.nodes[selector] = nodes
	return f
}

// Add appends nodes under selector.
func (f *Fake) Add(selector string, nodes ...*Node) *Fake {
	f.nodes[selector] = append(f.nodes[selector], nodes...)
	return f
}

// SetLocator registers nodes under a locator's selector.
func (f *Fake) SetLocator(loc locator.Locator, nodes ...*Node) *Fake {
	return f.Set(loc.Selector, nodes...)
}

// Remove drops every node under selector.
func (f *Fake) Remove(selector string) {
	delete(f.nodes, selector)
}

// Nodes returns the nodes under selector.
func (f *Fake) Nodes(selector string) []*Node {
	return f.nodes[selector]
}

// NewNodes returns n fresh nodes.
func NewNodes(n int) []*Node {
	out := make([]*Node, n)
	for i := range out {
		out[i] = &Node{}
	}
	return out
}

func (f *Fake) Navigate(_ context.Context, url string) error {
	f.CurrentURL = url
	f.Visits = append(f.Visits, url)
	if f.OnNavigate != nil {
		f.OnNavigate(url)
	}
	return nil
}

func (f *Fake) URL(context.Context) (string, error) { return f.CurrentURL, nil }

func (f *Fake) Reload(context.Context) error {
	f.Reloads++
	if f.OnNavigate != nil {
		f.OnNavigate(f.CurrentURL)
	}
	return nil
}

func (f *Fake) FindAll(_ context.Context, loc locator.Locator) ([]browser.Element, error) {
	if f.Closed {
		return nil, fmt.Errorf("session closed")
	}
	nodes := f.nodes[loc.Selector]
	if loc.Index > 0 {
		if loc.Index > len(nodes) {
			return nil, nil
		}
		nodes = nodes[loc.Index-1 : loc.Index]
	}
	els := make([]browser.Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &element{f: f, n: n, loc: loc})
	}
	return els, nil
}

func (f *Fake) Execute(_ context.Context, expr string, result any) error {
	if f.Evaluate == nil {
		return fmt.Errorf("fake: no evaluator for %q", expr)
	}
	v, err := f.Evaluate(expr)
	if err != nil {
		return err
	}
	return decode(v, result)
}

func (f *Fake) Screenshot(context.Context) ([]byte, error) {
	return []byte("\x89PNG fake"), nil
}

func (f *Fake) HTML(context.Context) (string, error) {
	return "<html><body>" + f.CurrentURL + "</body></html>", nil
}

func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

type element struct {
	f   *Fake
	n   *Node
	loc locator.Locator
}

func (e *element) Locator() locator.Locator { return e.loc }

func (e *element) Click(context.Context) error {
	e.n.Clicks++
	if e.n.OnClick != nil {
		e.n.OnClick()
	}
	return nil
}

func (e *element) SendKeys(_ context.Context, text string) error {
	e.n.Keys = append(e.n.Keys, text)
	e.n.Value += text
	return nil
}

func (e *element) SelectAllAndDelete(context.Context) error {
	e.n.SelectAllDeletes++
	e.n.Value = ""
	return nil
}

func (e *element) Call(_ context.Context, fn string, result any, args ...any) error {
	n := e.n
	var out any = true
	switch browser.ScriptName(fn) {
	case "scrollIntoView", "scrollToCenter":
		n.Scrolls++
	case "click":
		n.JSClicks++
		if n.OnClick != nil {
			n.OnClick()
		}
	case "clear":
		n.Clears++
		n.Value = ""
	case "text":
		out = n.Text
	case "value":
		out = n.Value
	case "attribute":
		name := fmt.Sprint(args[0])
		switch name {
		case "checked":
			out = strconv.FormatBool(n.Checked)
		case "value":
			out = n.Value
		default:
			out = n.Attrs[name]
		}
	case "css":
		out = n.Styles[fmt.Sprint(args[0])]
	case "selected":
		out = n.Checked
	case "visible":
		out = !n.Hidden && n.Styles["visibility"] != "hidden"
	case "options":
		opts := make([]browser.Option, len(n.Options))
		for i, o := range n.Options {
			o.Selected = o.Value == n.Value
			opts[i] = o
		}
		out = opts
	case "selectBy":
		by, want := fmt.Sprint(args[0]), fmt.Sprint(args[1])
		found := false
		for _, o := range n.Options {
			got := o.Value
			if by == "text" {
				got = o.Text
			}
			if got == want {
				n.Value = o.Value
				found = true
				break
			}
		}
		out = found
	case "setVisibility":
		if n.Styles == nil {
			n.Styles = map[string]string{}
		}
		n.Styles["visibility"] = fmt.Sprint(args[0])
	case "relative":
		tag, dir, token := fmt.Sprint(args[0]), fmt.Sprint(args[1]), fmt.Sprint(args[2])
		target := n.Relatives[tag+" "+dir]
		if target == nil {
			out = false
			break
		}
		e.f.Set(fmt.Sprintf(`%s[%s=%q]`, tag, browser.RelativeAttr, token), target)
	default:
		return fmt.Errorf("fake: unsupported script %q", fn)
	}
	return decode(out, result)
}

func decode(v any, result any) error {
	if result == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, result)
}
