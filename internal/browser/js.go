package browser

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/RedHatProductSecurity/osim/internal/locator"
)

// Element scripts. Each is a function declaration run with this bound to
// the element; every one returns a value so both backends can decode it.
const (
	jsScrollIntoView = `function() { this.scrollIntoView(true); return true; }`
	jsScrollCenter   = `function() { this.scrollIntoView({behavior: 'auto', block: 'center', inline: 'center'}); return true; }`
	jsClick          = `function() { this.click(); return true; }`
	jsClear          = `function() {
		this.value = '';
		this.dispatchEvent(new Event('input', {bubbles: true}));
		return true;
	}`
	jsText  = `function() { return (this.innerText !== undefined ? this.innerText : this.textContent || '').trim(); }`
	jsValue = `function() { return this.value === undefined || this.value === null ? '' : String(this.value); }`
	jsAttr  = `function(name) {
		if (name in this && typeof this[name] !== 'function' && typeof this[name] !== 'object') { return String(this[name]); }
		var v = this.getAttribute(name);
		return v === null ? '' : v;
	}`
	jsCSS      = `function(prop) { return window.getComputedStyle(this).getPropertyValue(prop); }`
	jsSelected = `function() { return !!(this.checked || this.selected); }`
	jsVisible  = `function() {
		if (!this.isConnected) { return false; }
		var s = window.getComputedStyle(this);
		if (s.visibility === 'hidden' || s.display === 'none' || s.opacity === '0') { return false; }
		return !!(this.offsetWidth || this.offsetHeight || this.getClientRects().length);
	}`
	jsOptions = `function() {
		var out = [];
		for (var i = 0; i < this.options.length; i++) {
			var o = this.options[i];
			out.push({value: o.value, text: (o.text || '').trim(), selected: o.selected});
		}
		return out;
	}`
	jsSelectBy = `function(by, want) {
		for (var i = 0; i < this.options.length; i++) {
			var o = this.options[i];
			var got = by === 'text' ? (o.text || '').trim() : o.value;
			if (got === want) {
				this.value = o.value;
				this.dispatchEvent(new Event('input', {bubbles: true}));
				this.dispatchEvent(new Event('change', {bubbles: true}));
				return true;
			}
		}
		return false;
	}`
	jsSetVisibility = `function(v) { this.style.visibility = v; return true; }`
)

// queryAllJS returns an expression evaluating to the array of elements
// matched by loc, before positional narrowing.
func queryAllJS(loc locator.Locator) (string, error) {
	kind, expr := loc.Query()
	lit, err := json.Marshal(expr)
	if err != nil {
		return "", fmt.Errorf("encode selector: %w", err)
	}
	if kind == locator.QueryXPath {
		return fmt.Sprintf(`(function(){var r=document.evaluate(%s,document,null,XPathResult.ORDERED_NODE_SNAPSHOT_TYPE,null),a=[];for(var i=0;i<r.snapshotLength;i++){a.push(r.snapshotItem(i));}return a;})()`, lit), nil
	}
	return fmt.Sprintf(`Array.prototype.slice.call(document.querySelectorAll(%s))`, lit), nil
}

// narrow applies a locator's positional index to a match count, returning
// the zero-based indices that survive.
func narrow(loc locator.Locator, n int) []int {
	if loc.Index > 0 {
		if loc.Index <= n {
			return []int{loc.Index - 1}
		}
		return nil
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Option is one <option> of a <select>.
type Option struct {
	Value    string `json:"value"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

// ScrollIntoView aligns the element with the top of the viewport.
func ScrollIntoView(ctx context.Context, el Element) error {
	var ok bool
	return el.Call(ctx, jsScrollIntoView, &ok)
}

// ScrollToCenter centers the element in the viewport.
func ScrollToCenter(ctx context.Context, el Element) error {
	var ok bool
	return el.Call(ctx, jsScrollCenter, &ok)
}

// ClickJS dispatches a click through script, bypassing overlays.
func ClickJS(ctx context.Context, el Element) error {
	var ok bool
	return el.Call(ctx, jsClick, &ok)
}

// ClearJS empties an input's value through script.
func ClearJS(ctx context.Context, el Element) error {
	var ok bool
	return el.Call(ctx, jsClear, &ok)
}

// Text returns the rendered, trimmed text of the element.
func Text(ctx context.Context, el Element) (string, error) {
	var s string
	err := el.Call(ctx, jsText, &s)
	return s, err
}

// Value returns the value property of a form control.
func Value(ctx context.Context, el Element) (string, error) {
	var s string
	err := el.Call(ctx, jsValue, &s)
	return s, err
}

// Attribute returns the property or attribute called name, "" when unset.
func Attribute(ctx context.Context, el Element, name string) (string, error) {
	var s string
	err := el.Call(ctx, jsAttr, &s, name)
	return s, err
}

// CSSValue returns the computed value of a CSS property.
func CSSValue(ctx context.Context, el Element, prop string) (string, error) {
	var s string
	err := el.Call(ctx, jsCSS, &s, prop)
	return s, err
}

// Selected reports the checked/selected state of a control.
func Selected(ctx context.Context, el Element) (bool, error) {
	var b bool
	err := el.Call(ctx, jsSelected, &b)
	return b, err
}

// Visible reports whether the element is rendered and not hidden.
func Visible(ctx context.Context, el Element) (bool, error) {
	var b bool
	err := el.Call(ctx, jsVisible, &b)
	return b, err
}

// SelectOptions lists the options of a <select>.
func SelectOptions(ctx context.Context, el Element) ([]Option, error) {
	var opts []Option
	err := el.Call(ctx, jsOptions, &opts)
	return opts, err
}

// SelectByValue picks the option whose value equals value.
func SelectByValue(ctx context.Context, el Element, value string) error {
	return selectBy(ctx, el, "value", value)
}

// SelectByText picks the option whose visible text equals text.
func SelectByText(ctx context.Context, el Element, text string) error {
	return selectBy(ctx, el, "text", text)
}

func selectBy(ctx context.Context, el Element, by, want string) error {
	var ok bool
	if err := el.Call(ctx, jsSelectBy, &ok, by, want); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("select %s: no option with %s %q", el.Locator(), by, want)
	}
	return nil
}

// SetVisibility sets style.visibility ("hidden" or "visible").
func SetVisibility(ctx context.Context, el Element, visibility string) error {
	var ok bool
	return el.Call(ctx, jsSetVisibility, &ok, visibility)
}

var scriptNames = map[string]string{
	jsScrollIntoView: "scrollIntoView",
	jsScrollCenter:   "scrollToCenter",
	jsClick:          "click",
	jsClear:          "clear",
	jsText:           "text",
	jsValue:          "value",
	jsAttr:           "attribute",
	jsCSS:            "css",
	jsSelected:       "selected",
	jsVisible:        "visible",
	jsOptions:        "options",
	jsSelectBy:       "selectBy",
	jsSetVisibility:  "setVisibility",
	jsRelative:       "relative",
}

// ScriptName returns the short name of a built-in element script, or ""
// for any other function. Fake drivers use it to emulate the scripts.
func ScriptName(fn string) string {
	return scriptNames[fn]
}
