package browser

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/RedHatProductSecurity/osim/internal/locator"
)

// Direction is a layout relation between an anchor and a candidate element.
type Direction string

const (
	Below Direction = "below"
	Above Direction = "above"
	Near  Direction = "near"
)

// nearDistance is the pixel radius used by Near.
const nearDistance = 50

// RelativeAttr is the attribute used to tag the target of a relative lookup.
const RelativeAttr = "data-e2e-relative"

// jsRelative marks the closest <tag> in direction dir from the anchor
// (this) with the given token. Candidates are ranked by the distance
// between the anchor's and the candidate's box centres.
const jsRelative = `function(tag, dir, token, radius, attr) {
	var a = this.getBoundingClientRect();
	var ax = a.left + a.width / 2, ay = a.top + a.height / 2;
	var best = null, bestDist = Infinity;
	var all = document.getElementsByTagName(tag);
	for (var i = 0; i < all.length; i++) {
		var el = all[i];
		if (el === this) { continue; }
		var r = el.getBoundingClientRect();
		if (r.width === 0 && r.height === 0) { continue; }
		var ok = false;
		if (dir === 'below') { ok = r.top >= a.bottom - 1; }
		else if (dir === 'above') { ok = r.bottom <= a.top + 1; }
		else {
			var dx = Math.max(a.left - r.right, 0, r.left - a.right);
			var dy = Math.max(a.top - r.bottom, 0, r.top - a.bottom);
			ok = Math.sqrt(dx * dx + dy * dy) <= radius;
		}
		if (!ok) { continue; }
		var cx = r.left + r.width / 2, cy = r.top + r.height / 2;
		var d = Math.sqrt((cx - ax) * (cx - ax) + (cy - ay) * (cy - ay));
		if (d < bestDist) { best = el; bestDist = d; }
	}
	var prev = document.querySelectorAll('[' + attr + '="' + token + '"]');
	for (var j = 0; j < prev.length; j++) { prev[j].removeAttribute(attr); }
	if (!best) { return false; }
	best.setAttribute(attr, token);
	return true;
}`

// Relative finds the <tag> closest to anchor in direction dir, the way
// Selenium's relative locators do ("the input below the 'JIRA API Key'
// label"). The match is tagged with a one-off attribute and resolved
// through the regular locator path so both backends return a normal handle.
func Relative(ctx context.Context, d Driver, tag string, anchor Element, dir Direction) (Element, error) {
	token := uuid.NewString()
	var ok bool
	if err := anchor.Call(ctx, jsRelative, &ok, tag, string(dir), token, nearDistance, RelativeAttr); err != nil {
		return nil, fmt.Errorf("relative %s %s %s: %w", tag, dir, anchor.Locator(), err)
	}
	loc := locator.ByCSS(fmt.Sprintf("%s %s %s", tag, dir, anchor.Locator().Name), fmt.Sprintf(`%s[%s=%q]`, tag, RelativeAttr, token))
	if !ok {
		return nil, &NotFoundError{Locator: loc}
	}
	return Find(ctx, d, loc)
}
