package bdd

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// diffThreshold is the combined length above which string mismatches
// carry a character diff.
const diffThreshold = 40

// colorDiffs renders diffs with ANSI colours. The CLI enables it on
// terminals.
var colorDiffs = false

// SetColor toggles coloured diffs in assertion messages.
func SetColor(on bool) { colorDiffs = on }

// AssertionError is a failed expectation in a Then step. It is distinct
// from locator timeouts so reports tell "wrong value" from "never shown".
type AssertionError struct {
	What     string
	Expected any
	Actual   any
	Diff     string
}

func (e *AssertionError) Error() string {
	msg := fmt.Sprintf("%s should be %v, got %v", e.What, quoted(e.Expected), quoted(e.Actual))
	if e.Diff != "" {
		msg += "\n  diff: " + e.Diff
	}
	return msg
}

func quoted(v any) any {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return v
}

func expectEqual(what string, want, got any) error {
	if reflect.DeepEqual(want, got) {
		return nil
	}
	e := &AssertionError{What: what, Expected: want, Actual: got}
	if ws, ok := want.(string); ok {
		if gs, ok := got.(string); ok {
			e.Diff = textDiff(ws, gs)
		}
	}
	return e
}

func expectContains(what, haystack, needle string) error {
	if strings.Contains(haystack, needle) {
		return nil
	}
	return &AssertionError{What: what, Expected: "text containing " + fmt.Sprintf("%q", needle), Actual: haystack}
}

func expectTrue(what string, ok bool) error {
	if ok {
		return nil
	}
	return &AssertionError{What: what, Expected: true, Actual: false}
}

// textDiff returns a character diff of two long strings, or "" for short
// ones where the message itself is readable.
func textDiff(want, got string) string {
	if len(want)+len(got) < diffThreshold {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(want, got, false))
	if colorDiffs {
		return dmp.DiffPrettyText(diffs)
	}
	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+" + d.Text + "+}")
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}
