// Package locator declares page elements as plain data: a symbolic name
// bound to a lookup strategy and a selector string.
package locator

import (
	"fmt"
	"strings"
)

// Strategy identifies how a selector is interpreted by the browser.
type Strategy int

const (
	CSS Strategy = iota
	XPath
	ID
	ClassName
	LinkText
	TagName
)

var strategyNames = map[Strategy]string{
	CSS:       "CSS",
	XPath:     "XPATH",
	ID:        "ID",
	ClassName: "CLASS_NAME",
	LinkText:  "LINK_TEXT",
	TagName:   "TAG_NAME",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy accepts the names used in locator tables ("xpath", "CSS",
// "link_text", "css selector", ...) case-insensitively.
func ParseStrategy(raw string) (Strategy, error) {
	norm := strings.ToUpper(strings.TrimSpace(raw))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch norm {
	case "CSS", "CSS_SELECTOR":
		return CSS, nil
	case "XPATH":
		return XPath, nil
	case "ID":
		return ID, nil
	case "CLASS_NAME", "CLASS":
		return ClassName, nil
	case "LINK_TEXT", "LINK":
		return LinkText, nil
	case "TAG_NAME", "TAG":
		return TagName, nil
	}
	return 0, fmt.Errorf("unknown locator strategy %q", raw)
}

// QueryKind is the query language a backend has to speak to resolve a locator.
type QueryKind int

const (
	QueryCSS QueryKind = iota
	QueryXPath
)

// Locator is an immutable (strategy, selector) pair with a symbolic name.
// Index, when positive, narrows the match set to its 1-based position.
type Locator struct {
	Name     string
	Strategy Strategy
	Selector string
	Index    int
}

// New builds a locator.
func New(name string, strategy Strategy, selector string) Locator {
	return Locator{Name: name, Strategy: strategy, Selector: selector}
}

func ByCSS(name, selector string) Locator { return New(name, CSS, selector) }

func ByXPath(name, selector string) Locator { return New(name, XPath, selector) }

func ByID(name, id string) Locator { return New(name, ID, id) }

func ByClassName(name, class string) Locator { return New(name, ClassName, class) }

func ByLinkText(name, text string) Locator { return New(name, LinkText, text) }

func ByTagName(name, tag string) Locator { return New(name, TagName, tag) }

// Text matches a <tag> whose text node equals text exactly.
func Text(name, tag, text string) Locator {
	return ByXPath(name, fmt.Sprintf("//%s[text()=%s]", tag, Literal(text)))
}

// Contains matches a <tag> whose text node contains text.
func Contains(name, tag, text string) Locator {
	return ByXPath(name, fmt.Sprintf("//%s[contains(text(), %s)]", tag, Literal(text)))
}

// Nth returns the same locator narrowed to the i-th match (1-based).
func (l Locator) Nth(i int) Locator {
	l.Index = i
	if l.Name != "" {
		l.Name = fmt.Sprintf("%s[%d]", l.Name, i)
	}
	return l
}

// Format fills a templated selector.
func (l Locator) Format(args ...any) Locator {
	l.Selector = fmt.Sprintf(l.Selector, args...)
	return l
}

// Query translates the locator into the query a browser understands.
// Positional narrowing is not part of the returned expression; backends
// apply Index to the match list.
func (l Locator) Query() (QueryKind, string) {
	switch l.Strategy {
	case CSS:
		return QueryCSS, l.Selector
	case ID:
		return QueryCSS, fmt.Sprintf("[id=%q]", l.Selector)
	case ClassName:
		return QueryCSS, "." + strings.Join(strings.Fields(l.Selector), ".")
	case TagName:
		return QueryCSS, l.Selector
	case LinkText:
		return QueryXPath, fmt.Sprintf("//a[normalize-space(.)=%s]", Literal(l.Selector))
	default:
		return QueryXPath, l.Selector
	}
}

// XPath renders the locator as a single XPath expression, positional
// narrowing included. CSS selectors other than the simple strategy forms
// cannot be expressed and report ok=false.
func (l Locator) XPath() (string, bool) {
	var expr string
	switch l.Strategy {
	case XPath:
		expr = l.Selector
	case ID:
		expr = fmt.Sprintf("//*[@id=%s]", Literal(l.Selector))
	case ClassName:
		expr = fmt.Sprintf("//*[contains(concat(' ', normalize-space(@class), ' '), %s)]", Literal(" "+strings.TrimSpace(l.Selector)+" "))
	case TagName:
		expr = "//" + l.Selector
	case LinkText:
		_, expr = l.Query()
	default:
		return "", false
	}
	if l.Index > 0 {
		expr = fmt.Sprintf("(%s)[%d]", expr, l.Index)
	}
	return expr, true
}

func (l Locator) String() string {
	s := fmt.Sprintf("%s(%s)", l.Strategy, l.Selector)
	if l.Index > 0 {
		s += fmt.Sprintf("[%d]", l.Index)
	}
	if l.Name != "" {
		return l.Name + "=" + s
	}
	return s
}

// Literal quotes s as an XPath string literal, falling back to concat()
// when s holds both quote kinds.
func Literal(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
