package locator

import (
	"errors"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"XPATH", XPath, false},
		{"xpath", XPath, false},
		{"CSS", CSS, false},
		{"css selector", CSS, false},
		{"link_text", LinkText, false},
		{"LINK_TEXT", LinkText, false},
		{"class_name", ClassName, false},
		{"tag name", TagName, false},
		{"id", ID, false},
		{"name", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStrategy(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseStrategy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		loc      Locator
		wantKind QueryKind
		wantExpr string
	}{
		{"css", ByCSS("a", "input[placeholder='Filter Issues/Flaws']"), QueryCSS, "input[placeholder='Filter Issues/Flaws']"},
		{"xpath", ByXPath("b", "//button[text()='Logout']"), QueryXPath, "//button[text()='Logout']"},
		{"id", ByID("c", "main"), QueryCSS, `[id="main"]`},
		{"class", ByClassName("d", "btn  btn-close"), QueryCSS, ".btn.btn-close"},
		{"tag", ByTagName("e", "body"), QueryCSS, "body"},
		{"link", ByLinkText("f", "Create Flaw"), QueryXPath, `//a[normalize-space(.)="Create Flaw"]`},
	}

	for _, tt := range tests {
		kind, expr := tt.loc.Query()
		if kind != tt.wantKind || expr != tt.wantExpr {
			t.Errorf("%s: Query() = (%v, %q), want (%v, %q)", tt.name, kind, expr, tt.wantKind, tt.wantExpr)
		}
	}
}

func TestXPathNth(t *testing.T) {
	t.Parallel()

	pen := ByXPath("editpens", "//button[@class='osim-editable-text-pen input-group-text']")
	got, ok := pen.Nth(3).XPath()
	if !ok {
		t.Fatal("xpath locator should translate")
	}
	want := "(//button[@class='osim-editable-text-pen input-group-text'])[3]"
	if got != want {
		t.Errorf("Nth(3).XPath() = %q, want %q", got, want)
	}
	if pen.Index != 0 {
		t.Error("Nth must not mutate the receiver")
	}
	if _, ok := ByCSS("x", "div > p").XPath(); ok {
		t.Error("arbitrary CSS should not claim an XPath form")
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	tmpl := ByXPath("ack", "//div[text()=%s]")
	got := tmpl.Format(Literal("abc from def"))
	if got.Selector != `//div[text()="abc from def"]` {
		t.Errorf("Format() selector = %q", got.Selector)
	}
	if tmpl.Selector != "//div[text()=%s]" {
		t.Error("Format must not mutate the receiver")
	}
}

func TestLiteral(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"plain":      `"plain"`,
		`say "hi"`:   `'say "hi"'`,
		`it's "odd"`: `concat("it's ", '"', "odd", '"')`,
	}
	for in, want := range tests {
		if got := Literal(in); got != want {
			t.Errorf("Literal(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestRegistryLookup(t *testing.T) {
	t.Parallel()

	r, err := NewRegistry("home",
		ByXPath("logoutBtn", "//button[text()='Logout']"),
		ByCSS("userBtn", "button.osim-user-profile"),
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	l, err := r.Lookup("logoutBtn")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if l.Strategy != XPath {
		t.Errorf("strategy = %v, want XPATH", l.Strategy)
	}

	_, err = r.Lookup("loginBtn")
	if !errors.Is(err, ErrUnknownLocator) {
		t.Fatalf("expected ErrUnknownLocator, got %v", err)
	}
	if !strings.Contains(err.Error(), "home") || !strings.Contains(err.Error(), "loginBtn") {
		t.Errorf("error should name page and key: %v", err)
	}
	if got := r.Names(); len(got) != 2 || got[0] != "logoutBtn" {
		t.Errorf("Names() = %v", got)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry("detail",
		ByXPath("saveBtn", "//a"),
		ByXPath("saveBtn", "//b"),
	)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestRegistryExtendOverrides(t *testing.T) {
	t.Parallel()

	base := MustRegistry("detail", ByXPath("comment#0Text", "//span[text()='Comment#0']"), ByXPath("saveBtn", "//s"))
	ext, err := base.Extend("create", ByXPath("comment#0Text", "//span[text()=' Comment#0']"))
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if got := ext.MustLookup("comment#0Text").Selector; got != "//span[text()=' Comment#0']" {
		t.Errorf("override not applied: %q", got)
	}
	if !ext.Has("saveBtn") {
		t.Error("base entries should carry over")
	}
	if got := base.MustLookup("comment#0Text").Selector; got != "//span[text()='Comment#0']" {
		t.Error("Extend must not mutate the base registry")
	}
}

func TestRegistryLookupProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z][A-Za-z0-9]{0,12}`), 1, 20, rapid.ID[string]).Draw(t, "names")
		entries := make([]Locator, len(names))
		for i, n := range names {
			entries[i] = ByXPath(n, "//"+n)
		}
		r := MustRegistry("p", entries...)

		probe := rapid.StringMatching(`[a-z][A-Za-z0-9]{0,12}`).Draw(t, "probe")
		l, err := r.Lookup(probe)
		if r.Has(probe) {
			if err != nil || l.Name != probe {
				t.Fatalf("declared name %q did not resolve: %v", probe, err)
			}
		} else if !errors.Is(err, ErrUnknownLocator) {
			t.Fatalf("undeclared name %q must fail with ErrUnknownLocator, got %v", probe, err)
		}
	})
}
