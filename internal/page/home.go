package page

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/RedHatProductSecurity/osim/internal/browser"
	"github.com/RedHatProductSecurity/osim/internal/locator"
)

// loadMoreSettle is how long LoadAll waits for a click to add rows before
// it treats the list as exhausted.
const loadMoreSettle = 3 * time.Second

const flawRowXPath = "//div[@class='osim-incident-list']/table/tbody/tr[@style='border-top: 1px solid black;']"

var homeLocators = locator.MustRegistry("home",
	locator.Text("logoutBtn", "button", "Logout"),
	locator.ByCSS("userBtn", "button[class='btn btn-secondary dropdown-toggle osim-user-profile']"),
	locator.ByCSS("flawList", "div[class='osim-incident-list']"),
	locator.ByCSS("flawFilter", "input[placeholder='Filter Issues/Flaws']"),
	locator.ByCSS("flawCheckbox", "input[class='form-check-input']"),
	locator.ByCSS("flawIndexLink", "ul[class='navbar-nav me-auto align-items-center'] li:nth-child(1) a"),
	locator.ByXPath("flawCheckAll", "//div[@class='osim-incident-list']/table/thead/tr/th/input[@type='checkbox']"),
	locator.ByXPath("flawRow", flawRowXPath),
	locator.ByXPath("flawRowAt", `//tbody[@class="table-group-divider"]/tr[%d]`),
	locator.ByXPath("firstFlaw", `//tbody[@class="table-group-divider"]/tr[1]`),
	locator.ByXPath("firstFlawLink", `//tbody[@class="table-group-divider"]/tr[1]/td[2]/a`),
	locator.Contains("loadMoreBtn", "button", "Load More Flaws"),
	locator.ByXPath("quickSearch", "//form[@role='search']/input"),
	locator.ByXPath("quickSearchBtn", "//form[@role='search']/button"),
	locator.ByXPath("myIssuesCheckbox", "//label[contains(text(), 'My Issues')]/input[@type='checkbox']"),
	locator.ByXPath("columnHeader", "//div[@class='osim-incident-list']/table/thead/tr/th[contains(normalize-space(.), %s)]"),
	locator.ByXPath("columnCells", flawRowXPath+"/td[%d]"),
	locator.ByXPath("firstRowCell", "//tr[1]/td[%d]"),
)

// FlawColumns maps the flaw list columns to their 1-based cell index.
var FlawColumns = map[string]int{
	"cve_id":         2,
	"impact":         3,
	"source":         4,
	"created":        5,
	"title":          6,
	"workflow_state": 7,
	"state":          7,
	"owner":          8,
}

// Home is the flaw list (index) page.
type Home struct {
	*Base
	URL string
}

// NewHome returns the flaw list page of the OSIM instance at baseURL.
func NewHome(d browser.Driver, baseURL string, logger *log.Logger) *Home {
	return &Home{Base: NewBase(d, homeLocators, PageTimeout, logger), URL: baseURL}
}

// GoHome shows the flaw list, navigating only when the browser is
// somewhere else.
func (p *Home) GoHome(ctx context.Context) error {
	cur, err := p.Driver.URL(ctx)
	if err != nil || strings.TrimRight(cur, "/") != strings.TrimRight(p.URL, "/") {
		if err := p.Driver.Navigate(ctx, p.URL); err != nil {
			return err
		}
	}
	return p.WaitLoaded(ctx)
}

// WaitLoaded waits until the flaw table is visible.
func (p *Home) WaitLoaded(ctx context.Context) error {
	_, err := p.WaitVisible(ctx, "flawList")
	return err
}

// WaitFirstRow waits until at least one flaw row is rendered.
func (p *Home) WaitFirstRow(ctx context.Context) error {
	_, err := p.WaitVisible(ctx, "firstFlaw")
	return err
}

// Logout opens the user menu and clicks Logout.
func (p *Home) Logout(ctx context.Context) error {
	if err := p.Click(ctx, Named("userBtn")); err != nil {
		return err
	}
	btn, err := p.WaitVisible(ctx, "logoutBtn")
	if err != nil {
		return err
	}
	return btn.Click(ctx)
}

// UserName returns the login shown on the user menu button.
func (p *Home) UserName(ctx context.Context) (string, error) {
	el, err := p.WaitVisible(ctx, "userBtn")
	if err != nil {
		return "", err
	}
	return browser.Text(ctx, el)
}

// ClickFirstFlawLink opens the first flaw of the list.
func (p *Home) ClickFirstFlawLink(ctx context.Context) error {
	link, err := p.WaitVisible(ctx, "firstFlawLink")
	if err != nil {
		return err
	}
	return link.Click(ctx)
}

// ClickCheckAll toggles the check-all checkbox once the first row is shown.
func (p *Home) ClickCheckAll(ctx context.Context) error {
	box, err := p.WaitVisible(ctx, "flawCheckAll")
	if err != nil {
		return err
	}
	if err := p.WaitFirstRow(ctx); err != nil {
		return err
	}
	return box.Click(ctx)
}

func (p *Home) checkedCount(ctx context.Context) (checked, total int, err error) {
	boxes, err := p.Elements(ctx, "flawCheckbox")
	if err != nil {
		return 0, 0, err
	}
	for _, box := range boxes {
		v, err := browser.Attribute(ctx, box, "checked")
		if err != nil {
			return 0, 0, err
		}
		if v == "true" {
			checked++
		}
	}
	return checked, len(boxes), nil
}

// AllFlawsSelected checks that every row has a checkbox and all are checked.
func (p *Home) AllFlawsSelected(ctx context.Context) error {
	rows, err := p.FlawRowCount(ctx)
	if err != nil {
		return err
	}
	checked, total, err := p.checkedCount(ctx)
	if err != nil {
		return err
	}
	if rows != total {
		return fmt.Errorf("incorrect checkbox count: %d rows, %d checkboxes", rows, total)
	}
	if checked != total {
		return fmt.Errorf("incorrect check-all result: %d of %d checked", checked, total)
	}
	return nil
}

// NoFlawSelected checks that no row checkbox is checked.
func (p *Home) NoFlawSelected(ctx context.Context) error {
	checked, _, err := p.checkedCount(ctx)
	if err != nil {
		return err
	}
	if checked != 0 {
		return fmt.Errorf("incorrect uncheck-all result: %d still checked", checked)
	}
	return nil
}

// HasMoreFlaws reports whether the Load More Flaws button is present once
// the user menu has rendered.
func (p *Home) HasMoreFlaws(ctx context.Context) (bool, error) {
	if _, err := p.WaitVisible(ctx, "userBtn"); err != nil {
		return false, err
	}
	return p.Has(ctx, "loadMoreBtn"), nil
}

// FlawRowCount counts the flaw rows currently rendered.
func (p *Home) FlawRowCount(ctx context.Context) (int, error) {
	rows, err := p.Elements(ctx, "flawRow")
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// ClickLoadMore clicks Load More Flaws and returns the row count from
// before the click.
func (p *Home) ClickLoadMore(ctx context.Context) (int, error) {
	if err := p.WaitFirstRow(ctx); err != nil {
		return 0, err
	}
	prev, err := p.FlawRowCount(ctx)
	if err != nil {
		return 0, err
	}
	loc := p.Registry.MustLookup("loadMoreBtn")
	btn, err := browser.Find(ctx, p.Driver, loc)
	if err != nil {
		return prev, err
	}
	p.Log.Debug("load more", "rows", prev)
	return prev, browser.ClickJS(ctx, btn)
}

// WaitMoreLoaded waits until more than prev rows are rendered. Each flaw
// occupies two table rows, so the row after the last one loaded before is
// 2*prev+1.
func (p *Home) WaitMoreLoaded(ctx context.Context, prev int) error {
	next := p.Registry.MustLookup("flawRowAt").Format(prev*2 + 1)
	if _, err := browser.WaitVisible(ctx, p.Driver, next, p.Timeout); err != nil {
		return err
	}
	n, err := p.FlawRowCount(ctx)
	if err != nil {
		return err
	}
	if n <= prev {
		return fmt.Errorf("no more flaws loaded after clicking 'Load More Flaws': still %d", n)
	}
	return nil
}

// LoadAll clicks Load More Flaws until the number of rows matching loc
// stops growing and returns that number. A zero loc counts every flaw row.
func (p *Home) LoadAll(ctx context.Context, loc locator.Locator) (int, error) {
	if loc.Selector == "" {
		loc = p.Registry.MustLookup("flawRow")
	}
	count := func() (int, error) {
		els, err := p.Driver.FindAll(ctx, loc)
		return len(els), err
	}
	if _, err := browser.WaitVisible(ctx, p.Driver, loc, p.Timeout); err != nil {
		return 0, err
	}
	cur, err := count()
	if err != nil {
		return 0, err
	}
	btnLoc := p.Registry.MustLookup("loadMoreBtn")
	for {
		btn, err := browser.Find(ctx, p.Driver, btnLoc)
		if err != nil {
			if browser.IsNotFound(err) {
				return cur, nil
			}
			return cur, err
		}
		if err := browser.ClickJS(ctx, btn); err != nil {
			return cur, err
		}
		last := cur
		n, err := browser.WaitCount(ctx, p.Driver, loc, loadMoreSettle, "more matching flaws", func(n int) bool { return n > last })
		if err != nil && !browser.IsTimeout(err) {
			return cur, err
		}
		if n <= last {
			return last, nil
		}
		cur = n
	}
}

// FilterFlaws types text into the list filter.
func (p *Home) FilterFlaws(ctx context.Context, text string) error {
	input, err := p.WaitVisible(ctx, "flawFilter")
	if err != nil {
		return err
	}
	return input.SendKeys(ctx, text)
}

// FieldValue returns the text of column in the first flaw row.
func (p *Home) FieldValue(ctx context.Context, column string) (string, error) {
	cell, err := p.FirstRowLocator(column)
	if err != nil {
		return "", err
	}
	el, err := browser.WaitVisible(ctx, p.Driver, cell, p.Timeout)
	if err != nil {
		return "", err
	}
	return browser.Text(ctx, el)
}

// FirstRowLocator returns the locator of column in the first flaw row.
func (p *Home) FirstRowLocator(column string) (locator.Locator, error) {
	idx, ok := FlawColumns[column]
	if !ok {
		return locator.Locator{}, fmt.Errorf("unknown flaw list column %q", column)
	}
	if column == "cve_id" {
		return locator.ByXPath("firstRowCell", fmt.Sprintf("//tr[1]/td[%d]/a", idx)), nil
	}
	return p.Registry.MustLookup("firstRowCell").Format(idx), nil
}

// QuickSearch submits text through the navbar search box.
func (p *Home) QuickSearch(ctx context.Context, text string) error {
	if err := p.SetText(ctx, Named("quickSearch"), text); err != nil {
		return err
	}
	return p.Click(ctx, Named("quickSearchBtn"))
}

// ClearQuickSearch empties the navbar search box.
func (p *Home) ClearQuickSearch(ctx context.Context) error {
	return p.ClearText(ctx, Named("quickSearch"))
}

// ClickMyIssues toggles the My Issues filter once the list has rows.
func (p *Home) ClickMyIssues(ctx context.Context) error {
	if err := p.WaitFirstRow(ctx); err != nil {
		return err
	}
	return p.Click(ctx, Named("myIssuesCheckbox"))
}

// SortBy clicks the header of column.
func (p *Home) SortBy(ctx context.Context, column string) error {
	header := p.Registry.MustLookup("columnHeader").Format(locator.Literal(columnTitle(column)))
	el, err := browser.WaitVisible(ctx, p.Driver, header, p.Timeout)
	if err != nil {
		return err
	}
	return p.Click(ctx, Handle(el))
}

// ColumnValues returns the text of column for every rendered flaw row.
func (p *Home) ColumnValues(ctx context.Context, column string) ([]string, error) {
	idx, ok := FlawColumns[column]
	if !ok {
		return nil, fmt.Errorf("unknown flaw list column %q", column)
	}
	cells, err := p.Driver.FindAll(ctx, p.Registry.MustLookup("columnCells").Format(idx))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		v, err := browser.Text(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Sorted reports whether values are in ascending (or descending) order.
func Sorted(values []string, descending bool) bool {
	if descending {
		return sort.SliceIsSorted(values, func(i, j int) bool { return values[i] > values[j] })
	}
	return sort.StringsAreSorted(values)
}

func columnTitle(column string) string {
	switch column {
	case "":
		return ""
	case "cve_id":
		return "ID"
	case "workflow_state", "state":
		return "State"
	}
	return strings.ToUpper(column[:1]) + strings.ReplaceAll(column[1:], "_", " ")
}
