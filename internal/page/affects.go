package page

import (
	"context"
	"fmt"

	"github.com/RedHatProductSecurity/osim/internal/browser"
)

// AffectColumns maps the affects table columns to their 1-based cell index.
var AffectColumns = map[string]int{
	"select":       1,
	"module":       3,
	"component":    4,
	"cvss":         5,
	"affectedness": 6,
	"resolution":   7,
	"impact":       8,
	"trackers":     9,
}

// AffectInput is the editable content of one affect row. AddAffect sets
// every field, so an empty select value picks the blank option, while
// EditAffect leaves empty fields untouched.
type AffectInput struct {
	Module       string
	Component    string
	CVSS         string
	Affectedness string
	Resolution   string
	Impact       string
}

// DefaultAffect fills in the values new affects are created with. cvss is
// a CVSS:3.1 vector.
func DefaultAffect(component, cvss string) AffectInput {
	return AffectInput{
		Module:       "fedora-38",
		Component:    component,
		CVSS:         cvss,
		Affectedness: "NEW",
		Impact:       "LOW",
	}
}

func lastN(els []browser.Element, n int, what string) ([]browser.Element, error) {
	if len(els) < n {
		return nil, fmt.Errorf("expected at least %d %s, found %d", n, what, len(els))
	}
	return els[len(els)-n:], nil
}

// AddAffect appends a new affect row and fills it in. The new row's
// editors are the last three text pens, inputs and selects of the form.
func (p *FlawDetail) AddAffect(ctx context.Context, in AffectInput) error {
	if err := p.ClickJS(ctx, Named("addNewAffectBtn")); err != nil {
		return err
	}
	allPens, err := p.Elements(ctx, "editpens")
	if err != nil {
		return err
	}
	pens, err := lastN(allPens, 3, "affect edit pens")
	if err != nil {
		return err
	}
	allInputs, err := p.Elements(ctx, "peninputs")
	if err != nil {
		return err
	}
	inputs, err := lastN(allInputs, 3, "affect inputs")
	if err != nil {
		return err
	}
	for i, v := range []string{in.Module, in.Component, in.CVSS} {
		if err := browser.ClickJS(ctx, pens[i]); err != nil {
			return err
		}
		if err := inputs[i].SendKeys(ctx, v); err != nil {
			return err
		}
	}

	allSelects, err := p.Elements(ctx, "selects")
	if err != nil {
		return err
	}
	selects, err := lastN(allSelects, 3, "affect selects")
	if err != nil {
		return err
	}
	if err := browser.SelectByValue(ctx, selects[0], in.Affectedness); err != nil {
		return err
	}
	if err := browser.SelectByValue(ctx, selects[1], in.Resolution); err != nil {
		return err
	}
	if err := browser.ScrollIntoView(ctx, selects[2]); err != nil {
		return err
	}
	p.Log.Debug("new affect", "module", in.Module, "component", in.Component)
	return p.withStickyBarsHidden(ctx, func() error {
		return browser.SelectByValue(ctx, selects[2], in.Impact)
	})
}

// AffectRowCount counts the rows of the affects table on the current page.
func (p *FlawDetail) AffectRowCount(ctx context.Context) (int, error) {
	rows, err := p.Elements(ctx, "affectRows")
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func affectColumn(column string) (int, error) {
	idx, ok := AffectColumns[column]
	if !ok {
		return 0, fmt.Errorf("unknown affects column %q", column)
	}
	return idx, nil
}

// AffectCell returns the text of column in the given 1-based row.
func (p *FlawDetail) AffectCell(ctx context.Context, row int, column string) (string, error) {
	idx, err := affectColumn(column)
	if err != nil {
		return "", err
	}
	cell := p.Registry.MustLookup("affectCell").Format(row, idx)
	el, err := browser.WaitFind(ctx, p.Driver, cell, p.Timeout)
	if err != nil {
		return "", err
	}
	return browser.Text(ctx, el)
}

// EditAffect switches row into edit mode, rewrites the non-empty fields
// of in and commits the row. The flaw still has to be saved.
func (p *FlawDetail) EditAffect(ctx context.Context, row int, in AffectInput) error {
	edit := p.Registry.MustLookup("affectEditBtn").Format(row)
	btn, err := browser.WaitFind(ctx, p.Driver, edit, p.Timeout)
	if err != nil {
		return err
	}
	if err := p.ClickJS(ctx, Handle(btn)); err != nil {
		return err
	}
	texts := []struct{ col, v string }{{"module", in.Module}, {"component", in.Component}, {"cvss", in.CVSS}}
	for _, t := range texts {
		if t.v == "" {
			continue
		}
		loc := p.Registry.MustLookup("affectCellInput").Format(row, AffectColumns[t.col])
		input, err := browser.WaitFind(ctx, p.Driver, loc, p.Timeout)
		if err != nil {
			return err
		}
		if err := p.SetText(ctx, Handle(input), t.v); err != nil {
			return err
		}
	}
	selects := []struct{ col, v string }{{"affectedness", in.Affectedness}, {"resolution", in.Resolution}, {"impact", in.Impact}}
	for _, s := range selects {
		if s.v == "" {
			continue
		}
		loc := p.Registry.MustLookup("affectCellSelect").Format(row, AffectColumns[s.col])
		sel, err := browser.WaitFind(ctx, p.Driver, loc, p.Timeout)
		if err != nil {
			return err
		}
		if err := browser.SelectByValue(ctx, sel, s.v); err != nil {
			return err
		}
	}
	return p.ClickJS(ctx, Handle(btn))
}

// DeleteAffect marks row for removal. The flaw still has to be saved.
func (p *FlawDetail) DeleteAffect(ctx context.Context, row int) error {
	btn, err := browser.WaitFind(ctx, p.Driver, p.Registry.MustLookup("affectDeleteBtn").Format(row), p.Timeout)
	if err != nil {
		return err
	}
	return p.ClickJS(ctx, Handle(btn))
}

// SelectAffects ticks the selection checkbox of each row.
func (p *FlawDetail) SelectAffects(ctx context.Context, rows ...int) error {
	for _, r := range rows {
		loc := p.Registry.MustLookup("affectCellInput").Format(r, AffectColumns["select"])
		box, err := browser.WaitFind(ctx, p.Driver, loc, p.Timeout)
		if err != nil {
			return err
		}
		if err := p.ClickJS(ctx, Handle(box)); err != nil {
			return err
		}
	}
	return nil
}

// SelectedAffectCount counts the rows currently selected.
func (p *FlawDetail) SelectedAffectCount(ctx context.Context) (int, error) {
	rows, err := p.Elements(ctx, "affectRowSelected")
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// BulkEditAffects puts every selected row into edit mode.
func (p *FlawDetail) BulkEditAffects(ctx context.Context) error {
	return p.ClickJS(ctx, Named("affectBulkEditBtn"))
}

// BulkDeleteAffects marks every selected row for removal.
func (p *FlawDetail) BulkDeleteAffects(ctx context.Context) error {
	return p.ClickJS(ctx, Named("affectBulkDeleteBtn"))
}

// SortAffectsBy clicks the header of column; a second call reverses the
// order.
func (p *FlawDetail) SortAffectsBy(ctx context.Context, column string) error {
	idx, err := affectColumn(column)
	if err != nil {
		return err
	}
	header, err := browser.WaitFind(ctx, p.Driver, p.Registry.MustLookup("affectHeader").Format(idx), p.Timeout)
	if err != nil {
		return err
	}
	return p.ClickJS(ctx, Handle(header))
}

// AffectColumnValues returns column for every row on the current page.
func (p *FlawDetail) AffectColumnValues(ctx context.Context, column string) ([]string, error) {
	n, err := p.AffectRowCount(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for row := 1; row <= n; row++ {
		v, err := p.AffectCell(ctx, row, column)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// FilterAffects narrows the table with the column's filter select. Only
// the affectedness, resolution and impact columns have one.
func (p *FlawDetail) FilterAffects(ctx context.Context, column, value string) error {
	switch column {
	case "affectedness", "resolution", "impact":
	default:
		return fmt.Errorf("affects column %q has no filter", column)
	}
	sel, err := browser.WaitFind(ctx, p.Driver, p.Registry.MustLookup("affectFilter").Format(column), p.Timeout)
	if err != nil {
		return err
	}
	return browser.SelectByValue(ctx, sel, value)
}

// AffectsPage jumps to page n of the affects table.
func (p *FlawDetail) AffectsPage(ctx context.Context, n int) error {
	link, err := browser.WaitFind(ctx, p.Driver, p.Registry.MustLookup("affectPage").Format(n), p.Timeout)
	if err != nil {
		return err
	}
	return p.ClickJS(ctx, Handle(link))
}
