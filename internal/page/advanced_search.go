package page

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/RedHatProductSecurity/osim/internal/browser"
	"github.com/RedHatProductSecurity/osim/internal/locator"
)

var advancedSearchLocators = locator.MustRegistry("advanced search",
	locator.Contains("searchBtn", "button", "Search"),
	locator.Contains("saveAsDefaultBtn", "button", "Save as Default"),
	locator.ByXPath("firstFlaw", "//div[@class='osim-incident-list']/table/tbody/tr[1]"),
	locator.ByXPath("selectKeyList", "//select[@class='form-select search-facet-field']"),
	locator.ByXPath("selectValueList", "//select[@class='form-select']"),
	locator.ByXPath("emptyBtn", "//button[@title='Empty field search']"),
	locator.ByXPath("nonemptyBtn", "//button[@title='Non empty field search']"),
	locator.ByXPath("inputTextWindow", "(//details/form/div/input[@class='form-control'])[last()]"),
	locator.ByXPath("selectKeyList2", "(//select[@class='form-select search-facet-field'])[2]"),
	locator.ByXPath("selectValueList2", "(//select[@class='form-select'])[2]"),
	locator.ByXPath("cve_idText", "//tr[1]/td[1]/a"),
	locator.ByXPath("impactText", "//tr[1]/td[2]"),
	locator.ByXPath("createdText", "//tr[1]/td[3]"),
	locator.ByXPath("titleText", "//tr[1]/td[4]"),
	locator.ByXPath("workflow_stateText", "//tr[1]/td[5]"),
	locator.ByXPath("ownerText", "//tr[1]/td[6]"),
	locator.ByXPath("closeKeysetBtn", "//button[@class='osim-toast-close-btn btn-close']"),
	locator.ByXPath("toastMsgCloseBtn", "//button[@class='osim-toast-close-btn btn-close']"),
	locator.ByXPath("closeSelectRowBtn", `//i[@aria-label="remove field"]`),
	locator.ByXPath("embargoedFlag", "(//span[contains(text(), 'Embargoed')])[1]"),
	locator.ByXPath("queryFilterInput", "(//div[@class='input-group my-1'])[1]/textarea"),
	locator.Contains("defaultFilterSavedMsg", "div", "default filter saved"),
)

// ListFields are the search fields whose value the result list shows.
var ListFields = []string{"cve_id", "impact", "title", "workflow_state", "owner"}

// DatabaseFields are search fields only OSIDB can confirm.
var DatabaseFields = []string{
	"uuid",
	"affects__ps_module",
	"affects__ps_component",
	"affects__trackers__ps_update_stream",
	"acknowledgments__name",
	"affects__trackers__external_system_id",
	"cwe_id",
	"source",
	"embargoed",
}

// AdvancedSearch is the faceted flaw search page.
type AdvancedSearch struct {
	*Base
	URL string
}

// NewAdvancedSearch returns the search page of the OSIM instance at baseURL.
func NewAdvancedSearch(d browser.Driver, baseURL string, logger *log.Logger) *AdvancedSearch {
	return &AdvancedSearch{Base: NewBase(d, advancedSearchLocators, PageTimeout, logger), URL: baseURL}
}

// Open navigates to the search page.
func (p *AdvancedSearch) Open(ctx context.Context) error {
	if err := p.Driver.Navigate(ctx, joinURL(p.URL, "search")); err != nil {
		return err
	}
	_, err := p.WaitVisible(ctx, "searchBtn")
	return err
}

func (p *AdvancedSearch) selectFacet(ctx context.Context, keyList, valueList, key, value string, freeText bool) error {
	keys, err := p.Element(ctx, keyList)
	if err != nil {
		return err
	}
	if err := keys.Click(ctx); err != nil {
		return err
	}
	if err := browser.SelectByValue(ctx, keys, key); err != nil {
		return err
	}
	if freeText {
		// Facets with a fixed value set render a select instead of the
		// free text input.
		loc := p.Registry.MustLookup("inputTextWindow")
		if input, err := browser.Find(ctx, p.Driver, loc); err == nil {
			if err := p.SetText(ctx, Handle(input), value); err == nil {
				return nil
			}
		}
	}
	values, err := p.Element(ctx, valueList)
	if err != nil {
		return err
	}
	if err := values.Click(ctx); err != nil {
		return err
	}
	return browser.SelectByValue(ctx, values, value)
}

// SelectFieldAndValue sets the first facet to key = value.
func (p *AdvancedSearch) SelectFieldAndValue(ctx context.Context, key, value string) error {
	p.Log.Debug("facet", "key", key, "value", value)
	return p.selectFacet(ctx, "selectKeyList", "selectValueList", key, value, true)
}

// SelectSecondFieldAndValue sets the second facet, which is always a
// value select.
func (p *AdvancedSearch) SelectSecondFieldAndValue(ctx context.Context, key, value string) error {
	return p.selectFacet(ctx, "selectKeyList2", "selectValueList2", key, value, false)
}

// Search runs the query.
func (p *AdvancedSearch) Search(ctx context.Context) error {
	return p.Click(ctx, Named("searchBtn"))
}

// FirstFlawExists waits for the first result row.
func (p *AdvancedSearch) FirstFlawExists(ctx context.Context) error {
	_, err := p.WaitVisible(ctx, "firstFlaw")
	return err
}

// FirstFlawEmbargoed waits for the embargo badge on the results.
func (p *AdvancedSearch) FirstFlawEmbargoed(ctx context.Context) error {
	_, err := p.WaitVisible(ctx, "embargoedFlag")
	return err
}

// FirstFlawID returns the ID shown on the first result row.
func (p *AdvancedSearch) FirstFlawID(ctx context.Context) (string, error) {
	return p.Text(ctx, Named("cve_idText"))
}

// GoToFirstFlawDetail opens the first result.
func (p *AdvancedSearch) GoToFirstFlawDetail(ctx context.Context) error {
	return p.ClickJS(ctx, Named("cve_idText"))
}

// FieldValueFromList reads field from the first result row.
func (p *AdvancedSearch) FieldValueFromList(ctx context.Context, field string) (string, error) {
	return p.Text(ctx, Named(field+"Text"))
}

// SetQueryFilter replaces the raw query filter; an empty q clears it.
func (p *AdvancedSearch) SetQueryFilter(ctx context.Context, q string) error {
	input, err := p.Element(ctx, "queryFilterInput")
	if err != nil {
		return err
	}
	if err := input.SelectAllAndDelete(ctx); err != nil {
		return err
	}
	if q == "" {
		return nil
	}
	if err := browser.ClearJS(ctx, input); err != nil {
		return err
	}
	return input.SendKeys(ctx, q)
}

// SaveAsDefault stores the current query as the default filter.
func (p *AdvancedSearch) SaveAsDefault(ctx context.Context) error {
	if err := p.Click(ctx, Named("saveAsDefaultBtn")); err != nil {
		return err
	}
	return p.WaitMessage(ctx, "defaultFilterSavedMsg")
}

// RemoveFacet removes the facet row added last, if any.
func (p *AdvancedSearch) RemoveFacet(ctx context.Context) error {
	els, err := p.Elements(ctx, "closeSelectRowBtn")
	if err != nil || len(els) == 0 {
		return err
	}
	return p.ClickJS(ctx, Handle(els[len(els)-1]))
}
