package bdd

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/RedHatProductSecurity/osim/internal/locator"
	"github.com/RedHatProductSecurity/osim/internal/page"
)

func (s *Scenario) registerFlawList(ctx *godog.ScenarioContext) {
	ctx.Step(`^I click the link of a flaw$`, s.clickFirstFlaw)
	ctx.Step(`^I am able to view the flaw detail$`, s.detailShown)

	ctx.Step(`^I check the check-all checkbox of flaw table$`, s.clickCheckAll)
	ctx.Step(`^All flaws in flaw table are selected$`, s.allSelected)
	ctx.Step(`^The check-all checkbox of flaw list is checked$`, s.clickCheckAll)
	ctx.Step(`^I uncheck the check-all checkbox$`, s.clickCheckAll)
	ctx.Step(`^No flaw in flaw table is selected$`, s.noneSelected)

	ctx.Step(`^Not all flaws are loaded$`, s.notAllLoaded)
	ctx.Step(`^I click the button 'Load More Flaws'$`, s.skippable(s.loadMore))
	ctx.Step(`^More flaws are loaded into the list$`, s.skippable(s.moreLoaded))

	ctx.Step(`^I sort the flaw list by (\w+)$`, s.sortFlawList)
	ctx.Step(`^The flaw list is sorted by (\w+)$`, s.flawListSorted)

	ctx.Step(`^I am searching the flaw with CVE-ID$`, s.quickSearchCVE)
	ctx.Step(`^I will go to the flaw detail page with the CVE_ID$`, s.quickSearchLanded)
	ctx.Step(`^I search the flaw with text and I am able to view flaws list matching the search$`, s.quickSearchText)
}

func (s *Scenario) clickFirstFlaw(ctx context.Context) error {
	return s.home.ClickFirstFlawLink(ctx)
}

func (s *Scenario) detailShown(ctx context.Context) error {
	return s.detail.WaitLoaded(ctx)
}

func (s *Scenario) clickCheckAll(ctx context.Context) error {
	return s.home.ClickCheckAll(ctx)
}

func (s *Scenario) allSelected(ctx context.Context) error {
	return s.home.AllFlawsSelected(ctx)
}

func (s *Scenario) noneSelected(ctx context.Context) error {
	return s.home.NoFlawSelected(ctx)
}

// notAllLoaded marks the scenario skipped when the whole list already fits
// on the first page.
func (s *Scenario) notAllLoaded(ctx context.Context) error {
	more, err := s.home.HasMoreFlaws(ctx)
	if err != nil {
		return err
	}
	if !more {
		s.skip = true
		s.suite.trace.Info("no 'Load More Flaws' button, remaining steps skipped")
	}
	return nil
}

func (s *Scenario) loadMore(ctx context.Context) error {
	prev, err := s.home.ClickLoadMore(ctx)
	s.flawsCount = prev
	return err
}

func (s *Scenario) moreLoaded(ctx context.Context) error {
	return s.home.WaitMoreLoaded(ctx, s.flawsCount)
}

func (s *Scenario) sortFlawList(ctx context.Context, column string) error {
	return s.home.SortBy(ctx, column)
}

// flawListSorted accepts either direction: OSIM remembers the last sort
// order, so one click may leave the list ascending or descending.
func (s *Scenario) flawListSorted(ctx context.Context, column string) error {
	if err := s.home.WaitFirstRow(ctx); err != nil {
		return err
	}
	values, err := s.home.ColumnValues(ctx, column)
	if err != nil {
		return err
	}
	ok := page.Sorted(values, false) || page.Sorted(values, true)
	s.suite.trace.Expected(column+" sorted", true, ok, ok)
	return expectTrue(fmt.Sprintf("flaw list sorted by %s (%v)", column, values), ok)
}

// quickSearchCVE searches the seeded CVE, or the first listed one when
// the seed names none.
func (s *Scenario) quickSearchCVE(ctx context.Context) error {
	if err := s.home.GoHome(ctx); err != nil {
		return err
	}
	s.cveID = s.seed().QuickSearchCVE
	if s.cveID == "" {
		cve, err := s.home.FieldValue(ctx, "cve_id")
		if err != nil {
			return err
		}
		s.cveID = strings.TrimSpace(cve)
	}
	return s.home.QuickSearch(ctx, s.cveID)
}

func (s *Scenario) quickSearchLanded(ctx context.Context) error {
	if err := s.detail.WaitLoaded(ctx); err != nil {
		return err
	}
	got, err := s.detail.GetInputValue(ctx, "cveid")
	if err != nil {
		return err
	}
	return s.check("CVE ID", s.cveID, got)
}

// quickSearchText runs one quick search per table row and checks the
// first hit's field contains the searched text.
func (s *Scenario) quickSearchText(ctx context.Context, table *godog.Table) error {
	rows, err := tableRecords(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		field, text := row["field"], row["text"]
		if err := s.home.ClearQuickSearch(ctx); err != nil {
			return err
		}
		if err := s.home.QuickSearch(ctx, text); err != nil {
			return err
		}
		if err := s.home.ClickFirstFlawLink(ctx); err != nil {
			return err
		}
		if err := s.detail.WaitLoaded(ctx); err != nil {
			return err
		}
		var got string
		if field == "title" {
			got, err = s.detail.GetInputValue(ctx, field)
		} else {
			got, err = s.detail.GetDocumentTextField(ctx, field)
		}
		if err != nil {
			return err
		}
		if err := expectContains(field, got, text); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scenario) registerFilter(ctx *godog.ScenarioContext) {
	ctx.Step(`^I input a filter keyword "(title|cve_id|state|source)" in the "Filter Issues/Flaws" input box$`, s.filterFlaws)
	ctx.Step(`^I am able to view flaws matching "(title keyword|cve_id|state|source)" and the flaws "count" is correct$`, s.filteredCount)

	ctx.Step(`^I ass(?:ign|gin) one issue to me$`, s.assignToMe)
	ctx.Step(`^I check 'My Issues' checkbox in index page$`, s.myIssues)
	ctx.Step(`^All issues assigned to me should be listed in flaw table$`, s.myIssuesListed)
}

// filterFlaws types the seeded keyword for column. A seed without a
// keyword filters by whatever the first row shows.
func (s *Scenario) filterFlaws(ctx context.Context, column string) error {
	f, err := s.seed().Filter(column)
	if err != nil {
		return err
	}
	if err := s.home.WaitFirstRow(ctx); err != nil {
		return err
	}
	keyword := f.Keyword
	if keyword == "" {
		if keyword, err = s.home.FieldValue(ctx, column); err != nil {
			return err
		}
	}
	s.filterColumn, s.filterKeyword, s.flawsCount = column, keyword, f.Count
	return s.home.FilterFlaws(ctx, keyword)
}

func (s *Scenario) filteredCount(ctx context.Context, _ string) error {
	got, err := s.home.LoadAll(ctx, locator.Locator{})
	if err != nil {
		return err
	}
	first, err := s.home.FieldValue(ctx, s.filterColumn)
	if err != nil {
		return err
	}
	if err := expectContains("first "+s.filterColumn, strings.ToLower(first), strings.ToLower(s.filterKeyword)); err != nil {
		return err
	}
	if s.flawsCount <= 0 {
		return expectTrue("at least one flaw matching "+s.filterKeyword, got > 0)
	}
	return s.check("flaws matching "+s.filterKeyword, s.flawsCount, got)
}

func (s *Scenario) assignToMe(ctx context.Context) error {
	name, err := s.home.UserName(ctx)
	if err != nil {
		return err
	}
	s.userName = strings.TrimSpace(name)
	if err := s.goToStoredFlaw(ctx, false); err != nil {
		return err
	}
	if err := s.detail.SetInputField(ctx, "owner", s.userName); err != nil {
		return err
	}
	return s.detail.SaveChanges(ctx)
}

func (s *Scenario) myIssues(ctx context.Context) error {
	if err := s.home.GoHome(ctx); err != nil {
		return err
	}
	return s.home.ClickMyIssues(ctx)
}

func (s *Scenario) myIssuesListed(ctx context.Context) error {
	if err := s.home.WaitFirstRow(ctx); err != nil {
		return err
	}
	owners, err := s.home.ColumnValues(ctx, "owner")
	if err != nil {
		return err
	}
	if len(owners) == 0 {
		return fmt.Errorf("no flaw assigned to %s listed", s.userName)
	}
	for _, o := range owners {
		if err := s.check("owner", s.userName, strings.TrimSpace(o)); err != nil {
			return err
		}
	}
	return nil
}

// tableRecords maps each data row of a Gherkin table onto its header.
func tableRecords(t *godog.Table) ([]map[string]string, error) {
	if t == nil || len(t.Rows) == 0 {
		return nil, fmt.Errorf("step needs a data table")
	}
	header := t.Rows[0].Cells
	out := make([]map[string]string, 0, len(t.Rows)-1)
	for _, r := range t.Rows[1:] {
		rec := make(map[string]string, len(header))
		for i, c := range r.Cells {
			if i < len(header) {
				rec[header[i].Value] = c.Value
			}
		}
		out = append(out, rec)
	}
	return out, nil
}
