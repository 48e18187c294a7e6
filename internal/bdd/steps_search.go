package bdd

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cucumber/godog"

	"github.com/RedHatProductSecurity/osim/internal/browser"
	"github.com/RedHatProductSecurity/osim/internal/osidb"
	"github.com/RedHatProductSecurity/osim/internal/page"
)

func (s *Scenario) registerAdvancedSearch(ctx *godog.ScenarioContext) {
	ctx.Step(`^I am on the advanced search page$`, s.openSearch)
	ctx.Step(`^I am searching for all flaws$`, s.searchAll)
	ctx.Step(`^I get a list of all flaws$`, s.resultsShown)

	ctx.Step(`^I prepare the advance search keywords$`, s.prepareKeywords)
	ctx.Step(`^I select the field and keyword to search flaws and I am able to view flaws matching the search$`, s.searchEachKeyword)

	ctx.Step(`^I am searching flaws with two fields and two values$`, s.searchTwoFields)
	ctx.Step(`^I am able to view flaws matching the search with two selected fi(?:le|el)ds$`, s.twoFieldsMatched)

	ctx.Step(`^I search flaws with the query filter "([^"]*)"$`, s.searchQuery)
	ctx.Step(`^I save the search as default$`, s.saveDefault)
	ctx.Step(`^The query filter "([^"]*)" is restored when I reopen the advanced search$`, s.defaultRestored)
}

func (s *Scenario) openSearch(ctx context.Context) error {
	return s.search.Open(ctx)
}

func (s *Scenario) searchAll(ctx context.Context) error {
	return s.search.Search(ctx)
}

func (s *Scenario) resultsShown(ctx context.Context) error {
	return s.search.FirstFlawExists(ctx)
}

// prepareKeywords reads the stored flaw from OSIDB and keeps one value per
// searchable field it actually has.
func (s *Scenario) prepareKeywords(ctx context.Context) error {
	oracle, err := s.oracle()
	if err != nil {
		return err
	}
	id, err := s.storedFlawID(false)
	if err != nil {
		return err
	}
	flaw, err := oracle.Flaw(ctx, id)
	if err != nil {
		return err
	}
	s.fieldsKeywords = s.fieldsKeywords[:0]
	for _, field := range slices.Concat(page.ListFields, page.DatabaseFields) {
		values := osidb.FieldValues(flaw, field)
		if len(values) == 0 || values[0] == "" {
			continue
		}
		s.fieldsKeywords = append(s.fieldsKeywords, keyword{Field: field, Value: values[0]})
	}
	if len(s.fieldsKeywords) == 0 {
		return fmt.Errorf("flaw %s has no searchable field", id)
	}
	s.suite.trace.Info("%d search keywords from flaw %s", len(s.fieldsKeywords), id)
	return nil
}

func (s *Scenario) searchEachKeyword(ctx context.Context) error {
	for _, kw := range s.fieldsKeywords {
		if err := s.searchKeyword(ctx, kw); err != nil {
			return fmt.Errorf("search %s=%s: %w", kw.Field, kw.Value, err)
		}
	}
	return nil
}

// searchKeyword checks the first hit of a one-facet search. Fields the
// list shows are read from it; the rest are confirmed through OSIDB.
func (s *Scenario) searchKeyword(ctx context.Context, kw keyword) error {
	if err := s.search.RemoveFacet(ctx); err != nil {
		return err
	}
	if err := s.search.SelectFieldAndValue(ctx, kw.Field, kw.Value); err != nil {
		return err
	}
	if err := s.search.Search(ctx); err != nil {
		return err
	}
	if err := s.search.FirstFlawExists(ctx); err != nil {
		return err
	}
	if slices.Contains(page.ListFields, kw.Field) {
		got, err := s.search.FieldValueFromList(ctx, kw.Field)
		if err != nil {
			return err
		}
		return expectContains(kw.Field, got, kw.Value)
	}

	oracle, err := s.oracle()
	if err != nil {
		return err
	}
	id, err := s.search.FirstFlawID(ctx)
	if err != nil {
		return err
	}
	flaw, err := oracle.Flaw(ctx, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if kw.Field == "embargoed" {
		want, err := strconv.ParseBool(kw.Value)
		if err != nil {
			return err
		}
		return s.check("embargoed", want, flaw.Embargoed())
	}
	return expectContains(kw.Field, osidb.FieldValue(flaw, kw.Field), kw.Value)
}

func (s *Scenario) searchTwoFields(ctx context.Context) error {
	if err := s.search.SelectFieldAndValue(ctx, "workflow_state", page.StateNew); err != nil {
		return err
	}
	if err := s.search.SelectSecondFieldAndValue(ctx, "impact", "LOW"); err != nil {
		return err
	}
	return s.search.Search(ctx)
}

func (s *Scenario) twoFieldsMatched(ctx context.Context) error {
	if err := s.search.FirstFlawExists(ctx); err != nil {
		return err
	}
	for _, want := range []keyword{{"workflow_state", page.StateNew}, {"impact", "LOW"}} {
		got, err := s.search.FieldValueFromList(ctx, want.Field)
		if err != nil {
			return err
		}
		if err := s.check(want.Field, want.Value, strings.TrimSpace(got)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scenario) searchQuery(ctx context.Context, q string) error {
	s.fieldValue = q
	if err := s.search.SetQueryFilter(ctx, q); err != nil {
		return err
	}
	return s.search.Search(ctx)
}

func (s *Scenario) saveDefault(ctx context.Context) error {
	return s.search.SaveAsDefault(ctx)
}

func (s *Scenario) defaultRestored(ctx context.Context, q string) error {
	if err := s.search.Open(ctx); err != nil {
		return err
	}
	input, err := s.search.Element(ctx, "queryFilterInput")
	if err != nil {
		return err
	}
	got, err := browser.Value(ctx, input)
	if err != nil {
		return err
	}
	return s.check("query filter", q, got)
}
