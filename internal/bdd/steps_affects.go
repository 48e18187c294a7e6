package bdd

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/cucumber/godog"

	"github.com/RedHatProductSecurity/osim/internal/browser"
	"github.com/RedHatProductSecurity/osim/internal/fixture"
	"github.com/RedHatProductSecurity/osim/internal/page"
	"github.com/RedHatProductSecurity/osim/internal/retry"
)

func (s *Scenario) registerAffects(ctx *godog.ScenarioContext) {
	ctx.Step(`^I add a new affect with valid data$`, s.addAffect)
	ctx.Step(`^The affect is added to the flaw$`, s.affectShown)
	ctx.Step(`^I edit the first affect$`, s.editAffect)
	ctx.Step(`^The first affect is updated$`, s.affectShown)
	ctx.Step(`^I delete the first affect$`, s.deleteAffect)
	ctx.Step(`^The affect is removed from the flaw$`, s.affectRemoved)

	ctx.Step(`^The flaw has at least (\d+) affects$`, s.atLeastAffects)
	ctx.Step(`^I select the first (\d+) affects$`, s.selectAffects)
	ctx.Step(`^(\d+) affects are selected$`, s.affectsSelected)
	ctx.Step(`^I bulk edit the impact of the selected affects to (\w+)$`, s.bulkEditImpact)
	ctx.Step(`^The selected affects have impact (\w+)$`, s.selectedImpact)
	ctx.Step(`^I bulk delete the selected affects$`, s.bulkDelete)
	ctx.Step(`^The selected affects are removed from the flaw$`, s.bulkDeleted)

	ctx.Step(`^I sort the affects by (\w+)$`, s.sortAffects)
	ctx.Step(`^The affects are sorted by (\w+)$`, s.affectsSorted)
	ctx.Step(`^I filter the affects by (affectedness|resolution|impact) "([^"]*)"$`, s.filterAffects)
	ctx.Step(`^Only affects with (\w+) "([^"]*)" are listed$`, s.affectsFiltered)
	ctx.Step(`^I go to page (\d+) of the affects$`, s.affectsPage)
	ctx.Step(`^The affects table lists between 1 and (\d+) affects$`, s.affectsPageSize)

	ctx.Step(`^The flaw has trackers to file$`, s.trackersAvailable)
	ctx.Step(`^I select all trackers$`, s.skippable(s.selectAllTrackers))
	ctx.Step(`^All trackers are selected$`, s.skippable(s.allTrackersSelected))
	ctx.Step(`^I deselect all trackers$`, s.skippable(s.deselectAllTrackers))
	ctx.Step(`^No tracker is selected$`, s.skippable(s.noTrackerSelected))
	ctx.Step(`^I filter the trackers with "([^"]*)"$`, s.filterTrackers)
	ctx.Step(`^I file the first tracker$`, s.skippable(s.fileTracker))
	ctx.Step(`^The tracker is filed$`, s.skippable(s.trackerFiled))
}

// saveAffects saves the flaw and waits for msg, retrying the save when
// OSIDB answers with a conflict instead.
func (s *Scenario) saveAffects(ctx context.Context, msg string) error {
	return retry.Do(ctx, affectAttempts, func(ctx context.Context, _ int) error {
		if err := s.detail.ClickSave(ctx); err != nil {
			return retry.Permanent(err)
		}
		return s.detail.WaitMessage(ctx, msg)
	})
}

func (s *Scenario) affectComponents(ctx context.Context) ([]string, error) {
	return s.detail.AffectColumnValues(ctx, "component")
}

// newAffect builds an affect with a random component and CVSS vector.
func (s *Scenario) newAffect() page.AffectInput {
	return page.DefaultAffect("component-"+s.text(), s.gen().CVSS31())
}

func (s *Scenario) addAffect(ctx context.Context) error {
	s.affect = s.newAffect()
	if err := s.detail.AddAffect(ctx, s.affect); err != nil {
		return err
	}
	return s.saveAffects(ctx, "affectCreatedMsg")
}

func (s *Scenario) editAffect(ctx context.Context) error {
	s.affect = page.AffectInput{Component: "component-" + s.text()}
	if err := s.detail.EditAffect(ctx, 1, s.affect); err != nil {
		return err
	}
	return s.saveAffects(ctx, "affectsUpdatedMsg")
}

func (s *Scenario) affectShown(ctx context.Context) error {
	if err := s.reopenFlaw(ctx); err != nil {
		return err
	}
	components, err := s.affectComponents(ctx)
	if err != nil {
		return err
	}
	row := slices.Index(components, s.affect.Component) + 1
	if err := expectTrue(fmt.Sprintf("affect %s listed in %v", s.affect.Component, components), row > 0); err != nil {
		return err
	}
	if s.affect.CVSS == "" {
		return nil
	}
	return s.affectScoreShown(ctx, row, s.affect.CVSS)
}

// affectScoreShown checks the CVSS cell of row shows the base score of
// vector.
func (s *Scenario) affectScoreShown(ctx context.Context, row int, vector string) error {
	v, err := fixture.ParseCVSS31(vector)
	if err != nil {
		return err
	}
	got, err := s.detail.AffectCell(ctx, row, "cvss")
	if err != nil {
		return err
	}
	return expectContains("CVSS score of affect "+s.affect.Component, got, fmt.Sprintf("%.1f", v.BaseScore()))
}

func (s *Scenario) deleteAffect(ctx context.Context) error {
	comp, err := s.detail.AffectCell(ctx, 1, "component")
	if err != nil {
		return err
	}
	s.affect = page.AffectInput{Component: comp}
	if err := s.detail.DeleteAffect(ctx, 1); err != nil {
		return err
	}
	return s.saveAffects(ctx, "affectsDeletedMsg")
}

func (s *Scenario) affectRemoved(ctx context.Context) error {
	if err := s.reopenFlaw(ctx); err != nil {
		return err
	}
	components, err := s.affectComponents(ctx)
	if err != nil {
		return err
	}
	return expectTrue(fmt.Sprintf("affect %s gone from %v", s.affect.Component, components), !slices.Contains(components, s.affect.Component))
}

func (s *Scenario) atLeastAffects(ctx context.Context, n int) error {
	have, err := s.detail.AffectRowCount(ctx)
	if err != nil {
		return err
	}
	for ; have < n; have++ {
		if err := s.detail.AddAffect(ctx, s.newAffect()); err != nil {
			return err
		}
		if err := s.saveAffects(ctx, "affectCreatedMsg"); err != nil {
			return err
		}
		if err := s.detail.CloseToast(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scenario) selectAffects(ctx context.Context, n int) error {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i + 1
	}
	total, err := s.detail.AffectRowCount(ctx)
	if err != nil {
		return err
	}
	s.flawsCount = total
	s.selectedRows = rows
	return s.detail.SelectAffects(ctx, rows...)
}

func (s *Scenario) affectsSelected(ctx context.Context, n int) error {
	got, err := s.detail.SelectedAffectCount(ctx)
	if err != nil {
		return err
	}
	return s.check("selected affects", n, got)
}

// bulkEditImpact switches the selected rows into edit mode together and
// sets the impact select of each.
func (s *Scenario) bulkEditImpact(ctx context.Context, impact string) error {
	if err := s.detail.BulkEditAffects(ctx); err != nil {
		return err
	}
	cell := s.detail.Registry.MustLookup("affectCellSelect")
	for _, row := range s.selectedRows {
		sel, err := browser.WaitFind(ctx, s.detail.Driver, cell.Format(row, page.AffectColumns["impact"]), s.detail.Timeout)
		if err != nil {
			return err
		}
		if err := browser.SelectByValue(ctx, sel, impact); err != nil {
			return err
		}
	}
	s.affect = page.AffectInput{Impact: impact}
	return s.saveAffects(ctx, "affectsUpdatedMsg")
}

func (s *Scenario) selectedImpact(ctx context.Context, impact string) error {
	for _, row := range s.selectedRows {
		got, err := s.detail.AffectCell(ctx, row, "impact")
		if err != nil {
			return err
		}
		if err := s.check("impact of affect "+strconv.Itoa(row), impact, got); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scenario) bulkDelete(ctx context.Context) error {
	if err := s.detail.BulkDeleteAffects(ctx); err != nil {
		return err
	}
	return s.saveAffects(ctx, "affectsDeletedMsg")
}

func (s *Scenario) bulkDeleted(ctx context.Context) error {
	if err := s.reopenFlaw(ctx); err != nil {
		return err
	}
	got, err := s.detail.AffectRowCount(ctx)
	if err != nil {
		return err
	}
	return s.check("affect count", s.flawsCount-len(s.selectedRows), got)
}

func (s *Scenario) sortAffects(ctx context.Context, column string) error {
	return s.detail.SortAffectsBy(ctx, column)
}

func (s *Scenario) affectsSorted(ctx context.Context, column string) error {
	values, err := s.detail.AffectColumnValues(ctx, column)
	if err != nil {
		return err
	}
	ok := page.Sorted(values, false) || page.Sorted(values, true)
	return expectTrue(fmt.Sprintf("affects sorted by %s (%v)", column, values), ok)
}

func (s *Scenario) filterAffects(ctx context.Context, column, value string) error {
	return s.detail.FilterAffects(ctx, column, value)
}

func (s *Scenario) affectsFiltered(ctx context.Context, column, value string) error {
	values, err := s.detail.AffectColumnValues(ctx, column)
	if err != nil {
		return err
	}
	for i, v := range values {
		if err := s.check(fmt.Sprintf("%s of affect %d", column, i+1), value, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scenario) affectsPage(ctx context.Context, n int) error {
	return s.detail.AffectsPage(ctx, n)
}

func (s *Scenario) affectsPageSize(ctx context.Context, limit int) error {
	n, err := s.detail.AffectRowCount(ctx)
	if err != nil {
		return err
	}
	return expectTrue(fmt.Sprintf("1 <= %d affects <= %d", n, limit), n >= 1 && n <= limit)
}

// trackersAvailable opens the manager and skips the rest of the scenario
// when every tracker is already filed.
func (s *Scenario) trackersAvailable(ctx context.Context) error {
	if err := s.detail.OpenTrackerManager(ctx); err != nil {
		return err
	}
	n, err := s.detail.TrackerCount(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		s.skip = true
		s.suite.trace.Info("no tracker left to file, remaining steps skipped")
	}
	return nil
}

func (s *Scenario) filterTrackers(ctx context.Context, text string) error {
	if s.skip {
		return nil
	}
	return s.detail.FilterTrackers(ctx, text)
}

func (s *Scenario) selectAllTrackers(ctx context.Context) error {
	return s.detail.SelectAllTrackers(ctx)
}

func (s *Scenario) deselectAllTrackers(ctx context.Context) error {
	return s.detail.DeselectAllTrackers(ctx)
}

func (s *Scenario) allTrackersSelected(ctx context.Context) error {
	total, err := s.detail.TrackerCount(ctx)
	if err != nil {
		return err
	}
	got, err := s.detail.SelectedTrackerCount(ctx)
	if err != nil {
		return err
	}
	return s.check("selected trackers", total, got)
}

func (s *Scenario) noTrackerSelected(ctx context.Context) error {
	got, err := s.detail.SelectedTrackerCount(ctx)
	if err != nil {
		return err
	}
	return s.check("selected trackers", 0, got)
}

func (s *Scenario) fileTracker(ctx context.Context) error {
	if err := s.detail.DeselectAllTrackers(ctx); err != nil {
		return err
	}
	if err := s.detail.SelectTracker(ctx, 1); err != nil {
		return err
	}
	if err := s.detail.FileTrackers(ctx); err != nil {
		return err
	}
	s.trackersFiled = true
	return nil
}

func (s *Scenario) trackerFiled(ctx context.Context) error {
	if err := expectTrue("trackers filed", s.trackersFiled); err != nil {
		return err
	}
	if err := s.reopenFlaw(ctx); err != nil {
		return err
	}
	return s.detail.OpenTrackerManager(ctx)
}
