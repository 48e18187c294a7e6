package bdd

import (
	"context"
	"errors"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/RedHatProductSecurity/osim/internal/fixture"
	"github.com/RedHatProductSecurity/osim/internal/page"
	"github.com/RedHatProductSecurity/osim/internal/retry"
)

// newFlawComponent is the component every flaw created by the suite gets.
const newFlawComponent = "autocomponent"

func (s *Scenario) registerWorkflow(ctx *godog.ScenarioContext) {
	ctx.Step(`^I promote the flaw$`, s.promote)
	ctx.Step(`^The flaw workflow state is advanced$`, s.promoted)
	ctx.Step(`^I reject the flaw with a reason$`, s.reject)
	ctx.Step(`^The flaw is rejected$`, s.rejected)
}

func (s *Scenario) promote(ctx context.Context) error {
	next, err := s.detail.Promote(ctx)
	s.state = next
	return err
}

func (s *Scenario) promoted(ctx context.Context) error {
	return s.stateIs(ctx, s.state)
}

func (s *Scenario) reject(ctx context.Context) error {
	return s.detail.Reject(ctx, "rejected by the e2e suite: "+s.text())
}

func (s *Scenario) rejected(ctx context.Context) error {
	return s.stateIs(ctx, page.StateRejected)
}

func (s *Scenario) stateIs(ctx context.Context, want string) error {
	if err := s.reopenFlaw(ctx); err != nil {
		return err
	}
	got, err := s.detail.WorkflowState(ctx)
	if err != nil {
		return err
	}
	return s.check("workflow state", want, got)
}

func (s *Scenario) registerCreate(ctx *godog.ScenarioContext) {
	ctx.Step(`^I open the flaw create page$`, s.openCreate)
	ctx.Step(`^All mandatory fields are shown$`, s.mandatoryShown)
	ctx.Step(`^I create flaw with valid mandatory data$`, func(ctx context.Context) error { return s.createFlaw(ctx, false, false) })
	ctx.Step(`^I create new embargoed flaw with valid data$`, func(ctx context.Context) error { return s.createFlaw(ctx, true, false) })
	ctx.Step(`^I create flaw with valid data including optional fields$`, func(ctx context.Context) error { return s.createFlaw(ctx, false, true) })
	ctx.Step(`^A new flaw is created$`, func(ctx context.Context) error { return s.flawCreated(ctx, false) })
	ctx.Step(`^The flaw is created and marked as an embargoed flaw$`, func(ctx context.Context) error { return s.flawCreated(ctx, true) })
}

func (s *Scenario) openCreate(ctx context.Context) error {
	if err := s.home.GoHome(ctx); err != nil {
		return err
	}
	return s.create.Open(ctx)
}

func (s *Scenario) mandatoryShown(ctx context.Context) error {
	return s.create.CheckMandatoryLabels(ctx)
}

func (s *Scenario) draft(embargoed, optional bool) page.FlawDraft {
	today := fixture.Today(fixture.DateLayout)
	d := page.FlawDraft{
		Title:        s.text(),
		Component:    newFlawComponent,
		CVE:          s.gen().CVE(),
		ReportedDate: today,
		Comment0:     s.text(),
		Embargoed:    embargoed,
	}
	if !embargoed {
		d.PublicDate = today
	}
	if optional {
		d.CWE = s.gen().CWE()
		d.Description = s.text()
		d.Statement = s.text()
	}
	return d
}

// createFlaw fills the form once and submits it, swapping in a fresh CVE
// ID whenever OSIDB reports the previous one as taken. The created flaw
// is stored for later scenarios and runs.
func (s *Scenario) createFlaw(ctx context.Context, embargoed, optional bool) error {
	d := s.draft(embargoed, optional)
	if err := s.create.Fill(ctx, d); err != nil {
		return err
	}
	s.cveID, s.embargoed = d.CVE, embargoed

	err := retry.Policy{
		Attempts: saveAttempts,
		Interval: retry.DefaultInterval,
		OnRetry: func(attempt int, err error) {
			s.suite.trace.Info("create with %s failed (attempt %d): %v", s.cveID, attempt, err)
		},
	}.Do(ctx, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			s.cveID = s.gen().CVE()
			if err := s.create.SetInputField(ctx, "cveid", s.cveID); err != nil {
				return retry.Permanent(err)
			}
		}
		if err := s.create.Submit(ctx); err != nil {
			return retry.Permanent(err)
		}
		return s.create.WaitCreated(ctx)
	})
	if err != nil {
		return fmt.Errorf("create flaw: %w", err)
	}
	if err := s.store().SetFlawID(s.cveID, embargoed); err != nil {
		return err
	}
	s.suite.deps.Logger.Info("flaw created", "cve", s.cveID, "embargoed", embargoed)
	return nil
}

// flawCreated finds the new flaw through the advanced search.
func (s *Scenario) flawCreated(ctx context.Context, embargoed bool) error {
	if s.cveID == "" {
		return errors.New("no flaw created in this scenario")
	}
	if err := s.search.Open(ctx); err != nil {
		return err
	}
	if err := s.search.SelectFieldAndValue(ctx, "cve_id", s.cveID); err != nil {
		return err
	}
	if err := s.search.Search(ctx); err != nil {
		return err
	}
	if err := s.search.FirstFlawExists(ctx); err != nil {
		return err
	}
	if embargoed {
		return s.search.FirstFlawEmbargoed(ctx)
	}
	return nil
}
