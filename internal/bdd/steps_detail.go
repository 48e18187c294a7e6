package bdd

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/RedHatProductSecurity/osim/internal/fixture"
	"github.com/RedHatProductSecurity/osim/internal/retry"
)

func (s *Scenario) registerDetail(ctx *godog.ScenarioContext) {
	ctx.Step(`^I add a public comment to the flaw$`, s.addComment)
	ctx.Step(`^A comment is added to the flaw$`, s.commentAdded)

	ctx.Step(`^I update the document text of (\S+) to "([^"]*)"$`, s.setDocumentText)
	ctx.Step(`^The document text of (\S+) is updated$`, s.documentTextUpdated)

	ctx.Step(`^I add an acknowledgment to the flaw$`, s.addAcknowledgment)
	ctx.Step(`^A new acknowledgement added to the flaw$`, s.acknowledgmentShown)
	ctx.Step(`^I edit the first acknowledgement in correct format$`, s.editAcknowledgment)
	ctx.Step(`^Acknowledgement is changed$`, s.acknowledgmentShown)
	ctx.Step(`^I delete an acknowledgement from acknowledgement list$`, s.deleteAcknowledgment)
	ctx.Step(`^Acknowledgement is removed from flaw$`, s.acknowledgmentRemoved)

	ctx.Step(`^I update the dropdown (\S+) value$`, s.setDropdown)
	ctx.Step(`^The dropdown (\S+) value is updated$`, s.dropdownUpdated)

	ctx.Step(`^I update the random input fields$`, s.setRandomInputs)
	ctx.Step(`^The random input fields are updated$`, s.randomInputsUpdated)

	ctx.Step(`^I update the CVE ID with a valid data$`, s.setCVE)
	ctx.Step(`^The CVE ID is updated$`, s.cveUpdated)

	ctx.Step(`^I (update|delete) the CWE ID$`, s.setCWE)
	ctx.Step(`^The CWE ID is updated$`, s.cweUpdated)

	ctx.Step(`^I set a past public date on the embargoed flaw$`, s.pastPublicDate)
	ctx.Step(`^I get an error message about the embargoed public date$`, s.publicDateRefused)
}

// message returns a step waiting for the named toast or error message.
func (s *Scenario) message(name string) func(context.Context) error {
	return func(ctx context.Context) error {
		return s.detail.WaitMessage(ctx, name)
	}
}

func (s *Scenario) text() string {
	return s.gen().RandomText(fixture.DefaultTextLength)
}

func (s *Scenario) addComment(ctx context.Context) error {
	s.fieldValue = s.text()
	return s.detail.AddPublicComment(ctx, s.fieldValue)
}

func (s *Scenario) commentAdded(ctx context.Context) error {
	return s.detail.CommentExists(ctx, s.fieldValue)
}

func (s *Scenario) setDocumentText(ctx context.Context, field, value string) error {
	if err := s.detail.OpenDocumentTextFields(ctx); err != nil {
		return err
	}
	if err := s.detail.SetDocumentTextField(ctx, field, value); err != nil {
		return err
	}
	s.fieldValue = value
	return s.detail.SaveChanges(ctx)
}

func (s *Scenario) documentTextUpdated(ctx context.Context, field string) error {
	if err := s.reopenFlaw(ctx); err != nil {
		return err
	}
	if err := s.detail.OpenDocumentTextFields(ctx); err != nil {
		return err
	}
	got, err := s.detail.GetDocumentTextField(ctx, field)
	if err != nil {
		return err
	}
	return s.check(field, s.fieldValue, got)
}

func (s *Scenario) addAcknowledgment(ctx context.Context) error {
	if err := s.detail.OpenAcknowledgments(ctx); err != nil {
		return err
	}
	v, err := s.detail.AddAcknowledgment(ctx, s.text(), s.text())
	s.ackValue = v
	return err
}

func (s *Scenario) editAcknowledgment(ctx context.Context) error {
	if err := s.detail.OpenAcknowledgments(ctx); err != nil {
		return err
	}
	v, err := s.detail.EditFirstAcknowledgment(ctx, s.text(), s.text())
	s.ackValue = v
	return err
}

func (s *Scenario) deleteAcknowledgment(ctx context.Context) error {
	if err := s.detail.OpenAcknowledgments(ctx); err != nil {
		return err
	}
	v, err := s.detail.DeleteFirstAcknowledgment(ctx)
	s.ackValue = v
	return err
}

func (s *Scenario) acknowledgmentShown(ctx context.Context) error {
	if err := s.reopenFlaw(ctx); err != nil {
		return err
	}
	if err := s.detail.OpenAcknowledgments(ctx); err != nil {
		return err
	}
	return s.detail.AcknowledgmentExists(ctx, s.ackValue)
}

func (s *Scenario) acknowledgmentRemoved(ctx context.Context) error {
	if err := s.reopenFlaw(ctx); err != nil {
		return err
	}
	if err := s.detail.OpenAcknowledgments(ctx); err != nil {
		return err
	}
	return s.detail.AcknowledgmentAbsent(ctx, s.ackValue)
}

func (s *Scenario) setDropdown(ctx context.Context, field string) error {
	v, err := s.detail.SetSelectValue(ctx, field)
	if err != nil {
		return err
	}
	s.selected = v
	return s.detail.SaveChanges(ctx)
}

func (s *Scenario) dropdownUpdated(ctx context.Context, field string) error {
	if err := s.reopenFlaw(ctx); err != nil {
		return err
	}
	_, got, err := s.detail.GetSelectValue(ctx, field)
	if err != nil {
		return err
	}
	return s.check(field, s.selected, got)
}

func (s *Scenario) setRandomInputs(ctx context.Context, table *godog.Table) error {
	rows, err := tableRecords(table)
	if err != nil {
		return err
	}
	s.fieldValues = s.fieldValues[:0]
	for _, row := range rows {
		v := s.text()
		if err := s.detail.SetInputField(ctx, row["field"], v); err != nil {
			return err
		}
		s.fieldValues = append(s.fieldValues, v)
	}
	return s.detail.SaveChanges(ctx)
}

func (s *Scenario) randomInputsUpdated(ctx context.Context) error {
	if err := s.reopenFlaw(ctx); err != nil {
		return err
	}
	for _, v := range s.fieldValues {
		if err := s.detail.ValueExists(ctx, v); err != nil {
			return fmt.Errorf("value %q not shown: %w", v, err)
		}
	}
	return nil
}

// setCVE saves a fresh random CVE ID, drawing a new one whenever OSIDB
// rejects the candidate as taken.
func (s *Scenario) setCVE(ctx context.Context) error {
	return retry.Policy{
		Attempts: saveAttempts,
		Interval: retry.DefaultInterval,
		OnRetry: func(attempt int, err error) {
			s.suite.trace.Info("CVE %s rejected (attempt %d): %v", s.cveID, attempt, err)
		},
	}.Do(ctx, func(ctx context.Context, _ int) error {
		s.cveID = s.gen().CVE()
		if err := s.detail.SetInputField(ctx, "cveid", s.cveID); err != nil {
			return retry.Permanent(err)
		}
		return s.detail.SaveChanges(ctx)
	})
}

func (s *Scenario) cveUpdated(ctx context.Context) error {
	if err := s.reopenFlaw(ctx); err != nil {
		return err
	}
	return s.detail.ValueExists(ctx, s.cveID)
}

func (s *Scenario) setCWE(ctx context.Context, action string) error {
	if action == "delete" {
		s.fieldValue = ""
		if err := s.detail.ClearInputField(ctx, "cweid"); err != nil {
			return err
		}
	} else {
		s.fieldValue = s.gen().CWE()
		if err := s.detail.SetInputField(ctx, "cweid", s.fieldValue); err != nil {
			return err
		}
	}
	return s.detail.SaveChanges(ctx)
}

func (s *Scenario) cweUpdated(ctx context.Context) error {
	if err := s.reopenFlaw(ctx); err != nil {
		return err
	}
	got, err := s.detail.GetInputValue(ctx, "cweid")
	if err != nil {
		return err
	}
	return s.check("CWE ID", s.fieldValue, got)
}

// pastPublicDate tries to save an embargoed flaw whose public date is
// already behind us, which OSIDB refuses.
func (s *Scenario) pastPublicDate(ctx context.Context) error {
	embargoed, err := s.detail.Embargoed(ctx)
	if err != nil {
		return err
	}
	if !embargoed {
		return fmt.Errorf("flaw at %s is not embargoed", s.flawURL)
	}
	if s.publicDate, err = s.detail.GetInputValue(ctx, "publicDate"); err != nil {
		return err
	}
	past := time.Now().AddDate(0, 0, -7).Format(fixture.DateLayout)
	if err := s.detail.SetInputField(ctx, "publicDate", past); err != nil {
		return err
	}
	return s.detail.ClickSave(ctx)
}

// publicDateRefused waits for the refusal and checks the reloaded flaw
// still shows the public date it had before the edit.
func (s *Scenario) publicDateRefused(ctx context.Context) error {
	if err := s.detail.WaitMessage(ctx, "embargoedPublicDateErrorMsg"); err != nil {
		return err
	}
	if err := s.reopenFlaw(ctx); err != nil {
		return err
	}
	got, err := s.detail.GetInputValue(ctx, "publicDate")
	if err != nil {
		return err
	}
	return s.check("public date", s.publicDate, got)
}
