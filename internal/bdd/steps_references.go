package bdd

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

const rhsbBase = "https://access.redhat.com/security/vulnerabilities/"

func (s *Scenario) registerReferences(ctx *godog.ScenarioContext) {
	ctx.Step(`^I add an external reference to the flaw$`, s.addExternalReference)
	ctx.Step(`^A new reference is added to the flaw$`, s.referenceShown)
	ctx.Step(`^I edit the first reference of the flaw$`, s.editReference)
	ctx.Step(`^The reference is changed$`, s.referenceShown)
	ctx.Step(`^I delete all references from the flaw$`, s.deleteReferences)
	ctx.Step(`^The flaw has no references$`, s.noReferences)

	ctx.Step(`^I add two RHSB references to the flaw$`, s.addTwoRHSB)
	ctx.Step(`^I get an error message about multiple RHSB references$`, s.secondRHSBRefused)
	ctx.Step(`^I add an RHSB reference with a non Red Hat link$`, s.addBadRHSB)
	ctx.Step(`^I get an error message about the RHSB link format$`, s.message("rhsbReferenceLinkFormatErrorMsg"))
}

func (s *Scenario) referenceURL() string {
	return "https://" + s.text() + ".example.com/" + s.text()
}

func (s *Scenario) addExternalReference(ctx context.Context) error {
	if err := s.detail.OpenReferences(ctx); err != nil {
		return err
	}
	s.fieldValue = s.referenceURL()
	if err := s.detail.AddReference(ctx, "External", s.fieldValue, s.text()); err != nil {
		return err
	}
	return s.detail.WaitMessage(ctx, "referenceCreatedMsg")
}

func (s *Scenario) editReference(ctx context.Context) error {
	n, err := s.detail.ReferenceCount(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("flaw at %s has no reference to edit", s.flawURL)
	}
	if err := s.detail.OpenReferences(ctx); err != nil {
		return err
	}
	s.fieldValue = s.referenceURL()
	if err := s.detail.EditFirstReference(ctx, s.fieldValue, s.text()); err != nil {
		return err
	}
	return s.detail.WaitMessage(ctx, "referenceUpdatedMsg")
}

func (s *Scenario) referenceShown(ctx context.Context) error {
	if err := s.reopenFlaw(ctx); err != nil {
		return err
	}
	if err := s.detail.OpenReferences(ctx); err != nil {
		return err
	}
	return s.detail.AssertTextPresent(ctx, s.fieldValue)
}

func (s *Scenario) deleteReferences(ctx context.Context) error {
	if err := s.detail.OpenReferences(ctx); err != nil {
		return err
	}
	n, err := s.detail.DeleteAllReferences(ctx)
	s.suite.trace.Info("%d references deleted", n)
	return err
}

func (s *Scenario) noReferences(ctx context.Context) error {
	if err := s.reopenFlaw(ctx); err != nil {
		return err
	}
	n, err := s.detail.ReferenceCount(ctx)
	if err != nil {
		return err
	}
	return s.check("reference count", 0, n)
}

// addTwoRHSB saves one article reference and submits a second one, which
// the form must refuse.
func (s *Scenario) addTwoRHSB(ctx context.Context) error {
	n, err := s.detail.ReferenceCount(ctx)
	if err != nil {
		return err
	}
	s.refsBefore = n
	if err := s.detail.OpenReferences(ctx); err != nil {
		return err
	}
	s.fieldValue = rhsbBase + "RHSB-" + s.text()
	if err := s.detail.AddReference(ctx, "RHSB", s.fieldValue, s.text()); err != nil {
		return err
	}
	if err := s.detail.WaitMessage(ctx, "referenceCreatedMsg"); err != nil {
		return err
	}
	if err := s.detail.CloseToast(ctx); err != nil {
		return err
	}
	return s.detail.AddReference(ctx, "RHSB", rhsbBase+"RHSB-"+s.text(), s.text())
}

// secondRHSBRefused waits for the refusal, then reloads the flaw and checks
// only the first article reference was stored.
func (s *Scenario) secondRHSBRefused(ctx context.Context) error {
	if err := s.detail.WaitMessage(ctx, "addMultipleRHSBReferenceErrorMsg"); err != nil {
		return err
	}
	if err := s.reopenFlaw(ctx); err != nil {
		return err
	}
	n, err := s.detail.ReferenceCount(ctx)
	if err != nil {
		return err
	}
	if err := s.check("reference count", s.refsBefore+1, n); err != nil {
		return err
	}
	if err := s.detail.OpenReferences(ctx); err != nil {
		return err
	}
	return s.detail.AssertTextPresent(ctx, s.fieldValue)
}

func (s *Scenario) addBadRHSB(ctx context.Context) error {
	if err := s.detail.OpenReferences(ctx); err != nil {
		return err
	}
	return s.detail.AddReference(ctx, "RHSB", s.referenceURL(), s.text())
}
