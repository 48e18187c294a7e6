package page

import (
	"context"
	"fmt"
	"strings"

	"github.com/RedHatProductSecurity/osim/internal/browser"
)

// Workflow states of a flaw.
const (
	StateNew                 = "NEW"
	StateTriage              = "TRIAGE"
	StateSecondaryAssessment = "SECONDARY_ASSESSMENT"
	StateDone                = "DONE"
	StateRejected            = "REJECTED"
)

var promotions = map[string]string{
	StateNew:                 StateTriage,
	StateTriage:              StateSecondaryAssessment,
	StateSecondaryAssessment: StateDone,
}

// NextState returns the state Promote moves to from state.
func NextState(state string) (string, bool) {
	next, ok := promotions[normalizeState(state)]
	return next, ok
}

func normalizeState(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
}

// WorkflowState returns the displayed workflow state, normalised to the
// OSIDB spelling ("Secondary Assessment" becomes SECONDARY_ASSESSMENT).
func (p *FlawDetail) WorkflowState(ctx context.Context) (string, error) {
	el, err := p.WaitVisible(ctx, "workflowState")
	if err != nil {
		return "", err
	}
	s, err := browser.Text(ctx, el)
	if err != nil {
		return "", err
	}
	return normalizeState(s), nil
}

func (p *FlawDetail) waitState(ctx context.Context, want string) error {
	loc := p.Registry.MustLookup("workflowState")
	return browser.Poll(ctx, p.Timeout, browser.DefaultPollInterval, "workflow state "+want, func(ctx context.Context) (bool, error) {
		el, err := browser.Find(ctx, p.Driver, loc)
		if err != nil {
			return false, err
		}
		s, err := browser.Text(ctx, el)
		return err == nil && normalizeState(s) == want, err
	})
}

// Promote advances the flaw one workflow step and returns the new state.
func (p *FlawDetail) Promote(ctx context.Context) (string, error) {
	cur, err := p.WorkflowState(ctx)
	if err != nil {
		return "", err
	}
	next, ok := NextState(cur)
	if !ok {
		return "", fmt.Errorf("flaw in state %s cannot be promoted", cur)
	}
	if err := p.ClickJS(ctx, Named("promoteBtn")); err != nil {
		return "", err
	}
	return next, p.waitState(ctx, next)
}

// Reject rejects the flaw with reason.
func (p *FlawDetail) Reject(ctx context.Context, reason string) error {
	if err := p.ClickJS(ctx, Named("rejectBtn")); err != nil {
		return err
	}
	if err := p.SetText(ctx, Named("rejectReasonInput"), reason); err != nil {
		return err
	}
	if err := p.ClickJS(ctx, Named("confirmRejectBtn")); err != nil {
		return err
	}
	return p.waitState(ctx, StateRejected)
}
