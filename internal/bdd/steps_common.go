package bdd

import (
	"context"
	"errors"

	"github.com/cucumber/godog"
)

func (s *Scenario) registerCommon(ctx *godog.ScenarioContext) {
	ctx.Step(`^I am an analyst AND I am logged into OSIM$`, s.loggedIn)
	ctx.Step(`^I set the bugzilla api key and jira api key$`, s.setAPIKeys)
	ctx.Step(`^I am on the flaw list$`, s.onFlawList)
	ctx.Step(`^I go to a flaw detail page$`, s.goToFirstFlaw)
	ctx.Step(`^I go to the stored flaw detail page$`, func(ctx context.Context) error { return s.goToStoredFlaw(ctx, false) })
	ctx.Step(`^I go to the embargoed flaw detail page$`, func(ctx context.Context) error { return s.goToStoredFlaw(ctx, true) })

	ctx.Step(`^I am an analyst with valid credential$`, s.openLogin)
	ctx.Step(`^I attempt to log into OSIM$`, s.attemptLogin)
	ctx.Step(`^I am able to log into OSIM$`, s.checkLoggedIn)
	ctx.Step(`^I click the Logout button from the account dropdown$`, s.logout)
	ctx.Step(`^I log out and am redirected to the login page$`, s.checkLoggedOut)
}

func (s *Scenario) openLogin(ctx context.Context) error {
	return s.login.Open(ctx)
}

func (s *Scenario) attemptLogin(ctx context.Context) error {
	return s.login.Login(ctx)
}

func (s *Scenario) checkLoggedIn(ctx context.Context) error {
	return s.login.CheckLoggedIn(ctx)
}

func (s *Scenario) loggedIn(ctx context.Context) error {
	if err := s.login.Open(ctx); err != nil {
		return err
	}
	if err := s.login.Login(ctx); err != nil {
		return err
	}
	return s.home.WaitLoaded(ctx)
}

func (s *Scenario) setAPIKeys(ctx context.Context) error {
	keys := s.suite.deps.Config.Integrations
	if keys.BugzillaAPIKey == "" || keys.JiraAPIKey == "" {
		return errors.New("bugzilla and jira api keys must be configured (BUGZILLA_API_KEY, JIRA_API_KEY)")
	}
	if err := s.settings.Open(ctx); err != nil {
		return err
	}
	if err := s.settings.SetAPIKey(ctx, "bugzilla", keys.BugzillaAPIKey); err != nil {
		return err
	}
	if err := s.settings.SetAPIKey(ctx, "jira", keys.JiraAPIKey); err != nil {
		return err
	}
	if err := s.settings.Save(ctx); err != nil {
		return err
	}
	return s.home.GoHome(ctx)
}

func (s *Scenario) onFlawList(ctx context.Context) error {
	return s.home.GoHome(ctx)
}

func (s *Scenario) goToFirstFlaw(ctx context.Context) error {
	if err := s.onFlawList(ctx); err != nil {
		return err
	}
	if err := s.home.ClickFirstFlawLink(ctx); err != nil {
		return err
	}
	if err := s.detail.WaitLoaded(ctx); err != nil {
		return err
	}
	return s.rememberFlaw(ctx)
}

func (s *Scenario) goToStoredFlaw(ctx context.Context, embargoed bool) error {
	id, err := s.storedFlawID(embargoed)
	if err != nil {
		return err
	}
	if err := s.detail.Open(ctx, id); err != nil {
		return err
	}
	return s.rememberFlaw(ctx)
}

func (s *Scenario) logout(ctx context.Context) error {
	return s.home.Logout(ctx)
}

func (s *Scenario) checkLoggedOut(ctx context.Context) error {
	return s.login.CheckLoginButton(ctx)
}
