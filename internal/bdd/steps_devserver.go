package bdd

import (
	"context"
	"errors"

	"github.com/cucumber/godog"

	"github.com/RedHatProductSecurity/osim/internal/browser"
	"github.com/RedHatProductSecurity/osim/internal/devserver"
	"github.com/RedHatProductSecurity/osim/internal/locator"
)

func (s *Scenario) registerDevServer(ctx *godog.ScenarioContext) {
	ctx.Step(`^the OSIM dev server is running$`, s.startDevServer)
	ctx.Step(`^I am on the OSIM local development page$`, s.openDevServer)
	ctx.Step(`^I retrieve the background color of the page$`, s.readBackground)
	ctx.Step(`^the background color should be the expected color$`, s.backgroundMatches)
	ctx.Step(`^I close the browser and server$`, s.closeAll)
}

func (s *Scenario) startDevServer(ctx context.Context) error {
	cfg := s.suite.deps.Config.DevServer
	srv, err := devserver.Start(ctx, devserver.Options{
		Command:      cfg.Command,
		Dir:          cfg.Dir,
		URL:          cfg.URL,
		ReadyTimeout: cfg.ReadyTimeout(),
		PollInterval: cfg.PollInterval(),
		Logger:       s.suite.deps.Logger.WithPrefix("devserver"),
	})
	if err != nil {
		return err
	}
	s.server = srv
	return nil
}

func (s *Scenario) openDevServer(ctx context.Context) error {
	if s.server == nil {
		return errors.New("dev server not started")
	}
	return s.drv.Navigate(ctx, s.server.URL())
}

func (s *Scenario) readBackground(ctx context.Context) error {
	body, err := browser.WaitVisible(ctx, s.drv, locator.ByTagName("body", "body"), s.home.Timeout)
	if err != nil {
		return err
	}
	s.bgColor, err = browser.CSSValue(ctx, body, "background-color")
	return err
}

func (s *Scenario) backgroundMatches(context.Context) error {
	return s.check("background color", devserver.ExpectedBackground, s.bgColor)
}

func (s *Scenario) closeAll(context.Context) error {
	return s.close()
}
