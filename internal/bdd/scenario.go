package bdd

import (
	"context"
	"errors"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/RedHatProductSecurity/osim/internal/browser"
	"github.com/RedHatProductSecurity/osim/internal/devserver"
	"github.com/RedHatProductSecurity/osim/internal/fixture"
	"github.com/RedHatProductSecurity/osim/internal/osidb"
	"github.com/RedHatProductSecurity/osim/internal/page"
	"github.com/RedHatProductSecurity/osim/internal/store"
)

// Retry budgets for server round trips that can collide with other runs.
const (
	saveAttempts   = 10
	affectAttempts = 5
)

// keyword is one advanced search facet and the value expected to match.
type keyword struct {
	Field string
	Value string
}

// Scenario is the state of one running scenario.
type Scenario struct {
	suite *Suite
	name  string

	drv      browser.Driver
	login    *page.Login
	home     *page.Home
	detail   *page.FlawDetail
	create   *page.FlawCreate
	search   *page.AdvancedSearch
	settings *page.Settings
	server   *devserver.Server

	// skip is set by a Given whose optional precondition is absent; every
	// later skippable step becomes a no-op.
	skip bool

	// flawURL is the detail page the When steps edited; Then steps reload it.
	flawURL string

	cveID          string
	embargoed      bool
	fieldValue     string
	selected       string
	ackValue       string
	fieldValues    []string
	flawsCount     int
	filterColumn   string
	filterKeyword  string
	fieldsKeywords []keyword
	userName       string
	state          string
	affect         page.AffectInput
	selectedRows   []int
	bgColor        string
	trackersFiled  bool
	refsBefore     int
	publicDate     string
}

func newScenario(s *Suite) *Scenario {
	return &Scenario{suite: s}
}

func (s *Scenario) gen() *fixture.Generator { return s.suite.deps.Generator }
func (s *Scenario) store() *store.Store { return s.suite.deps.Store }
func (s *Scenario) seed() *fixture.Seed { return s.suite.deps.Seed }

func (s *Scenario) oracle() (*osidb.Client, error) {
	if s.suite.deps.Oracle == nil {
		return nil, errors.New("OSIDB oracle not configured (set osidb.url or OSIDB_URL)")
	}
	return s.suite.deps.Oracle, nil
}

// open starts the browser session and builds the page objects on it.
func (s *Scenario) open(ctx context.Context) error {
	drv, err := s.suite.deps.OpenBrowser(ctx)
	if err != nil {
		return err
	}
	s.bind(drv)
	return nil
}

func (s *Scenario) bind(drv browser.Driver) {
	cfg := s.suite.deps.Config
	base := cfg.General.OSIMURL
	logger := s.suite.deps.Logger

	s.drv = drv
	s.login = page.NewLogin(drv, base, logger)
	s.home = page.NewHome(drv, base, logger)
	s.detail = page.NewFlawDetail(drv, base, logger)
	s.create = page.NewFlawCreate(drv, base, logger)
	s.search = page.NewAdvancedSearch(drv, base, logger)
	s.settings = page.NewSettings(drv, base, logger)

	if t := cfg.General.PageTimeout(); t > 0 {
		for _, b := range []*page.Base{s.login.Base, s.home.Base, s.detail.Base, s.create.Base, s.search.Base, s.settings.Base} {
			b.Timeout = t
		}
	}
}

// close ends the browser session and any dev server the scenario started.
func (s *Scenario) close() error {
	var errs []error
	if s.server != nil {
		errs = append(errs, s.server.Stop())
		s.server = nil
	}
	if s.drv != nil {
		errs = append(errs, s.drv.Close())
		s.drv = nil
	}
	return errors.Join(errs...)
}

func (s *Scenario) capture(ctx context.Context, label string) {
	rec := s.suite.deps.Recorder
	if rec == nil || s.drv == nil {
		return
	}
	if _, err := rec.Capture(ctx, s.drv, s.name, label); err != nil {
		s.suite.deps.Logger.Warn("failure evidence not captured", "scenario", s.name, "error", err)
	}
}

// skippable turns fn into a no-op once the scenario is marked skipped.
func (s *Scenario) skippable(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		if s.skip {
			s.suite.trace.Info("skipped: optional precondition absent")
			return nil
		}
		return fn(ctx)
	}
}

// check logs and returns an equality assertion.
func (s *Scenario) check(what string, want, got any) error {
	err := expectEqual(what, want, got)
	s.suite.trace.Expected(what, want, got, err == nil)
	return err
}

// rememberFlaw records the detail page currently shown.
func (s *Scenario) rememberFlaw(ctx context.Context) error {
	u, err := s.drv.URL(ctx)
	if err != nil {
		return err
	}
	s.flawURL = u
	return nil
}

// reopenFlaw reloads the flaw the scenario edited.
func (s *Scenario) reopenFlaw(ctx context.Context) error {
	if s.flawURL == "" {
		return fmt.Errorf("no flaw detail page visited in this scenario")
	}
	if err := s.drv.Navigate(ctx, s.flawURL); err != nil {
		return err
	}
	return s.detail.WaitLoaded(ctx)
}

// storedFlawID returns the hand-off flaw ID, falling back to the seed.
func (s *Scenario) storedFlawID(embargoed bool) (string, error) {
	get, fallback := s.store().FlawID, s.seed().FlawID
	if embargoed {
		get, fallback = s.store().EmbargoedFlawID, s.seed().EmbargoedFlawID
	}
	id, err := get()
	if err == nil {
		return id, nil
	}
	if errors.Is(err, store.ErrNotFound) && fallback != "" {
		return fallback, nil
	}
	return "", err
}

func (s *Scenario) register(ctx *godog.ScenarioContext) {
	s.registerCommon(ctx)
	s.registerFlawList(ctx)
	s.registerFilter(ctx)
	s.registerDetail(ctx)
	s.registerReferences(ctx)
	s.registerAffects(ctx)
	s.registerWorkflow(ctx)
	s.registerCreate(ctx)
	s.registerAdvancedSearch(ctx)
	s.registerDevServer(ctx)
}
