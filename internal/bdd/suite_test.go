package bdd

import (
	"bytes"
	"io"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedHatProductSecurity/osim/internal/artifacts"
	"github.com/RedHatProductSecurity/osim/internal/browser"
	"github.com/RedHatProductSecurity/osim/internal/browser/browsertest"
	"github.com/RedHatProductSecurity/osim/internal/config"
	"github.com/RedHatProductSecurity/osim/internal/fixture"
	"github.com/RedHatProductSecurity/osim/internal/logging"
	"github.com/RedHatProductSecurity/osim/internal/page"
)

const testOSIM = "https://osim.example.test/"

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.General.OSIMURL = testOSIM
	cfg.General.PageTimeoutSecs = 1
	cfg.Store.Path = filepath.Join(t.TempDir(), "state.json")
	cfg.Artifacts.Dir = t.TempDir()
	return cfg
}

// loggedInOSIM scripts a fake that lands on the flaw list after Login.
func loggedInOSIM() *browsertest.Fake {
	f := browsertest.New()
	login := page.NewLogin(f, testOSIM, nil)
	home := page.NewHome(f, testOSIM, nil)
	sel := func(b *page.Base, name string) string { return b.Registry.MustLookup(name).Selector }

	user := &browsertest.Node{Text: "analyst"}
	loginBtn := &browsertest.Node{}
	loginBtn.OnClick = func() {
		f.Set(sel(home.Base, "flawList"), &browsertest.Node{})
		f.Set(sel(home.Base, "userBtn"), user)
	}
	logoutBtn := &browsertest.Node{}
	user.OnClick = func() { f.Set(sel(home.Base, "logoutBtn"), logoutBtn) }
	f.Set(sel(login.Base, "loginBtn"), loginBtn)
	return f
}

func newFakeSuite(t *testing.T, cfg config.Config, trace io.Writer) (*Suite, *[]*browsertest.Fake) {
	t.Helper()
	var opened []*browsertest.Fake
	s := NewSuite(Deps{
		Config:    cfg,
		Logger:    logging.Discard(),
		Seed:      fixture.DefaultSeed(),
		Generator: fixture.NewGenerator(7),
		Recorder:  artifacts.NewRecorder(cfg.Artifacts.Dir, nil, logging.Discard()),
		OpenBrowser: func(context.Context) (browser.Driver, error) {
			f := loggedInOSIM()
			opened = append(opened, f)
			return f, nil
		},
		Trace: trace,
	})
	return s, &opened
}

func runFeature(s *Suite, contents string) int {
	opts := godog.Options{
		Format: "progress",
		Output: &bytes.Buffer{},
		Strict: true,
		FeatureContents: []godog.Feature{
			{Name: "fake.feature", Contents: []byte(contents)},
		},
	}
	return s.Run(opts)
}

func TestSuiteLoginAndLogout(t *testing.T) {
	var trace bytes.Buffer
	s, opened := newFakeSuite(t, testConfig(t), &trace)

	status := runFeature(s, `Feature: session
  Scenario: Log in
    Given I am an analyst with valid credential
    When I attempt to log into OSIM
    Then I am able to log into OSIM

  Scenario: Log out
    Given I am an analyst AND I am logged into OSIM
    When I click the Logout button from the account dropdown
    Then I log out and am redirected to the login page
`)
	require.Equal(t, 0, status, trace.String())
	require.Len(t, *opened, 2, "one browser per scenario")
	for _, f := range *opened {
		assert.True(t, f.Closed, "session closed after the scenario")
		assert.Equal(t, []string{testOSIM}, f.Visits)
	}
	assert.Contains(t, trace.String(), "SCENARIO: Log out")
	assert.Contains(t, trace.String(), "STEP 3: I log out and am redirected to the login page")
}

func TestSuiteSkipsWhenEverythingIsLoaded(t *testing.T) {
	var trace bytes.Buffer
	s, _ := newFakeSuite(t, testConfig(t), &trace)

	status := runFeature(s, `Feature: load more
  Scenario: Load more flaws
    Given I am an analyst AND I am logged into OSIM
    And Not all flaws are loaded
    When I click the button 'Load More Flaws'
    Then More flaws are loaded into the list
`)
	require.Equal(t, 0, status, trace.String())
	assert.Contains(t, trace.String(), "remaining steps skipped")
	assert.Contains(t, trace.String(), "skipped: optional precondition absent")
}

func TestSuiteCapturesFailureEvidence(t *testing.T) {
	cfg := testConfig(t)
	var trace bytes.Buffer
	s, opened := newFakeSuite(t, cfg, &trace)

	start := time.Now()
	status := runFeature(s, `Feature: failing
  Scenario: Flaw detail never renders
    Given I am an analyst AND I am logged into OSIM
    When I click the link of a flaw
`)
	assert.NotEqual(t, 0, status)
	assert.Less(t, time.Since(start), 10*time.Second, "page timeout comes from the config")
	require.Len(t, *opened, 1)
	assert.True(t, (*opened)[0].Closed)

	slug := artifacts.Slug("Flaw detail never renders")
	for _, ext := range []string{".png", ".html"} {
		_, err := os.Stat(filepath.Join(cfg.Artifacts.Dir, slug+"-failure"+ext))
		assert.NoError(t, err, ext)
	}
	assert.Contains(t, trace.String(), "ERROR: I click the link of a flaw")
}

func TestSuiteUndefinedStepFailsStrictRun(t *testing.T) {
	s, _ := newFakeSuite(t, testConfig(t), nil)
	status := runFeature(s, `Feature: undefined
  Scenario: Nobody implements this
    Given I am an analyst AND I am logged into OSIM
    When I do something OSIM cannot do
`)
	assert.NotEqual(t, 0, status)
}

func TestOptionsFromRunConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Run = config.RunConfig{Tags: "@login && ~@destructive", Strict: true}
	s, _ := newFakeSuite(t, cfg, nil)

	opts := s.Options(&bytes.Buffer{})
	assert.Equal(t, []string{"features"}, opts.Paths)
	assert.Equal(t, "pretty", opts.Format)
	assert.Equal(t, "@login && ~@destructive", opts.Tags)
	assert.True(t, opts.Strict)
}

func TestBrowserOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Browser.Backend = "webdriver"
	cfg.Browser.WebDriverURL = "http://selenium:4444/wd/hub"
	cfg.Browser.Width, cfg.Browser.Height = 1280, 800

	opts, err := BrowserOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, browser.BackendWebDriver, opts.Backend)
	assert.Equal(t, "http://selenium:4444/wd/hub", opts.WebDriverURL)
	assert.Equal(t, 1280, opts.Width)

	cfg.Browser.Backend = "playwright"
	_, err = BrowserOptions(cfg)
	assert.Error(t, err)
}

func TestFromConfigWithoutOracle(t *testing.T) {
	cfg := testConfig(t)
	cfg.General.SeedPath = filepath.Join(t.TempDir(), "missing.yaml")
	cfg.Integrations.BugzillaAPIKey = "bz-0123456789abcdef"

	s, err := FromConfig(cfg, logging.Discard(), nil)
	require.NoError(t, err)
	assert.Nil(t, s.deps.Oracle)
	assert.NotNil(t, s.deps.Recorder)
	assert.Equal(t, fixture.DefaultSeed().QuickSearchCVE, s.deps.Seed.QuickSearchCVE)
	assert.NotContains(t, logging.DefaultRedactor.String("key=bz-0123456789abcdef"), "bz-0123456789abcdef")

	cfg.Logging.Redaction = "block"
	_, err = FromConfig(cfg, logging.Discard(), nil)
	assert.Error(t, err)
}
