// Package bdd binds the Gherkin steps of the OSIM features to page
// objects. Each scenario gets its own browser session and state.
package bdd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cucumber/godog"

	"github.com/RedHatProductSecurity/osim/internal/artifacts"
	"github.com/RedHatProductSecurity/osim/internal/browser"
	"github.com/RedHatProductSecurity/osim/internal/config"
	"github.com/RedHatProductSecurity/osim/internal/fixture"
	"github.com/RedHatProductSecurity/osim/internal/logging"
	"github.com/RedHatProductSecurity/osim/internal/osidb"
	"github.com/RedHatProductSecurity/osim/internal/redaction"
	"github.com/RedHatProductSecurity/osim/internal/store"
)

// Deps are the collaborators shared by every scenario of a run.
type Deps struct {
	Config    config.Config
	Logger    *log.Logger
	Store     *store.Store
	Oracle    *osidb.Client
	Seed      *fixture.Seed
	Generator *fixture.Generator
	// Recorder captures evidence for failed scenarios; nil disables it.
	Recorder *artifacts.Recorder
	// OpenBrowser starts the session of one scenario.
	OpenBrowser func(ctx context.Context) (browser.Driver, error)
	// Trace receives the step trace; nil discards it.
	Trace io.Writer
}

// Suite runs the OSIM features.
type Suite struct {
	deps  Deps
	trace *StepLogger
}

// NewSuite fills in defaults for the zero fields of d.
func NewSuite(d Deps) *Suite {
	if d.Logger == nil {
		d.Logger = logging.WithPrefix("bdd")
	}
	if d.Store == nil {
		d.Store = store.New(d.Config.Store.Path)
	}
	if d.Seed == nil {
		d.Seed = fixture.DefaultSeed()
	}
	if d.Generator == nil {
		d.Generator = fixture.NewGenerator(uint64(time.Now().UnixNano()))
	}
	if d.OpenBrowser == nil {
		cfg := d.Config
		logger := d.Logger
		d.OpenBrowser = func(ctx context.Context) (browser.Driver, error) {
			opts, err := BrowserOptions(cfg)
			if err != nil {
				return nil, err
			}
			opts.Logf = func(format string, args ...any) { logger.Debugf(format, args...) }
			return browser.Open(ctx, opts)
		}
	}
	return &Suite{deps: d, trace: NewStepLogger(d.Trace)}
}

// FromConfig builds a suite from the effective configuration: the seed
// file, the OSIDB oracle (when osidb.url is set) and the artifacts
// recorder. Configured secrets are registered with the redactor.
func FromConfig(cfg config.Config, logger *log.Logger, trace io.Writer) (*Suite, error) {
	if logger == nil {
		logger = logging.WithPrefix("bdd")
	}
	redactor := logging.DefaultRedactor
	mode, err := redaction.ParseMode(cfg.Logging.Redaction)
	if err != nil {
		return nil, err
	}
	redactor.SetMode(mode)
	redactor.AddSecret(cfg.Integrations.BugzillaAPIKey, cfg.Integrations.JiraAPIKey, cfg.OSIDB.Token)

	seed := fixture.DefaultSeed()
	if cfg.General.SeedPath != "" {
		loaded, err := fixture.LoadSeed(cfg.General.SeedPath)
		switch {
		case err == nil:
			seed = loaded
		case errors.Is(err, os.ErrNotExist):
			logger.Warn("seed file missing, using built-in seed", "path", cfg.General.SeedPath)
		default:
			return nil, err
		}
	}

	oracle := NewOracle(cfg, logger)

	var recorder *artifacts.Recorder
	if cfg.Artifacts.OnFailure {
		recorder = artifacts.NewRecorder(cfg.Artifacts.Dir, redactor, logger.WithPrefix("artifacts"))
	}

	return NewSuite(Deps{
		Config:   cfg,
		Logger:   logger,
		Store:    store.New(cfg.Store.Path),
		Oracle:   oracle,
		Seed:     seed,
		Recorder: recorder,
		Trace:    trace,
	}), nil
}

// NewOracle returns an OSIDB client for cfg, or nil when osidb.url is
// unset. Without a configured token the token command is run on first use.
func NewOracle(cfg config.Config, logger *log.Logger) *osidb.Client {
	if cfg.OSIDB.URL == "" {
		return nil
	}
	var tokens osidb.TokenSource
	if cfg.OSIDB.Token != "" {
		tokens = osidb.StaticToken(cfg.OSIDB.Token)
	} else {
		cmd := cfg.OSIDB.TokenCommand
		if cmd == "" {
			cmd = osidb.DefaultTokenCommand(cfg.OSIDB.URL)
		}
		tokens = &osidb.CommandToken{Command: cmd}
	}
	return osidb.NewClient(cfg.OSIDB.URL, tokens, osidb.Options{
		Timeout:  cfg.General.Timeout(),
		Insecure: cfg.OSIDB.Insecure,
		Logger:   logger,
	})
}

// BrowserOptions maps the browser section of cfg onto driver options.
func BrowserOptions(cfg config.Config) (browser.Options, error) {
	backend, err := browser.ParseBackend(cfg.Browser.Backend)
	if err != nil {
		return browser.Options{}, err
	}
	opts := browser.DefaultOptions()
	opts.Backend = backend
	opts.Headless = cfg.Browser.Headless
	opts.RemoteURL = cfg.Browser.RemoteURL
	opts.WebDriverURL = cfg.Browser.WebDriverURL
	if cfg.Browser.BrowserName != "" {
		opts.BrowserName = cfg.Browser.BrowserName
	}
	if cfg.Browser.Width > 0 && cfg.Browser.Height > 0 {
		opts.Width, opts.Height = cfg.Browser.Width, cfg.Browser.Height
	}
	return opts, nil
}

// InitializeTestSuite logs the run boundaries.
func (s *Suite) InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		s.deps.Logger.Info("starting OSIM e2e suite", "osim", s.deps.Config.General.OSIMURL, "store", s.deps.Store.Path())
	})
	ctx.AfterSuite(func() {
		s.deps.Logger.Info("OSIM e2e suite finished")
	})
}

// InitializeScenario creates the per-scenario state and registers every
// step against it.
func (s *Suite) InitializeScenario(ctx *godog.ScenarioContext) {
	sc := newScenario(s)

	ctx.Before(func(ctx context.Context, g *godog.Scenario) (context.Context, error) {
		sc.name = g.Name
		s.trace.Scenario(g.Name)
		if err := sc.open(ctx); err != nil {
			return ctx, fmt.Errorf("open browser: %w", err)
		}
		return ctx, nil
	})

	ctx.StepContext().Before(func(ctx context.Context, st *godog.Step) (context.Context, error) {
		s.trace.Step(st.Text)
		return ctx, nil
	})
	ctx.StepContext().After(func(ctx context.Context, st *godog.Step, status godog.StepResultStatus, err error) (context.Context, error) {
		if err != nil {
			s.trace.Error("%s: %v", st.Text, err)
		}
		s.trace.Result("%s", status)
		return ctx, nil
	})

	ctx.After(func(ctx context.Context, g *godog.Scenario, err error) (context.Context, error) {
		if err != nil {
			s.deps.Logger.Error("scenario failed", "scenario", g.Name, "error", err)
			sc.capture(ctx, "failure")
		}
		s.trace.Elapsed()
		return ctx, sc.close()
	})

	sc.register(ctx)
}

// Options returns godog options for the configured run section.
func (s *Suite) Options(out io.Writer) godog.Options {
	run := s.deps.Config.Run
	paths := run.Paths
	if len(paths) == 0 {
		paths = []string{"features"}
	}
	format := run.Format
	if format == "" {
		format = "pretty"
	}
	return godog.Options{
		Output: out,
		Format: format,
		Paths:  paths,
		Tags:   run.Tags,
		Strict: run.Strict,
	}
}

// Run executes the suite with opts and returns godog's exit status.
func (s *Suite) Run(opts godog.Options) int {
	return godog.TestSuite{
		Name:                 "osim-e2e",
		TestSuiteInitializer: s.InitializeTestSuite,
		ScenarioInitializer:  s.InitializeScenario,
		Options:              &opts,
	}.Run()
}
