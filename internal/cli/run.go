package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/cucumber/godog/colors"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/RedHatProductSecurity/osim/internal/bdd"
	"github.com/RedHatProductSecurity/osim/internal/config"
	"github.com/RedHatProductSecurity/osim/internal/logging"
	"github.com/RedHatProductSecurity/osim/internal/output"
	"github.com/RedHatProductSecurity/osim/internal/report"
)

var (
	flagRunTags     string
	flagRunFormat   string
	flagRunBrowser  string
	flagRunHeadless bool
	flagRunReport   string
	flagRunStrict   bool
	flagRunNoColor  bool
)

var runCmd = &cobra.Command{
	Use:   "run [paths...]",
	Short: "Run the OSIM features",
	Long: `Run the Gherkin features against the configured OSIM instance.

Each scenario opens its own browser session. Paths default to run.paths
from the configuration ("features"). With --report, the cucumber JSON
results are written to the given file and summarised after the run.

The exit status is non-zero when any scenario fails.

Examples:
  osim-e2e run
  osim-e2e run features/login.feature features/flaw_list.feature
  osim-e2e run --tags '@embargoed && ~@destructive'
  osim-e2e run --browser webdriver --headless=false
  osim-e2e run --report results.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides := map[string]any{}
		if len(args) > 0 {
			overrides["run.paths"] = args
		}
		flags := cmd.Flags()
		if flags.Changed("tags") {
			overrides["run.tags"] = flagRunTags
		}
		if flags.Changed("format") {
			overrides["run.format"] = flagRunFormat
		}
		if flags.Changed("browser") {
			overrides["browser.backend"] = flagRunBrowser
		}
		if flags.Changed("headless") {
			overrides["browser.headless"] = flagRunHeadless
		}
		if flags.Changed("strict") {
			overrides["run.strict"] = flagRunStrict
		}

		cfg, err := loadConfig(overrides)
		if err != nil {
			return err
		}

		logger, closeLog, err := runLogger(cfg, cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer closeLog()

		// In JSON mode stdout carries the report only.
		console := cmd.OutOrStdout()
		if output.IsJSON() {
			console = cmd.ErrOrStderr()
		}
		color := !flagRunNoColor && !output.IsJSON() && isTerminal(console)
		bdd.SetColor(color)

		suite, err := bdd.FromConfig(cfg, logger.WithPrefix("bdd"), traceWriter(logger, cmd.ErrOrStderr()))
		if err != nil {
			return fmt.Errorf("building suite: %w", err)
		}

		opts := suite.Options(console)
		opts.NoColors = !color
		if color {
			opts.Output = colors.Colored(console)
		} else {
			opts.Output = colors.Uncolored(console)
		}

		reportPath := flagRunReport
		if reportPath == "" && output.IsJSON() {
			dir, err := os.MkdirTemp("", "osim-e2e-report-")
			if err != nil {
				return fmt.Errorf("creating report dir: %w", err)
			}
			defer os.RemoveAll(dir)
			reportPath = filepath.Join(dir, "cucumber.json")
		}
		if reportPath != "" {
			opts.Format = opts.Format + ",cucumber:" + reportPath
		}

		status := suite.Run(opts)

		if reportPath != "" {
			rep, err := report.ParseFile(reportPath)
			if err != nil {
				return &ExitError{Code: max(status, 1), Err: fmt.Errorf("reading report: %w", err)}
			}
			if output.IsJSON() {
				err = rep.WriteJSON(cmd.OutOrStdout())
			} else {
				fmt.Fprintln(console)
				err = rep.WriteText(console)
			}
			if err != nil {
				return err
			}
			if status == 0 && !rep.OK() {
				status = 1
			}
		}

		if status != 0 {
			return &ExitError{Code: status}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&flagRunTags, "tags", "t", "", "godog tag expression, e.g. '@embargoed && ~@destructive'")
	runCmd.Flags().StringVarP(&flagRunFormat, "format", "f", "pretty", "godog formatter: pretty, progress, cucumber, junit, events")
	runCmd.Flags().StringVar(&flagRunBrowser, "browser", "cdp", "browser backend: cdp or webdriver")
	runCmd.Flags().BoolVar(&flagRunHeadless, "headless", true, "run the browser without a window")
	runCmd.Flags().StringVar(&flagRunReport, "report", "", "write cucumber JSON results to this file and summarise them")
	runCmd.Flags().BoolVar(&flagRunStrict, "strict", true, "fail on undefined or pending steps")
	runCmd.Flags().BoolVar(&flagRunNoColor, "no-color", false, "disable coloured output")

	rootCmd.AddCommand(runCmd)
}

// runLogger builds the suite logger from the logging section. An explicit
// --log-level wins over logging.level.
func runLogger(cfg config.Config, stderr io.Writer) (*log.Logger, func(), error) {
	opts := logging.DefaultLoggerOptions()
	opts.Level = cfg.Logging.Level
	if flagLogLevel != "" {
		opts.Level = flagLogLevel
	}
	if cfg.Logging.File == "" {
		opts.Output = stderr
		logger := logging.New(opts)
		logging.SetDefault(logger)
		return logger, func() {}, nil
	}
	logger, closer, err := logging.NewFile(cfg.Logging.File, opts)
	if err != nil {
		return nil, nil, err
	}
	logging.SetDefault(logger)
	return logger, func() { _ = closer.Close() }, nil
}

// traceWriter returns the step trace destination: stderr at debug level,
// nowhere otherwise.
func traceWriter(logger *log.Logger, stderr io.Writer) io.Writer {
	if logger.GetLevel() > log.DebugLevel {
		return nil
	}
	return logging.DefaultRedactor.Writer(stderr)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
