// Package cli implements the osim-e2e command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/RedHatProductSecurity/osim/internal/config"
	"github.com/RedHatProductSecurity/osim/internal/logging"
	"github.com/RedHatProductSecurity/osim/internal/output"
)

var (
	flagConfig   string
	flagLogLevel string
	flagJSON     bool
)

var rootCmd = &cobra.Command{
	Use:   "osim-e2e",
	Short: "End-to-end UI tests for OSIM",
	Long: `osim-e2e drives a browser through the OSIM flaw management UI and
checks the results against the page and, optionally, OSIDB.

Configuration is read from ~/.osim-e2e/config.toml, then
.osim-e2e/config.toml in the current directory (or --config), then the
environment (OSIM_URL, OSIDB_URL, BUGZILLA_API_KEY, JIRA_API_KEY, ...).

Examples:
  osim-e2e run                              # Run every feature
  osim-e2e run features/flaw_detail.feature # Run one feature
  osim-e2e run --tags '@embargoed'          # Run tagged scenarios
  osim-e2e store list                       # Show hand-off state
  osim-e2e generate cve --count 3           # Print fresh CVE IDs`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		output.SetMode(flagJSON)
		if flagLogLevel != "" {
			opts := logging.DefaultLoggerOptions()
			opts.Level = flagLogLevel
			opts.Output = cmd.ErrOrStderr()
			logging.SetDefault(logging.New(opts))
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "project config file (default .osim-e2e/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "JSON output")
}

// ExitError carries a process exit status out of a command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute runs the root command and returns the exit status.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	code := 1
	var exit *ExitError
	if errors.As(err, &exit) {
		code = exit.Code
		if exit.Err == nil {
			return code
		}
	}
	writeError(os.Stdout, os.Stderr, err, code)
	return code
}

func writeError(stdout, stderr io.Writer, err error, code int) {
	if output.IsJSON() {
		_ = output.WriteJSONError(stdout, err, code)
		return
	}
	fmt.Fprintf(stderr, "[osim-e2e] Error: %s\n", err)
}

// loadConfig resolves the effective configuration for the working
// directory, with overrides taking precedence over every other layer.
func loadConfig(overrides map[string]any) (config.Config, error) {
	project, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("getting working directory: %w", err)
	}
	cfg, err := config.Load(config.LoadOptions{
		ProjectDir:    project,
		ConfigPath:    flagConfig,
		FlagOverrides: overrides,
	})
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
