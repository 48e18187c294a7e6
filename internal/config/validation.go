package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/RedHatProductSecurity/osim/internal/redaction"
)

// Validate checks the configuration for semantic errors.
func Validate(cfg Config) error {
	var errs []string

	if !validURL(cfg.General.OSIMURL) {
		errs = append(errs, "general.osim_url must be an absolute http(s) URL")
	}
	if cfg.General.TimeoutSecs <= 0 {
		errs = append(errs, "general.timeout must be > 0 seconds")
	}
	if cfg.General.PageTimeoutSecs <= 0 {
		errs = append(errs, "general.page_timeout must be > 0 seconds")
	}

	if cfg.OSIDB.URL != "" && !validURL(cfg.OSIDB.URL) {
		errs = append(errs, "osidb.url must be an absolute http(s) URL")
	}

	if !oneOf(cfg.Browser.Backend, "cdp", "webdriver") {
		errs = append(errs, "browser.backend must be one of cdp|webdriver")
	}
	if cfg.Browser.Backend == "webdriver" && cfg.Browser.WebDriverURL == "" {
		errs = append(errs, "browser.webdriver_url is required for the webdriver backend")
	}
	if cfg.Browser.Width <= 0 || cfg.Browser.Height <= 0 {
		errs = append(errs, "browser.width and browser.height must be > 0")
	}

	if cfg.Store.Path == "" {
		errs = append(errs, "store.path cannot be empty")
	}

	if cfg.DevServer.ReadyTimeoutMs <= 0 {
		errs = append(errs, "devserver.ready_timeout_ms must be > 0")
	}
	if cfg.DevServer.PollIntervalMs <= 0 {
		errs = append(errs, "devserver.poll_interval_ms must be > 0")
	}

	if !oneOf(strings.ToLower(cfg.Logging.Level), "debug", "info", "warn", "warning", "error", "fatal") {
		errs = append(errs, "logging.level must be one of debug|info|warn|error|fatal")
	}
	if _, err := redaction.ParseMode(cfg.Logging.Redaction); err != nil {
		errs = append(errs, "logging.redaction must be one of off|warn|redact")
	}

	if !oneOf(cfg.Run.Format, "pretty", "progress", "cucumber", "junit", "events") {
		errs = append(errs, "run.format must be one of pretty|progress|cucumber|junit|events")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func oneOf(val string, options ...string) bool {
	for _, opt := range options {
		if val == opt {
			return true
		}
	}
	return false
}
