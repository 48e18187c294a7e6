// Package config implements hierarchical configuration for the OSIM e2e suite.
// Precedence: defaults < user (~/.osim-e2e/config.toml) < project (.osim-e2e/config.toml) < env < flags.
package config

import "time"

// Config is the top-level configuration structure.
type Config struct {
	General      GeneralConfig      `toml:"general" mapstructure:"general"`
	OSIDB        OSIDBConfig        `toml:"osidb" mapstructure:"osidb"`
	Integrations IntegrationsConfig `toml:"integrations" mapstructure:"integrations"`
	Browser      BrowserConfig      `toml:"browser" mapstructure:"browser"`
	Store        StoreConfig        `toml:"store" mapstructure:"store"`
	DevServer    DevServerConfig    `toml:"devserver" mapstructure:"devserver"`
	Artifacts    ArtifactsConfig    `toml:"artifacts" mapstructure:"artifacts"`
	Logging      LoggingConfig      `toml:"logging" mapstructure:"logging"`
	Run          RunConfig          `toml:"run" mapstructure:"run"`
}

// GeneralConfig holds the application under test and the wait budget.
type GeneralConfig struct {
	OSIMURL string `toml:"osim_url" mapstructure:"osim_url"`
	// TimeoutSecs bounds HTTP requests and readiness checks.
	TimeoutSecs int `toml:"timeout" mapstructure:"timeout"`
	// PageTimeoutSecs bounds element waits inside page objects.
	PageTimeoutSecs int    `toml:"page_timeout" mapstructure:"page_timeout"`
	SeedPath        string `toml:"seed_path" mapstructure:"seed_path"`
}

// OSIDBConfig locates the OSIDB instance used as oracle.
type OSIDBConfig struct {
	URL string `toml:"url" mapstructure:"url"`
	// Token, when set, is sent as is; otherwise TokenCommand is run.
	Token        string `toml:"token" mapstructure:"token"`
	TokenCommand string `toml:"token_command" mapstructure:"token_command"`
	Insecure     bool   `toml:"insecure" mapstructure:"insecure"`
}

// IntegrationsConfig holds the API keys typed into the settings page.
type IntegrationsConfig struct {
	BugzillaAPIKey string `toml:"bugzilla_api_key" mapstructure:"bugzilla_api_key"`
	JiraAPIKey     string `toml:"jira_api_key" mapstructure:"jira_api_key"`
}

// BrowserConfig selects and sizes the browser session.
type BrowserConfig struct {
	Backend      string `toml:"backend" mapstructure:"backend"` // cdp | webdriver
	Headless     bool   `toml:"headless" mapstructure:"headless"`
	RemoteURL    string `toml:"remote_url" mapstructure:"remote_url"`
	WebDriverURL string `toml:"webdriver_url" mapstructure:"webdriver_url"`
	BrowserName  string `toml:"browser_name" mapstructure:"browser_name"`
	Width        int    `toml:"width" mapstructure:"width"`
	Height       int    `toml:"height" mapstructure:"height"`
}

// StoreConfig locates the hand-off file.
type StoreConfig struct {
	Path string `toml:"path" mapstructure:"path"`
}

// DevServerConfig describes the local OSIM dev server.
type DevServerConfig struct {
	Command        string `toml:"command" mapstructure:"command"`
	Dir            string `toml:"dir" mapstructure:"dir"`
	URL            string `toml:"url" mapstructure:"url"`
	ReadyTimeoutMs int    `toml:"ready_timeout_ms" mapstructure:"ready_timeout_ms"`
	PollIntervalMs int    `toml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
}

// ArtifactsConfig controls failure evidence.
type ArtifactsConfig struct {
	Dir       string `toml:"dir" mapstructure:"dir"`
	OnFailure bool   `toml:"on_failure" mapstructure:"on_failure"`
}

// LoggingConfig controls the suite logger.
type LoggingConfig struct {
	Level     string `toml:"level" mapstructure:"level"`
	File      string `toml:"file" mapstructure:"file"`
	Redaction string `toml:"redaction" mapstructure:"redaction"` // off | warn | redact
}

// RunConfig holds godog defaults for `osim-e2e run`.
type RunConfig struct {
	Paths  []string `toml:"paths" mapstructure:"paths"`
	Tags   string   `toml:"tags" mapstructure:"tags"`
	Format string   `toml:"format" mapstructure:"format"`
	Strict bool     `toml:"strict" mapstructure:"strict"`
}

// Timeout returns the request timeout.
func (c GeneralConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// PageTimeout returns the element wait bound.
func (c GeneralConfig) PageTimeout() time.Duration {
	return time.Duration(c.PageTimeoutSecs) * time.Second
}

// ReadyTimeout returns how long the dev server may take to answer.
func (c DevServerConfig) ReadyTimeout() time.Duration {
	return time.Duration(c.ReadyTimeoutMs) * time.Millisecond
}

// PollInterval returns the readiness poll period.
func (c DevServerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}
