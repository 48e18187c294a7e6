// Package redaction keeps integration credentials (Bugzilla and Jira API
// keys, OSIDB bearer tokens) out of logs, HTML snapshots and reports.
package redaction

// Mode defines the redaction behavior.
type Mode string

const (
	// ModeOff disables scanning.
	ModeOff Mode = "off"
	// ModeWarn reports findings but leaves content unchanged.
	ModeWarn Mode = "warn"
	// ModeRedact replaces findings with placeholders.
	ModeRedact Mode = "redact"
)

// Category identifies the kind of secret detected.
type Category string

const (
	CategoryBearerToken   Category = "BEARER_TOKEN"
	CategoryJWT           Category = "JWT"
	CategoryBugzillaKey   Category = "BUGZILLA_API_KEY"
	CategoryJiraToken     Category = "JIRA_TOKEN"
	CategoryGenericAPIKey Category = "GENERIC_API_KEY"
	CategoryPassword      Category = "PASSWORD"
	// CategoryLiteral covers values registered at runtime, such as the
	// configured API keys themselves.
	CategoryLiteral Category = "LITERAL"
)

// Finding is one detected secret.
type Finding struct {
	Category Category `json:"category"`
	Match    string   `json:"match"`
	Redacted string   `json:"redacted"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
}

// Result is the outcome of ScanAndRedact.
type Result struct {
	Mode     Mode      `json:"mode"`
	Findings []Finding `json:"findings"`
	Output   string    `json:"output"`
}

// Config configures the scanner.
type Config struct {
	Mode Mode `json:"mode"`
	// Literals are exact strings to redact wherever they appear.
	Literals []string `json:"-"`
	// Allowlist holds regexes whose matches are never flagged.
	Allowlist          []string   `json:"allowlist,omitempty"`
	DisabledCategories []Category `json:"disabled_categories,omitempty"`
}

// DefaultConfig redacts by default.
func DefaultConfig() Config {
	return Config{Mode: ModeRedact}
}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeOff, ModeWarn, ModeRedact:
		return Mode(s), nil
	}
	return "", &ConfigError{Field: "mode", Message: "invalid mode: " + s}
}

// ConfigError is a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "redaction config error: " + e.Field + ": " + e.Message
}
