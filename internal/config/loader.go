package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// LoadOptions controls configuration loading.
type LoadOptions struct {
	// ProjectDir is used to locate .osim-e2e/config.toml. Defaults to CWD when empty.
	ProjectDir string
	// ConfigPath overrides the project config path if provided.
	ConfigPath string
	// FlagOverrides are highest-priority overrides from CLI flags (dot-notated keys).
	FlagOverrides map[string]any
}

// Load returns the effective configuration after applying precedence:
// defaults < user (~/.osim-e2e/config.toml) < project (.osim-e2e/config.toml) < env < flags.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	setDefaults(v)

	projectDir := opts.ProjectDir
	if projectDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			projectDir = cwd
		}
	}

	if err := mergeConfigFile(v, userConfigPath()); err != nil {
		return Config{}, err
	}
	if err := mergeConfigFile(v, projectConfigPath(projectDir, opts.ConfigPath)); err != nil {
		return Config{}, err
	}
	if err := applyEnvOverrides(v); err != nil {
		return Config{}, err
	}
	applyFlagOverrides(v, opts.FlagOverrides)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults seeds viper with built-in defaults, one entry per key so
// that partial files and env overrides merge field by field.
func setDefaults(v *viper.Viper) {
	flat, err := flatten(DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("config: flatten defaults: %v", err))
	}
	for key := range keyKinds {
		if val, ok := flat[key]; ok {
			v.SetDefault(key, val)
		} else {
			v.SetDefault(key, zeroOf(keyKinds[key]))
		}
	}
}

// mergeConfigFile merges the TOML config file if it exists.
func mergeConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat config %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("merge config %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides reads the bound environment variables and applies them.
func applyEnvOverrides(v *viper.Viper) error {
	for _, binding := range envBindings {
		val := os.Getenv(binding.Env)
		if val == "" {
			continue
		}
		parsed, err := parseValueByKind(val, binding.Kind)
		if err != nil {
			return fmt.Errorf("env %s: %w", binding.Env, err)
		}
		v.Set(binding.Key, parsed)
	}
	return nil
}

// applyFlagOverrides applies CLI overrides as highest-precedence values.
func applyFlagOverrides(v *viper.Viper, overrides map[string]any) {
	for k, val := range overrides {
		v.Set(k, val)
	}
}

// ConfigPaths returns the user and project config file paths.
func ConfigPaths(projectDir, configOverride string) (string, string) {
	return userConfigPath(), projectConfigPath(projectDir, configOverride)
}

func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".osim-e2e", "config.toml")
}

func projectConfigPath(projectDir, override string) string {
	if override != "" {
		return override
	}
	if projectDir == "" {
		return ".osim-e2e/config.toml"
	}
	return filepath.Join(projectDir, ".osim-e2e", "config.toml")
}

// Keys returns every supported dot-notated key.
func Keys() []string {
	keys := make([]string, 0, len(keyKinds))
	for k := range keyKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseValue parses a raw string into the expected type for a given config key.
func ParseValue(key, raw string) (any, error) {
	kind, ok := keyKinds[key]
	if !ok {
		return nil, fmt.Errorf("unsupported key %q", key)
	}
	return parseValueByKind(raw, kind)
}

// GetValue retrieves a dot-notated value from the Config.
func GetValue(cfg Config, key string) (any, bool) {
	if _, ok := keyKinds[key]; !ok {
		return nil, false
	}
	flat, err := flatten(cfg)
	if err != nil {
		return nil, false
	}
	val, ok := flat[key]
	if !ok {
		return zeroOf(keyKinds[key]), true
	}
	return val, true
}

// Flatten renders cfg as dot-notated key/value pairs, for `config show`.
func Flatten(cfg Config) (map[string]any, error) {
	flat, err := flatten(cfg)
	if err != nil {
		return nil, err
	}
	for key, kind := range keyKinds {
		if _, ok := flat[key]; !ok {
			flat[key] = zeroOf(kind)
		}
	}
	return flat, nil
}

// flatten round-trips cfg through TOML so the dot-notated keys are the
// file keys.
func flatten(cfg Config) (map[string]any, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	var tree map[string]any
	if _, err := toml.Decode(buf.String(), &tree); err != nil {
		return nil, err
	}
	flat := map[string]any{}
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, val := range m {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if child, ok := val.(map[string]any); ok {
				walk(key, child)
				continue
			}
			flat[key] = normalize(val)
		}
	}
	walk("", tree)
	return flat, nil
}

func normalize(val any) any {
	switch x := val.(type) {
	case int64:
		return int(x)
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			out = append(out, fmt.Sprint(e))
		}
		return out
	}
	return val
}

// WriteValue sets a single key/value into the specified TOML config file (creating it if needed).
func WriteValue(path, key string, value any) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	var existing map[string]any
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &existing); err != nil {
			return fmt.Errorf("decode config: %w", err)
		}
		if existing == nil {
			existing = map[string]any{}
		}
	} else {
		existing = map[string]any{}
	}

	if err := setNested(existing, key, value); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create config %s: %w", path, err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	enc.Indent = "  "
	if err := enc.Encode(existing); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

func setNested(m map[string]any, key string, value any) error {
	parts := strings.Split(key, ".")
	cur := m
	for i, p := range parts {
		if p == "" {
			return fmt.Errorf("invalid key %q", key)
		}
		if i == len(parts)-1 {
			cur[p] = value
			return nil
		}
		next, ok := cur[p]
		if !ok {
			child := map[string]any{}
			cur[p] = child
			cur = child
			continue
		}
		childMap, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot set %s: %s is not a table", key, strings.Join(parts[:i+1], "."))
		}
		cur = childMap
	}
	return nil
}

// Helpers for env + parsing ---------------------------------------------------

type valueKind int

const (
	kindString valueKind = iota
	kindBool
	kindInt
	kindStringSlice
)

var keyKinds = map[string]valueKind{
	"general.osim_url":     kindString,
	"general.timeout":      kindInt,
	"general.page_timeout": kindInt,
	"general.seed_path":    kindString,

	"osidb.url":           kindString,
	"osidb.token":         kindString,
	"osidb.token_command": kindString,
	"osidb.insecure":      kindBool,

	"integrations.bugzilla_api_key": kindString,
	"integrations.jira_api_key":     kindString,

	"browser.backend":       kindString,
	"browser.headless":      kindBool,
	"browser.remote_url":    kindString,
	"browser.webdriver_url": kindString,
	"browser.browser_name":  kindString,
	"browser.width":         kindInt,
	"browser.height":        kindInt,

	"store.path": kindString,

	"devserver.command":          kindString,
	"devserver.dir":              kindString,
	"devserver.url":              kindString,
	"devserver.ready_timeout_ms": kindInt,
	"devserver.poll_interval_ms": kindInt,

	"artifacts.dir":        kindString,
	"artifacts.on_failure": kindBool,

	"logging.level":     kindString,
	"logging.file":      kindString,
	"logging.redaction": kindString,

	"run.paths":  kindStringSlice,
	"run.tags":   kindString,
	"run.format": kindString,
	"run.strict": kindBool,
}

// FLAW_ID and EMBARGOED_FLAW_ID are not bound here: they shadow the state
// file, not the configuration.
var envBindings = []struct {
	Env  string
	Key  string
	Kind valueKind
}{
	{"OSIM_URL", "general.osim_url", kindString},
	{"OSIM_E2E_TIMEOUT", "general.timeout", kindInt},
	{"OSIM_E2E_PAGE_TIMEOUT", "general.page_timeout", kindInt},
	{"OSIM_E2E_SEED", "general.seed_path", kindString},

	{"OSIDB_URL", "osidb.url", kindString},
	{"OSIDB_TOKEN", "osidb.token", kindString},
	{"OSIDB_TOKEN_COMMAND", "osidb.token_command", kindString},

	{"BUGZILLA_API_KEY", "integrations.bugzilla_api_key", kindString},
	{"JIRA_API_KEY", "integrations.jira_api_key", kindString},

	{"OSIM_E2E_BROWSER", "browser.backend", kindString},
	{"OSIM_E2E_HEADLESS", "browser.headless", kindBool},
	{"OSIM_E2E_REMOTE_URL", "browser.remote_url", kindString},
	{"OSIM_E2E_WEBDRIVER_URL", "browser.webdriver_url", kindString},

	{"OSIM_E2E_STORE", "store.path", kindString},
	{"OSIM_E2E_ARTIFACTS", "artifacts.dir", kindString},

	{"OSIM_E2E_LOG_LEVEL", "logging.level", kindString},
	{"OSIM_E2E_LOG_FILE", "logging.file", kindString},
	{"OSIM_E2E_REDACTION", "logging.redaction", kindString},

	{"OSIM_E2E_TAGS", "run.tags", kindString},
}

func parseValueByKind(raw string, kind valueKind) (any, error) {
	switch kind {
	case kindString:
		return raw, nil
	case kindBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("expected boolean: %w", err)
		}
		return v, nil
	case kindInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("expected integer: %w", err)
		}
		return v, nil
	case kindStringSlice:
		parts := strings.Split(raw, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				result = append(result, p)
			}
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported value kind")
	}
}

func zeroOf(kind valueKind) any {
	switch kind {
	case kindBool:
		return false
	case kindInt:
		return 0
	case kindStringSlice:
		return []string{}
	default:
		return ""
	}
}
