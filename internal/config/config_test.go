package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at a temp dir and clears every bound env var.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, b := range envBindings {
		t.Setenv(b.Env, "")
	}
	return home
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(LoadOptions{ProjectDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadPrecedence(t *testing.T) {
	home := isolate(t)
	project := t.TempDir()

	writeFile(t, filepath.Join(home, ".osim-e2e", "config.toml"), `
[general]
osim_url = "https://user.example/"
timeout = 20

[browser]
width = 1280
`)
	writeFile(t, filepath.Join(project, ".osim-e2e", "config.toml"), `
[general]
timeout = 30

[osidb]
url = "https://osidb.example/"
`)
	t.Setenv("OSIM_E2E_TIMEOUT", "40")
	t.Setenv("OSIM_E2E_HEADLESS", "false")

	cfg, err := Load(LoadOptions{
		ProjectDir:    project,
		FlagOverrides: map[string]any{"logging.level": "debug"},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://user.example/", cfg.General.OSIMURL)
	assert.Equal(t, 40, cfg.General.TimeoutSecs)
	assert.Equal(t, "https://osidb.example/", cfg.OSIDB.URL)
	assert.Equal(t, 1280, cfg.Browser.Width)
	assert.Equal(t, 1080, cfg.Browser.Height)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"features"}, cfg.Run.Paths)
}

func TestLoadConfigPathOverride(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	writeFile(t, path, "[store]\npath = \"/tmp/state.json\"\n")

	cfg, err := Load(LoadOptions{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/state.json", cfg.Store.Path)
}

func TestLoadErrors(t *testing.T) {
	t.Run("bad env value", func(t *testing.T) {
		isolate(t)
		t.Setenv("OSIM_E2E_TIMEOUT", "soon")
		_, err := Load(LoadOptions{ProjectDir: t.TempDir()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OSIM_E2E_TIMEOUT")
	})

	t.Run("malformed file", func(t *testing.T) {
		isolate(t)
		path := filepath.Join(t.TempDir(), "broken.toml")
		writeFile(t, path, "[general\n")
		_, err := Load(LoadOptions{ConfigPath: path})
		require.Error(t, err)
	})

	t.Run("directory as config", func(t *testing.T) {
		isolate(t)
		_, err := Load(LoadOptions{ConfigPath: t.TempDir()})
		require.ErrorContains(t, err, "is a directory")
	})

	t.Run("validation", func(t *testing.T) {
		isolate(t)
		t.Setenv("OSIM_E2E_BROWSER", "safari")
		_, err := Load(LoadOptions{ProjectDir: t.TempDir()})
		require.ErrorContains(t, err, "config validation failed")
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad osim url", func(c *Config) { c.General.OSIMURL = "localhost" }, "general.osim_url"},
		{"zero timeout", func(c *Config) { c.General.TimeoutSecs = 0 }, "general.timeout"},
		{"webdriver without url", func(c *Config) { c.Browser.Backend = "webdriver" }, "browser.webdriver_url"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad redaction", func(c *Config) { c.Logging.Redaction = "block" }, "logging.redaction"},
		{"bad format", func(c *Config) { c.Run.Format = "html" }, "run.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	require.NoError(t, Validate(DefaultConfig()))
}

func TestParseValue(t *testing.T) {
	t.Parallel()

	v, err := ParseValue("browser.width", "800")
	require.NoError(t, err)
	assert.Equal(t, 800, v)

	v, err = ParseValue("run.paths", "features, more ,")
	require.NoError(t, err)
	assert.Equal(t, []string{"features", "more"}, v)

	_, err = ParseValue("osidb.insecure", "maybe")
	require.Error(t, err)

	_, err = ParseValue("nope.key", "x")
	require.ErrorContains(t, err, "unsupported key")
}

func TestGetValue(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	v, ok := GetValue(cfg, "browser.height")
	require.True(t, ok)
	assert.Equal(t, 1080, v)

	v, ok = GetValue(cfg, "osidb.token")
	require.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = GetValue(cfg, "browser.colour")
	assert.False(t, ok)

	flat, err := Flatten(cfg)
	require.NoError(t, err)
	assert.Len(t, flat, len(Keys()))
}

func TestWriteValue(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, WriteValue(path, "browser.width", 800))
	require.NoError(t, WriteValue(path, "general.osim_url", "https://osim.example/"))

	var got map[string]any
	_, err := toml.DecodeFile(path, &got)
	require.NoError(t, err)
	assert.Equal(t, int64(800), got["browser"].(map[string]any)["width"])
	assert.Equal(t, "https://osim.example/", got["general"].(map[string]any)["osim_url"])

	require.NoError(t, WriteValue(path, "store", "flat"))
	require.ErrorContains(t, WriteValue(path, "store.path", "x"), "not a table")
	require.Error(t, WriteValue("", "store.path", "x"))
}

func TestConfigPaths(t *testing.T) {
	home := isolate(t)
	user, project := ConfigPaths("/work", "")
	assert.Equal(t, filepath.Join(home, ".osim-e2e", "config.toml"), user)
	assert.Equal(t, filepath.Join("/work", ".osim-e2e", "config.toml"), project)

	_, project = ConfigPaths("/work", "/etc/osim.toml")
	assert.Equal(t, "/etc/osim.toml", project)
}
