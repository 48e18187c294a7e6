package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedHatProductSecurity/osim/internal/fixture"
	"github.com/RedHatProductSecurity/osim/internal/output"
	"github.com/RedHatProductSecurity/osim/internal/store"
)

var configEnv = []string{
	"OSIM_URL", "OSIM_E2E_TIMEOUT", "OSIM_E2E_PAGE_TIMEOUT", "OSIM_E2E_SEED",
	"OSIDB_URL", "OSIDB_TOKEN", "OSIDB_TOKEN_COMMAND",
	"BUGZILLA_API_KEY", "JIRA_API_KEY",
	"OSIM_E2E_BROWSER", "OSIM_E2E_HEADLESS", "OSIM_E2E_REMOTE_URL", "OSIM_E2E_WEBDRIVER_URL",
	"OSIM_E2E_STORE", "OSIM_E2E_ARTIFACTS",
	"OSIM_E2E_LOG_LEVEL", "OSIM_E2E_LOG_FILE", "OSIM_E2E_REDACTION",
	"OSIM_E2E_TAGS",
}

// isolate moves the test into an empty project dir with an empty HOME and
// no configuration or state in the environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	for _, env := range configEnv {
		t.Setenv(env, "")
	}
	for _, env := range store.EnvShadows {
		t.Setenv(env, "")
		require.NoError(t, os.Unsetenv(env))
	}
	return dir
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func executeCommand(args ...string) (stdout, stderr string, err error) {
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestGenerateIsReproducible(t *testing.T) {
	isolate(t)

	first, _, err := executeCommand("generate", "cve", "--count", "3", "--seed", "7")
	require.NoError(t, err)
	second, _, err := executeCommand("generate", "cve", "-n", "3", "--seed", "7")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	lines := strings.Split(strings.TrimSpace(first), "\n")
	require.Len(t, lines, 3)
	for _, cve := range lines {
		assert.True(t, fixture.ValidCVE(cve), "invalid CVE %q", cve)
	}
}

func TestGenerateKinds(t *testing.T) {
	isolate(t)

	tests := []struct {
		kind  string
		check func(string) bool
	}{
		{"cwe", func(s string) bool { return strings.HasPrefix(s, "CWE-") }},
		{"cvss", func(s string) bool { return strings.HasPrefix(s, "CVSS:3.1/") }},
		{"text", func(s string) bool { return len(s) == 12 }},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			out, _, err := executeCommand("generate", tt.kind, "--length", "12")
			require.NoError(t, err)
			got := strings.TrimSpace(out)
			assert.True(t, tt.check(got), "unexpected %s value %q", tt.kind, got)
		})
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	isolate(t)

	_, _, err := executeCommand("generate", "ghsa")
	require.Error(t, err)

	_, _, err = executeCommand("generate", "cve", "--count", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--count")
}

func TestGenerateJSON(t *testing.T) {
	isolate(t)

	out, _, err := executeCommand("generate", "cwe", "--count", "2", "--json")
	require.NoError(t, err)

	var got struct {
		Kind   string   `json:"kind"`
		Values []string `json:"values"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "cwe", got.Kind)
	assert.Len(t, got.Values, 2)
}

func TestStoreRoundTrip(t *testing.T) {
	dir := isolate(t)

	_, _, err := executeCommand("store", "set", "flaw_id", "CVE-2024-12345")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "osim-e2e-state.json"))

	out, _, err := executeCommand("store", "get", "flaw_id")
	require.NoError(t, err)
	assert.Equal(t, "CVE-2024-12345\n", out)

	out, _, err = executeCommand("store", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "flaw_id")
	assert.Contains(t, out, "CVE-2024-12345")

	_, _, err = executeCommand("store", "delete", "flaw_id")
	require.NoError(t, err)

	_, _, err = executeCommand("store", "get", "flaw_id")
	var exit *ExitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 2, exit.Code)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStoreGetPrefersEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("FLAW_ID", "CVE-2023-00001")

	_, _, err := executeCommand("store", "set", "flaw_id", "CVE-2024-12345")
	require.NoError(t, err)

	out, _, err := executeCommand("store", "get", "flaw_id")
	require.NoError(t, err)
	assert.Equal(t, "CVE-2023-00001\n", out)
}

func TestStoreSetValidatesFlawKeys(t *testing.T) {
	isolate(t)

	_, _, err := executeCommand("store", "set", "embargoed_flaw_id", "not-a-flaw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	_, _, err = executeCommand("store", "set", "embargoed_flaw_id", "not-a-flaw", "--force")
	require.NoError(t, err)

	_, _, err = executeCommand("store", "set", "note", "anything goes")
	require.NoError(t, err)
}

func TestStoreListJSON(t *testing.T) {
	isolate(t)

	_, _, err := executeCommand("store", "set", "flaw_id", "5c6ad8a0-9a1c-4a8f-8a69-1b4e3f8a2f10")
	require.NoError(t, err)

	out, _, err := executeCommand("store", "list", "-j")
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]string{"flaw_id": "5c6ad8a0-9a1c-4a8f-8a69-1b4e3f8a2f10"}, got)
}

func TestConfigShowMasksSecrets(t *testing.T) {
	isolate(t)
	t.Setenv("BUGZILLA_API_KEY", "bz-secret-value")

	out, _, err := executeCommand("config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "integrations.bugzilla_api_key")
	assert.Contains(t, out, masked)
	assert.NotContains(t, out, "bz-secret-value")
	assert.Contains(t, out, "https://localhost:5173/")

	out, _, err = executeCommand("config", "show", "--reveal")
	require.NoError(t, err)
	assert.Contains(t, out, "bz-secret-value")
}

func TestConfigSetThenGet(t *testing.T) {
	dir := isolate(t)

	_, _, err := executeCommand("config", "set", "browser.width", "1280")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, ".osim-e2e", "config.toml"))

	out, _, err := executeCommand("config", "get", "browser.width")
	require.NoError(t, err)
	assert.Equal(t, "1280\n", out)

	_, _, err = executeCommand("config", "set", "browser.width", "wide")
	require.Error(t, err)

	_, _, err = executeCommand("config", "get", "browser.colour")
	require.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	dir := isolate(t)
	custom := filepath.Join(dir, "ci.toml")

	out, _, err := executeCommand("config", "path", "--json", "--config", custom)
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, custom, got["project"])
	assert.Contains(t, got["user"], ".osim-e2e")
}

func TestConfigErrorsAreWrapped(t *testing.T) {
	isolate(t)
	t.Setenv("OSIM_URL", "not a url")

	_, _, err := executeCommand("store", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}

func newOSIDB(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/osidb/api/v1/flaws", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token-0123456789abcdef" {
			http.Error(w, `{"detail": "unauthorized"}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("cve_id") != "CVE-2024-1337" {
			_, _ = w.Write([]byte(`{"count": 0, "next": null, "results": []}`))
			return
		}
		_, _ = w.Write([]byte(`{"count": 1, "next": null, "results": [{
			"uuid": "5c6ad8a0-9a1c-4a8f-8a69-1b4e3f8a2f10",
			"cve_id": "CVE-2024-1337",
			"cwe_id": "CWE-79",
			"affects": [{"ps_component": "kernel"}, {"ps_component": "openssl"}]
		}]}`))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestOracleFlawFields(t *testing.T) {
	isolate(t)
	srv := newOSIDB(t)
	t.Setenv("OSIDB_URL", srv.URL)
	t.Setenv("OSIDB_TOKEN", "test-token-0123456789abcdef")

	out, _, err := executeCommand("oracle", "flaw", "CVE-2024-1337", "--field", "cwe_id", "-F", "affects__ps_component")
	require.NoError(t, err)
	assert.Contains(t, out, "CWE-79")
	assert.Contains(t, out, "kernel, openssl")

	out, _, err = executeCommand("oracle", "flaw", "CVE-2024-1337", "-F", "affects__ps_component", "--json")
	require.NoError(t, err)
	var fields map[string][]string
	require.NoError(t, json.Unmarshal([]byte(out), &fields))
	assert.Equal(t, []string{"kernel", "openssl"}, fields["affects__ps_component"])

	out, _, err = executeCommand("oracle", "flaw", "CVE-2024-1337")
	require.NoError(t, err)
	var flaw map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &flaw))
	assert.Equal(t, "CWE-79", flaw["cwe_id"])
}

func TestOracleFlawMissing(t *testing.T) {
	isolate(t)
	srv := newOSIDB(t)
	t.Setenv("OSIDB_URL", srv.URL)
	t.Setenv("OSIDB_TOKEN", "test-token-0123456789abcdef")

	_, _, err := executeCommand("oracle", "flaw", "CVE-2099-0001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CVE-2099-0001")
}

func TestOracleRequiresURL(t *testing.T) {
	isolate(t)

	_, _, err := executeCommand("oracle", "flaw", "CVE-2024-1337")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "osidb.url")
}

func TestRunRejectsUnknownBrowser(t *testing.T) {
	isolate(t)

	_, _, err := executeCommand("run", "--browser", "safari")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser.backend")
}

func TestRunMissingFeatureFails(t *testing.T) {
	isolate(t)

	_, _, err := executeCommand("run", "--no-color", "missing.feature")
	var exit *ExitError
	require.ErrorAs(t, err, &exit)
	assert.NotZero(t, exit.Code)
}

func TestExitError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "exit status 3", (&ExitError{Code: 3}).Error())

	inner := errors.New("boom")
	err := &ExitError{Code: 2, Err: inner}
	assert.Equal(t, "boom", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestWriteError(t *testing.T) {
	output.SetMode(false)
	var stdout, stderr bytes.Buffer
	writeError(&stdout, &stderr, errors.New("no flaw"), 1)
	assert.Empty(t, stdout.String())
	assert.Equal(t, "[osim-e2e] Error: no flaw\n", stderr.String())
}
