package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedHatProductSecurity/osim/internal/browser/browsertest"
	"github.com/RedHatProductSecurity/osim/internal/logging"
	"github.com/RedHatProductSecurity/osim/internal/redaction"
)

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"Filter flaws by title", "filter-flaws-by-title"},
		{"  Update CVE ID (retry) ", "update-cve-id-retry"},
		{"Löschen!!", "l-schen"},
		{"???", "scenario"},
		{"", "scenario"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), tt.in)
	}
	assert.LessOrEqual(t, len(Slug(string(make([]byte, 200))+"x")), 80)
}

func TestCaptureWritesRedactedEvidence(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "evidence")
	red := logging.NewRedactor(redaction.DefaultConfig())
	red.AddSecret("sekrit-bugzilla-key")
	rec := NewRecorder(dir, red, logging.Discard())

	fake := browsertest.New()
	require.NoError(t, fake.Navigate(context.Background(), "https://osim.example/settings?k=sekrit-bugzilla-key"))

	got, err := rec.Capture(context.Background(), fake, "Set the API keys", "failed step")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "set-the-api-keys-failed-step.png"), got.Screenshot)
	assert.Equal(t, filepath.Join(dir, "set-the-api-keys-failed-step.html"), got.HTML)

	png, err := os.ReadFile(got.Screenshot)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG fake", string(png))

	html, err := os.ReadFile(got.HTML)
	require.NoError(t, err)
	assert.NotContains(t, string(html), "sekrit-bugzilla-key")
	assert.Contains(t, string(html), "[REDACTED:LITERAL:")
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, ".osim-e2e", "artifacts"), ExpandPath(DefaultDir))
	assert.Equal(t, "/abs/dir", ExpandPath("/abs/dir"))
	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, filepath.Join(home, ".osim-e2e", "artifacts"), NewRecorder("", nil, logging.Discard()).Dir())
}
