package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestGeneratorsProduceValidValues(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := NewGenerator(rapid.Uint64().Draw(t, "seed"))

		if cve := g.CVE(); !ValidCVE(cve) {
			t.Fatalf("invalid CVE %q", cve)
		}
		if cwe := g.CWE(); !ValidCWE(cwe) {
			t.Fatalf("invalid CWE %q", cwe)
		}
		vec := g.CVSS31()
		v, err := ParseCVSS31(vec)
		if err != nil {
			t.Fatalf("ParseCVSS31(%q): %v", vec, err)
		}
		if v.String() != vec {
			t.Fatalf("canonical form %q differs from %q", v.String(), vec)
		}
		if s := v.BaseScore(); s < 0 || s > 10 {
			t.Fatalf("score %v out of range for %s", s, vec)
		}

		n := rapid.IntRange(-2, 64).Draw(t, "n")
		txt := g.RandomText(n)
		want := n
		if n <= 0 {
			want = DefaultTextLength
		}
		if len(txt) != want {
			t.Fatalf("RandomText(%d) length %d", n, len(txt))
		}
	})
}

func TestGeneratorIsReproducible(t *testing.T) {
	a, b := NewGenerator(42), NewGenerator(42)
	assert.Equal(t, a.CVE(), b.CVE())
	assert.Equal(t, a.RandomText(16), b.RandomText(16))
	assert.Equal(t, a.CVSS31(), b.CVSS31())
}

func TestValidCVE(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"CVE-2024-1337", true},
		{"CVE-1999-0001", true},
		{"CVE-2024-123456", true},
		{"CVE-2024-0000", false},
		{"CVE-1998-1234", false},
		{"CVE-2024-123", false},
		{"CVE-2024-01234", true},
		{"CVE-2024-012345", true},
		{"CVE-2024-00001", false},
		{"cve-2024-1337", false},
		{"CVE-2024-1337 ", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidCVE(tt.in), tt.in)
	}
	assert.Equal(t, "CVE-2024-1337", CVEPattern.FindString("Moderate: CVE-2024-1337 kernel: bug"))
	assert.Equal(t, "CVE-2024-01234", CVEPattern.FindString("Low: CVE-2024-01234 glibc"))
}

func TestPick(t *testing.T) {
	g := NewGenerator(3)
	assert.Empty(t, g.Pick(nil))
	values := []string{"LOW", "MODERATE", "IMPORTANT"}
	for range 20 {
		assert.Contains(t, values, g.Pick(values))
	}
}

func TestValidCWE(t *testing.T) {
	assert.True(t, ValidCWE("CWE-79"))
	assert.True(t, ValidCWE("cwe-79[auto]"))
	assert.False(t, ValidCWE("CWE-0"))
	assert.False(t, ValidCWE("CWE-"))
}

func TestParseCVSS31Errors(t *testing.T) {
	tests := []string{
		"CVSS:3.0/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
		"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H",
		"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:X",
		"CVSS:3.1/AV:N/AV:L/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
		"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H/E:F",
		"CVSS:3.1/AVN",
	}
	for _, in := range tests {
		_, err := ParseCVSS31(in)
		assert.ErrorIs(t, err, ErrInvalidVector, in)
	}
}

func TestBaseScore(t *testing.T) {
	tests := []struct {
		vector string
		want   float64
	}{
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H", 9.8},
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H", 10.0},
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:C/C:L/I:L/A:N", 6.1},
		{"CVSS:3.1/AV:L/AC:L/PR:L/UI:N/S:U/C:H/I:H/A:H", 7.8},
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:N/I:N/A:N", 0},
	}
	for _, tt := range tests {
		v, err := ParseCVSS31(tt.vector)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, v.BaseScore(), 1e-9, tt.vector)
	}
}

func TestToday(t *testing.T) {
	assert.Len(t, Today(""), 8)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, Today("2006-01-02"))
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
filters:
  state:
    keyword: TRIAGE
    count: 7
flaw_id: CVE-2024-9999
`), 0o600))

	seed, err := LoadSeed(path)
	require.NoError(t, err)

	f, err := seed.Filter("state")
	require.NoError(t, err)
	assert.Equal(t, Filter{Keyword: "TRIAGE", Count: 7}, f)

	f, err = seed.Filter("source")
	require.NoError(t, err)
	assert.Equal(t, 35, f.Count, "unlisted filters keep their defaults")

	assert.Equal(t, "CVE-2024-1337", seed.QuickSearchCVE)
	assert.Equal(t, "CVE-2024-9999", seed.FlawID)

	_, err = seed.Filter("owner")
	assert.Error(t, err)
}

func TestLoadSeedFromRepository(t *testing.T) {
	seed, err := LoadSeed(filepath.Join("..", "..", "features", "testdata", "seed.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSeed().Filters, seed.Filters)
}

func TestLoadSeedErrors(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read seed")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("filters: [oops"), 0o600))
	_, err = LoadSeed(path)
	assert.ErrorContains(t, err, "failed to parse seed")
}
