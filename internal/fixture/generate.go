// Package fixture generates the test data the scenarios type into OSIM:
// random text, CVE and CWE identifiers and CVSS v3.1 vectors, plus the
// seed expectations of the test database.
package fixture

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// DefaultTextLength is the length RandomText uses for non-positive n.
const DefaultTextLength = 8

// DateLayout is the YYYYMMDD layout the date pens accept.
const DateLayout = "20060102"

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generator produces random fixtures from its own source, so tests can
// replay a sequence from a fixed seed.
type Generator struct {
	r *rand.Rand
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

var std = &Generator{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}

// RandomText returns n random alphanumeric characters.
func (g *Generator) RandomText(n int) string {
	if n <= 0 {
		n = DefaultTextLength
	}
	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(alphanumeric[g.r.IntN(len(alphanumeric))])
	}
	return b.String()
}

// CVE returns a syntactically valid CVE ID. Sequence numbers are drawn
// from a wide range so collisions with existing flaws stay rare.
func (g *Generator) CVE() string {
	year := 1999
	if g.r.IntN(50) != 0 {
		year = 2000 + g.r.IntN(1000)
	}
	var seq string
	if g.r.IntN(10) == 0 {
		seq = fmt.Sprintf("0%03d", 1+g.r.IntN(999))
	} else {
		seq = fmt.Sprint(1000 + g.r.IntN(9_999_000))
	}
	return fmt.Sprintf("CVE-%d-%s", year, seq)
}

// CWE returns a CWE ID between CWE-1 and CWE-1400.
func (g *Generator) CWE() string {
	return fmt.Sprintf("CWE-%d", 1+g.r.IntN(1400))
}

// CVSS31 returns a vector with one random value per base metric.
func (g *Generator) CVSS31() string {
	v := make(Vector, len(cvssMetrics))
	for _, m := range cvssMetrics {
		v[m] = g.Pick(cvssValues[m])
	}
	return v.String()
}

// Pick returns a random element of values, or "" when it is empty.
func (g *Generator) Pick(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[g.r.IntN(len(values))]
}

// RandomText uses the package generator.
func RandomText(n int) string { return std.RandomText(n) }

// CVE uses the package generator.
func CVE() string { return std.CVE() }

// CWE uses the package generator.
func CWE() string { return std.CWE() }

// CVSS31 uses the package generator.
func CVSS31() string { return std.CVSS31() }

// Today formats the current local date with layout, DateLayout when empty.
func Today(layout string) string {
	if layout == "" {
		layout = DateLayout
	}
	return time.Now().Format(layout)
}
