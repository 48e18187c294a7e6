package fixture

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

var (
	// RE2 has no lookahead, so a sequence starting with 0000 is rejected
	// in ValidCVE.
	cveRE = regexp.MustCompile(`^CVE-(?:1999|2\d{3})-(\d{4,})$`)
	cweRE = regexp.MustCompile(`(?i)^CWE-[1-9]\d*(\[auto\])?$`)

	// CVEPattern finds CVE IDs inside larger text, such as a flaw title.
	CVEPattern = regexp.MustCompile(`CVE-(?:1999|2\d{3})-\d{4,}`)
)

// ValidCVE reports whether s is a well-formed CVE ID.
func ValidCVE(s string) bool {
	m := cveRE.FindStringSubmatch(s)
	return m != nil && !strings.HasPrefix(m[1], "0000")
}

// ValidCWE reports whether s is a well-formed CWE ID. OSIDB accepts an
// "[auto]" suffix on automatically assigned IDs.
func ValidCWE(s string) bool {
	return cweRE.MatchString(s)
}

const cvssPrefix = "CVSS:3.1"

var cvssMetrics = []string{"AV", "AC", "PR", "UI", "S", "C", "I", "A"}

var cvssValues = map[string][]string{
	"AV": {"N", "A", "L", "P"},
	"AC": {"L", "H"},
	"PR": {"N", "L", "H"},
	"UI": {"N", "R"},
	"S":  {"U", "C"},
	"C":  {"H", "L", "N"},
	"I":  {"H", "L", "N"},
	"A":  {"H", "L", "N"},
}

// ErrInvalidVector is wrapped by every ParseCVSS31 error.
var ErrInvalidVector = errors.New("invalid CVSS v3.1 vector")

// Vector is a parsed CVSS v3.1 base vector.
type Vector map[string]string

// ParseCVSS31 parses a base vector. Every base metric must appear exactly
// once with a known value.
func ParseCVSS31(s string) (Vector, error) {
	rest, ok := strings.CutPrefix(s, cvssPrefix+"/")
	if !ok {
		return nil, fmt.Errorf("%w: missing %s prefix in %q", ErrInvalidVector, cvssPrefix, s)
	}
	v := Vector{}
	for _, part := range strings.Split(rest, "/") {
		metric, value, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("%w: malformed metric %q", ErrInvalidVector, part)
		}
		allowed, known := cvssValues[metric]
		if !known {
			return nil, fmt.Errorf("%w: unknown metric %q", ErrInvalidVector, metric)
		}
		if _, dup := v[metric]; dup {
			return nil, fmt.Errorf("%w: metric %s repeated", ErrInvalidVector, metric)
		}
		if !contains(allowed, value) {
			return nil, fmt.Errorf("%w: %s:%s", ErrInvalidVector, metric, value)
		}
		v[metric] = value
	}
	for _, m := range cvssMetrics {
		if _, ok := v[m]; !ok {
			return nil, fmt.Errorf("%w: metric %s missing", ErrInvalidVector, m)
		}
	}
	return v, nil
}

// String renders the vector in canonical metric order.
func (v Vector) String() string {
	parts := []string{cvssPrefix}
	for _, m := range cvssMetrics {
		parts = append(parts, m+":"+v[m])
	}
	return strings.Join(parts, "/")
}

var cvssWeights = map[string]map[string]float64{
	"AV": {"N": 0.85, "A": 0.62, "L": 0.55, "P": 0.2},
	"AC": {"L": 0.77, "H": 0.44},
	"UI": {"N": 0.85, "R": 0.62},
	"C":  {"H": 0.56, "L": 0.22, "N": 0},
	"I":  {"H": 0.56, "L": 0.22, "N": 0},
	"A":  {"H": 0.56, "L": 0.22, "N": 0},
}

// BaseScore computes the CVSS v3.1 base score, the number OSIM shows next
// to the vector.
func (v Vector) BaseScore() float64 {
	changed := v["S"] == "C"
	pr := map[string]float64{"N": 0.85, "L": 0.62, "H": 0.27}[v["PR"]]
	if changed {
		pr = map[string]float64{"N": 0.85, "L": 0.68, "H": 0.5}[v["PR"]]
	}
	iss := 1 - (1-cvssWeights["C"][v["C"]])*(1-cvssWeights["I"][v["I"]])*(1-cvssWeights["A"][v["A"]])
	var impact float64
	if changed {
		impact = 7.52*(iss-0.029) - 3.25*math.Pow(iss-0.02, 15)
	} else {
		impact = 6.42 * iss
	}
	if impact <= 0 {
		return 0
	}
	exploitability := 8.22 * cvssWeights["AV"][v["AV"]] * cvssWeights["AC"][v["AC"]] * pr * cvssWeights["UI"][v["UI"]]
	if changed {
		return roundUp(math.Min(1.08*(impact+exploitability), 10))
	}
	return roundUp(math.Min(impact+exploitability, 10))
}

// roundUp is the CVSS v3.1 Roundup: the smallest one-decimal number not
// below x, computed on integers to avoid float drift.
func roundUp(x float64) float64 {
	i := int64(math.Round(x * 100000))
	if i%10000 == 0 {
		return float64(i) / 100000
	}
	return float64(i/10000+1) / 10
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
