package redaction

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

type pattern struct {
	category Category
	regex    *regexp.Regexp
	// group selects the submatch holding the secret; 0 is the whole match.
	group    int
	priority int
}

var patterns = []pattern{
	{CategoryJWT, regexp.MustCompile(`eyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}`), 0, 90},
	{CategoryBearerToken, regexp.MustCompile(`(?i)\bBearer\s+([A-Za-z0-9._~+/=-]{16,})`), 1, 80},
	{CategoryBugzillaKey, regexp.MustCompile(`(?i)(?:bugzilla[_-]?api[_-]?key|x-bugzilla-api-key)["']?\s*[:=]\s*["']?([A-Za-z0-9]{32,64})`), 1, 70},
	{CategoryJiraToken, regexp.MustCompile(`(?i)(?:jira[_-]?(?:api[_-]?)?(?:key|token))["']?\s*[:=]\s*["']?([A-Za-z0-9+/=_-]{24,})`), 1, 70},
	{CategoryPassword, regexp.MustCompile(`(?i)(?:password|passwd)["']?\s*[:=]\s*["']?([^\s"'&]{6,})`), 1, 50},
	{CategoryGenericAPIKey, regexp.MustCompile(`(?i)(?:api[_-]?key|access|refresh|token)["']?\s*[:=]\s*["']?([A-Za-z0-9._~+/=-]{20,})`), 1, 40},
}

type match struct {
	category Category
	text     string
	start    int
	end      int
	priority int
}

// ScanAndRedact scans input and, in ModeRedact, replaces each finding with
// a stable placeholder of the form [REDACTED:CATEGORY:hash8].
func ScanAndRedact(input string, cfg Config) Result {
	res := Result{Mode: cfg.Mode, Output: input}
	if cfg.Mode == ModeOff || input == "" {
		return res
	}

	matches := scan(input, cfg)
	if len(matches) == 0 {
		return res
	}

	res.Findings = make([]Finding, len(matches))
	for i, m := range matches {
		res.Findings[i] = Finding{
			Category: m.category,
			Match:    m.text,
			Redacted: placeholder(m.category, m.text),
			Start:    m.start,
			End:      m.end,
		}
	}
	if cfg.Mode == ModeRedact {
		res.Output = apply(input, res.Findings)
	}
	return res
}

// Redact is ScanAndRedact in ModeRedact returning only the output.
func Redact(input string, cfg Config) string {
	cfg.Mode = ModeRedact
	return ScanAndRedact(input, cfg).Output
}

// ContainsSensitive reports whether input holds anything the scanner flags.
func ContainsSensitive(input string, cfg Config) bool {
	cfg.Mode = ModeWarn
	return len(ScanAndRedact(input, cfg).Findings) > 0
}

func scan(input string, cfg Config) []match {
	var all []match
	for _, lit := range cfg.Literals {
		if len(lit) < 4 {
			continue
		}
		for off := 0; ; {
			i := strings.Index(input[off:], lit)
			if i < 0 {
				break
			}
			start := off + i
			all = append(all, match{CategoryLiteral, lit, start, start + len(lit), 100})
			off = start + len(lit)
		}
	}

	for _, p := range patterns {
		if disabled(p.category, cfg.DisabledCategories) {
			continue
		}
		for _, loc := range p.regex.FindAllStringSubmatchIndex(input, -1) {
			s, e := loc[2*p.group], loc[2*p.group+1]
			if s < 0 {
				continue
			}
			all = append(all, match{p.category, input[s:e], s, e, p.priority})
		}
	}

	kept := dedupe(all)
	allow := compileAllowlist(cfg.Allowlist)
	if len(allow) == 0 {
		return kept
	}
	out := kept[:0]
	for _, m := range kept {
		if !allowlisted(m.text, allow) {
			out = append(out, m)
		}
	}
	return out
}

// dedupe drops matches overlapping a higher-priority one.
func dedupe(ms []match) []match {
	if len(ms) == 0 {
		return ms
	}
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].priority != ms[j].priority {
			return ms[i].priority > ms[j].priority
		}
		return ms[i].start < ms[j].start
	})
	var kept []match
	for _, m := range ms {
		overlap := false
		for _, k := range kept {
			if m.start < k.end && k.start < m.end {
				overlap = true
				break
			}
		}
		if !overlap {
			kept = append(kept, m)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].start < kept[j].start })
	return kept
}

func placeholder(cat Category, content string) string {
	sum := sha256.Sum256([]byte(string(cat) + ":" + content))
	return fmt.Sprintf("[REDACTED:%s:%s]", cat, hex.EncodeToString(sum[:4]))
}

func apply(input string, findings []Finding) string {
	var b strings.Builder
	b.Grow(len(input))
	prev := 0
	for _, f := range findings {
		if f.Start < prev || f.End > len(input) {
			continue
		}
		b.WriteString(input[prev:f.Start])
		b.WriteString(f.Redacted)
		prev = f.End
	}
	b.WriteString(input[prev:])
	return b.String()
}

func compileAllowlist(exprs []string) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, e := range exprs {
		if re, err := regexp.Compile(e); err == nil {
			out = append(out, re)
		}
	}
	return out
}

func allowlisted(s string, allow []*regexp.Regexp) bool {
	for _, re := range allow {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func disabled(cat Category, list []Category) bool {
	for _, c := range list {
		if c == cat {
			return true
		}
	}
	return false
}
