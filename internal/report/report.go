// Package report summarises godog cucumber JSON output.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/RedHatProductSecurity/osim/internal/output"
)

// Status is a step or scenario outcome.
type Status string

const (
	StatusPassed    Status = "passed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusPending   Status = "pending"
	StatusUndefined Status = "undefined"
)

// severity orders statuses when folding steps into a scenario.
var severity = map[Status]int{
	StatusPassed:    0,
	StatusSkipped:   1,
	StatusPending:   2,
	StatusUndefined: 3,
	StatusFailed:    4,
}

// cucumber JSON as produced by godog's "cucumber" formatter.
type cukeFeature struct {
	URI      string        `json:"uri"`
	Name     string        `json:"name"`
	Elements []cukeElement `json:"elements"`
}

type cukeElement struct {
	Name  string     `json:"name"`
	Type  string     `json:"type"`
	Line  int        `json:"line"`
	Tags  []cukeTag  `json:"tags"`
	Steps []cukeStep `json:"steps"`
}

type cukeTag struct {
	Name string `json:"name"`
}

type cukeStep struct {
	Keyword string     `json:"keyword"`
	Name    string     `json:"name"`
	Result  cukeResult `json:"result"`
}

type cukeResult struct {
	Status   string `json:"status"`
	Duration int64  `json:"duration"`
	Error    string `json:"error_message"`
}

// Scenario is the outcome of one scenario.
type Scenario struct {
	Feature  string        `json:"feature"`
	URI      string        `json:"uri"`
	Name     string        `json:"name"`
	Line     int           `json:"line"`
	Tags     []string      `json:"tags,omitempty"`
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration_ns"`
	// FailedStep and Error are set for failed scenarios.
	FailedStep string `json:"failed_step,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Report is the aggregate over a run.
type Report struct {
	Scenarios []Scenario     `json:"scenarios"`
	Counts    map[Status]int `json:"counts"`
	Steps     map[Status]int `json:"steps"`
	Duration  time.Duration  `json:"duration_ns"`
}

// Parse decodes cucumber JSON into a Report.
func Parse(r io.Reader) (*Report, error) {
	var features []cukeFeature
	if err := json.NewDecoder(r).Decode(&features); err != nil {
		return nil, fmt.Errorf("decode cucumber report: %w", err)
	}

	rep := &Report{Counts: map[Status]int{}, Steps: map[Status]int{}}
	for _, f := range features {
		for _, el := range f.Elements {
			if el.Type == "background" {
				continue
			}
			sc := Scenario{Feature: f.Name, URI: f.URI, Name: el.Name, Line: el.Line, Status: StatusPassed}
			for _, tag := range el.Tags {
				sc.Tags = append(sc.Tags, tag.Name)
			}
			for _, st := range el.Steps {
				status := normalize(st.Result.Status)
				rep.Steps[status]++
				sc.Duration += time.Duration(st.Result.Duration)
				if severity[status] > severity[sc.Status] {
					sc.Status = status
				}
				if status == StatusFailed && sc.FailedStep == "" {
					sc.FailedStep = strings.TrimSpace(st.Keyword) + " " + st.Name
					sc.Error = st.Result.Error
				}
			}
			rep.Counts[sc.Status]++
			rep.Duration += sc.Duration
			rep.Scenarios = append(rep.Scenarios, sc)
		}
	}
	return rep, nil
}

// ParseFile reads a cucumber JSON file.
func ParseFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func normalize(s string) Status {
	switch st := Status(strings.ToLower(s)); st {
	case StatusPassed, StatusFailed, StatusSkipped, StatusPending, StatusUndefined:
		return st
	case "ambiguous":
		return StatusFailed
	}
	return StatusUndefined
}

// Total is the number of scenarios.
func (r *Report) Total() int { return len(r.Scenarios) }

// OK reports whether no scenario failed, was undefined or pending.
func (r *Report) OK() bool {
	return r.Counts[StatusFailed]+r.Counts[StatusUndefined]+r.Counts[StatusPending] == 0
}

// Failed returns the failed scenarios ordered by file and line.
func (r *Report) Failed() []Scenario {
	var out []Scenario
	for _, sc := range r.Scenarios {
		if sc.Status == StatusFailed {
			out = append(out, sc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].URI != out[j].URI {
			return out[i].URI < out[j].URI
		}
		return out[i].Line < out[j].Line
	})
	return out
}

// Summary is the one-line count string godog users are used to.
func (r *Report) Summary() string {
	parts := []string{}
	for _, st := range []Status{StatusPassed, StatusFailed, StatusSkipped, StatusPending, StatusUndefined} {
		if n := r.Counts[st]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, st))
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%d scenarios", r.Total())
	}
	return fmt.Sprintf("%d scenarios (%s)", r.Total(), strings.Join(parts, ", "))
}

// WriteText renders the scenario table and summary.
func (r *Report) WriteText(w io.Writer) error {
	sty := newStyler(w)
	rows := make([][]string, 0, len(r.Scenarios))
	for _, sc := range r.Scenarios {
		rows = append(rows, []string{
			sty.status(sc.Status),
			fmt.Sprintf("%s:%d", sc.URI, sc.Line),
			sc.Name,
			sc.Duration.Round(time.Millisecond).String(),
		})
	}
	if err := output.WriteTable(w, []string{"STATUS", "LOCATION", "SCENARIO", "DURATION"}, rows); err != nil {
		return err
	}
	for _, sc := range r.Failed() {
		fmt.Fprintf(w, "\n%s\n  %s\n  %s\n", sc.Name, sc.FailedStep, sc.Error)
	}
	_, err := fmt.Fprintf(w, "\n%s in %s\n", sty.summary(r.OK(), r.Summary()), r.Duration.Round(time.Millisecond))
	return err
}

// WriteJSON renders the report as JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	return output.WriteJSON(w, r, true)
}
