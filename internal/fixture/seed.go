package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Filter is a flaw list filter keyword and the number of flaws the seeded
// database holds for it.
type Filter struct {
	Keyword string `yaml:"keyword"`
	Count   int    `yaml:"count"`
}

// Seed describes what the test database is known to contain.
type Seed struct {
	// Filters is keyed by flaw list column (title, cve_id, state, source).
	Filters map[string]Filter `yaml:"filters"`
	// QuickSearchCVE is a CVE ID present in the database.
	QuickSearchCVE string `yaml:"quick_search_cve"`
	// FlawID and EmbargoedFlawID name existing flaws. Either may be empty
	// when the run creates its own.
	FlawID          string `yaml:"flaw_id"`
	EmbargoedFlawID string `yaml:"embargoed_flaw_id"`
}

// DefaultSeed matches the OSIDB sample data OSIM is developed against.
func DefaultSeed() *Seed {
	return &Seed{
		Filters: map[string]Filter{
			"title":  {Keyword: "test1 security flaw bug", Count: 1},
			"cve_id": {Keyword: "CVE-2024-1337", Count: 1},
			"state":  {Keyword: "NEW", Count: 120},
			"source": {Keyword: "CUSTOMER", Count: 35},
		},
		QuickSearchCVE: "CVE-2024-1337",
	}
}

// LoadSeed reads a seed file. Filters missing from the file keep their
// defaults.
func LoadSeed(path string) (*Seed, error) {
	//nolint:gosec // G304: path comes from the suite configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed %s: %w", path, err)
	}
	var raw Seed
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse seed %s: %w", path, err)
	}
	seed := DefaultSeed()
	for k, f := range raw.Filters {
		seed.Filters[k] = f
	}
	if raw.QuickSearchCVE != "" {
		seed.QuickSearchCVE = raw.QuickSearchCVE
	}
	seed.FlawID = raw.FlawID
	seed.EmbargoedFlawID = raw.EmbargoedFlawID
	return seed, nil
}

// Filter returns the filter seeded for column.
func (s *Seed) Filter(column string) (Filter, error) {
	f, ok := s.Filters[column]
	if !ok {
		return Filter{}, fmt.Errorf("no seeded filter for %q", column)
	}
	return f, nil
}
