// Package store is the flat JSON key/value file the suite uses to hand
// values, such as the ID of a flaw created by one run, to later runs and
// other processes.
//
// Every operation reads the whole file and writes it back through a
// temporary file and a rename. There is no locking: concurrent writers
// race and the last rename wins.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/RedHatProductSecurity/osim/internal/fixture"
)

// DefaultPath is used when New is given an empty path.
const DefaultPath = "./osim-e2e-state.json"

// Well-known keys.
const (
	KeyFlawID          = "flaw_id"
	KeyEmbargoedFlawID = "embargoed_flaw_id"
)

// EnvShadows maps keys to the environment variables that take precedence
// over the file.
var EnvShadows = map[string]string{
	KeyFlawID:          "FLAW_ID",
	KeyEmbargoedFlawID: "EMBARGOED_FLAW_ID",
}

// ErrNotFound is returned by Get for keys present neither in the
// environment nor in the file.
var ErrNotFound = errors.New("key not found")

// Store is a handle on one state file.
type Store struct {
	path string
}

// New returns a store backed by path. The file is created on first write.
func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Get returns the value of key, preferring its environment shadow.
func (s *Store) Get(key string) (string, error) {
	if env, ok := EnvShadows[key]; ok {
		if v, ok := os.LookupEnv(env); ok {
			return v, nil
		}
	}
	values, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s in %s", ErrNotFound, key, s.path)
	}
	return v, nil
}

// Set writes key.
func (s *Store) Set(key, value string) error {
	if key == "" {
		return errors.New("store: empty key")
	}
	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.persist(values)
}

// Delete removes key. Removing a missing key is not an error.
func (s *Store) Delete(key string) error {
	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.persist(values)
}

// All returns the file contents. Environment shadows are not applied.
func (s *Store) All() (map[string]string, error) {
	return s.load()
}

// Keys returns the stored keys in order.
func (s *Store) Keys() ([]string, error) {
	values, err := s.load()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// FlawID returns the flaw the detail scenarios operate on.
func (s *Store) FlawID() (string, error) { return s.Get(KeyFlawID) }

// EmbargoedFlawID returns the embargoed flaw the detail scenarios use.
func (s *Store) EmbargoedFlawID() (string, error) { return s.Get(KeyEmbargoedFlawID) }

// SetFlawID records a created flaw, embargoed or not.
func (s *Store) SetFlawID(id string, embargoed bool) error {
	if !ValidFlawID(id) {
		return fmt.Errorf("store: %q is neither a CVE ID nor a flaw UUID", id)
	}
	key := KeyFlawID
	if embargoed {
		key = KeyEmbargoedFlawID
	}
	return s.Set(key, id)
}

// ValidFlawID reports whether id addresses a flaw: OSIM routes accept a
// CVE ID or the flaw UUID.
func ValidFlawID(id string) bool {
	if fixture.ValidCVE(id) {
		return true
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *Store) load() (map[string]string, error) {
	values := map[string]string{}
	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return values, nil
		}
		return nil, err
	}
	if len(content) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(content, &values); err != nil {
		return nil, fmt.Errorf("decode state file %s: %w", s.path, err)
	}
	return values, nil
}

func (s *Store) persist(values map[string]string) error {
	body, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o600); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
