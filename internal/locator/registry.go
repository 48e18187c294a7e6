package locator

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownLocator is returned when a name is not declared by a page.
	ErrUnknownLocator = errors.New("unknown locator")
	// ErrDuplicate is returned when a page declares the same name twice.
	ErrDuplicate = errors.New("duplicate locator name")
)

// UnknownError names the page and key of a failed lookup.
type UnknownError struct {
	Page string
	Name string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("%s: %s has no locator %q", ErrUnknownLocator, e.Page, e.Name)
}

func (e *UnknownError) Unwrap() error { return ErrUnknownLocator }

// Registry is the locator table of one page.
type Registry struct {
	page   string
	byName map[string]Locator
}

// NewRegistry builds a registry, rejecting empty and duplicate names.
func NewRegistry(page string, entries ...Locator) (*Registry, error) {
	r := &Registry{page: page, byName: make(map[string]Locator, len(entries))}
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("%s: locator %s has no name", page, e)
		}
		if _, dup := r.byName[e.Name]; dup {
			return nil, fmt.Errorf("%w: %s declares %q twice", ErrDuplicate, page, e.Name)
		}
		r.byName[e.Name] = e
	}
	return r, nil
}

// MustRegistry is NewRegistry for static tables.
func MustRegistry(page string, entries ...Locator) *Registry {
	r, err := NewRegistry(page, entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Extend returns a new registry holding r's entries plus extra ones.
// Entries in extra override same-named entries of r.
func (r *Registry) Extend(page string, extra ...Locator) (*Registry, error) {
	seen := make(map[string]bool, len(extra))
	for _, e := range extra {
		if seen[e.Name] {
			return nil, fmt.Errorf("%w: %s declares %q twice", ErrDuplicate, page, e.Name)
		}
		seen[e.Name] = true
	}
	out := &Registry{page: page, byName: make(map[string]Locator, len(r.byName)+len(extra))}
	for k, v := range r.byName {
		out.byName[k] = v
	}
	for _, e := range extra {
		out.byName[e.Name] = e
	}
	return out, nil
}

// Page returns the owning page name.
func (r *Registry) Page() string { return r.page }

// Len returns the number of declared locators.
func (r *Registry) Len() int { return len(r.byName) }

// Lookup resolves a symbolic name.
func (r *Registry) Lookup(name string) (Locator, error) {
	l, ok := r.byName[name]
	if !ok {
		return Locator{}, &UnknownError{Page: r.page, Name: name}
	}
	return l, nil
}

// MustLookup panics on unknown names.
func (r *Registry) MustLookup(name string) Locator {
	l, err := r.Lookup(name)
	if err != nil {
		panic(err)
	}
	return l
}

// Has reports whether name is declared.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names returns all declared names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
