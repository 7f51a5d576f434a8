// Package feature carries the set of active feature flags as a plain value.
package feature

import (
	"sort"
	"strings"
)

// Flag names understood by intake.
const (
	// ReleaseTwo switches the screening page to the simplified layout.
	ReleaseTwo = "release_two"
	// PeopleSearchV2 routes people search to the v2 endpoint.
	PeopleSearchV2 = "people_search_v2"
)

// Set is an immutable set of active flag names. The zero value has no active
// flags.
type Set struct {
	active map[string]struct{}
}

// New returns a set with names active. Blank names are ignored.
func New(names ...string) Set {
	active := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		active[name] = struct{}{}
	}
	return Set{active: active}
}

// Parse reads a comma-separated flag list.
func Parse(raw string) Set {
	return New(strings.Split(raw, ",")...)
}

// Active reports whether name is active.
func (s Set) Active(name string) bool {
	_, ok := s.active[name]
	return ok
}

// Inactive reports whether name is not active.
func (s Set) Inactive(name string) bool {
	return !s.Active(name)
}

// Names returns the active flags in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s.active))
	for name := range s.active {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
