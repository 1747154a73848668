package models

import (
	"sort"
	"strings"
)

// PermissionSet is a set of permission (claim) names. Adding a name twice
// has no further effect.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from names, skipping blanks.
func NewPermissionSet(names ...string) PermissionSet {
	s := make(PermissionSet, len(names))
	s.Add(names...)
	return s
}

// Add inserts names.
func (s PermissionSet) Add(names ...string) {
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		s[n] = struct{}{}
	}
}

// Remove deletes names.
func (s PermissionSet) Remove(names ...string) {
	for _, n := range names {
		delete(s, strings.TrimSpace(n))
	}
}

// Has reports whether name is in the set.
func (s PermissionSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the members in sorted order.
func (s PermissionSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both sets hold the same names.
func (s PermissionSet) Equal(other PermissionSet) bool {
	if len(s) != len(other) {
		return false
	}
	for n := range s {
		if !other.Has(n) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (s PermissionSet) Clone() PermissionSet {
	c := make(PermissionSet, len(s))
	for n := range s {
		c[n] = struct{}{}
	}
	return c
}
