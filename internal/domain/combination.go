package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Combination is an ordered subset of the allowed strategy names.
// Members keep the relative order they have in the allow-list, so two
// combinations with the same members are always equal element by element.
type Combination []string

// String joins the members with ", " for progress and error output.
func (c Combination) String() string { return strings.Join(c, ", ") }

// Size returns the number of members.
func (c Combination) Size() int { return len(c) }

// Contains reports whether name is a member.
func (c Combination) Contains(name string) bool { return slices.Contains(c, name) }

// Key returns a stable identifier for use as a map key or metric label.
func (c Combination) Key() string { return strings.Join(c, "+") }

// AllowedSet is the ordered, duplicate-free list of strategy names eligible
// for a run. Order determines enumeration order.
type AllowedSet []string

// NewAllowedSet validates names and returns them as an AllowedSet.
// NewAllowedSet rejects empty names and duplicates instead of silently
// folding them, since a duplicate would make enumeration produce
// combinations with a repeated member.
func NewAllowedSet(names []string) (AllowedSet, error) {
	verr := NewValidationError("AllowedSet")
	seen := make(map[string]struct{}, len(names))
	for i, n := range names {
		if n == "" {
			verr.AddError(fmt.Sprintf("empty strategy name at position %d", i))
			continue
		}
		if _, dup := seen[n]; dup {
			verr.AddError(fmt.Sprintf("duplicate strategy name %q", n))
			continue
		}
		seen[n] = struct{}{}
	}
	if verr.HasErrors() {
		return nil, verr
	}
	return AllowedSet(slices.Clone(names)), nil
}

// Without returns a copy of the set with the given names removed,
// preserving order.
func (s AllowedSet) Without(names ...string) AllowedSet {
	out := make(AllowedSet, 0, len(s))
	for _, n := range s {
		if !slices.Contains(names, n) {
			out = append(out, n)
		}
	}
	return out
}

// Contains reports whether name is in the set.
func (s AllowedSet) Contains(name string) bool { return slices.Contains(s, name) }
