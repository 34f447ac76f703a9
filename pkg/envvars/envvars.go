// Kaede
// Copyright (c) 2026 The Kaede Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Kaede.
//
// Kaede is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Kaede is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Kaede.  If not, see <http://www.gnu.org/licenses/>.

// Package envvars holds the ordered environment variable set that flows
// from the resolver into every override target.
package envvars

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrConflict is returned when a variable is added twice with
	// different values.
	ErrConflict = errors.New("conflicting value for environment variable")
	// ErrInvalidName is returned for names a shell could not export.
	ErrInvalidName = errors.New("invalid environment variable name")
)

var nameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Set is an ordered collection of unique NAME=VALUE assignments. Iteration
// follows insertion order so rendered output is deterministic. The zero
// value is an empty, usable set.
type Set struct {
	vals map[string]string
	keys []string
}

// New returns an empty set.
func New() *Set {
	return &Set{}
}

// FromPairs builds a set from NAME=VALUE strings.
func FromPairs(pairs ...string) (*Set, error) {
	s := New()
	for _, p := range pairs {
		name, value, ok := Split(p)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidName, p)
		}
		if err := s.Add(name, value); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends name=value. Adding an identical pair again is a no-op;
// adding the same name with another value fails with ErrConflict.
func (s *Set) Add(name, value string) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if s.vals == nil {
		s.vals = make(map[string]string)
	}
	if existing, ok := s.vals[name]; ok {
		if existing == value {
			return nil
		}
		return fmt.Errorf("%w: %s=%q already set to %q", ErrConflict, name, value, existing)
	}
	s.vals[name] = value
	s.keys = append(s.keys, name)
	return nil
}

// Get returns the value of name.
func (s *Set) Get(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.vals[name]
	return v, ok
}

// Has reports whether name is in the set.
func (s *Set) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Len returns the number of variables.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns variable names in insertion order.
func (s *Set) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Pairs returns NAME=VALUE strings in insertion order.
func (s *Set) Pairs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, k+"="+s.vals[k])
	}
	return out
}

// Each calls fn for every variable in insertion order.
func (s *Set) Each(fn func(name, value string)) {
	if s == nil {
		return
	}
	for _, k := range s.keys {
		fn(k, s.vals[k])
	}
}

// Equal reports whether both sets hold the same pairs in the same order.
func (s *Set) Equal(other *Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i, k := range s.Keys() {
		if other.keys[i] != k || other.vals[k] != s.vals[k] {
			return false
		}
	}
	return true
}

// String renders the set as space separated assignments.
func (s *Set) String() string {
	return strings.Join(s.Pairs(), " ")
}

// ValidName reports whether name is a portable environment variable name.
func ValidName(name string) bool {
	return nameRe.MatchString(name)
}

// Split parses a NAME=VALUE assignment.
func Split(assignment string) (name, value string, ok bool) {
	name, value, found := strings.Cut(assignment, "=")
	if !found || !ValidName(name) {
		return "", "", false
	}
	return name, value, true
}
