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

package steam

import (
	"strings"

	"github.com/SterTheStar/kaede/pkg/envvars"
	"github.com/SterTheStar/kaede/pkg/resolver"
)

// CommandToken is where Steam substitutes the game command line.
const CommandToken = "%command%"

// LaunchOptionsKey is the per-app key Steam reads launch options from.
const LaunchOptionsKey = "LaunchOptions"

// Markers written by older Kaede releases around their assignments.
const (
	legacyStart = "KAEDE_GPU_MANAGED=1"
	legacyEnd   = "KAEDE_GPU_MANAGED_END=1"
)

// StripManaged removes Kaede's leading variable assignments from a
// LaunchOptions value and returns the user's own remainder.
func StripManaged(value string) string {
	value = stripLegacy(value)
	rest := strings.TrimSpace(value)
	for {
		field, after, _ := strings.Cut(rest, " ")
		switch {
		case field == "":
			return ""
		case field == EnvWrapper && leadsWithManaged(after):
		case isManagedAssignment(field):
		default:
			return rest
		}
		rest = strings.TrimLeft(after, " \t")
	}
}

func leadsWithManaged(s string) bool {
	field, _, _ := strings.Cut(strings.TrimLeft(s, " \t"), " ")
	return isManagedAssignment(field)
}

func isManagedAssignment(field string) bool {
	name, _, ok := envvars.Split(field)
	return ok && resolver.IsManaged(name)
}

func stripLegacy(value string) string {
	start := strings.Index(value, legacyStart)
	if start < 0 {
		return value
	}
	head := strings.TrimSpace(value[:start])
	head = strings.TrimSpace(strings.TrimSuffix(head, "env"))
	var tail string
	if end := strings.Index(value[start:], legacyEnd); end >= 0 {
		tail = value[start+end+len(legacyEnd):]
	} else {
		tail = value[start+len(legacyStart):]
	}
	return strings.TrimSpace(head + " " + strings.TrimSpace(tail))
}

// EnvWrapper is put before the assignments when wrapping is enabled.
const EnvWrapper = "env"

// ManagedAssignments returns Kaede's leading assignments of a
// LaunchOptions value, legacy markers left out.
func ManagedAssignments(value string) []string {
	r := strings.NewReplacer(legacyStart, "", legacyEnd, "")
	return resolver.ManagedPrefix(r.Replace(value))
}

// BuildLaunchOptions renders env in front of the user's remainder of
// existing. A remainder without %command% holds game arguments, so the
// token is put before it. With wrap the assignments go through env(1).
func BuildLaunchOptions(env *envvars.Set, existing string, wrap bool) string {
	tail := StripManaged(existing)
	if env.Len() == 0 {
		return ResetLaunchOptions(existing)
	}
	switch {
	case tail == "":
		tail = CommandToken
	case !strings.Contains(tail, CommandToken):
		tail = CommandToken + " " + tail
	}
	prefix := env.String()
	if wrap {
		prefix = EnvWrapper + " " + prefix
	}
	return prefix + " " + tail
}

// ResetLaunchOptions returns existing without Kaede's assignments. An
// empty result means the key should be removed.
func ResetLaunchOptions(existing string) string {
	tail := StripManaged(existing)
	if tail == CommandToken {
		return ""
	}
	return tail
}
