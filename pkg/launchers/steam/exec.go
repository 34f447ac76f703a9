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
	"regexp"
	"strconv"
)

var (
	runGameIDRe = regexp.MustCompile(`steam://rungameid/(\d+)`)
	appLaunchRe = regexp.MustCompile(`(?:^|\s)-applaunch\s+(\d+)`)
)

// AppIDFromExec extracts the AppId from a desktop entry Exec line using
// either steam://rungameid/<id> or -applaunch <id>.
func AppIDFromExec(exec string) (string, bool) {
	for _, re := range []*regexp.Regexp{runGameIDRe, appLaunchRe} {
		if m := re.FindStringSubmatch(exec); m != nil {
			if _, err := strconv.ParseUint(m[1], 10, 64); err == nil {
				return m[1], true
			}
		}
	}
	return "", false
}

// BuildSteamURL builds a Steam launch URL from an AppId.
func BuildSteamURL(appID string) string {
	return "steam://rungameid/" + appID
}
