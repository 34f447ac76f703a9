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

package apps

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// MinSuggestSimilarity is the Jaro-Winkler score a candidate needs before
// Suggest offers it.
const MinSuggestSimilarity float32 = 0.85

const maxSuggestions = 3

// Suggest returns up to three entry ids resembling query, best first. Both
// the id without its .desktop suffix and the display name are compared.
func Suggest(entries []Entry, query string) []string {
	q := normalize(query)
	if q == "" {
		return nil
	}

	type scored struct {
		id    string
		score float32
	}
	var matches []scored
	for i := range entries {
		e := &entries[i]
		score := max(
			edlib.JaroWinklerSimilarity(q, normalize(e.ID)),
			edlib.JaroWinklerSimilarity(q, normalize(e.Name)),
		)
		if score >= MinSuggestSimilarity {
			matches = append(matches, scored{id: e.ID, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.id)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), ".desktop"))
}
