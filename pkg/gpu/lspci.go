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

package gpu

import (
	"bufio"
	"regexp"
	"strings"
)

var (
	lspciIDRe  = regexp.MustCompile(`\s*\[([0-9a-fA-F]{4}):([0-9a-fA-F]{4})\]$`)
	lspciRevRe = regexp.MustCompile(`\s*\(rev [0-9a-fA-F]+\)$`)
	lspciCCRe  = regexp.MustCompile(`\s*\[[0-9a-fA-F]{4}\]$`)
)

var displayClasses = []string{
	"VGA compatible controller",
	"3D controller",
	"Display controller",
}

// PCIRecord is one display-class line of `lspci -nn`.
type PCIRecord struct {
	Slot        string
	Class       string
	Description string
	VendorID    string
	DeviceID    string
}

// ParseLspci extracts the display controllers from `lspci -nn` output,
// keyed by normalized slot. Lines for other device classes are ignored.
func ParseLspci(out string) map[string]PCIRecord {
	records := make(map[string]PCIRecord)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !isDisplayLine(line) {
			continue
		}
		slot, rest, ok := strings.Cut(line, " ")
		if !ok || slot == "" {
			continue
		}
		class, desc, ok := strings.Cut(rest, ": ")
		if !ok {
			continue
		}
		rec := PCIRecord{
			Slot:  NormalizeSlot(slot),
			Class: lspciCCRe.ReplaceAllString(strings.TrimSpace(class), ""),
		}
		desc = lspciRevRe.ReplaceAllString(strings.TrimSpace(desc), "")
		if m := lspciIDRe.FindStringSubmatch(desc); m != nil {
			rec.VendorID = NormalizeID(m[1])
			rec.DeviceID = NormalizeID(m[2])
			desc = desc[:len(desc)-len(m[0])]
		}
		rec.Description = strings.TrimSpace(desc)
		records[rec.Slot] = rec
	}
	return records
}

func isDisplayLine(line string) bool {
	for _, c := range displayClasses {
		if strings.Contains(line, c) {
			return true
		}
	}
	return false
}
