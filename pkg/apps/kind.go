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
	"fmt"
	"strings"
)

// IntegrationKind names the launch mechanism an override has to target.
type IntegrationKind int

const (
	KindNative IntegrationKind = iota
	KindFlatpak
	KindSteam
	KindHeroic
)

var kindNames = map[IntegrationKind]string{
	KindNative:  "native",
	KindFlatpak: "flatpak",
	KindSteam:   "steam",
	KindHeroic:  "heroic",
}

func (k IntegrationKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("IntegrationKind(%d)", int(k))
}

// ParseKind is the inverse of String.
func ParseKind(s string) (IntegrationKind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return KindNative, fmt.Errorf("unknown integration kind %q", s)
}

// Locator carries what an override handler needs to find its target.
type Locator interface {
	Kind() IntegrationKind
}

type NativeLocator struct {
	DesktopPath string
}

type FlatpakLocator struct {
	AppID string
}

type SteamLocator struct {
	AppID       string
	LocalConfig string
}

type HeroicLocator struct {
	AppName    string
	Runner     string
	ConfigPath string
}

func (NativeLocator) Kind() IntegrationKind  { return KindNative }
func (FlatpakLocator) Kind() IntegrationKind { return KindFlatpak }
func (SteamLocator) Kind() IntegrationKind   { return KindSteam }
func (HeroicLocator) Kind() IntegrationKind  { return KindHeroic }
