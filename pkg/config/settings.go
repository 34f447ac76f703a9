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

package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var ErrUnknownSetting = errors.New("unknown setting")

// Setting keys accepted by Set. They match the TOML names.
const (
	KeyShowSteamApps   = "show_steam_apps"
	KeyShowHeroicApps  = "show_heroic_apps"
	KeyShowFlatpakApps = "show_flatpak_apps"
	KeyProbeTimeout    = "probe_timeout"
	KeyDebugLogging    = "debug_logging"
	KeySteamEnvWrapper = "steam_env_wrapper"
)

// Setting is one user-editable value in display form.
type Setting struct {
	Key   string
	Value string
}

// Settings lists every editable setting in a stable order.
func (c *Instance) Settings() []Setting {
	b := strconv.FormatBool
	return []Setting{
		{Key: KeyShowSteamApps, Value: b(c.ShowSteamApps())},
		{Key: KeyShowHeroicApps, Value: b(c.ShowHeroicApps())},
		{Key: KeyShowFlatpakApps, Value: b(c.ShowFlatpakApps())},
		{Key: KeyProbeTimeout, Value: c.ProbeTimeout().String()},
		{Key: KeyDebugLogging, Value: b(c.DebugLogging())},
		{Key: KeySteamEnvWrapper, Value: b(c.SteamEnvWrapper())},
	}
}

// Set parses value for key and stores it. It does not save.
func (c *Instance) Set(key, value string) error {
	if key == KeyProbeTimeout {
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid %s %q: want a positive duration such as 5s", key, value)
		}
		c.SetProbeTimeout(d)
		return nil
	}

	setters := map[string]func(bool){
		KeyShowSteamApps:   c.SetShowSteamApps,
		KeyShowHeroicApps:  c.SetShowHeroicApps,
		KeyShowFlatpakApps: c.SetShowFlatpakApps,
		KeyDebugLogging:    c.SetDebugLogging,
		KeySteamEnvWrapper: c.SetSteamEnvWrapper,
	}
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: want true or false", key, value)
	}
	set(enabled)
	return nil
}
