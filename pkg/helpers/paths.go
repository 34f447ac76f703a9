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

package helpers

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppName is used for every per-user directory Kaede owns.
const AppName = "kaede"

// CfgEnv overrides the preference store location.
const CfgEnv = "KAEDE_CFG"

// ConfigPath returns the preference store path, honouring CfgEnv.
func ConfigPath() string {
	if p := os.Getenv(CfgEnv); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, AppName, "config.toml")
}

// LogDir returns the directory for rotated log files.
func LogDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// UserApplicationsDir is where desktop entry overrides are written.
func UserApplicationsDir() string {
	return filepath.Join(xdg.DataHome, "applications")
}

// HomeDir returns the user's home directory, or xdg.Home if the lookup
// fails.
func HomeDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	return xdg.Home
}
