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

// Package heroic locates Heroic Games Launcher per-game configs and edits
// their environment options without reformatting the file.
package heroic

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/SterTheStar/kaede/pkg/apps"
	"github.com/SterTheStar/kaede/pkg/launchers/flatpak"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// BackupSuffix is appended to a game config for the pristine copy.
const BackupSuffix = ".kaede.bak"

var launchURLRe = regexp.MustCompile(`heroic://launch[^\s"']*`)

// ConfigDirs returns the GamesConfig directories of native and Flatpak
// Heroic installs, in that order.
func ConfigDirs(home string) []string {
	return []string{
		filepath.Join(home, ".config", "heroic", "GamesConfig"),
		filepath.Join(flatpak.AppPath(home, flatpak.HeroicID), "config", "heroic", "GamesConfig"),
	}
}

// Game identifies a Heroic game from its launch URL.
type Game struct {
	AppName string
	Runner  string
}

// GameFromExec extracts the game from heroic://launch/<runner>/<app> or
// heroic://launch?appName=<app>&runner=<runner> in an Exec line.
func GameFromExec(exec string) (Game, bool) {
	raw := launchURLRe.FindString(exec)
	if raw == "" {
		return Game{}, false
	}
	u, err := url.Parse(raw)
	if err != nil {
		log.Debug().Err(err).Str("url", raw).Msg("unparsable heroic launch url")
		return Game{}, false
	}

	q := u.Query()
	if app := q.Get("appName"); app != "" {
		return Game{AppName: app, Runner: q.Get("runner")}, true
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch {
	case len(parts) >= 2 && parts[1] != "":
		return Game{Runner: parts[0], AppName: parts[1]}, true
	case len(parts) == 1 && parts[0] != "":
		return Game{AppName: parts[0]}, true
	default:
		return Game{}, false
	}
}

// Configs finds per-game config files.
type Configs struct {
	fs   afero.Fs
	dirs []string
}

// NewConfigs searches dirs in order.
func NewConfigs(fs afero.Fs, dirs []string) *Configs {
	return &Configs{fs: fs, dirs: dirs}
}

// ConfigFor returns <dir>/<appName>.json from the first directory that
// has it, matching the file name case-insensitively as a fallback.
func (c *Configs) ConfigFor(appName string) (string, bool) {
	if appName == "" || strings.ContainsAny(appName, `/\`) {
		return "", false
	}
	want := appName + ".json"
	for _, dir := range c.dirs {
		path := filepath.Join(dir, want)
		if ok, _ := afero.Exists(c.fs, path); ok {
			return path, true
		}
	}
	for _, dir := range c.dirs {
		entries, err := afero.ReadDir(c.fs, dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(e.Name(), want) {
				return filepath.Join(dir, e.Name()), true
			}
		}
	}
	return "", false
}

// Claim implements apps.LauncherLibrary for Heroic game shortcuts.
func (c *Configs) Claim(exec string) (apps.Locator, bool) {
	game, ok := GameFromExec(exec)
	if !ok {
		return nil, false
	}
	path, ok := c.ConfigFor(game.AppName)
	if !ok {
		log.Debug().Str("app", game.AppName).Msg("heroic shortcut without GamesConfig")
		return nil, false
	}
	return apps.HeroicLocator{AppName: game.AppName, Runner: game.Runner, ConfigPath: path}, true
}
