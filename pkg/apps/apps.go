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

// Package apps builds the list of launchable applications from desktop
// entry files and decides which launch mechanism backs each one.
package apps

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SterTheStar/kaede/pkg/launchers/desktop"
	"github.com/SterTheStar/kaede/pkg/launchers/flatpak"
	"github.com/adrg/xdg"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"gopkg.in/ini.v1"
)

// Entry is one launchable application.
type Entry struct {
	Locator Locator
	// ID is the desktop file name, e.g. org.blender.Blender.desktop.
	ID   string
	Name string
	Icon string
	// Exec has field codes stripped; RawExec is the line as written.
	Exec    string
	RawExec string
	Path    string
}

// Kind returns the entry's integration kind.
func (e *Entry) Kind() IntegrationKind {
	if e.Locator == nil {
		return KindNative
	}
	return e.Locator.Kind()
}

// LauncherLibrary claims Exec lines that start a game through a launcher
// such as Steam or Heroic.
type LauncherLibrary interface {
	Claim(exec string) (Locator, bool)
}

// Indexer scans desktop entry directories.
type Indexer struct {
	fs        afero.Fs
	libraries []LauncherLibrary
}

// NewIndexer returns an indexer reading from fs. Libraries are asked in
// order and the first claim wins.
func NewIndexer(fs afero.Fs, libraries ...LauncherLibrary) *Indexer {
	libs := make([]LauncherLibrary, 0, len(libraries))
	for _, l := range libraries {
		if l != nil {
			libs = append(libs, l)
		}
	}
	return &Indexer{fs: fs, libraries: libs}
}

// DefaultSearchPaths lists system directories before user ones so the
// first-seen entry is the pristine original rather than a Kaede override
// in the user directory.
func DefaultSearchPaths() []string {
	paths := make([]string, 0, len(xdg.DataDirs)+3)
	for _, d := range xdg.DataDirs {
		paths = append(paths, filepath.Join(d, "applications"))
	}
	paths = append(paths,
		flatpak.SystemExportsDir,
		filepath.Join(xdg.DataHome, "applications"),
		flatpak.UserExportsDir(xdg.DataHome),
	)
	return paths
}

// Scan walks searchPaths in order and returns entries sorted by name.
// Unreadable directories and malformed files are logged and skipped.
func (ix *Indexer) Scan(searchPaths []string) []Entry {
	seen := make(map[string]bool)
	var entries []Entry

	for _, dir := range searchPaths {
		files, err := afero.ReadDir(ix.fs, dir)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Warn().Err(err).Str("dir", dir).Msg("failed to read applications dir")
			}
			continue
		}
		for _, f := range files {
			name := f.Name()
			if f.IsDir() || !strings.HasSuffix(name, ".desktop") || seen[name] {
				continue
			}
			path := filepath.Join(dir, name)
			entry, ok := ix.parse(path)
			if !ok {
				continue
			}
			seen[name] = true
			entries = append(entries, entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	log.Debug().Int("count", len(entries)).Msg("indexed applications")
	return entries
}

// Find returns the entry with the given id.
func Find(entries []Entry, id string) (Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

func (ix *Indexer) parse(path string) (Entry, bool) {
	data, err := afero.ReadFile(ix.fs, path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("skipping unreadable desktop file")
		return Entry{}, false
	}
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, data)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("skipping malformed desktop file")
		return Entry{}, false
	}
	sec, err := cfg.GetSection("Desktop Entry")
	if err != nil {
		return Entry{}, false
	}

	if sec.Key("Type").String() != "Application" ||
		sec.Key("NoDisplay").MustBool(false) ||
		sec.Key("Hidden").MustBool(false) {
		return Entry{}, false
	}
	raw := sec.Key("Exec").String()
	name := sec.Key("Name").String()
	if raw == "" || name == "" {
		return Entry{}, false
	}

	e := Entry{
		ID:      filepath.Base(path),
		Name:    name,
		Icon:    sec.Key("Icon").String(),
		Exec:    desktop.StripFieldCodes(raw),
		RawExec: raw,
		Path:    path,
	}
	e.Locator = ix.classify(&e, sec.HasKey("X-Flatpak"), sec.Key("X-Flatpak").String())
	return e, true
}

// classify checks launcher libraries first: a Flatpak Steam client
// starting a game still stores the game's options in Steam.
func (ix *Indexer) classify(e *Entry, hasFlatpakKey bool, flatpakKey string) Locator {
	for _, lib := range ix.libraries {
		if loc, ok := lib.Claim(e.Exec); ok {
			return loc
		}
	}

	if id, ok := flatpak.AppIDFromExec(e.Exec); ok {
		return FlatpakLocator{AppID: id}
	}
	if hasFlatpakKey && flatpak.ValidAppID(flatpakKey) {
		return FlatpakLocator{AppID: flatpakKey}
	}
	if flatpak.IsExportPath(e.Path) {
		if id, ok := flatpak.AppIDFromDesktopFile(e.ID); ok {
			return FlatpakLocator{AppID: id}
		}
	}
	return NativeLocator{DesktopPath: e.Path}
}
