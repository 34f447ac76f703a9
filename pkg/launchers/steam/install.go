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

// Package steam finds Steam installs, their libraries and per-user
// localconfig.vdf files, and edits per-game LaunchOptions in place.
package steam

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SterTheStar/kaede/pkg/apps"
	"github.com/SterTheStar/kaede/pkg/launchers/flatpak"
	"github.com/andygrunwald/vdf"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// BackupSuffix is appended to localconfig.vdf for the pristine copy.
const BackupSuffix = ".kaede.bak"

// Roots returns the Steam install roots Kaede looks at, in order.
func Roots(home string) []string {
	return []string{
		filepath.Join(home, ".steam", "steam"),
		filepath.Join(home, ".local", "share", "Steam"),
		filepath.Join(flatpak.AppPath(home, flatpak.SteamID), "data", "Steam"),
		filepath.Join(flatpak.AppPath(home, flatpak.SteamID), ".steam", "steam"),
	}
}

// AppInfo is the subset of an app manifest Kaede uses.
type AppInfo struct {
	AppID      string
	Name       string
	InstallDir string
	Manifest   string
}

// Install is a view over every Steam root found on the machine.
type Install struct {
	fs    afero.Fs
	roots []string
}

// NewInstall keeps the roots that exist on fs. Symlinked roots pointing
// at the same directory are kept once.
func NewInstall(fs afero.Fs, roots []string) *Install {
	inst := &Install{fs: fs}
	seen := make(map[string]bool)
	for _, r := range roots {
		if ok, _ := afero.DirExists(fs, r); !ok {
			continue
		}
		key := r
		if resolved, err := filepath.EvalSymlinks(r); err == nil && isOsFs(fs) {
			key = resolved
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		inst.roots = append(inst.roots, r)
	}
	return inst
}

func isOsFs(fs afero.Fs) bool {
	_, ok := fs.(*afero.OsFs)
	return ok
}

// Found reports whether any Steam root exists.
func (i *Install) Found() bool {
	return len(i.roots) > 0
}

// steamAppsDir returns the steamapps directory of a root, checking the
// mixed case spelling old installs used.
func (i *Install) steamAppsDir(root string) string {
	for _, candidate := range []string{"steamapps", "SteamApps"} {
		path := filepath.Join(root, candidate)
		if ok, _ := afero.DirExists(i.fs, path); ok {
			return path
		}
	}
	return filepath.Join(root, "steamapps")
}

// LibraryDirs returns every steamapps directory: each root's own and the
// extra libraries from libraryfolders.vdf.
func (i *Install) LibraryDirs() []string {
	var dirs []string
	seen := make(map[string]bool)
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	for _, root := range i.roots {
		main := i.steamAppsDir(root)
		add(main)
		for _, lib := range i.libraryFolders(filepath.Join(main, "libraryfolders.vdf")) {
			add(filepath.Join(lib, "steamapps"))
		}
	}
	return dirs
}

func (i *Install) libraryFolders(path string) []string {
	m, err := i.parseVDF(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("no libraryfolders.vdf")
		return nil
	}

	lfs, ok := m["libraryfolders"].(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(lfs))
	for k := range lfs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var paths []string
	for _, k := range keys {
		switch v := lfs[k].(type) {
		case map[string]any:
			if p, ok := v["path"].(string); ok && p != "" {
				paths = append(paths, p)
			}
		case string:
			// pre-2021 format: "1" "/path/to/library"
			if v != "" && strings.HasPrefix(v, "/") {
				paths = append(paths, v)
			}
		}
	}
	return paths
}

func (i *Install) parseVDF(path string) (map[string]any, error) {
	data, err := afero.ReadFile(i.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	m, err := vdf.NewParser(bytes.NewReader(data)).Parse()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return m, nil
}

// FindApp looks for appmanifest_<appID>.acf in every library.
func (i *Install) FindApp(appID string) (AppInfo, bool) {
	for _, dir := range i.LibraryDirs() {
		path := filepath.Join(dir, "appmanifest_"+appID+".acf")
		m, err := i.parseVDF(path)
		if err != nil {
			continue
		}
		info := AppInfo{AppID: appID, Manifest: path}
		for k, v := range m {
			if !strings.EqualFold(k, "AppState") {
				continue
			}
			if state, ok := v.(map[string]any); ok {
				info.Name, _ = state["name"].(string)
				info.InstallDir, _ = state["installdir"].(string)
			}
		}
		return info, true
	}
	log.Debug().Str("appID", appID).Msg("no app manifest in any Steam library")
	return AppInfo{}, false
}

// LocalConfigs returns every userdata/<id>/config/localconfig.vdf, sorted.
func (i *Install) LocalConfigs() []string {
	var out []string
	seen := make(map[string]bool)
	for _, root := range i.roots {
		userdata := filepath.Join(root, "userdata")
		entries, err := afero.ReadDir(i.fs, userdata)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			cfg := filepath.Join(userdata, e.Name(), "config", "localconfig.vdf")
			if ok, _ := afero.Exists(i.fs, cfg); ok && !seen[cfg] {
				seen[cfg] = true
				out = append(out, cfg)
			}
		}
	}
	sort.Strings(out)
	return out
}

// LocalConfigFor picks the localconfig.vdf to patch for appID: the one
// already listing the app, else the most recently modified.
func (i *Install) LocalConfigFor(appID string) (string, bool) {
	configs := i.LocalConfigs()
	if len(configs) == 0 {
		return "", false
	}

	var (
		newest     string
		newestInfo os.FileInfo
	)
	for _, cfg := range configs {
		data, err := afero.ReadFile(i.fs, cfg)
		if err != nil {
			continue
		}
		if ListsApp(data, appID) {
			return cfg, true
		}
		st, err := i.fs.Stat(cfg)
		if err != nil {
			continue
		}
		if newestInfo == nil || st.ModTime().After(newestInfo.ModTime()) {
			newest, newestInfo = cfg, st
		}
	}
	return newest, newest != ""
}

// Locate combines FindApp and LocalConfigFor: the app must be installed
// and some user must have a localconfig.vdf.
func (i *Install) Locate(appID string) (AppInfo, string, bool) {
	info, ok := i.FindApp(appID)
	if !ok {
		return AppInfo{}, "", false
	}
	cfg, ok := i.LocalConfigFor(appID)
	if !ok {
		return AppInfo{}, "", false
	}
	return info, cfg, true
}

// Claim implements apps.LauncherLibrary for Steam game shortcuts.
func (i *Install) Claim(exec string) (apps.Locator, bool) {
	appID, ok := AppIDFromExec(exec)
	if !ok {
		return nil, false
	}
	if _, cfg, ok := i.Locate(appID); ok {
		return apps.SteamLocator{AppID: appID, LocalConfig: cfg}, true
	}
	log.Debug().Str("appid", appID).Msg("steam shortcut for app without manifest or localconfig")
	return nil, false
}
