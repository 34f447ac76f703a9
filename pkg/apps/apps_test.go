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
	"strings"
	"testing"

	"github.com/SterTheStar/kaede/pkg/testing/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	systemDir  = "/usr/share/applications"
	userDir    = "/home/player/.local/share/applications"
	exportsDir = "/var/lib/flatpak/exports/share/applications"
)

func desktopFile(name, exec string, extra ...string) string {
	lines := []string{"[Desktop Entry]", "Type=Application", "Name=" + name, "Exec=" + exec}
	lines = append(lines, extra...)
	return strings.Join(lines, "\n") + "\n"
}

type fakeLibrary struct {
	claims map[string]Locator
}

func (f fakeLibrary) Claim(exec string) (Locator, bool) {
	loc, ok := f.claims[exec]
	return loc, ok
}

func indexFixture(t *testing.T) *helpers.FSHelper {
	t.Helper()
	h := helpers.NewMemoryFS()
	require.NoError(t, h.CreateDirectoryStructure(systemDir, map[string]any{
		"blender.desktop": desktopFile("Blender", "blender %f", "Icon=blender"),
		"zed.desktop":     desktopFile("zed", "zed %U"),
		"hidden.desktop":  desktopFile("Hidden", "hidden", "NoDisplay=true"),
		"gone.desktop":    desktopFile("Gone", "gone", "Hidden=true"),
		"link.desktop":    "[Desktop Entry]\nType=Link\nName=Docs\nURL=https://example.com\n",
		"noexec.desktop":  "[Desktop Entry]\nType=Application\nName=NoExec\n",
		"readme.txt":      "not a desktop file",
		"tf2.desktop":     desktopFile("Team Fortress 2", "steam steam://rungameid/440"),
		"ff.desktop": desktopFile("Firefox Flatpak",
			"/usr/bin/flatpak run --branch=stable --command=firefox org.mozilla.firefox @@u %u @@"),
		"keyed.desktop": desktopFile("Keyed", "keyed-wrapper", "X-Flatpak=org.example.Keyed"),
	}))
	require.NoError(t, h.CreateDirectoryStructure(exportsDir, map[string]any{
		"org.gimp.GIMP.desktop": desktopFile("GIMP", "gimp-wrapper %U"),
	}))
	require.NoError(t, h.CreateDirectoryStructure(userDir, map[string]any{
		"blender.desktop": desktopFile("Blender", "env DRI_PRIME=1 blender %f", "X-Kaede-Managed=true"),
		"mine.desktop":    desktopFile("Mine", "mine"),
	}))
	return h
}

func TestIndexerScan(t *testing.T) {
	t.Parallel()

	h := indexFixture(t)
	lib := fakeLibrary{claims: map[string]Locator{
		"steam steam://rungameid/440": SteamLocator{AppID: "440", LocalConfig: "/cfg/localconfig.vdf"},
	}}
	entries := NewIndexer(h.Fs, lib, nil).Scan([]string{systemDir, "/missing", exportsDir, userDir})

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{
		"Blender", "Firefox Flatpak", "GIMP", "Keyed", "Mine", "Team Fortress 2", "zed",
	}, names)

	t.Run("first_seen_wins", func(t *testing.T) {
		t.Parallel()
		e, ok := Find(entries, "blender.desktop")
		require.True(t, ok)
		assert.Equal(t, systemDir+"/blender.desktop", e.Path)
		assert.Equal(t, "blender", e.Exec)
		assert.Equal(t, "blender %f", e.RawExec)
		assert.Equal(t, "blender", e.Icon)
		assert.Equal(t, NativeLocator{DesktopPath: systemDir + "/blender.desktop"}, e.Locator)
	})

	t.Run("classification", func(t *testing.T) {
		t.Parallel()
		want := map[string]Locator{
			"tf2.desktop":           SteamLocator{AppID: "440", LocalConfig: "/cfg/localconfig.vdf"},
			"ff.desktop":            FlatpakLocator{AppID: "org.mozilla.firefox"},
			"keyed.desktop":         FlatpakLocator{AppID: "org.example.Keyed"},
			"org.gimp.GIMP.desktop": FlatpakLocator{AppID: "org.gimp.GIMP"},
			"mine.desktop":          NativeLocator{DesktopPath: userDir + "/mine.desktop"},
		}
		for id, loc := range want {
			e, ok := Find(entries, id)
			require.True(t, ok, id)
			assert.Equal(t, loc, e.Locator, id)
			assert.Equal(t, loc.Kind(), e.Kind(), id)
		}
	})
}

func TestIndexerUnclaimedSteamShortcutIsNative(t *testing.T) {
	t.Parallel()

	h := indexFixture(t)
	entries := NewIndexer(h.Fs).Scan([]string{systemDir})
	e, ok := Find(entries, "tf2.desktop")
	require.True(t, ok)
	assert.Equal(t, KindNative, e.Kind())
}

func TestIndexerSkipsMalformed(t *testing.T) {
	t.Parallel()

	h := helpers.NewMemoryFS()
	require.NoError(t, h.CreateDirectoryStructure(systemDir, map[string]any{
		"nogroup.desktop": "Name=X\nExec=x\n",
		"ok.desktop":      desktopFile("Ok", "ok"),
	}))
	entries := NewIndexer(h.Fs).Scan([]string{systemDir})
	require.Len(t, entries, 1)
	assert.Equal(t, "Ok", entries[0].Name)
}

func TestDefaultSearchPathsOrder(t *testing.T) {
	t.Parallel()

	paths := DefaultSearchPaths()
	require.GreaterOrEqual(t, len(paths), 3)
	assert.Equal(t, exportsDir, paths[len(paths)-3])
	assert.True(t, strings.HasSuffix(paths[len(paths)-2], "/applications"))
	assert.True(t, strings.HasSuffix(paths[len(paths)-1], "flatpak/exports/share/applications"))
}

func TestKinds(t *testing.T) {
	t.Parallel()

	for _, k := range []IntegrationKind{KindNative, KindFlatpak, KindSteam, KindHeroic} {
		got, err := ParseKind(strings.ToUpper(k.String()))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("lutris")
	require.Error(t, err)
	assert.Equal(t, "IntegrationKind(9)", IntegrationKind(9).String())

	var e Entry
	assert.Equal(t, KindNative, e.Kind())
}
