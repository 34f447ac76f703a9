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

package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/SterTheStar/kaede/pkg/apps"
	"github.com/SterTheStar/kaede/pkg/config"
	"github.com/SterTheStar/kaede/pkg/gpu"
	"github.com/SterTheStar/kaede/pkg/launchers/desktop"
	"github.com/SterTheStar/kaede/pkg/launchers/flatpak"
	"github.com/SterTheStar/kaede/pkg/override"
	"github.com/SterTheStar/kaede/pkg/service"
	"github.com/SterTheStar/kaede/pkg/testing/helpers"
	"github.com/SterTheStar/kaede/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	home       = "/home/player"
	systemApps = "/usr/share/applications"
	userApps   = home + "/.local/share/applications"
	drmDir     = "/sys/class/drm"
	devDir     = "/dev/dri"
	cfgPath    = home + "/.config/kaede/config.toml"
)

var (
	steamRoot   = filepath.Join(home, ".local", "share", "Steam")
	localConfig = filepath.Join(steamRoot, "userdata", "1001", "config", "localconfig.vdf")
)

const localConfigVDF = `"UserLocalConfigStore"
{
	"Software"
	{
		"Valve"
		{
			"Steam"
			{
				"apps"
				{
					"440"
					{
						"LaunchOptions"		"-novid"
					}
				}
			}
		}
	}
}
`

const hybridLspci = `00:02.0 VGA compatible controller [0300]: Intel Corporation Alder Lake-P GT2 [Iris Xe Graphics] [8086:46a6] (rev 0c)
01:00.0 3D controller [0302]: NVIDIA Corporation GA107M [GeForce RTX 3050 Mobile] [10de:25a2] (rev a1)
`

func newEnv(t *testing.T, withGPUs bool) (Env, *helpers.FSHelper) {
	t.Helper()
	h := helpers.NewMemoryFS()

	if withGPUs {
		require.NoError(t, h.CreateSysfsDRM(drmDir, devDir,
			helpers.SysfsCard{
				Name: "card0", Driver: "i915", PCIID: "8086:46A6",
				Slot: "0000:00:02.0", RenderNode: "renderD128",
			},
			helpers.SysfsCard{
				Name: "card1", Driver: "nvidia", PCIID: "10DE:25A2",
				Slot: "0000:01:00.0", RenderNode: "renderD129",
			},
		))
	}
	require.NoError(t, h.CreateDirectoryStructure(systemApps, map[string]any{
		"blender.desktop": "[Desktop Entry]\nType=Application\nName=Blender\nExec=blender %f\n",
		"gimp.desktop":    "[Desktop Entry]\nType=Application\nName=GIMP\nExec=flatpak run org.gimp.GIMP %U\n",
		"tf2.desktop":     "[Desktop Entry]\nType=Application\nName=Team Fortress 2\nExec=steam steam://rungameid/440\n",
	}))
	require.NoError(t, h.CreateDirectoryStructure(filepath.Join(steamRoot, "steamapps"), map[string]any{
		"appmanifest_440.acf": "\"AppState\"\n{\n\t\"appid\"\t\t\"440\"\n\t\"name\"\t\t\"Team Fortress 2\"\n}\n",
	}))
	require.NoError(t, h.WriteFile(localConfig, []byte(localConfigVDF)))

	cmd := &mocks.MockCommandExecutor{}
	cmd.On("Output", mock.Anything, "lspci", []string{"-nn"}).Return([]byte(hybridLspci), nil).Maybe()
	cmd.On("Run", mock.Anything, "flatpak", mock.Anything).Return(nil).Maybe()

	return Env{
		Fs:         h.Fs,
		ConfigPath: cfgPath,
		Service: service.Options{
			Cmd:         cmd,
			Home:        home,
			UserAppsDir: userApps,
			SearchPaths: []string{systemApps, userApps},
			GPUOptions:  []gpu.Option{gpu.WithRoots(drmDir, devDir)},
			Handlers: map[apps.IntegrationKind]override.Handler{
				apps.KindNative:  override.NewNativeHandler(h.Fs, userApps),
				apps.KindFlatpak: override.NewFlatpakHandler(flatpak.NewClient(cmd, 0)),
				apps.KindSteam: override.NewSteamHandler(h.Fs, func(context.Context) bool { return false },
					override.WithEnvWrapper(true)),
			},
		},
	}, h
}

func run(t *testing.T, env Env, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd(env)
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestGPUs(t *testing.T) {
	t.Parallel()

	env, _ := newEnv(t, true)
	out, _, err := run(t, env, "gpus")
	require.NoError(t, err)
	assert.Contains(t, out, "INDEX")
	assert.Contains(t, out, "0000:01:00.0")
	assert.Contains(t, out, "nvidia")
	assert.Contains(t, out, "renderD128")
}

func TestGPUsWithoutDevices(t *testing.T) {
	t.Parallel()

	env, _ := newEnv(t, false)
	_, _, err := run(t, env, "gpus")
	require.ErrorIs(t, err, gpu.ErrNoGPU)

	out, _, err := run(t, env, "apps")
	require.NoError(t, err, "apps still list without a gpu")
	assert.Contains(t, out, "blender.desktop")
}

func TestAppsKindFilter(t *testing.T) {
	t.Parallel()

	env, _ := newEnv(t, true)
	out, _, err := run(t, env, "apps", "--kind", "flatpak")
	require.NoError(t, err)
	assert.Contains(t, out, "gimp.desktop")
	assert.NotContains(t, out, "blender.desktop")

	_, _, err = run(t, env, "apps", "--kind", "itch")
	require.Error(t, err)
}

func TestSetAndReset(t *testing.T) {
	t.Parallel()

	env, h := newEnv(t, true)
	target := filepath.Join(userApps, "blender.desktop")

	out, _, err := run(t, env, "set", "blender.desktop", "0", "--api", "opengl")
	require.NoError(t, err)
	assert.Contains(t, out, target)

	data, err := h.ReadFile(target)
	require.NoError(t, err)
	exec, ok := desktop.Exec(data)
	require.True(t, ok)
	assert.Equal(t, "env DRI_PRIME=0 blender %f", exec)

	out, _, err = run(t, env, "apps")
	require.NoError(t, err)
	assert.Contains(t, out, "0 (opengl)")

	cfg, err := config.NewConfig(h.Fs, cfgPath, config.BaseDefaults)
	require.NoError(t, err)
	sel, ok := cfg.Selection("blender.desktop")
	require.True(t, ok)
	assert.Equal(t, "0000:00:02.0", sel.GPUBusAddress)

	_, _, err = run(t, env, "reset", "blender.desktop")
	require.NoError(t, err)
	assert.False(t, h.FileExists(target))
}

func TestEnvPrintsWithoutWriting(t *testing.T) {
	t.Parallel()

	env, h := newEnv(t, true)
	out, _, err := run(t, env, "env", "blender.desktop", "1")
	require.NoError(t, err)
	assert.Equal(t,
		"__NV_PRIME_RENDER_OFFLOAD=1\n__GLX_VENDOR_LIBRARY_NAME=nvidia\n__VK_LAYER_NV_optimus=NVIDIA_only\n",
		out)

	assert.False(t, h.FileExists(filepath.Join(userApps, "blender.desktop")))
}

func TestArgumentErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{name: "negative_index", args: []string{"set", "blender.desktop", "--", "-1"}},
		{name: "non_numeric_index", args: []string{"set", "blender.desktop", "one"}},
		{name: "unknown_gpu", args: []string{"set", "blender.desktop", "7"}},
		{name: "unknown_app", args: []string{"set", "missing.desktop", "0"}},
		{name: "bad_api", args: []string{"env", "blender.desktop", "0", "--api", "metal"}},
		{name: "missing_args", args: []string{"reset"}},
		{name: "reset_all_with_app", args: []string{"reset", "--all", "blender.desktop"}},
		{name: "unknown_setting", args: []string{"config", "set", "theme", "dark"}},
		{name: "bad_setting_value", args: []string{"config", "set", "debug_logging", "sometimes"}},
		{name: "show_unknown_app", args: []string{"show", "blendr.desktop"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, _ := newEnv(t, true)
			_, _, err := run(t, env, tt.args...)
			require.Error(t, err)
		})
	}
}

func TestResetAll(t *testing.T) {
	t.Parallel()

	env, h := newEnv(t, true)
	target := filepath.Join(userApps, "blender.desktop")

	_, _, err := run(t, env, "set", "blender.desktop", "1")
	require.NoError(t, err)
	_, _, err = run(t, env, "config", "set", "show_flatpak_apps", "false")
	require.NoError(t, err)
	require.True(t, h.FileExists(target))

	out, _, err := run(t, env, "reset", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "removed "+target)
	assert.Contains(t, out, "reset to defaults")
	assert.False(t, h.FileExists(target))

	cfg, err := config.NewConfig(h.Fs, cfgPath, config.BaseDefaults)
	require.NoError(t, err)
	assert.Empty(t, cfg.Selections())
	assert.True(t, cfg.ShowFlatpakApps())
}

func TestConfigCommands(t *testing.T) {
	t.Parallel()

	env, h := newEnv(t, true)

	out, stderr, err := run(t, env, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "show_steam_apps")
	assert.Contains(t, out, "probe_timeout")
	assert.Contains(t, stderr, cfgPath)

	_, _, err = run(t, env, "config", "set", "show_flatpak_apps", "false")
	require.NoError(t, err)
	_, _, err = run(t, env, "config", "set", "probe_timeout", "2s")
	require.NoError(t, err)

	cfg, err := config.NewConfig(h.Fs, cfgPath, config.BaseDefaults)
	require.NoError(t, err)
	assert.False(t, cfg.ShowFlatpakApps())
	assert.Equal(t, "2s", cfg.ProbeTimeout().String())

	out, _, err = run(t, env, "apps")
	require.NoError(t, err)
	assert.NotContains(t, out, "gimp.desktop")
}

func TestShow(t *testing.T) {
	t.Parallel()

	env, h := newEnv(t, true)

	out, _, err := run(t, env, "show", "tf2.desktop")
	require.NoError(t, err)
	assert.Contains(t, out, "steam://rungameid/440")
	assert.Contains(t, out, localConfig)
	assert.Contains(t, out, "-novid")
	assert.Contains(t, out, "none")

	_, _, err = run(t, env, "set", "tf2.desktop", "0", "--api", "opengl")
	require.NoError(t, err)
	data, err := h.ReadFile(localConfig)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"env DRI_PRIME=0 PRESSURE_VESSEL_IMPORT_VARS=DRI_PRIME %command% -novid"`)

	out, _, err = run(t, env, "show", "tf2.desktop")
	require.NoError(t, err)
	assert.Contains(t, out, "DRI_PRIME=0 PRESSURE_VESSEL_IMPORT_VARS=DRI_PRIME")
	assert.Contains(t, out, "0 ")
	assert.Contains(t, out, "(opengl)")

	out, _, err = run(t, env, "show", "blender.desktop")
	require.NoError(t, err)
	assert.Contains(t, out, "blender %f")
	assert.NotContains(t, out, "steam://")
}
