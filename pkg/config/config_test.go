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
	"sync"
	"testing"
	"time"

	"github.com/SterTheStar/kaede/pkg/testing/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cfgPath = "/home/player/.config/kaede/config.toml"

func newTestConfig(t *testing.T) (*Instance, *helpers.FSHelper) {
	t.Helper()
	h := helpers.NewMemoryFS()
	cfg, err := NewConfig(h.Fs, cfgPath, BaseDefaults)
	require.NoError(t, err)
	return cfg, h
}

func TestNewConfigWritesDefaults(t *testing.T) {
	t.Parallel()

	cfg, h := newTestConfig(t)
	require.True(t, h.FileExists(cfgPath))
	assert.True(t, cfg.ShowSteamApps())
	assert.True(t, cfg.ShowHeroicApps())
	assert.True(t, cfg.ShowFlatpakApps())
	assert.False(t, cfg.DebugLogging())
	assert.Equal(t, DefaultProbeTimeout, cfg.ProbeTimeout())
	assert.Empty(t, cfg.Selections())

	data, err := h.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "config_schema = 1")
}

func TestSelectionRoundTrip(t *testing.T) {
	t.Parallel()

	cfg, h := newTestConfig(t)
	sel := Selection{GPUBusAddress: "0000:01:00.0", GPUIndex: 1, API: "vulkan"}
	require.NoError(t, cfg.SetSelection("tf2.desktop", sel))
	cfg.SetShowHeroicApps(false)
	cfg.SetProbeTimeout(2 * time.Second)
	require.NoError(t, cfg.Save())

	reloaded, err := NewConfig(h.Fs, cfgPath, BaseDefaults)
	require.NoError(t, err)
	got, ok := reloaded.Selection("tf2.desktop")
	require.True(t, ok)
	assert.Equal(t, sel, got)
	assert.False(t, reloaded.ShowHeroicApps())
	assert.Equal(t, 2*time.Second, reloaded.ProbeTimeout())

	assert.True(t, reloaded.ClearSelection("tf2.desktop"))
	assert.False(t, reloaded.ClearSelection("tf2.desktop"))
	_, ok = reloaded.Selection("tf2.desktop")
	assert.False(t, ok)
}

func TestSetSelectionValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		appID   string
		sel     Selection
		wantErr bool
	}{
		{name: "index_only", appID: "blender.desktop", sel: Selection{GPUIndex: 0}},
		{name: "full", appID: "blender.desktop", sel: Selection{GPUBusAddress: "0000:03:00.0", GPUIndex: 1, API: "opengl"}},
		{name: "bad_api", appID: "blender.desktop", sel: Selection{API: "metal"}, wantErr: true},
		{name: "bad_bus", appID: "blender.desktop", sel: Selection{GPUBusAddress: "pci-03"}, wantErr: true},
		{name: "negative_index", appID: "blender.desktop", sel: Selection{GPUIndex: -1}, wantErr: true},
		{name: "not_desktop_id", appID: "blender", wantErr: true},
		{name: "path_id", appID: "../blender.desktop", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, _ := newTestConfig(t)
			err := cfg.SetSelection(tt.appID, tt.sel)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLoadDropsInvalidSelections(t *testing.T) {
	t.Parallel()

	h := helpers.NewMemoryFS()
	require.NoError(t, h.WriteFile(cfgPath, []byte(`config_schema = 1
probe_timeout = "soon"

[selections."ok.desktop"]
gpu_index = 1
api = "vulkan"

[selections."bad.desktop"]
gpu_index = 0
api = "directx"
`)))

	cfg, err := NewConfig(h.Fs, cfgPath, BaseDefaults)
	require.NoError(t, err)
	assert.Len(t, cfg.Selections(), 1)
	_, ok := cfg.Selection("ok.desktop")
	assert.True(t, ok)
	assert.Equal(t, DefaultProbeTimeout, cfg.ProbeTimeout())
	assert.True(t, cfg.ShowSteamApps(), "missing keys keep defaults")
}

func TestLoadSchemaMismatch(t *testing.T) {
	t.Parallel()

	h := helpers.NewMemoryFS()
	require.NoError(t, h.WriteFile(cfgPath, []byte("config_schema = 99\n")))
	_, err := NewConfig(h.Fs, cfgPath, BaseDefaults)
	require.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestSelectionsConcurrentAccess(t *testing.T) {
	t.Parallel()

	cfg, _ := newTestConfig(t)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = cfg.SetSelection("blender.desktop", Selection{GPUIndex: i % 4})
		}()
		go func() {
			defer wg.Done()
			_, _ = cfg.Selection("blender.desktop")
			_ = cfg.Selections()
		}()
	}
	wg.Wait()

	sel, ok := cfg.Selection("blender.desktop")
	require.True(t, ok)
	assert.GreaterOrEqual(t, sel.GPUIndex, 0)
}
