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

package resolver

import (
	"strings"
	"testing"

	"github.com/SterTheStar/kaede/pkg/apps"
	"github.com/SterTheStar/kaede/pkg/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestResolveNVIDIASteam(t *testing.T) {
	t.Parallel()

	dev := &gpu.Device{Index: 1, Class: gpu.VendorNVIDIA, VendorID: "10de", DeviceID: "25a2"}
	res := Resolve(dev, gpu.APIAuto, apps.KindSteam)

	assert.Empty(t, res.Warning)
	assert.Equal(t, []string{
		"__NV_PRIME_RENDER_OFFLOAD=1",
		"__GLX_VENDOR_LIBRARY_NAME=nvidia",
		"__VK_LAYER_NV_optimus=NVIDIA_only",
		"PRESSURE_VESSEL_IMPORT_VARS=__NV_PRIME_RENDER_OFFLOAD,__GLX_VENDOR_LIBRARY_NAME,__VK_LAYER_NV_optimus",
	}, res.Env.Pairs())
	assert.False(t, res.Env.Has(DRIPrime))
}

func TestResolveMesaVulkan(t *testing.T) {
	t.Parallel()

	dev := &gpu.Device{Index: 0, Class: gpu.VendorMesa, VendorID: "1002", DeviceID: "73df"}
	res := Resolve(dev, gpu.APIVulkan, apps.KindNative)

	assert.Equal(t, []string{
		"DRI_PRIME=0",
		"MESA_VK_DEVICE_SELECT=1002:73df",
		"MESA_VK_DEVICE_SELECT_FORCE_DEFAULT_DEVICE=1",
	}, res.Env.Pairs())
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dev  gpu.Device
		api  gpu.API
		kind apps.IntegrationKind
		want []string
		warn bool
	}{
		{
			name: "mesa_opengl_only_dri_prime",
			dev:  gpu.Device{Index: 2, Class: gpu.VendorMesa, VendorID: "8086", DeviceID: "46a6"},
			api:  gpu.APIOpenGL,
			kind: apps.KindFlatpak,
			want: []string{"DRI_PRIME=2"},
		},
		{
			name: "mesa_auto_behaves_like_vulkan",
			dev:  gpu.Device{Index: 1, Class: gpu.VendorMesa, VendorID: "1002", DeviceID: "73df"},
			api:  gpu.APIAuto,
			kind: apps.KindHeroic,
			want: []string{
				"DRI_PRIME=1",
				"MESA_VK_DEVICE_SELECT=1002:73df",
				"MESA_VK_DEVICE_SELECT_FORCE_DEFAULT_DEVICE=1",
			},
		},
		{
			name: "mesa_bus_address_fallback",
			dev:  gpu.Device{Index: 1, Class: gpu.VendorMesa, BusAddress: "0000:03:00.0"},
			api:  gpu.APIVulkan,
			kind: apps.KindNative,
			want: []string{
				"DRI_PRIME=1",
				"MESA_VK_DEVICE_SELECT=pci-0000_03_00_0",
				"MESA_VK_DEVICE_SELECT_FORCE_DEFAULT_DEVICE=1",
			},
		},
		{
			name: "mesa_without_ids_forces_dri_prime_device",
			dev:  gpu.Device{Index: 1, Class: gpu.VendorMesa},
			api:  gpu.APIVulkan,
			kind: apps.KindNative,
			want: []string{"DRI_PRIME=1", "MESA_VK_DEVICE_SELECT_FORCE_DEFAULT_DEVICE=1"},
		},
		{
			name: "mesa_steam_imports_vars",
			dev:  gpu.Device{Index: 0, Class: gpu.VendorMesa},
			api:  gpu.APIOpenGL,
			kind: apps.KindSteam,
			want: []string{"DRI_PRIME=0", "PRESSURE_VESSEL_IMPORT_VARS=DRI_PRIME"},
		},
		{
			name: "unknown_is_empty_with_warning",
			dev:  gpu.Device{Index: 0, Card: "card0", Model: "card0"},
			api:  gpu.APIVulkan,
			kind: apps.KindSteam,
			warn: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := Resolve(&tt.dev, tt.api, tt.kind)
			require.NotNil(t, res.Env)
			if tt.warn {
				assert.NotEmpty(t, res.Warning)
				assert.Equal(t, 0, res.Env.Len())
				return
			}
			assert.Empty(t, res.Warning)
			assert.Equal(t, tt.want, res.Env.Pairs())
		})
	}
}

func TestManagedKeysCoverResolvedVars(t *testing.T) {
	t.Parallel()

	for _, class := range []gpu.VendorClass{gpu.VendorMesa, gpu.VendorNVIDIA} {
		dev := &gpu.Device{Class: class, VendorID: "1002", DeviceID: "73df"}
		res := Resolve(dev, gpu.APIVulkan, apps.KindSteam)
		for _, k := range res.Env.Keys() {
			assert.True(t, IsManaged(k), k)
		}
	}
	assert.False(t, IsManaged("PATH"))
}

func TestManagedPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want []string
	}{
		{name: "bare", line: "DRI_PRIME=1 %command% -novid", want: []string{"DRI_PRIME=1"}},
		{
			name: "env_wrapper",
			line: "env __NV_PRIME_RENDER_OFFLOAD=1 __GLX_VENDOR_LIBRARY_NAME=nvidia blender %f",
			want: []string{"__NV_PRIME_RENDER_OFFLOAD=1", "__GLX_VENDOR_LIBRARY_NAME=nvidia"},
		},
		{name: "foreign_first", line: "MANGOHUD=1 DRI_PRIME=1 %command%"},
		{name: "plain_command", line: "blender %f"},
		{name: "env_alone", line: "env"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ManagedPrefix(tt.line))
		})
	}

	assert.Equal(t, []string{"DRI_PRIME=0"}, ManagedPairs([]string{"MANGOHUD=1", "DRI_PRIME=0", "broken"}))
	assert.Nil(t, ManagedPairs(nil))
}

func deviceGen() *rapid.Generator[gpu.Device] {
	hex4 := rapid.StringMatching(`[0-9a-f]{4}`)
	return rapid.Custom(func(t *rapid.T) gpu.Device {
		return gpu.Device{
			Index:      rapid.IntRange(0, 8).Draw(t, "index"),
			Class:      gpu.VendorClass(rapid.IntRange(0, 2).Draw(t, "class")),
			VendorID:   rapid.OneOf(rapid.Just(""), hex4).Draw(t, "vendor"),
			DeviceID:   rapid.OneOf(rapid.Just(""), hex4).Draw(t, "device"),
			BusAddress: rapid.OneOf(rapid.Just(""), rapid.Just("0000:01:00.0")).Draw(t, "bus"),
			Card:       "card0",
		}
	})
}

// TestPropertyResolveDeterministic checks that identical inputs always
// produce identical sets.
func TestPropertyResolveDeterministic(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		dev := deviceGen().Draw(t, "dev")
		api := gpu.API(rapid.IntRange(0, 2).Draw(t, "api"))
		kind := apps.IntegrationKind(rapid.IntRange(0, 3).Draw(t, "kind"))

		a := Resolve(&dev, api, kind)
		b := Resolve(&dev, api, kind)
		if !a.Env.Equal(b.Env) || a.Warning != b.Warning {
			t.Fatalf("resolve not deterministic: %q vs %q", a.Env, b.Env)
		}
	})
}

// TestPropertySteamImportsEveryKey checks that the pressure-vessel list
// names exactly the other keys of a Steam resolution.
func TestPropertySteamImportsEveryKey(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		dev := deviceGen().Draw(t, "dev")
		api := gpu.API(rapid.IntRange(0, 2).Draw(t, "api"))

		res := Resolve(&dev, api, apps.KindSteam)
		if res.Env.Len() == 0 {
			return
		}
		keys := res.Env.Keys()
		last := keys[len(keys)-1]
		if last != PressureVesselImportVars {
			t.Fatalf("last key %s, want %s", last, PressureVesselImportVars)
		}
		got, _ := res.Env.Get(PressureVesselImportVars)
		if got != strings.Join(keys[:len(keys)-1], ",") {
			t.Fatalf("import list %q does not match keys %v", got, keys)
		}
	})
}
