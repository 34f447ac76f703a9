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

// Package resolver turns a GPU choice into the environment variables that
// select it for a given launch mechanism.
package resolver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SterTheStar/kaede/pkg/apps"
	"github.com/SterTheStar/kaede/pkg/envvars"
	"github.com/SterTheStar/kaede/pkg/gpu"
)

// Variable names Kaede writes. Reset removes exactly these.
const (
	DRIPrime                 = "DRI_PRIME"
	MesaVKDeviceSelect       = "MESA_VK_DEVICE_SELECT"
	MesaVKForceDefaultDevice = "MESA_VK_DEVICE_SELECT_FORCE_DEFAULT_DEVICE"
	NVPrimeRenderOffload     = "__NV_PRIME_RENDER_OFFLOAD"
	GLXVendorLibraryName     = "__GLX_VENDOR_LIBRARY_NAME"
	VKLayerNVOptimus         = "__VK_LAYER_NV_optimus"
	PressureVesselImportVars = "PRESSURE_VESSEL_IMPORT_VARS"
	DXVKFilterDeviceName     = "DXVK_FILTER_DEVICE_NAME"
)

// ManagedKeys lists every variable an override may have written,
// including ones older versions wrote.
var ManagedKeys = []string{
	DRIPrime,
	PressureVesselImportVars,
	NVPrimeRenderOffload,
	GLXVendorLibraryName,
	VKLayerNVOptimus,
	MesaVKDeviceSelect,
	MesaVKForceDefaultDevice,
	DXVKFilterDeviceName,
}

// IsManaged reports whether name is one of ManagedKeys.
func IsManaged(name string) bool {
	for _, k := range ManagedKeys {
		if k == name {
			return true
		}
	}
	return false
}

// ManagedPairs keeps the pairs of NAME=VALUE list whose name is managed.
func ManagedPairs(pairs []string) []string {
	var out []string
	for _, p := range pairs {
		if name, _, ok := envvars.Split(p); ok && IsManaged(name) {
			out = append(out, p)
		}
	}
	return out
}

// ManagedPrefix returns the managed assignments a command line starts
// with, after an optional leading "env".
func ManagedPrefix(line string) []string {
	var out []string
	for i, field := range strings.Fields(line) {
		if i == 0 && field == "env" {
			continue
		}
		name, _, ok := envvars.Split(field)
		if !ok || !IsManaged(name) {
			break
		}
		out = append(out, field)
	}
	return out
}

// Resolution is the outcome of Resolve. Warning is set when the set is
// empty because the GPU could not be classified.
type Resolution struct {
	Env     *envvars.Set
	Warning string
}

// Resolve maps a device, API and integration kind to variables. It has no
// side effects and always returns the same set for the same input.
func Resolve(dev *gpu.Device, api gpu.API, kind apps.IntegrationKind) Resolution {
	env := envvars.New()
	res := Resolution{Env: env}

	switch dev.Class {
	case gpu.VendorMesa:
		mustAdd(env, DRIPrime, strconv.Itoa(dev.Index))
		if api != gpu.APIOpenGL {
			if sel := vkDeviceSelector(dev); sel != "" {
				mustAdd(env, MesaVKDeviceSelect, sel)
			}
			mustAdd(env, MesaVKForceDefaultDevice, "1")
		}
	case gpu.VendorNVIDIA:
		mustAdd(env, NVPrimeRenderOffload, "1")
		mustAdd(env, GLXVendorLibraryName, "nvidia")
		mustAdd(env, VKLayerNVOptimus, "NVIDIA_only")
	default:
		res.Warning = fmt.Sprintf(
			"cannot tell which driver serves %s (%s), no variables will be set",
			dev.Card, dev.Model)
		return res
	}

	if kind == apps.KindSteam && env.Len() > 0 {
		mustAdd(env, PressureVesselImportVars, strings.Join(env.Keys(), ","))
	}
	return res
}

// vkDeviceSelector returns the MESA_VK_DEVICE_SELECT value for dev: the
// vvvv:dddd id pair, else pci-dddd_bb_dd_f from the bus address.
func vkDeviceSelector(dev *gpu.Device) string {
	if id := dev.PCIID(); id != "" {
		return id
	}
	if dev.BusAddress == "" {
		return ""
	}
	r := strings.NewReplacer(":", "_", ".", "_")
	return "pci-" + r.Replace(dev.BusAddress)
}

// Names are constants and never collide within one resolution.
func mustAdd(env *envvars.Set, name, value string) {
	if err := env.Add(name, value); err != nil {
		panic(err)
	}
}
