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

// Package gpu discovers the GPUs of a Linux workstation from the DRM class
// tree in sysfs, enriched with lspci names when available.
package gpu

import (
	"fmt"
	"strings"
)

// VendorClass groups GPUs by the driver stack that decides which
// environment variables select them.
type VendorClass int

const (
	VendorUnknown VendorClass = iota
	VendorMesa
	VendorNVIDIA
)

func (v VendorClass) String() string {
	switch v {
	case VendorMesa:
		return "mesa"
	case VendorNVIDIA:
		return "nvidia"
	default:
		return "unknown"
	}
}

// API is the rendering API a selection targets.
type API int

const (
	// APIAuto covers both OpenGL and Vulkan programs.
	APIAuto API = iota
	APIOpenGL
	APIVulkan
)

func (a API) String() string {
	switch a {
	case APIOpenGL:
		return "opengl"
	case APIVulkan:
		return "vulkan"
	default:
		return "auto"
	}
}

// ParseAPI parses the names produced by API.String. The empty string maps
// to APIAuto.
func ParseAPI(s string) (API, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return APIAuto, nil
	case "opengl", "gl":
		return APIOpenGL, nil
	case "vulkan", "vk":
		return APIVulkan, nil
	default:
		return APIAuto, fmt.Errorf("unknown rendering API: %q", s)
	}
}

// PCIInfo is the lspci view of a device.
type PCIInfo struct {
	Slot        string
	Class       string
	Description string
}

// Device is one GPU as seen by a single inventory scan. Devices are
// immutable snapshots; a re-scan replaces them wholesale and only
// BusAddress is comparable across scans.
type Device struct {
	PCI        *PCIInfo
	Card       string
	BusAddress string
	VendorID   string
	DeviceID   string
	Model      string
	Driver     string
	RenderNode string
	Index      int
	Class      VendorClass
}

// Label is a short human readable description.
func (d *Device) Label() string {
	return fmt.Sprintf("GPU %d: %s", d.Index, d.Model)
}

// PCIID returns "vvvv:dddd" or an empty string if either id is unknown.
func (d *Device) PCIID() string {
	if d.VendorID == "" || d.DeviceID == "" {
		return ""
	}
	return d.VendorID + ":" + d.DeviceID
}

// Known PCI vendor ids.
const (
	VendorIDNVIDIA = "10de"
	VendorIDAMD    = "1002"
	VendorIDIntel  = "8086"
)

var mesaDrivers = map[string]bool{
	"amdgpu":     true,
	"radeon":     true,
	"i915":       true,
	"xe":         true,
	"nouveau":    true,
	"virtio_gpu": true,
	"vmwgfx":     true,
}

// Classify derives the vendor class. Without lspci data the class stays
// unknown: presence comes from sysfs, naming and classing from lspci.
func Classify(vendorID, driver string, havePCI bool) VendorClass {
	if !havePCI {
		return VendorUnknown
	}
	driver = strings.ToLower(driver)
	switch {
	case driver == "nvidia":
		return VendorNVIDIA
	case mesaDrivers[driver]:
		return VendorMesa
	case driver == "" && vendorID != "" && vendorID != VendorIDNVIDIA:
		return VendorMesa
	default:
		return VendorUnknown
	}
}

// NormalizeSlot turns "01:00.0" into "0000:01:00.0" and lowercases it.
func NormalizeSlot(slot string) string {
	slot = strings.ToLower(strings.TrimSpace(slot))
	if slot == "" {
		return ""
	}
	if strings.Count(slot, ":") == 1 {
		slot = "0000:" + slot
	}
	return slot
}

// NormalizeID lowercases a PCI id and strips any 0x prefix.
func NormalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	id = strings.TrimPrefix(id, "0x")
	if id != "" && len(id) < 4 {
		id = strings.Repeat("0", 4-len(id)) + id
	}
	return id
}
