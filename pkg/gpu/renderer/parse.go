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

package renderer

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/SterTheStar/kaede/pkg/gpu"
)

var trailingHexRe = regexp.MustCompile(`\(0x([0-9a-fA-F]+)\)\s*$`)

func parseGLXInfo(out string) (Info, bool) {
	info := Info{API: gpu.APIOpenGL}
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "OpenGL renderer string":
			info.Renderer = value
		case "OpenGL vendor string":
			info.Vendor = value
		case "OpenGL version string":
			info.Version = value
			info.Driver = glDriver(value)
		case "Vendor":
			if m := trailingHexRe.FindStringSubmatch(value); m != nil {
				info.VendorID = gpu.NormalizeID(m[1])
			}
		case "Device":
			if m := trailingHexRe.FindStringSubmatch(value); m != nil {
				info.DeviceID = gpu.NormalizeID(m[1])
			}
		}
	}
	return info, info.Renderer != ""
}

// glDriver pulls "Mesa 23.3.3" or "NVIDIA 545.29.06" out of a GL version
// string, falling back to the whole string.
func glDriver(version string) string {
	fields := strings.Fields(version)
	for i, f := range fields {
		if (f == "Mesa" || f == "NVIDIA") && i+1 < len(fields) {
			return f + " " + fields[i+1]
		}
	}
	return version
}

type vkDevice struct {
	fields map[string]string
}

func (d vkDevice) isCPU() bool {
	return strings.Contains(d.fields["deviceType"], "CPU")
}

func parseVulkanInfo(out string) (Info, bool) {
	var (
		devices []vkDevice
		cur     *vkDevice
	)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "GPU") && strings.HasSuffix(line, ":") {
			devices = append(devices, vkDevice{fields: map[string]string{}})
			cur = &devices[len(devices)-1]
			continue
		}
		if cur == nil {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		cur.fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if len(devices) == 0 {
		return Info{}, false
	}

	chosen := devices[0]
	for _, d := range devices {
		if !d.isCPU() {
			chosen = d
			break
		}
	}
	f := chosen.fields
	if f["deviceName"] == "" {
		return Info{}, false
	}

	info := Info{
		API:      gpu.APIVulkan,
		Renderer: f["deviceName"],
		Driver:   f["driverName"],
		Version:  f["driverInfo"],
		VendorID: gpu.NormalizeID(f["vendorID"]),
		DeviceID: gpu.NormalizeID(f["deviceID"]),
	}
	if info.Version == "" {
		info.Version = f["driverVersion"]
	}
	return info, true
}
