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

// Package renderer asks the graphics stack which GPU actually renders,
// using glxinfo first and vulkaninfo as the fallback.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SterTheStar/kaede/pkg/apps"
	"github.com/SterTheStar/kaede/pkg/gpu"
	"github.com/SterTheStar/kaede/pkg/helpers/command"
	"github.com/SterTheStar/kaede/pkg/resolver"
	"github.com/rs/zerolog/log"
)

// ErrNoRenderer is returned when neither glxinfo nor vulkaninfo produced a
// usable answer.
var ErrNoRenderer = errors.New("no renderer information available")

// Info describes the renderer a probe observed. Device is nil when the
// answer could not be matched to an inventory entry.
type Info struct {
	Device   *gpu.Device
	Renderer string
	Vendor   string
	Version  string
	Driver   string
	VendorID string
	DeviceID string
	API      gpu.API
}

// Prober runs the renderer probes.
type Prober struct {
	cmd     command.Executor
	devices []gpu.Device
	timeout time.Duration
}

// NewProber returns a Prober cross-referencing results against devices.
// A non-positive timeout uses command.DefaultTimeout per probe.
func NewProber(cmd command.Executor, devices []gpu.Device, timeout time.Duration) *Prober {
	return &Prober{
		cmd:     cmd,
		devices: devices,
		timeout: timeout,
	}
}

// Probe reports the renderer of the default GPU.
func (p *Prober) Probe(ctx context.Context) (Info, error) {
	return p.probe(ctx, nil)
}

// ProbeDevice reports what dev renders with when selected through the
// same variables an override would inject.
func (p *Prober) ProbeDevice(ctx context.Context, dev *gpu.Device) (Info, error) {
	res := resolver.Resolve(dev, gpu.APIAuto, apps.KindNative)
	env := res.Env.Pairs()
	if len(env) == 0 {
		env = []string{"DRI_PRIME=" + strconv.Itoa(dev.Index)}
	}
	return p.probe(ctx, env)
}

func (p *Prober) probe(ctx context.Context, env []string) (Info, error) {
	info, glErr := p.run(ctx, env, parseGLXInfo, "glxinfo", "-B")
	if glErr == nil {
		return info, nil
	}
	log.Debug().Err(glErr).Msg("OpenGL probe failed, trying Vulkan")

	info, vkErr := p.run(ctx, env, parseVulkanInfo, "vulkaninfo", "--summary")
	if vkErr == nil {
		return info, nil
	}
	log.Debug().Err(vkErr).Msg("Vulkan probe failed")

	return Info{}, fmt.Errorf("%w: %w", ErrNoRenderer, errors.Join(glErr, vkErr))
}

func (p *Prober) run(
	ctx context.Context,
	env []string,
	parse func(string) (Info, bool),
	name string,
	args ...string,
) (Info, error) {
	ctx, cancel := command.Bounded(ctx, p.timeout)
	defer cancel()

	var (
		out []byte
		err error
	)
	if len(env) > 0 {
		out, err = p.cmd.OutputWithEnv(ctx, env, name, args...)
	} else {
		out, err = p.cmd.Output(ctx, name, args...)
	}
	desc := command.Describe(name, args...)
	if err != nil {
		return Info{}, command.Classify(ctx, desc, err)
	}

	info, ok := parse(string(out))
	if !ok {
		return Info{}, fmt.Errorf("%s: no renderer in output", desc)
	}
	info.Device = Match(p.devices, &info)
	return info, nil
}

var vendorHints = []struct {
	id    string
	names []string
}{
	{id: gpu.VendorIDNVIDIA, names: []string{"nvidia", "geforce", "quadro"}},
	{id: gpu.VendorIDAMD, names: []string{"amd", "radeon", "radv"}},
	{id: gpu.VendorIDIntel, names: []string{"intel", "iris", "uhd graphics"}},
}

// Match finds the inventory device behind info: by PCI ids first, then by
// a vendor name in the renderer string when only one device has that
// vendor.
func Match(devices []gpu.Device, info *Info) *gpu.Device {
	if info.VendorID != "" && info.DeviceID != "" {
		for i := range devices {
			if devices[i].VendorID == info.VendorID && devices[i].DeviceID == info.DeviceID {
				return &devices[i]
			}
		}
	}

	vendor := info.VendorID
	if vendor == "" {
		text := strings.ToLower(info.Renderer + " " + info.Vendor)
		for _, h := range vendorHints {
			for _, n := range h.names {
				if strings.Contains(text, n) {
					vendor = h.id
					break
				}
			}
			if vendor != "" {
				break
			}
		}
	}
	if vendor == "" {
		return nil
	}

	var found *gpu.Device
	for i := range devices {
		if devices[i].VendorID != vendor {
			continue
		}
		if found != nil {
			return nil
		}
		found = &devices[i]
	}
	return found
}
