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

package gpu

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/SterTheStar/kaede/pkg/helpers/command"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	// DefaultDRMDir is the DRM class directory in sysfs.
	DefaultDRMDir = "/sys/class/drm"
	// DefaultDevDir holds the render node device files.
	DefaultDevDir = "/dev/dri"
)

// ErrNoGPU is returned when no card entry exists under the DRM class tree.
var ErrNoGPU = errors.New("no GPU found")

// Scanner enumerates GPUs. The zero value is not usable, use NewScanner.
type Scanner struct {
	fs      afero.Fs
	cmd     command.Executor
	drmDir  string
	devDir  string
	timeout time.Duration
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithFs replaces the filesystem the sysfs and /dev trees are read from.
func WithFs(fs afero.Fs) Option {
	return func(s *Scanner) { s.fs = fs }
}

// WithRoots overrides the DRM class and render node directories.
func WithRoots(drmDir, devDir string) Option {
	return func(s *Scanner) {
		s.drmDir = drmDir
		s.devDir = devDir
	}
}

// WithTimeout bounds the lspci call.
func WithTimeout(d time.Duration) Option {
	return func(s *Scanner) { s.timeout = d }
}

// NewScanner returns a Scanner reading the real system through cmd.
func NewScanner(cmd command.Executor, opts ...Option) *Scanner {
	s := &Scanner{
		fs:      afero.NewOsFs(),
		cmd:     cmd,
		drmDir:  DefaultDRMDir,
		devDir:  DefaultDevDir,
		timeout: command.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type cardInfo struct {
	name       string
	driver     string
	vendorID   string
	deviceID   string
	slot       string
	renderNode string
	number     int
}

// Scan returns every GPU ordered by card number. The position in the
// result is the DRI_PRIME index. lspci failures only drop naming and
// vendor classification.
func (s *Scanner) Scan(ctx context.Context) ([]Device, error) {
	cards, err := s.readCards()
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoGPU, s.drmDir)
	}

	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].number < cards[j].number
	})

	fallback := s.devRenderNodes()
	for i := range cards {
		if cards[i].renderNode == "" && i < len(fallback) {
			cards[i].renderNode = fallback[i]
		}
	}

	pci, pciErr := s.lspci(ctx)
	if pciErr != nil {
		log.Warn().Err(pciErr).Msg("lspci unavailable, GPU vendor classes will be unknown")
	}

	devices := make([]Device, 0, len(cards))
	for i := range cards {
		c := &cards[i]
		dev := Device{
			Index:      i,
			Card:       c.name,
			BusAddress: c.slot,
			VendorID:   c.vendorID,
			DeviceID:   c.deviceID,
			Driver:     c.driver,
			RenderNode: c.renderNode,
			Model:      c.name,
		}
		rec, havePCI := pci[c.slot]
		if havePCI {
			dev.PCI = &PCIInfo{
				Slot:        rec.Slot,
				Class:       rec.Class,
				Description: rec.Description,
			}
			if rec.Description != "" {
				dev.Model = rec.Description
			}
			if dev.VendorID == "" {
				dev.VendorID = rec.VendorID
			}
			if dev.DeviceID == "" {
				dev.DeviceID = rec.DeviceID
			}
		}
		dev.Class = Classify(dev.VendorID, dev.Driver, havePCI)
		log.Debug().
			Int("index", dev.Index).
			Str("card", dev.Card).
			Str("slot", dev.BusAddress).
			Str("driver", dev.Driver).
			Str("class", dev.Class.String()).
			Msg("found GPU")
		devices = append(devices, dev)
	}
	return devices, nil
}

func (s *Scanner) readCards() ([]cardInfo, error) {
	entries, err := afero.ReadDir(s.fs, s.drmDir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrNoGPU, s.drmDir, err)
	}

	var cards []cardInfo
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "card") || strings.Contains(name, "-") {
			continue
		}
		num, err := strconv.Atoi(strings.TrimPrefix(name, "card"))
		if err != nil {
			continue
		}
		c := cardInfo{name: name, number: num}
		devPath := filepath.Join(s.drmDir, name, "device")
		s.readUevent(filepath.Join(devPath, "uevent"), &c)
		if c.driver == "" {
			c.driver = s.driverLink(devPath)
		}
		c.renderNode = s.sysfsRenderNode(devPath)
		cards = append(cards, c)
	}
	return cards, nil
}

func (s *Scanner) readUevent(path string, c *cardInfo) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("no uevent for card")
		return
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "DRIVER":
			c.driver = value
		case "PCI_SLOT_NAME":
			c.slot = NormalizeSlot(value)
		case "PCI_ID":
			vendor, device, found := strings.Cut(value, ":")
			if found {
				c.vendorID = NormalizeID(vendor)
				c.deviceID = NormalizeID(device)
			}
		}
	}
}

func (s *Scanner) driverLink(devPath string) string {
	lr, ok := s.fs.(afero.LinkReader)
	if !ok {
		return ""
	}
	target, err := lr.ReadlinkIfPossible(filepath.Join(devPath, "driver"))
	if err != nil {
		return ""
	}
	return filepath.Base(target)
}

func (s *Scanner) sysfsRenderNode(devPath string) string {
	entries, err := afero.ReadDir(s.fs, filepath.Join(devPath, "drm"))
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "renderD") {
			return filepath.Join(s.devDir, e.Name())
		}
	}
	return ""
}

func (s *Scanner) devRenderNodes() []string {
	entries, err := afero.ReadDir(s.fs, s.devDir)
	if err != nil {
		return nil
	}
	var nodes []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "renderD") {
			nodes = append(nodes, filepath.Join(s.devDir, e.Name()))
		}
	}
	sort.Strings(nodes)
	return nodes
}

func (s *Scanner) lspci(ctx context.Context) (map[string]PCIRecord, error) {
	ctx, cancel := command.Bounded(ctx, s.timeout)
	defer cancel()

	out, err := s.cmd.Output(ctx, "lspci", "-nn")
	if err != nil {
		return nil, command.Classify(ctx, command.Describe("lspci", "-nn"), err)
	}
	return ParseLspci(string(out)), nil
}
