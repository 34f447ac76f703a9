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

// Package service ties the inventory, index, resolver and override engine
// together behind the operations the CLI exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SterTheStar/kaede/pkg/apps"
	"github.com/SterTheStar/kaede/pkg/config"
	"github.com/SterTheStar/kaede/pkg/gpu"
	"github.com/SterTheStar/kaede/pkg/gpu/renderer"
	"github.com/SterTheStar/kaede/pkg/helpers"
	"github.com/SterTheStar/kaede/pkg/helpers/command"
	"github.com/SterTheStar/kaede/pkg/helpers/syncutil"
	"github.com/SterTheStar/kaede/pkg/launchers/flatpak"
	"github.com/SterTheStar/kaede/pkg/launchers/heroic"
	"github.com/SterTheStar/kaede/pkg/launchers/steam"
	"github.com/SterTheStar/kaede/pkg/override"
	"github.com/SterTheStar/kaede/pkg/resolver"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownApp = errors.New("unknown application")
	ErrUnknownGPU = errors.New("unknown gpu")
)

// Options wires the service to its environment. Zero values select the
// real machine.
type Options struct {
	Fs          afero.Fs
	Cmd         command.Executor
	Handlers    map[apps.IntegrationKind]override.Handler
	Home        string
	UserAppsDir string
	SearchPaths []string
	GPUOptions  []gpu.Option
}

// Service is safe for concurrent use. Apply and Reset run one at a time.
type Service struct {
	cfg         *config.Instance
	cmd         command.Executor
	scanner     *gpu.Scanner
	indexer     *apps.Indexer
	engine      *override.Engine
	searchPaths []string
	devices     []gpu.Device
	entries     []apps.Entry
	applyMu     syncutil.Mutex
	stateMu     syncutil.RWMutex
}

func New(cfg *config.Instance, opts Options) *Service {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Cmd == nil {
		opts.Cmd = &command.RealExecutor{}
	}
	if opts.Home == "" {
		opts.Home = helpers.HomeDir()
	}
	if opts.UserAppsDir == "" {
		opts.UserAppsDir = helpers.UserApplicationsDir()
	}
	if opts.SearchPaths == nil {
		opts.SearchPaths = append(apps.DefaultSearchPaths(), cfg.ExtraAppDirs()...)
	}
	if opts.Handlers == nil {
		opts.Handlers = override.Handlers(opts.Fs, opts.UserAppsDir, flatpak.NewClient(opts.Cmd, 0),
			override.WithEnvWrapper(cfg.SteamEnvWrapper()))
	}

	gpuOpts := append([]gpu.Option{
		gpu.WithFs(opts.Fs),
		gpu.WithTimeout(cfg.ProbeTimeout()),
	}, opts.GPUOptions...)

	return &Service{
		cfg:     cfg,
		cmd:     opts.Cmd,
		scanner: gpu.NewScanner(opts.Cmd, gpuOpts...),
		indexer: apps.NewIndexer(opts.Fs,
			steam.NewInstall(opts.Fs, steam.Roots(opts.Home)),
			heroic.NewConfigs(opts.Fs, heroic.ConfigDirs(opts.Home)),
		),
		engine:      override.NewEngine(opts.Handlers),
		searchPaths: opts.SearchPaths,
	}
}

// Refresh rescans GPUs and applications concurrently. Both snapshots are
// replaced even when the GPU scan fails, whose error is returned.
func (s *Service) Refresh(ctx context.Context) error {
	var (
		devices []gpu.Device
		entries []apps.Entry
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		devices, err = s.scanner.Scan(ctx)
		if err != nil {
			return fmt.Errorf("failed to scan gpus: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		entries = s.indexer.Scan(s.searchPaths)
		return nil
	})
	err := g.Wait()

	s.stateMu.Lock()
	s.devices = devices
	s.entries = entries
	s.stateMu.Unlock()

	log.Info().Int("gpus", len(devices)).Int("apps", len(entries)).Msg("refreshed inventory")
	return err
}

func (s *Service) Devices() []gpu.Device {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return append([]gpu.Device(nil), s.devices...)
}

// Apps returns indexed entries, hiding kinds disabled in the config.
func (s *Service) Apps() []apps.Entry {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	out := make([]apps.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if s.visible(e.Kind()) {
			out = append(out, e)
		}
	}
	return out
}

func (s *Service) visible(kind apps.IntegrationKind) bool {
	switch kind {
	case apps.KindSteam:
		return s.cfg.ShowSteamApps()
	case apps.KindHeroic:
		return s.cfg.ShowHeroicApps()
	case apps.KindFlatpak:
		return s.cfg.ShowFlatpakApps()
	default:
		return true
	}
}

func (s *Service) App(id string) (apps.Entry, error) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	e, ok := apps.Find(s.entries, id)
	if !ok {
		if hints := apps.Suggest(s.entries, id); len(hints) > 0 {
			return apps.Entry{}, fmt.Errorf("%w: %s (did you mean %s?)",
				ErrUnknownApp, id, strings.Join(hints, ", "))
		}
		return apps.Entry{}, fmt.Errorf("%w: %s", ErrUnknownApp, id)
	}
	return e, nil
}

// Device returns the GPU with the given DRI_PRIME index.
func (s *Service) Device(index int) (gpu.Device, error) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	for _, d := range s.devices {
		if d.Index == index {
			return d, nil
		}
	}
	return gpu.Device{}, fmt.Errorf("%w: %d", ErrUnknownGPU, index)
}

// SelectedDevice returns the GPU stored for appID, matched by bus address
// first since card numbering can change between boots.
func (s *Service) SelectedDevice(appID string) (gpu.Device, config.Selection, bool) {
	sel, ok := s.cfg.Selection(appID)
	if !ok {
		return gpu.Device{}, sel, false
	}
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if sel.GPUBusAddress != "" {
		for _, d := range s.devices {
			if d.BusAddress == sel.GPUBusAddress {
				return d, sel, true
			}
		}
	}
	for _, d := range s.devices {
		if d.Index == sel.GPUIndex {
			return d, sel, true
		}
	}
	return gpu.Device{}, sel, false
}

// Renderer reports what renders by default, or with dev selected when dev
// is not nil.
func (s *Service) Renderer(ctx context.Context, dev *gpu.Device) (renderer.Info, error) {
	p := renderer.NewProber(s.cmd, s.Devices(), s.cfg.ProbeTimeout())
	if dev != nil {
		return p.ProbeDevice(ctx, dev)
	}
	return p.Probe(ctx)
}

// Resolve computes the variables Apply would write without touching
// anything.
func (s *Service) Resolve(appID string, gpuIndex int, api gpu.API) (resolver.Resolution, error) {
	entry, err := s.App(appID)
	if err != nil {
		return resolver.Resolution{}, err
	}
	dev, err := s.Device(gpuIndex)
	if err != nil {
		return resolver.Resolution{}, err
	}
	return resolver.Resolve(&dev, api, entry.Kind()), nil
}

// Inspect reads the override currently stored for appID.
func (s *Service) Inspect(ctx context.Context, appID string) (*override.Current, error) {
	entry, err := s.App(appID)
	if err != nil {
		return nil, err
	}
	cur, err := s.engine.Inspect(ctx, &entry)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", appID, err)
	}
	return cur, nil
}
