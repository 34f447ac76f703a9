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

package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/SterTheStar/kaede/pkg/apps"
	"github.com/SterTheStar/kaede/pkg/config"
	"github.com/SterTheStar/kaede/pkg/gpu"
	"github.com/SterTheStar/kaede/pkg/override"
	"github.com/SterTheStar/kaede/pkg/resolver"
	"github.com/rs/zerolog/log"
)

// Apply pins appID to the GPU with gpuIndex and persists the choice when
// the override succeeds.
func (s *Service) Apply(ctx context.Context, appID string, gpuIndex int, api gpu.API) (override.Result, error) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	entry, err := s.App(appID)
	if err != nil {
		return override.Result{}, err
	}
	dev, err := s.Device(gpuIndex)
	if err != nil {
		return override.Result{}, err
	}

	sel := config.Selection{GPUBusAddress: dev.BusAddress, GPUIndex: dev.Index, API: api.String()}
	if err := s.resetStale(ctx, &entry, sel); err != nil {
		return override.Result{}, err
	}

	res := resolver.Resolve(&dev, api, entry.Kind())
	if res.Warning != "" {
		log.Warn().Str("app", appID).Msg(res.Warning)
	}
	result := s.engine.Apply(ctx, &entry, res.Env)
	if res.Warning != "" {
		result.Message += " (" + res.Warning + ")"
	}
	if !result.OK {
		return result, result.Err
	}

	if err := s.cfg.SetSelection(appID, sel); err != nil {
		return result, err
	}
	if err := s.cfg.Save(); err != nil {
		return result, fmt.Errorf("override applied but selection not saved: %w", err)
	}
	return result, nil
}

// resetStale clears a previous override whose keys a merge would leave
// behind. Flatpak and Heroic merge into existing variables, so switching
// from a Mesa to an NVIDIA GPU would otherwise keep DRI_PRIME.
func (s *Service) resetStale(ctx context.Context, entry *apps.Entry, next config.Selection) error {
	kind := entry.Kind()
	if kind != apps.KindFlatpak && kind != apps.KindHeroic {
		return nil
	}
	prev, ok := s.cfg.Selection(entry.ID)
	if !ok || prev == next {
		return nil
	}
	log.Debug().Str("app", entry.ID).Msg("selection changed, resetting previous override")
	if res := s.engine.Reset(ctx, entry); !res.OK {
		return fmt.Errorf("failed to reset previous override: %w", res.Err)
	}
	return nil
}

// Reset removes Kaede's override for appID and forgets its selection.
func (s *Service) Reset(ctx context.Context, appID string) (override.Result, error) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	entry, err := s.App(appID)
	if err != nil {
		return override.Result{}, err
	}
	result := s.engine.Reset(ctx, &entry)
	if !result.OK {
		return result, result.Err
	}
	if s.cfg.ClearSelection(appID) {
		if err := s.cfg.Save(); err != nil {
			return result, fmt.Errorf("override reset but selection not saved: %w", err)
		}
	}
	return result, nil
}

// ResetAll removes the override of every app with a stored selection and
// returns the config to its defaults. Selections of apps that are no
// longer installed are dropped. When an override cannot be removed its
// selection is kept, nothing else is reset, and the errors are returned.
func (s *Service) ResetAll(ctx context.Context) ([]override.Result, error) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	var (
		results []override.Result
		errs    []error
	)
	sels := s.cfg.Selections()
	for _, id := range slices.Sorted(maps.Keys(sels)) {
		entry, err := s.App(id)
		if err != nil {
			log.Warn().Err(err).Str("app", id).Msg("dropping selection of missing app")
			s.cfg.ClearSelection(id)
			continue
		}
		res := s.engine.Reset(ctx, &entry)
		results = append(results, res)
		if !res.OK {
			errs = append(errs, fmt.Errorf("%s: %w", id, res.Err))
			continue
		}
		s.cfg.ClearSelection(id)
	}

	if len(errs) == 0 {
		s.cfg.Reset()
	}
	if err := s.cfg.Save(); err != nil {
		errs = append(errs, fmt.Errorf("failed to save config: %w", err))
	}
	return results, errors.Join(errs...)
}
