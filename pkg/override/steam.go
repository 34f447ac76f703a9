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

package override

import (
	"context"
	"fmt"

	"github.com/SterTheStar/kaede/pkg/apps"
	"github.com/SterTheStar/kaede/pkg/envvars"
	"github.com/SterTheStar/kaede/pkg/launchers/steam"
	"github.com/spf13/afero"
)

const steamRunningWarning = "Steam is running and may overwrite localconfig.vdf when it exits"

// SteamHandler patches LaunchOptions in a user's localconfig.vdf.
type SteamHandler struct {
	running    func(ctx context.Context) bool
	store      fileStore
	envWrapper bool
}

type SteamOption func(*SteamHandler)

// WithEnvWrapper writes LaunchOptions as "env VAR=... %command%".
func WithEnvWrapper(enabled bool) SteamOption {
	return func(h *SteamHandler) {
		h.envWrapper = enabled
	}
}

// NewSteamHandler checks for a running client with running; nil uses
// steam.IsRunning.
func NewSteamHandler(fs afero.Fs, running func(ctx context.Context) bool, opts ...SteamOption) *SteamHandler {
	if running == nil {
		running = steam.IsRunning
	}
	h := &SteamHandler{store: fileStore{fs: fs}, running: running}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *SteamHandler) Locate(ctx context.Context, entry *apps.Entry) (*Target, error) {
	loc, ok := entry.Locator.(apps.SteamLocator)
	if !ok {
		return nil, &LocateError{Path: entry.Path, Err: ErrWrongLocator}
	}
	if loc.LocalConfig == "" {
		return nil, &LocateError{Path: entry.Path, Err: fmt.Errorf("no localconfig.vdf for app %s", loc.AppID)}
	}
	t := &Target{Path: loc.LocalConfig, Source: loc.AppID, entry: *entry}
	if h.running(ctx) {
		t.Warning = steamRunningWarning
	}
	return t, nil
}

func (h *SteamHandler) Snapshot(t *Target) error {
	data, _, err := h.store.read(t.Path, true)
	if err != nil {
		return err
	}
	t.Current, t.SourceData, t.Exists = data, data, true
	return nil
}

func (h *SteamHandler) Mutate(t *Target, op Op, env *envvars.Set) (*Plan, error) {
	if err := steam.Validate(t.Current); err != nil {
		return nil, &ParseError{Path: t.Path, Err: err}
	}
	compute := func(current string) string {
		if op == OpReset {
			return steam.ResetLaunchOptions(current)
		}
		return steam.BuildLaunchOptions(env, current, h.envWrapper)
	}
	data, changed, err := steam.PatchLaunchOptions(t.Current, t.Source, compute)
	if err != nil {
		return nil, &ParseError{Path: t.Path, Err: err}
	}
	return &Plan{Op: op, Env: env, Data: data, Changed: changed}, nil
}

func (h *SteamHandler) Backup(t *Target, _ *Plan) (string, error) {
	return h.store.backupOnce(t.Path, steam.BackupSuffix, t.Current)
}

func (h *SteamHandler) Commit(_ context.Context, t *Target, plan *Plan) error {
	return h.store.commit(t.Path, plan)
}
