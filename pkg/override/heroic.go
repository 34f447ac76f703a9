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

	"github.com/SterTheStar/kaede/pkg/apps"
	"github.com/SterTheStar/kaede/pkg/envvars"
	"github.com/SterTheStar/kaede/pkg/launchers/heroic"
	"github.com/spf13/afero"
)

// HeroicHandler merges variables into a game's GamesConfig JSON.
type HeroicHandler struct {
	store fileStore
}

func NewHeroicHandler(fs afero.Fs) *HeroicHandler {
	return &HeroicHandler{store: fileStore{fs: fs}}
}

func (*HeroicHandler) Locate(_ context.Context, entry *apps.Entry) (*Target, error) {
	loc, ok := entry.Locator.(apps.HeroicLocator)
	if !ok {
		return nil, &LocateError{Path: entry.Path, Err: ErrWrongLocator}
	}
	if loc.ConfigPath == "" || loc.AppName == "" {
		return nil, &LocateError{Path: entry.Path, Err: heroic.ErrNoGame}
	}
	return &Target{Path: loc.ConfigPath, Source: loc.AppName, entry: *entry}, nil
}

func (h *HeroicHandler) Snapshot(t *Target) error {
	data, _, err := h.store.read(t.Path, true)
	if err != nil {
		return err
	}
	t.Current, t.SourceData, t.Exists = data, data, true
	return nil
}

func (*HeroicHandler) Mutate(t *Target, op Op, env *envvars.Set) (*Plan, error) {
	var (
		data    []byte
		changed bool
		err     error
	)
	if op == OpReset {
		data, changed, err = heroic.ResetEnv(t.Current, t.Source)
	} else {
		data, changed, err = heroic.PatchEnv(t.Current, t.Source, env)
	}
	if err != nil {
		return nil, &ParseError{Path: t.Path, Err: err}
	}
	return &Plan{Op: op, Env: env, Data: data, Changed: changed}, nil
}

func (h *HeroicHandler) Backup(t *Target, _ *Plan) (string, error) {
	return h.store.backupOnce(t.Path, heroic.BackupSuffix, t.Current)
}

func (h *HeroicHandler) Commit(_ context.Context, t *Target, plan *Plan) error {
	return h.store.commit(t.Path, plan)
}
