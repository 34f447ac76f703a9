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
	"github.com/SterTheStar/kaede/pkg/launchers/flatpak"
	"github.com/SterTheStar/kaede/pkg/resolver"
)

// FlatpakHandler drives `flatpak override --user`. Flatpak keeps its own
// override store, so there is nothing to snapshot or back up.
type FlatpakHandler struct {
	client *flatpak.Client
}

func NewFlatpakHandler(client *flatpak.Client) *FlatpakHandler {
	return &FlatpakHandler{client: client}
}

func (h *FlatpakHandler) Locate(_ context.Context, entry *apps.Entry) (*Target, error) {
	loc, ok := entry.Locator.(apps.FlatpakLocator)
	if !ok {
		return nil, &LocateError{Path: entry.Path, Err: ErrWrongLocator}
	}
	if !flatpak.ValidAppID(loc.AppID) {
		return nil, &LocateError{Path: entry.Path, Err: fmt.Errorf("invalid flatpak app id %q", loc.AppID)}
	}
	return &Target{
		Path:   "flatpak override --user " + loc.AppID,
		Source: loc.AppID,
		entry:  *entry,
	}, nil
}

func (*FlatpakHandler) Snapshot(*Target) error {
	return nil
}

func (*FlatpakHandler) Mutate(_ *Target, op Op, env *envvars.Set) (*Plan, error) {
	return &Plan{Op: op, Env: env, Changed: true}, nil
}

func (*FlatpakHandler) Backup(*Target, *Plan) (string, error) {
	return "", nil
}

func (h *FlatpakHandler) Commit(ctx context.Context, t *Target, plan *Plan) error {
	var (
		desc string
		err  error
	)
	if plan.Op == OpReset {
		desc, err = h.client.UnsetEnv(ctx, t.Source, resolver.ManagedKeys)
	} else {
		desc, err = h.client.SetEnv(ctx, t.Source, plan.Env)
	}
	if desc != "" {
		t.Path = desc
	}
	if err != nil {
		return &CommitError{Path: t.Path, Err: err}
	}
	return nil
}
