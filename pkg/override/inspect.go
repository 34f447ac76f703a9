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
	"strings"

	"github.com/SterTheStar/kaede/pkg/apps"
	"github.com/SterTheStar/kaede/pkg/launchers/desktop"
	"github.com/SterTheStar/kaede/pkg/launchers/heroic"
	"github.com/SterTheStar/kaede/pkg/launchers/steam"
	"github.com/SterTheStar/kaede/pkg/resolver"
)

// Current is what a launch mechanism holds for an entry right now.
type Current struct {
	Target string
	// Value is the launch setting as stored: LaunchOptions, the Exec
	// line, or the override's variables.
	Value string
	// Env holds the Kaede variables found in Value.
	Env     []string
	Managed bool
}

// Inspector is implemented by handlers that can read back an override.
type Inspector interface {
	Inspect(ctx context.Context, t *Target) (*Current, error)
}

// Inspect reads the current override of entry without changing anything.
func (e *Engine) Inspect(ctx context.Context, entry *apps.Entry) (*Current, error) {
	h, ok := e.handlers[entry.Kind()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, entry.Kind())
	}
	in, ok := h.(Inspector)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot be inspected", ErrNoHandler, entry.Kind())
	}
	t, err := h.Locate(ctx, entry)
	if err != nil {
		return nil, err
	}
	if err := h.Snapshot(t); err != nil {
		return nil, err
	}
	return in.Inspect(ctx, t)
}

func (*SteamHandler) Inspect(_ context.Context, t *Target) (*Current, error) {
	value, _, err := steam.LaunchOptions(t.Current, t.Source)
	if err != nil {
		return nil, &ParseError{Path: t.Path, Err: err}
	}
	env := steam.ManagedAssignments(value)
	return &Current{Target: t.Path, Value: value, Env: env, Managed: len(env) > 0}, nil
}

func (*HeroicHandler) Inspect(_ context.Context, t *Target) (*Current, error) {
	pairs, err := heroic.Env(t.Current, t.Source)
	if err != nil {
		return nil, &ParseError{Path: t.Path, Err: err}
	}
	env := resolver.ManagedPairs(pairs)
	return &Current{Target: t.Path, Value: strings.Join(pairs, " "), Env: env, Managed: len(env) > 0}, nil
}

// Inspect reports the user copy when there is one, else the source entry.
func (*NativeHandler) Inspect(_ context.Context, t *Target) (*Current, error) {
	data, path := t.Current, t.Path
	if !t.Exists {
		data, path = t.SourceData, t.Source
	}
	if err := desktop.Validate(data); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	exec, _ := desktop.Exec(data)
	cur := &Current{Target: path, Value: exec}
	if t.Exists && desktop.IsManaged(t.Current) {
		cur.Managed = true
		cur.Env = resolver.ManagedPrefix(exec)
	}
	return cur, nil
}

func (h *FlatpakHandler) Inspect(ctx context.Context, t *Target) (*Current, error) {
	pairs, err := h.client.Env(ctx, t.Source)
	if err != nil {
		return nil, &LocateError{Path: t.Path, Err: err}
	}
	env := resolver.ManagedPairs(pairs)
	return &Current{Target: t.Path, Value: strings.Join(pairs, " "), Env: env, Managed: len(env) > 0}, nil
}
