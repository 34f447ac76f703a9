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

// Package override turns a resolved variable set into a reversible change
// of whatever launch mechanism backs an application. Every kind runs the
// same cycle: locate the target, read it, compute the new state in memory,
// back up the original once, then commit atomically.
package override

import (
	"context"
	"fmt"

	"github.com/SterTheStar/kaede/pkg/apps"
	"github.com/SterTheStar/kaede/pkg/envvars"
	"github.com/SterTheStar/kaede/pkg/launchers/flatpak"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Op is the operation a plan is computed for.
type Op int

const (
	OpApply Op = iota
	OpReset
)

func (o Op) String() string {
	if o == OpReset {
		return "reset"
	}
	return "apply"
}

// Target is one handler's view of what it edits. Path is a file path or,
// for command based kinds, the command line.
type Target struct {
	Path    string
	Source  string
	Warning string
	Current []byte
	// SourceData is the content an apply starts from. It equals Current
	// unless the handler writes a copy of another file.
	SourceData []byte
	Exists     bool
	entry      apps.Entry
}

// Plan is the outcome of Mutate.
type Plan struct {
	Env     *envvars.Set
	Data    []byte
	Message string
	// RestoreFrom is renamed over the target instead of writing Data.
	RestoreFrom string
	Op          Op
	// Remove deletes the target instead of writing Data.
	Remove  bool
	Changed bool
}

// Handler implements one persistence format.
type Handler interface {
	Locate(ctx context.Context, entry *apps.Entry) (*Target, error)
	Snapshot(t *Target) error
	Mutate(t *Target, op Op, env *envvars.Set) (*Plan, error)
	Backup(t *Target, plan *Plan) (string, error)
	Commit(ctx context.Context, t *Target, plan *Plan) error
}

// Result describes what an Apply or Reset did.
type Result struct {
	Err     error
	Target  string
	Backup  string
	Message string
	Changed bool
	OK      bool
}

// Engine dispatches entries to the handler for their integration kind.
type Engine struct {
	handlers map[apps.IntegrationKind]Handler
}

// NewEngine builds an engine from a closed handler table.
func NewEngine(handlers map[apps.IntegrationKind]Handler) *Engine {
	return &Engine{handlers: handlers}
}

// Apply writes env into the launch mechanism of entry. An empty set has
// nothing to pin, so it clears any override an earlier apply left.
func (e *Engine) Apply(ctx context.Context, entry *apps.Entry, env *envvars.Set) Result {
	return e.run(ctx, entry, OpApply, env)
}

// Reset removes Kaede's variables from the launch mechanism of entry.
func (e *Engine) Reset(ctx context.Context, entry *apps.Entry) Result {
	return e.run(ctx, entry, OpReset, nil)
}

func (e *Engine) run(ctx context.Context, entry *apps.Entry, op Op, env *envvars.Set) Result {
	if op == OpApply && env.Len() == 0 {
		op, env = OpReset, nil
	}
	logger := log.With().
		Str("app", entry.ID).
		Stringer("kind", entry.Kind()).
		Stringer("op", op).
		Logger()

	h, ok := e.handlers[entry.Kind()]
	if !ok {
		return failed(Result{}, fmt.Errorf("%w: %s", ErrNoHandler, entry.Kind()))
	}

	t, err := h.Locate(ctx, entry)
	if err != nil {
		return failed(Result{}, err)
	}
	res := Result{Target: t.Path}
	if t.Warning != "" {
		logger.Warn().Str("target", t.Path).Msg(t.Warning)
	}

	if err := h.Snapshot(t); err != nil {
		return failed(res, err)
	}
	plan, err := h.Mutate(t, op, env)
	if err != nil {
		return failed(res, err)
	}
	if !plan.Changed {
		res.OK = true
		res.Message = plan.Message
		if res.Message == "" {
			res.Message = "already up to date"
		}
		logger.Debug().Str("target", t.Path).Msg("nothing to change")
		return withWarning(res, t.Warning)
	}

	if op == OpApply {
		backup, err := h.Backup(t, plan)
		if err != nil {
			return failed(res, err)
		}
		res.Backup = backup
	}

	err = h.Commit(ctx, t, plan)
	res.Target = t.Path
	if err != nil {
		return failed(res, err)
	}

	res.OK = true
	res.Changed = true
	res.Message = plan.Message
	if res.Message == "" {
		res.Message = fmt.Sprintf("%s %s", opVerb(op), t.Path)
	}
	logger.Info().Str("target", t.Path).Str("backup", res.Backup).Msg("override committed")
	return withWarning(res, t.Warning)
}

func opVerb(op Op) string {
	if op == OpReset {
		return "reset"
	}
	return "updated"
}

func failed(res Result, err error) Result {
	log.Error().Err(err).Str("target", res.Target).Msg("override failed")
	res.OK = false
	res.Err = err
	res.Message = err.Error()
	return res
}

func withWarning(res Result, warning string) Result {
	if warning != "" {
		res.Message += " (" + warning + ")"
	}
	return res
}

// Handlers is the standard handler table.
func Handlers(
	fs afero.Fs,
	userDir string,
	client *flatpak.Client,
	steamOpts ...SteamOption,
) map[apps.IntegrationKind]Handler {
	return map[apps.IntegrationKind]Handler{
		apps.KindNative:  NewNativeHandler(fs, userDir),
		apps.KindFlatpak: NewFlatpakHandler(client),
		apps.KindSteam:   NewSteamHandler(fs, nil, steamOpts...),
		apps.KindHeroic:  NewHeroicHandler(fs),
	}
}
