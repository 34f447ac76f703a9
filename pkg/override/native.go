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
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/SterTheStar/kaede/pkg/apps"
	"github.com/SterTheStar/kaede/pkg/envvars"
	"github.com/SterTheStar/kaede/pkg/launchers/desktop"
	"github.com/spf13/afero"
)

const defaultIcon = "application-x-executable"

// NativeHandler writes a copy of the entry's desktop file into the user
// applications directory with a wrapped Exec line.
type NativeHandler struct {
	store   fileStore
	userDir string
}

// NewNativeHandler writes overrides under userDir.
func NewNativeHandler(fs afero.Fs, userDir string) *NativeHandler {
	return &NativeHandler{store: fileStore{fs: fs}, userDir: userDir}
}

func (h *NativeHandler) Locate(_ context.Context, entry *apps.Entry) (*Target, error) {
	loc, ok := entry.Locator.(apps.NativeLocator)
	if !ok {
		return nil, &LocateError{Path: entry.Path, Err: ErrWrongLocator}
	}
	id := entry.ID
	if id == "" || strings.ContainsAny(id, `/\`) || !strings.HasSuffix(id, ".desktop") {
		return nil, &LocateError{Path: id, Err: fmt.Errorf("invalid desktop file id %q", id)}
	}
	source := loc.DesktopPath
	if source == "" {
		source = entry.Path
	}
	return &Target{
		Path:   filepath.Join(h.userDir, id),
		Source: source,
		entry:  *entry,
	}, nil
}

func (h *NativeHandler) Snapshot(t *Target) error {
	current, exists, err := h.store.read(t.Path, false)
	if err != nil {
		return err
	}
	t.Current, t.Exists = current, exists
	if t.Source == t.Path {
		t.SourceData = current
		return nil
	}
	source, _, err := h.store.read(t.Source, false)
	if err != nil {
		return err
	}
	t.SourceData = source
	return nil
}

func (h *NativeHandler) Mutate(t *Target, op Op, env *envvars.Set) (*Plan, error) {
	if err := desktop.Validate(t.Current); err != nil {
		return nil, &ParseError{Path: t.Path, Err: err}
	}
	if op == OpReset {
		return h.planReset(t)
	}

	if err := desktop.Validate(t.SourceData); err != nil {
		return nil, &ParseError{Path: t.Source, Err: err}
	}
	base := t.SourceData
	if len(bytes.TrimSpace(base)) == 0 {
		base = minimalDesktop(&t.entry)
	}
	original, ok := desktop.OriginalExec(base)
	if !ok || original == "" {
		return nil, &ParseError{Path: t.Source, Err: fmt.Errorf("no Exec in %s", desktop.MainGroup)}
	}
	data, err := desktop.Rewrite(base, desktop.WrapExec(original, env), original)
	if err != nil {
		return nil, &ParseError{Path: t.Source, Err: err}
	}
	return &Plan{
		Op:      op,
		Env:     env,
		Data:    data,
		Changed: !t.Exists || !bytes.Equal(data, t.Current),
	}, nil
}

func (h *NativeHandler) planReset(t *Target) (*Plan, error) {
	if !t.Exists || !desktop.IsManaged(t.Current) {
		return &Plan{Op: OpReset, Message: "no Kaede override at " + t.Path}, nil
	}
	backup := t.Path + desktop.BackupSuffix
	if ok, _ := afero.Exists(h.store.fs, backup); ok {
		return &Plan{Op: OpReset, RestoreFrom: backup, Changed: true,
			Message: "restored " + t.Path + " from " + backup}, nil
	}
	return &Plan{Op: OpReset, Remove: true, Changed: true, Message: "removed " + t.Path}, nil
}

// Backup keeps an unmanaged file found at the target. Kaede's own files
// need none since reset removes them.
func (h *NativeHandler) Backup(t *Target, _ *Plan) (string, error) {
	if !t.Exists {
		return "", nil
	}
	if desktop.IsManaged(t.Current) {
		backup := t.Path + desktop.BackupSuffix
		if ok, _ := afero.Exists(h.store.fs, backup); ok {
			return backup, nil
		}
		return "", nil
	}
	return h.store.backupOnce(t.Path, desktop.BackupSuffix, t.Current)
}

func (h *NativeHandler) Commit(_ context.Context, t *Target, plan *Plan) error {
	return h.store.commit(t.Path, plan)
}

// minimalDesktop stands in for a source file that is empty or gone.
func minimalDesktop(e *apps.Entry) []byte {
	icon := e.Icon
	if icon == "" {
		icon = defaultIcon
	}
	var b strings.Builder
	b.WriteString(desktop.MainGroup + "\n")
	b.WriteString("Type=Application\n")
	b.WriteString("Name=" + e.Name + "\n")
	b.WriteString("Icon=" + icon + "\n")
	b.WriteString("Exec=" + e.RawExec + "\n")
	b.WriteString("Terminal=false\n")
	return []byte(b.String())
}
