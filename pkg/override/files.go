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
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/SterTheStar/kaede/pkg/helpers"
	"github.com/spf13/afero"
)

const (
	dirMode  = 0o755
	fileMode = 0o644
)

// fileStore holds the file operations shared by file backed handlers.
type fileStore struct {
	fs afero.Fs
}

func (s fileStore) read(path string, mustExist bool) (data []byte, exists bool, err error) {
	data, err = afero.ReadFile(s.fs, path)
	switch {
	case err == nil:
		return data, true, nil
	case errors.Is(err, fs.ErrNotExist) && !mustExist:
		return nil, false, nil
	default:
		return nil, false, &LocateError{Path: path, Err: err}
	}
}

// backupOnce copies data to path+suffix unless a backup already exists,
// so the first pristine copy is never overwritten.
func (s fileStore) backupOnce(path, suffix string, data []byte) (string, error) {
	backup := path + suffix
	if _, err := helpers.WriteFileIfMissing(s.fs, backup, data, fileMode); err != nil {
		return "", &CommitError{Path: backup, Err: err}
	}
	return backup, nil
}

func (s fileStore) commit(path string, plan *Plan) error {
	switch {
	case plan.RestoreFrom != "":
		if err := s.fs.Rename(plan.RestoreFrom, path); err != nil {
			return &CommitError{Path: path, Err: fmt.Errorf("restoring %s: %w", plan.RestoreFrom, err)}
		}
	case plan.Remove:
		if err := s.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &CommitError{Path: path, Err: err}
		}
	default:
		if err := s.fs.MkdirAll(filepath.Dir(path), dirMode); err != nil {
			return &CommitError{Path: path, Err: err}
		}
		if err := helpers.WriteFileAtomic(s.fs, path, plan.Data, fileMode); err != nil {
			return &CommitError{Path: path, Err: err}
		}
	}
	return nil
}
