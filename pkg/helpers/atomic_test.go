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

package helpers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	t.Run("creates_new_file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "localconfig.vdf")

		err := WriteFileAtomic(afero.NewOsFs(), path, []byte("hello"), 0o600)
		require.NoError(t, err)

		data, err := os.ReadFile(path) //nolint:gosec // test path
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temp file must not be left behind")
	})

	t.Run("replaces_content_and_keeps_mode", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "game.json")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0o640))

		err := WriteFileAtomic(afero.NewOsFs(), path, []byte("new"), 0o600)
		require.NoError(t, err)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
		data, err := os.ReadFile(path) //nolint:gosec // test path
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
	})

	t.Run("fails_when_directory_missing", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "missing", "file")

		err := WriteFileAtomic(afero.NewOsFs(), path, []byte("x"), 0o600)
		require.Error(t, err)
	})

	t.Run("works_on_memory_fs", func(t *testing.T) {
		t.Parallel()

		mfs := afero.NewMemMapFs()
		require.NoError(t, mfs.MkdirAll("/cfg", 0o755))

		err := WriteFileAtomic(mfs, "/cfg/a.json", []byte("{}"), 0o600)
		require.NoError(t, err)

		data, err := afero.ReadFile(mfs, "/cfg/a.json")
		require.NoError(t, err)
		assert.Equal(t, "{}", string(data))
	})
}

func TestWriteFileIfMissing(t *testing.T) {
	t.Parallel()

	mfs := afero.NewMemMapFs()
	require.NoError(t, mfs.MkdirAll("/cfg", 0o755))

	created, err := WriteFileIfMissing(mfs, "/cfg/a.bak", []byte("first"), 0o600)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = WriteFileIfMissing(mfs, "/cfg/a.bak", []byte("second"), 0o600)
	require.NoError(t, err)
	assert.False(t, created)

	data, err := afero.ReadFile(mfs, "/cfg/a.bak")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}
