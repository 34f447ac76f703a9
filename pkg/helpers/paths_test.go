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
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
)

func TestConfigPath(t *testing.T) {
	t.Run("env_override", func(t *testing.T) {
		t.Setenv(CfgEnv, "/tmp/kaede-test/config.toml")
		assert.Equal(t, "/tmp/kaede-test/config.toml", ConfigPath())
	})

	t.Run("xdg_default", func(t *testing.T) {
		t.Setenv(CfgEnv, "")
		assert.Equal(t, filepath.Join(xdg.ConfigHome, AppName, "config.toml"), ConfigPath())
	})
}

func TestUserDirs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join(xdg.DataHome, "applications"), UserApplicationsDir())
	assert.Equal(t, filepath.Join(xdg.StateHome, AppName), LogDir())
	assert.NotEmpty(t, HomeDir())
}
