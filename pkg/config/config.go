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

package config

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"time"

	"github.com/SterTheStar/kaede/pkg/helpers"
	"github.com/SterTheStar/kaede/pkg/helpers/syncutil"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	SchemaVersion = 1
	CfgFile       = "config.toml"
)

// DefaultProbeTimeout bounds lspci, glxinfo and vulkaninfo.
const DefaultProbeTimeout = 5 * time.Second

var ErrSchemaMismatch = errors.New("schema version mismatch")

type Values struct {
	Selections   map[string]Selection `toml:"selections,omitempty"`
	ProbeTimeout string               `toml:"probe_timeout"`
	Apps         Apps                 `toml:"apps"`
	Steam        Steam                `toml:"steam"`
	ConfigSchema int                  `toml:"config_schema"`
	DebugLogging bool                 `toml:"debug_logging"`
}

type Apps struct {
	ExtraDirs   []string `toml:"extra_dirs,omitempty,multiline"`
	ShowSteam   bool     `toml:"show_steam_apps"`
	ShowHeroic  bool     `toml:"show_heroic_apps"`
	ShowFlatpak bool     `toml:"show_flatpak_apps"`
}

type Steam struct {
	// UseEnvWrapper prefixes LaunchOptions with "env " for launchers that
	// do not accept bare assignments.
	UseEnvWrapper bool `toml:"use_env_wrapper"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	ProbeTimeout: DefaultProbeTimeout.String(),
	Apps: Apps{
		ShowSteam:   true,
		ShowHeroic:  true,
		ShowFlatpak: true,
	},
}

// Instance is the preference store. All accessors are safe for concurrent
// use.
type Instance struct {
	fs       afero.Fs
	cfgPath  string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

// NewConfig loads cfgPath from fs, writing defaults first if the file does
// not exist yet.
//
//nolint:gocritic // config struct copied for immutability
func NewConfig(fs afero.Fs, cfgPath string, defaults Values) (*Instance, error) {
	log.Debug().Msgf("config path: %s", cfgPath)

	cfg := Instance{
		fs:       fs,
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}
	cfg.vals.Selections = make(map[string]Selection)

	exists, err := afero.Exists(fs, cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if !exists {
		log.Info().Msg("saving new default config to disk")
		if err := fs.MkdirAll(filepath.Dir(cfgPath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := cfg.Save(); err != nil {
			return nil, err
		}
	}

	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := afero.ReadFile(c.fs, c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top so fields
	// missing from the file keep their default values.
	newVals := c.defaults
	newVals.Selections = nil
	if err := toml.Unmarshal(data, &newVals); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return ErrSchemaMismatch
	}

	selections := make(map[string]Selection, len(newVals.Selections))
	for id, sel := range newVals.Selections {
		if err := validateSelection(id, sel); err != nil {
			log.Warn().Err(err).Str("app", id).Msg("dropping invalid gpu selection")
			continue
		}
		selections[id] = sel
	}
	newVals.Selections = selections

	c.vals = newVals
	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	c.vals.ConfigSchema = SchemaVersion

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := helpers.WriteFileAtomic(c.fs, c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Reset drops every selection and setting back to the defaults the
// instance was created with. It does not save.
func (c *Instance) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals = c.defaults
	c.vals.Apps.ExtraDirs = append([]string(nil), c.defaults.Apps.ExtraDirs...)
	c.vals.Selections = make(map[string]Selection)
}

func (c *Instance) Path() string {
	return c.cfgPath
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}

// ProbeTimeout returns the configured bound for external probe commands,
// falling back to DefaultProbeTimeout for missing or invalid values.
func (c *Instance) ProbeTimeout() time.Duration {
	c.mu.RLock()
	raw := c.vals.ProbeTimeout
	c.mu.RUnlock()

	if raw == "" {
		return DefaultProbeTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warn().Str("probe_timeout", raw).Msg("invalid probe timeout, using default")
		return DefaultProbeTimeout
	}
	return d
}

func (c *Instance) SetProbeTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.ProbeTimeout = d.String()
}

func (c *Instance) ShowSteamApps() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Apps.ShowSteam
}

func (c *Instance) SetShowSteamApps(show bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Apps.ShowSteam = show
}

func (c *Instance) ShowHeroicApps() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Apps.ShowHeroic
}

func (c *Instance) SetShowHeroicApps(show bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Apps.ShowHeroic = show
}

func (c *Instance) ShowFlatpakApps() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Apps.ShowFlatpak
}

func (c *Instance) SetShowFlatpakApps(show bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Apps.ShowFlatpak = show
}

func (c *Instance) SteamEnvWrapper() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Steam.UseEnvWrapper
}

func (c *Instance) SetSteamEnvWrapper(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Steam.UseEnvWrapper = enabled
}

// ExtraAppDirs are scanned after the default application directories.
func (c *Instance) ExtraAppDirs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.vals.Apps.ExtraDirs...)
}

// Selections returns a copy of every stored selection.
func (c *Instance) Selections() map[string]Selection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.vals.Selections)
}
