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

// Package flatpak knows where Flatpak exports desktop entries and how to
// drive `flatpak override` for a single application.
package flatpak

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/SterTheStar/kaede/pkg/envvars"
	"github.com/SterTheStar/kaede/pkg/helpers/command"
	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"
)

// Flatpak app IDs of launchers Kaede integrates with.
const (
	SteamID  = "com.valvesoftware.Steam"
	HeroicID = "com.heroicgameslauncher.hgl"
)

// SystemExportsDir holds desktop entries of system-wide installs.
const SystemExportsDir = "/var/lib/flatpak/exports/share/applications"

// DefaultTimeout bounds a single flatpak override call.
const DefaultTimeout = 15 * time.Second

const exportsSuffix = "flatpak/exports/share/applications"

var appIDRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*(\.[A-Za-z_][A-Za-z0-9_-]*)+$`)

// BasePath returns the per-app data root under home.
func BasePath(home string) string {
	return filepath.Join(home, ".var", "app")
}

// AppPath returns the data path of a specific Flatpak app.
func AppPath(home, appID string) string {
	return filepath.Join(BasePath(home), appID)
}

// UserExportsDir returns the export tree of per-user installs.
func UserExportsDir(dataHome string) string {
	return filepath.Join(dataHome, exportsSuffix)
}

// IsExportPath reports whether path lies inside a Flatpak export tree.
func IsExportPath(path string) bool {
	return strings.Contains(filepath.ToSlash(filepath.Clean(path)), "/"+exportsSuffix+"/")
}

// ValidAppID reports whether id looks like a reverse-DNS Flatpak app id.
func ValidAppID(id string) bool {
	return appIDRe.MatchString(id)
}

// AppIDFromExec extracts the app id from a `flatpak run` command line,
// skipping options and an optional /usr/bin/flatpak prefix.
func AppIDFromExec(exec string) (string, bool) {
	fields := strings.Fields(exec)
	for i := 0; i+1 < len(fields); i++ {
		if filepath.Base(fields[i]) != "flatpak" || fields[i+1] != "run" {
			continue
		}
		for _, f := range fields[i+2:] {
			if strings.HasPrefix(f, "-") {
				continue
			}
			if ValidAppID(f) {
				return f, true
			}
			return "", false
		}
	}
	return "", false
}

// AppIDFromDesktopFile derives the app id from an exported file name
// such as org.mozilla.firefox.desktop.
func AppIDFromDesktopFile(name string) (string, bool) {
	id := strings.TrimSuffix(filepath.Base(name), ".desktop")
	return id, ValidAppID(id)
}

// OverrideArgs builds `flatpak override --user --env=K=V ... <id>`
// arguments.
func OverrideArgs(appID string, env *envvars.Set) []string {
	args := []string{"override", "--user"}
	env.Each(func(name, value string) {
		args = append(args, "--env="+name+"="+value)
	})
	return append(args, appID)
}

// UnsetArgs builds the arguments that drop keys from the user override.
func UnsetArgs(appID string, keys []string) []string {
	args := []string{"override", "--user"}
	for _, k := range keys {
		args = append(args, "--unset-env="+k)
	}
	return append(args, appID)
}

// Client runs flatpak through an executor.
type Client struct {
	cmd     command.Executor
	timeout time.Duration
}

// NewClient returns a Client. A non-positive timeout uses DefaultTimeout.
func NewClient(cmd command.Executor, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{cmd: cmd, timeout: timeout}
}

// SetEnv stores env in the user override of appID in one call and returns
// the command line it ran.
func (c *Client) SetEnv(ctx context.Context, appID string, env *envvars.Set) (string, error) {
	return c.run(ctx, OverrideArgs(appID, env))
}

// UnsetEnv removes keys from the user override of appID.
func (c *Client) UnsetEnv(ctx context.Context, appID string, keys []string) (string, error) {
	return c.run(ctx, UnsetArgs(appID, keys))
}

// EnvSection is the keyfile group flatpak stores variables in.
const EnvSection = "Environment"

// Env returns the variables in the user override of appID as NAME=VALUE
// pairs, read from `flatpak override --user --show`.
func (c *Client) Env(ctx context.Context, appID string) ([]string, error) {
	args := []string{"override", "--user", "--show", appID}
	desc := command.Describe("flatpak", args...)
	if !ValidAppID(appID) {
		return nil, fmt.Errorf("%s: invalid app id %q", desc, appID)
	}

	ctx, cancel := command.Bounded(ctx, c.timeout)
	defer cancel()

	out, err := c.cmd.Output(ctx, "flatpak", args...)
	if err != nil {
		return nil, command.Classify(ctx, desc, err)
	}
	return parseOverrideEnv(out)
}

func parseOverrideEnv(out []byte) ([]string, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse flatpak override: %w", err)
	}
	sec := cfg.Section(EnvSection)
	pairs := make([]string, 0, len(sec.Keys()))
	for _, k := range sec.Keys() {
		pairs = append(pairs, k.Name()+"="+k.Value())
	}
	return pairs, nil
}

func (c *Client) run(ctx context.Context, args []string) (string, error) {
	desc := command.Describe("flatpak", args...)
	if !ValidAppID(args[len(args)-1]) {
		return desc, fmt.Errorf("%s: invalid app id %q", desc, args[len(args)-1])
	}

	ctx, cancel := command.Bounded(ctx, c.timeout)
	defer cancel()

	log.Debug().Str("cmd", desc).Msg("running flatpak override")
	if err := c.cmd.Run(ctx, "flatpak", args...); err != nil {
		return desc, command.Classify(ctx, desc, err)
	}
	return desc, nil
}
