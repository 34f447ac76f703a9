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

// Package cli builds the kaede command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/SterTheStar/kaede/pkg/config"
	"github.com/SterTheStar/kaede/pkg/helpers"
	"github.com/SterTheStar/kaede/pkg/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Env is what the commands run against. NewEnv returns the real machine.
type Env struct {
	Fs         afero.Fs
	Service    service.Options
	ConfigPath string
	// LogDir receives the rotated log file. Empty disables file logging.
	LogDir string
}

func NewEnv() Env {
	return Env{
		Fs:         afero.NewOsFs(),
		ConfigPath: helpers.ConfigPath(),
		LogDir:     helpers.LogDir(),
	}
}

type app struct {
	cfg        *config.Instance
	svc        *service.Service
	refreshErr error
	env        Env
	verbosity  int
}

// NewRootCmd returns the kaede command with every subcommand attached.
func NewRootCmd(env Env) *cobra.Command {
	a := &app{env: env}

	root := &cobra.Command{
		Use:   "kaede",
		Short: "Pin applications to a GPU",
		Long: `kaede lists the GPUs and applications on this machine and writes the
environment variables that make an application render on a chosen GPU into
its desktop entry, Flatpak override, Steam launch options or Heroic config.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), cmd.ErrOrStderr())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG)")

	root.AddCommand(
		a.gpusCmd(),
		a.rendererCmd(),
		a.appsCmd(),
		a.setCmd(),
		a.resetCmd(),
		a.envCmd(),
		a.showCmd(),
		a.configCmd(),
	)
	return root
}

// setup loads the config, starts logging and scans the machine.
func (a *app) setup(ctx context.Context, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.NewConfig(a.env.Fs, a.env.ConfigPath, config.BaseDefaults)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	debug := cfg.DebugLogging() || a.verbosity >= 2
	if a.env.LogDir != "" {
		var writers []io.Writer
		if a.verbosity > 0 {
			writers = append(writers, zerolog.ConsoleWriter{Out: stderr})
		}
		if err := helpers.InitLogging(a.env.LogDir, debug, writers); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		}
	}

	opts := a.env.Service
	if opts.Fs == nil {
		opts.Fs = a.env.Fs
	}
	a.svc = service.New(cfg, opts)
	a.refreshErr = a.svc.Refresh(ctx)
	if a.refreshErr != nil {
		log.Warn().Err(a.refreshErr).Msg("refresh incomplete")
	}
	return nil
}

// requireGPUs surfaces the scan error for commands that need a GPU list.
func (a *app) requireGPUs() error {
	if len(a.svc.Devices()) == 0 {
		if a.refreshErr != nil {
			return a.refreshErr
		}
		return errors.New("no GPUs found")
	}
	return nil
}
