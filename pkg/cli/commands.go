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

package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/SterTheStar/kaede/pkg/apps"
	"github.com/SterTheStar/kaede/pkg/gpu"
	"github.com/SterTheStar/kaede/pkg/gpu/renderer"
	"github.com/SterTheStar/kaede/pkg/launchers/steam"
	"github.com/SterTheStar/kaede/pkg/override"
	"github.com/spf13/cobra"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (a *app) gpusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gpus",
		Short: "List GPUs in DRI_PRIME order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireGPUs(); err != nil {
				return err
			}
			tw := table(cmd.OutOrStdout())
			_, _ = fmt.Fprintln(tw, "INDEX\tCARD\tVENDOR\tDRIVER\tBUS\tRENDER NODE\tMODEL")
			for _, d := range a.svc.Devices() {
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
					d.Index, d.Card, d.Class, orDash(d.Driver), orDash(d.BusAddress),
					orDash(d.RenderNode), d.Model)
			}
			return tw.Flush()
		},
	}
}

func (a *app) rendererCmd() *cobra.Command {
	var gpuIndex int
	cmd := &cobra.Command{
		Use:   "renderer",
		Short: "Show which GPU renders OpenGL or Vulkan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var dev *gpu.Device
			if gpuIndex >= 0 {
				d, err := a.svc.Device(gpuIndex)
				if err != nil {
					return err
				}
				dev = &d
			}
			info, err := a.svc.Renderer(cmd.Context(), dev)
			if err != nil {
				return err
			}
			printRenderer(cmd.OutOrStdout(), &info)
			return nil
		},
	}
	cmd.Flags().IntVar(&gpuIndex, "gpu", -1, "probe with this GPU selected")
	return cmd
}

func printRenderer(w io.Writer, info *renderer.Info) {
	tw := table(w)
	_, _ = fmt.Fprintf(tw, "API:\t%s\n", info.API)
	_, _ = fmt.Fprintf(tw, "Renderer:\t%s\n", orDash(info.Renderer))
	_, _ = fmt.Fprintf(tw, "Vendor:\t%s\n", orDash(info.Vendor))
	_, _ = fmt.Fprintf(tw, "Version:\t%s\n", orDash(info.Version))
	_, _ = fmt.Fprintf(tw, "Driver:\t%s\n", orDash(info.Driver))
	if info.Device != nil {
		_, _ = fmt.Fprintf(tw, "GPU:\t%s\n", info.Device.Label())
	} else {
		_, _ = fmt.Fprintf(tw, "GPU:\tunknown\n")
	}
	_ = tw.Flush()
}

func (a *app) appsCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "apps",
		Short: "List launchable applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter *apps.IntegrationKind
			if kind != "" {
				k, err := apps.ParseKind(kind)
				if err != nil {
					return err
				}
				filter = &k
			}

			tw := table(cmd.OutOrStdout())
			_, _ = fmt.Fprintln(tw, "ID\tKIND\tGPU\tNAME")
			for _, e := range a.svc.Apps() {
				if filter != nil && e.Kind() != *filter {
					continue
				}
				selected := "default"
				if dev, sel, ok := a.svc.SelectedDevice(e.ID); ok {
					selected = strconv.Itoa(dev.Index) + " (" + sel.API + ")"
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Kind(), selected, e.Name)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only list native, flatpak, steam or heroic apps")
	return cmd
}

func parseTarget(args []string, api string) (int, gpu.API, error) {
	index, err := strconv.Atoi(args[1])
	if err != nil || index < 0 {
		return 0, gpu.APIAuto, fmt.Errorf("invalid gpu index %q", args[1])
	}
	parsed, err := gpu.ParseAPI(api)
	if err != nil {
		return 0, gpu.APIAuto, err
	}
	return index, parsed, nil
}

func printResult(w io.Writer, res *override.Result) {
	_, _ = fmt.Fprintln(w, res.Message)
	if res.Backup != "" {
		_, _ = fmt.Fprintf(w, "backup: %s\n", res.Backup)
	}
}

func (a *app) setCmd() *cobra.Command {
	var api string
	cmd := &cobra.Command{
		Use:   "set <app-id> <gpu-index>",
		Short: "Make an application use a GPU",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireGPUs(); err != nil {
				return err
			}
			index, parsed, err := parseTarget(args, api)
			if err != nil {
				return err
			}
			res, err := a.svc.Apply(cmd.Context(), args[0], index, parsed)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), &res)
			return nil
		},
	}
	cmd.Flags().StringVar(&api, "api", "auto", "rendering API: auto, opengl or vulkan")
	return cmd
}

func (a *app) resetCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "reset <app-id>",
		Short: "Remove Kaede's override so the application uses the default GPU",
		Long: `reset removes Kaede's variables from one application. With --all it
removes every stored override and returns all settings to their defaults.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if all {
				results, err := a.svc.ResetAll(cmd.Context())
				for i := range results {
					printResult(out, &results[i])
				}
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, "all selections and settings reset to defaults")
				return nil
			}
			res, err := a.svc.Reset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printResult(out, &res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "reset every application and all settings")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <app-id>",
		Short: "Show the launch setting an application currently has",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.svc.App(args[0])
			if err != nil {
				return err
			}
			cur, err := a.svc.Inspect(cmd.Context(), e.ID)
			if err != nil {
				return err
			}

			tw := table(cmd.OutOrStdout())
			_, _ = fmt.Fprintf(tw, "App:\t%s (%s)\n", e.ID, e.Name)
			_, _ = fmt.Fprintf(tw, "Kind:\t%s\n", e.Kind())
			if loc, ok := e.Locator.(apps.SteamLocator); ok {
				_, _ = fmt.Fprintf(tw, "Launch:\t%s\n", steam.BuildSteamURL(loc.AppID))
			}
			_, _ = fmt.Fprintf(tw, "Target:\t%s\n", cur.Target)
			_, _ = fmt.Fprintf(tw, "Current:\t%s\n", orDash(cur.Value))
			managed := "none"
			if len(cur.Env) > 0 {
				managed = strings.Join(cur.Env, " ")
			}
			_, _ = fmt.Fprintf(tw, "Kaede variables:\t%s\n", managed)
			selected := "default"
			if dev, sel, ok := a.svc.SelectedDevice(e.ID); ok {
				selected = fmt.Sprintf("%d %s (%s)", dev.Index, dev.Label(), sel.API)
			}
			_, _ = fmt.Fprintf(tw, "GPU:\t%s\n", selected)
			return tw.Flush()
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "List settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := table(cmd.OutOrStdout())
			_, _ = fmt.Fprintln(tw, "KEY\tVALUE")
			for _, st := range a.cfg.Settings() {
				_, _ = fmt.Fprintf(tw, "%s\t%s\n", st.Key, st.Value)
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "config file: %s\n", a.cfg.Path())
			return tw.Flush()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := a.cfg.Save(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
			return nil
		},
	})
	return cmd
}

func (a *app) envCmd() *cobra.Command {
	var api string
	cmd := &cobra.Command{
		Use:   "env <app-id> <gpu-index>",
		Short: "Print the variables set would write, without writing them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireGPUs(); err != nil {
				return err
			}
			index, parsed, err := parseTarget(args, api)
			if err != nil {
				return err
			}
			res, err := a.svc.Resolve(args[0], index, parsed)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range res.Env.Pairs() {
				_, _ = fmt.Fprintln(out, p)
			}
			if res.Warning != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", res.Warning)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&api, "api", "auto", "rendering API: auto, opengl or vulkan")
	return cmd
}
