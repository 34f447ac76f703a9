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

// Package command provides an abstraction over exec.Command for testability.
package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds every diagnostic or override invocation that does
// not carry its own deadline.
const DefaultTimeout = 5 * time.Second

// ErrTimeout is returned when a command did not finish within its deadline.
var ErrTimeout = errors.New("command timed out")

// Executor provides an abstraction over exec.Command for testability.
// This allows external tools (lspci, glxinfo, vulkaninfo, flatpak) to be
// mocked in tests without executing real system commands.
type Executor interface {
	// Run executes a command and waits for it to complete.
	// Returns an error if the command fails to start or exits with non-zero status.
	Run(ctx context.Context, name string, args ...string) error

	// Output runs a command and returns its standard output.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// OutputWithEnv runs a command with extra KEY=VALUE pairs appended to
	// the current environment and returns its standard output.
	OutputWithEnv(ctx context.Context, env []string, name string, args ...string) ([]byte, error)
}

// RealExecutor uses actual exec.Command to execute system commands.
type RealExecutor struct{}

// Compile-time interface implementation check.
var _ Executor = (*RealExecutor)(nil)

// Run executes a system command using exec.CommandContext.
//
//nolint:wrapcheck // Wrapping exec errors loses important context
func (*RealExecutor) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Output runs a command and returns its standard output.
//
//nolint:wrapcheck // Wrapping exec errors loses important context
func (*RealExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// OutputWithEnv runs a command with additional environment variables.
//
//nolint:wrapcheck // Wrapping exec errors loses important context
func (*RealExecutor) OutputWithEnv(
	ctx context.Context,
	env []string,
	name string,
	args ...string,
) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	return cmd.Output()
}

// Describe renders a command line for diagnostics.
func Describe(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// Bounded derives a context limited by timeout, falling back to
// DefaultTimeout when timeout is not positive.
func Bounded(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// Classify turns a deadline expiry into ErrTimeout so callers can tell a
// hung tool apart from one that exited with an error.
func Classify(ctx context.Context, desc string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", desc, ErrTimeout)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		if stderr != "" {
			return fmt.Errorf("%s: exit status %d: %s", desc, exitErr.ExitCode(), stderr)
		}
		return fmt.Errorf("%s: exit status %d", desc, exitErr.ExitCode())
	}
	return fmt.Errorf("%s: %w", desc, err)
}
