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

// Package desktop rewrites the Exec line of freedesktop desktop entries
// for user-level overrides. Edits are line based so comments, locale keys
// and other groups survive untouched.
package desktop

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/SterTheStar/kaede/pkg/envvars"
)

const (
	// MainGroup is the group holding Exec.
	MainGroup = "[Desktop Entry]"
	// ManagedKey marks files Kaede wrote.
	ManagedKey = "X-Kaede-Managed"
	// OriginalExecKey keeps the Exec line from before Kaede touched it.
	OriginalExecKey = "X-Kaede-Original-Exec"
)

// BackupSuffix is appended to an unmanaged user entry before Kaede
// replaces it.
const BackupSuffix = ".kaede.bak"

// MaxLineLength bounds a single line of a desktop entry.
const MaxLineLength = 1024 * 1024

var (
	// ErrNoMainGroup is returned for content without a [Desktop Entry] group.
	ErrNoMainGroup = errors.New("no [Desktop Entry] group")
	// ErrUnreadable is returned for content the line scanner gives up on.
	ErrUnreadable = errors.New("unreadable desktop entry")
)

// FieldCodes are the Exec placeholders stripped for display.
var FieldCodes = []string{"%f", "%F", "%u", "%U", "%i", "%c", "%k"}

// StripFieldCodes removes field codes and collapses whitespace.
func StripFieldCodes(exec string) string {
	for _, code := range FieldCodes {
		exec = strings.ReplaceAll(exec, code, "")
	}
	return strings.Join(strings.Fields(exec), " ")
}

// quoteArg quotes an argument per the desktop entry Exec rules when it
// holds reserved characters.
func quoteArg(arg string) string {
	if !strings.ContainsAny(arg, " \t\n\"'\\><~|&;$*?#()`") {
		return arg
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)
	return `"` + r.Replace(arg) + `"`
}

func flatpakRunIndex(fields []string) int {
	for i := 0; i+1 < len(fields); i++ {
		if filepath.Base(fields[i]) == "flatpak" && fields[i+1] == "run" {
			return i + 1
		}
	}
	return -1
}

// WrapExec injects env into exec: as --env options after `flatpak run`,
// otherwise through an `env` prefix.
func WrapExec(exec string, env *envvars.Set) string {
	if env.Len() == 0 {
		return exec
	}
	fields := strings.Fields(exec)
	if i := flatpakRunIndex(fields); i >= 0 {
		opts := make([]string, 0, env.Len())
		env.Each(func(name, value string) {
			opts = append(opts, quoteArg("--env="+name+"="+value))
		})
		out := make([]string, 0, len(fields)+len(opts))
		out = append(out, fields[:i+1]...)
		out = append(out, opts...)
		out = append(out, fields[i+1:]...)
		return strings.Join(out, " ")
	}

	parts := []string{"env"}
	env.Each(func(name, value string) {
		parts = append(parts, quoteArg(name+"="+value))
	})
	return strings.Join(parts, " ") + " " + exec
}

type line struct {
	text  string
	group string
	key   string
	value string
}

func splitLines(content []byte) ([]line, error) {
	var (
		out   []line
		group string
	)
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineLength)
	for sc.Scan() {
		text := sc.Text()
		trimmed := strings.TrimSpace(text)
		l := line{text: text}
		switch {
		case strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"):
			group = trimmed
		case trimmed == "" || strings.HasPrefix(trimmed, "#"):
		default:
			if k, v, ok := strings.Cut(trimmed, "="); ok {
				l.key = strings.TrimSpace(k)
				l.value = strings.TrimSpace(v)
			}
		}
		l.group = group
		out = append(out, l)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	return out, nil
}

// Validate reports whether content can be split into lines at all. Exec
// and the other lookups treat unreadable content as having no keys.
func Validate(content []byte) error {
	_, err := splitLines(content)
	return err
}

func lookup(content []byte, key string) (string, bool) {
	lines, err := splitLines(content)
	if err != nil {
		return "", false
	}
	for _, l := range lines {
		if l.group == MainGroup && l.key == key {
			return l.value, true
		}
	}
	return "", false
}

// Exec returns the raw Exec value of the main group.
func Exec(content []byte) (string, bool) {
	return lookup(content, "Exec")
}

// IsManaged reports whether content carries Kaede's marker.
func IsManaged(content []byte) bool {
	v, ok := lookup(content, ManagedKey)
	return ok && strings.EqualFold(v, "true")
}

// OriginalExec returns the Exec line a managed file was derived from,
// falling back to the current Exec for unmanaged content.
func OriginalExec(content []byte) (string, bool) {
	if IsManaged(content) {
		if v, ok := lookup(content, OriginalExecKey); ok && v != "" {
			return v, true
		}
	}
	return Exec(content)
}

// Rewrite returns content with the main group's Exec set to exec and the
// Kaede keys recording original. Previous Kaede keys are replaced, every
// other line is kept.
func Rewrite(content []byte, exec, original string) ([]byte, error) {
	lines, err := splitLines(content)
	if err != nil {
		return nil, err
	}
	headerAt := -1
	for i, l := range lines {
		if l.group == MainGroup && strings.TrimSpace(l.text) == MainGroup {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, ErrNoMainGroup
	}

	inserted := []string{
		"Exec=" + exec,
		ManagedKey + "=true",
		OriginalExecKey + "=" + original,
	}

	var out bytes.Buffer
	wrote := false
	for i, l := range lines {
		if l.group == MainGroup {
			switch l.key {
			case ManagedKey, OriginalExecKey:
				continue
			case "Exec":
				if !wrote {
					writeLines(&out, inserted)
					wrote = true
				}
				continue
			}
		}
		out.WriteString(l.text)
		out.WriteByte('\n')
		if i == headerAt && !hasKey(lines, "Exec") {
			writeLines(&out, inserted)
			wrote = true
		}
	}
	return out.Bytes(), nil
}

func hasKey(lines []line, key string) bool {
	for _, l := range lines {
		if l.group == MainGroup && l.key == key {
			return true
		}
	}
	return false
}

func writeLines(buf *bytes.Buffer, lines []string) {
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
}
