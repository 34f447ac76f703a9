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

package steam

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// appsBlock finds UserLocalConfigStore/Software/Valve/Steam/apps, falling
// back to the first apps block anywhere in the file.
func appsBlock(root *textNode) *textNode {
	n := root
	for _, key := range []string{"UserLocalConfigStore", "Software", "Valve", "Steam", "apps"} {
		if n = n.child(key, true); n == nil || !n.block {
			break
		}
	}
	if n != nil && n.block {
		return n
	}
	log.Debug().Msg("apps block not at canonical path, searching whole file")
	return root.findBlock("apps")
}

// LaunchOptions returns the current LaunchOptions of appID. found is
// false when the app has no node or no LaunchOptions key.
func LaunchOptions(src []byte, appID string) (value string, found bool, err error) {
	root, err := parseText(string(src))
	if err != nil {
		return "", false, err
	}
	apps := appsBlock(root)
	if apps == nil {
		return "", false, ErrNoAppsBlock
	}
	app := apps.child(appID, false)
	if app == nil || !app.block {
		return "", false, nil
	}
	opt := app.child(LaunchOptionsKey, true)
	if opt == nil || opt.block {
		return "", false, nil
	}
	return opt.value, true, nil
}

// ListsApp reports whether the config has an app node for appID.
func ListsApp(src []byte, appID string) bool {
	root, err := parseText(string(src))
	if err != nil {
		return false
	}
	apps := appsBlock(root)
	if apps == nil {
		return false
	}
	app := apps.child(appID, false)
	return app != nil && app.block
}

// PatchLaunchOptions rewrites the LaunchOptions of appID to whatever
// compute returns for the current value. Only the value span changes;
// missing nodes are inserted with tab indentation and an empty result
// removes the key line. changed is false when the bytes are identical.
func PatchLaunchOptions(
	src []byte,
	appID string,
	compute func(current string) string,
) (out []byte, changed bool, err error) {
	text := string(src)
	root, err := parseText(text)
	if err != nil {
		return nil, false, err
	}
	apps := appsBlock(root)
	if apps == nil {
		return nil, false, ErrNoAppsBlock
	}

	app := apps.child(appID, false)
	if app != nil && !app.block {
		return nil, false, fmt.Errorf("app %s is not a block", appID)
	}
	if app == nil {
		value := compute("")
		if value == "" {
			return src, false, nil
		}
		indent := closeIndent(text, apps.close) + "\t"
		block := indent + quote(appID) + "\n" +
			indent + "{\n" +
			indent + "\t" + optionLine(value) + "\n" +
			indent + "}\n"
		return []byte(insertBeforeClose(text, apps.close, block)), true, nil
	}

	opt := app.child(LaunchOptionsKey, true)
	if opt != nil && opt.block {
		return nil, false, fmt.Errorf("%s of app %s is a block", LaunchOptionsKey, appID)
	}
	if opt == nil {
		value := compute("")
		if value == "" {
			return src, false, nil
		}
		line := closeIndent(text, app.close) + "\t" + optionLine(value) + "\n"
		return []byte(insertBeforeClose(text, app.close, line)), true, nil
	}

	value := compute(opt.value)
	if value == opt.value {
		return src, false, nil
	}
	if value == "" {
		return []byte(removeEntry(text, opt.keyStart, opt.valEnd)), true, nil
	}
	return []byte(text[:opt.valStart] + quote(value) + text[opt.valEnd:]), true, nil
}

func quote(s string) string {
	return `"` + escapeValue(s) + `"`
}

func optionLine(value string) string {
	return quote(LaunchOptionsKey) + "\t\t" + quote(value)
}

func lineStart(text string, offset int) int {
	return strings.LastIndexByte(text[:offset], '\n') + 1
}

// closeIndent returns the whitespace before a closing brace when the
// brace starts its line, or an empty string.
func closeIndent(text string, closeAt int) string {
	ls := lineStart(text, closeAt)
	prefix := text[ls:closeAt]
	if strings.TrimLeft(prefix, " \t") != "" {
		return ""
	}
	return prefix
}

// insertBeforeClose puts a block of full lines in front of the line
// holding the closing brace at closeAt.
func insertBeforeClose(text string, closeAt int, lines string) string {
	ls := lineStart(text, closeAt)
	if strings.TrimLeft(text[ls:closeAt], " \t") != "" {
		return text[:closeAt] + "\n" + lines + text[closeAt:]
	}
	return text[:ls] + lines + text[ls:]
}

// removeEntry deletes a key/value pair, taking its whole line when
// nothing else shares it.
func removeEntry(text string, start, end int) string {
	ls := lineStart(text, start)
	le := strings.IndexByte(text[end:], '\n')
	if le < 0 {
		le = len(text)
	} else {
		le += end + 1
	}
	before := text[ls:start]
	after := strings.TrimRight(text[end:le], "\r\n")
	if strings.TrimLeft(before, " \t") == "" && strings.TrimSpace(after) == "" {
		return text[:ls] + text[le:]
	}
	return text[:start] + text[end:]
}
