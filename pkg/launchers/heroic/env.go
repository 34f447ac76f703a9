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

package heroic

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/SterTheStar/kaede/pkg/envvars"
	"github.com/SterTheStar/kaede/pkg/resolver"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// EnvField is the per-game key Heroic reads extra variables from. The
// misspelling is Heroic's.
const EnvField = "enviromentOptions"

var (
	// ErrInvalidJSON is returned for content that is not valid JSON.
	ErrInvalidJSON = errors.New("invalid JSON")
	// ErrNoGame is returned when the config has no object for the game.
	ErrNoGame = errors.New("game object not found")
)

type entry struct {
	key   string
	value string
	index int
	str   bool
}

// gameObject returns the object stored under appName at the top level.
func gameObject(src []byte, appName string) (gjson.Result, error) {
	if !gjson.ValidBytes(src) {
		return gjson.Result{}, ErrInvalidJSON
	}
	root := gjson.ParseBytes(src)
	if !root.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: top level is not an object", ErrInvalidJSON)
	}

	var game gjson.Result
	root.ForEach(func(key, value gjson.Result) bool {
		if key.String() == appName {
			game = value
			return false
		}
		return true
	})
	if !game.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrNoGame, appName)
	}
	if !game.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: %s is not an object", ErrNoGame, appName)
	}
	end := game.Index + len(game.Raw)
	if game.Index <= 0 || end > len(src) || string(src[game.Index:end]) != game.Raw {
		return gjson.Result{}, fmt.Errorf("cannot locate %s in source", appName)
	}
	return game, nil
}

func readEntries(field gjson.Result) []entry {
	var out []entry
	if !field.IsArray() {
		return nil
	}
	for i, item := range field.Array() {
		switch {
		case item.Type == gjson.String:
			k, v, ok := strings.Cut(item.String(), "=")
			if ok {
				out = append(out, entry{key: k, value: v, index: i, str: true})
			}
		case item.IsObject():
			k := item.Get("key")
			if !k.Exists() {
				k = item.Get("name")
			}
			if k.Exists() {
				out = append(out, entry{key: k.String(), value: item.Get("value").String(), index: i})
			}
		}
	}
	return out
}

// Env returns the environment options of appName as NAME=VALUE pairs in
// file order.
func Env(src []byte, appName string) ([]string, error) {
	game, err := gameObject(src, appName)
	if err != nil {
		return nil, err
	}
	field := game.Get(EnvField)
	var pairs []string
	if field.IsObject() {
		field.ForEach(func(k, v gjson.Result) bool {
			pairs = append(pairs, k.String()+"="+v.String())
			return true
		})
		return pairs, nil
	}
	for _, e := range readEntries(field) {
		pairs = append(pairs, e.key+"="+e.value)
	}
	return pairs, nil
}

// PatchEnv merges env into the game's environment options: shared keys
// are overwritten, new keys appended and every other key left alone. Only
// the game object's bytes change.
func PatchEnv(src []byte, appName string, env *envvars.Set) (out []byte, changed bool, err error) {
	return patchGame(src, appName, func(obj []byte) ([]byte, error) {
		return mergeEnv(obj, env)
	})
}

// ResetEnv removes every managed key from the game's environment options.
func ResetEnv(src []byte, appName string) (out []byte, changed bool, err error) {
	return patchGame(src, appName, removeManaged)
}

func patchGame(
	src []byte,
	appName string,
	edit func(obj []byte) ([]byte, error),
) ([]byte, bool, error) {
	game, err := gameObject(src, appName)
	if err != nil {
		return nil, false, err
	}
	obj, err := edit([]byte(game.Raw))
	if err != nil {
		return nil, false, fmt.Errorf("failed to update %s of %s: %w", EnvField, appName, err)
	}
	if string(obj) == game.Raw {
		return src, false, nil
	}
	out := make([]byte, 0, len(src)-len(game.Raw)+len(obj))
	out = append(out, src[:game.Index]...)
	out = append(out, obj...)
	out = append(out, src[game.Index+len(game.Raw):]...)
	return out, true, nil
}

func mergeEnv(obj []byte, env *envvars.Set) ([]byte, error) {
	field := gjson.GetBytes(obj, EnvField)
	var err error

	switch {
	case field.IsObject():
		env.Each(func(name, value string) {
			if err != nil {
				return
			}
			if cur := field.Get(name); cur.Exists() && cur.String() == value {
				return
			}
			obj, err = sjson.SetBytes(obj, EnvField+"."+name, value)
		})
		return obj, err

	case field.IsArray():
		entries := readEntries(field)
		env.Each(func(name, value string) {
			if err != nil {
				return
			}
			idx := -1
			for _, e := range entries {
				if e.key != name {
					continue
				}
				idx = e.index
				if e.value == value {
					return
				}
				path := EnvField + "." + strconv.Itoa(e.index)
				if e.str {
					obj, err = sjson.SetBytes(obj, path, name+"="+value)
				} else {
					obj, err = sjson.SetBytes(obj, path+".value", value)
				}
			}
			if idx < 0 {
				obj, err = sjson.SetRawBytes(obj, EnvField+".-1", optionJSON(name, value))
			}
		})
		return obj, err

	default:
		if env.Len() == 0 {
			return obj, nil
		}
		items := make([]json.RawMessage, 0, env.Len())
		env.Each(func(name, value string) {
			items = append(items, optionJSON(name, value))
		})
		raw, mErr := json.Marshal(items)
		if mErr != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", EnvField, mErr)
		}
		return sjson.SetRawBytes(obj, EnvField, raw)
	}
}

func removeManaged(obj []byte) ([]byte, error) {
	field := gjson.GetBytes(obj, EnvField)
	var err error

	switch {
	case field.IsObject():
		var keys []string
		field.ForEach(func(k, _ gjson.Result) bool {
			if resolver.IsManaged(k.String()) {
				keys = append(keys, k.String())
			}
			return true
		})
		for _, k := range keys {
			if obj, err = sjson.DeleteBytes(obj, EnvField+"."+k); err != nil {
				return nil, err
			}
		}
		return obj, nil

	case field.IsArray():
		var drop []int
		for _, e := range readEntries(field) {
			if resolver.IsManaged(e.key) {
				drop = append(drop, e.index)
			}
		}
		sort.Sort(sort.Reverse(sort.IntSlice(drop)))
		for _, i := range drop {
			if obj, err = sjson.DeleteBytes(obj, EnvField+"."+strconv.Itoa(i)); err != nil {
				return nil, err
			}
		}
		return obj, nil

	default:
		return obj, nil
	}
}

func optionJSON(name, value string) []byte {
	//nolint:errchkjson // two strings always encode
	b, _ := json.Marshal(struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}{Key: name, Value: value})
	return b
}
