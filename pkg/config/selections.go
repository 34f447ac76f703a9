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
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Selection pins an application to a GPU. The bus address identifies the
// GPU across scans; the index is kept for display and as a fallback when
// the address is unknown.
type Selection struct {
	GPUBusAddress string `toml:"gpu_bus_address,omitempty" validate:"omitempty,pci_address"`
	API           string `toml:"api,omitempty" validate:"omitempty,oneof=auto opengl vulkan"`
	GPUIndex      int    `toml:"gpu_index" validate:"gte=0,lte=63"`
}

type appSelection struct {
	Selection Selection
	AppID     string `validate:"required,endswith=.desktop,excludesall=/\\"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("pci_address", validatePCIAddress)
	return v
}

// validatePCIAddress accepts dddd:bb:dd.f with hex digits.
func validatePCIAddress(fl validator.FieldLevel) bool {
	s := strings.ToLower(fl.Field().String())
	if len(s) != len("0000:00:00.0") || s[4] != ':' || s[7] != ':' || s[10] != '.' {
		return false
	}
	for i, r := range s {
		if i == 4 || i == 7 || i == 10 {
			continue
		}
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

func validateSelection(appID string, sel Selection) error {
	if err := validate.Struct(appSelection{AppID: appID, Selection: sel}); err != nil {
		return fmt.Errorf("invalid selection for %s: %w", appID, err)
	}
	return nil
}

// Selection returns the stored choice for appID.
func (c *Instance) Selection(appID string) (Selection, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sel, ok := c.vals.Selections[appID]
	return sel, ok
}

// SetSelection validates and stores a choice. Call Save to persist it.
func (c *Instance) SetSelection(appID string, sel Selection) error {
	if err := validateSelection(appID, sel); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vals.Selections == nil {
		c.vals.Selections = make(map[string]Selection)
	}
	c.vals.Selections[appID] = sel
	return nil
}

// ClearSelection forgets the choice for appID and reports whether there
// was one.
func (c *Instance) ClearSelection(appID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.vals.Selections[appID]
	delete(c.vals.Selections, appID)
	return ok
}
