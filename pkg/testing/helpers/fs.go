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
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// FSHelper provides utilities for filesystem mocking in tests
type FSHelper struct {
	Fs afero.Fs
}

// NewMemoryFS creates a new in-memory filesystem for testing
func NewMemoryFS() *FSHelper {
	return &FSHelper{
		Fs: afero.NewMemMapFs(),
	}
}

// NewOSFS creates a filesystem helper using the real filesystem (for integration tests)
func NewOSFS() *FSHelper {
	return &FSHelper{
		Fs: afero.NewOsFs(),
	}
}

// CreateDirectoryStructure creates a directory tree from a nested map.
// String and []byte values become files, nested maps become directories
// and nil becomes an empty directory.
func (h *FSHelper) CreateDirectoryStructure(basePath string, structure map[string]any) error {
	for name, content := range structure {
		fullPath := filepath.Join(basePath, name)

		switch v := content.(type) {
		case string:
			if err := h.WriteFile(fullPath, []byte(v)); err != nil {
				return err
			}
		case []byte:
			if err := h.WriteFile(fullPath, v); err != nil {
				return err
			}
		case map[string]any:
			if err := h.Fs.MkdirAll(fullPath, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", fullPath, err)
			}
			if err := h.CreateDirectoryStructure(fullPath, v); err != nil {
				return err
			}
		case nil:
			if err := h.Fs.MkdirAll(fullPath, 0o755); err != nil {
				return fmt.Errorf("failed to create empty directory %s: %w", fullPath, err)
			}
		default:
			return fmt.Errorf("unsupported entry type %T for %s", content, fullPath)
		}
	}
	return nil
}

// FileExists checks if a file exists
func (h *FSHelper) FileExists(path string) bool {
	exists, err := afero.Exists(h.Fs, path)
	if err != nil {
		return false
	}
	return exists
}

// ReadFile reads a file and returns its content
func (h *FSHelper) ReadFile(path string) ([]byte, error) {
	data, err := afero.ReadFile(h.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}

// WriteFile writes content to a file, creating parent directories.
func (h *FSHelper) WriteFile(path string, content []byte) error {
	if err := h.Fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for file %s: %w", path, err)
	}
	if err := afero.WriteFile(h.Fs, path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}

// ListFiles lists all files in a directory
func (h *FSHelper) ListFiles(path string) ([]string, error) {
	files, err := afero.ReadDir(h.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}

	fileNames := make([]string, len(files))
	for i, file := range files {
		fileNames[i] = file.Name()
	}

	return fileNames, nil
}

// SysfsCard describes one /sys/class/drm/cardN entry for fixtures.
type SysfsCard struct {
	Name       string // card0
	Driver     string // amdgpu
	PCIID      string // 1002:73DF
	Slot       string // 0000:03:00.0
	RenderNode string // renderD128, empty for none
	Connectors []string
}

// CreateSysfsDRM lays out a fake DRM class tree under drmDir and the
// matching render nodes under devDir.
func (h *FSHelper) CreateSysfsDRM(drmDir, devDir string, cards ...SysfsCard) error {
	for _, card := range cards {
		var uevent strings.Builder
		if card.Driver != "" {
			uevent.WriteString("DRIVER=" + card.Driver + "\n")
		}
		if card.PCIID != "" {
			uevent.WriteString("PCI_ID=" + card.PCIID + "\n")
		}
		if card.Slot != "" {
			uevent.WriteString("PCI_SLOT_NAME=" + card.Slot + "\n")
		}
		cardDir := filepath.Join(drmDir, card.Name)
		if err := h.WriteFile(filepath.Join(cardDir, "device", "uevent"), []byte(uevent.String())); err != nil {
			return err
		}
		if card.RenderNode != "" {
			if err := h.Fs.MkdirAll(filepath.Join(cardDir, "device", "drm", card.RenderNode), 0o755); err != nil {
				return fmt.Errorf("failed to create render node dir: %w", err)
			}
			if err := h.WriteFile(filepath.Join(devDir, card.RenderNode), nil); err != nil {
				return err
			}
		}
		for _, conn := range card.Connectors {
			if err := h.Fs.MkdirAll(filepath.Join(drmDir, card.Name+"-"+conn), 0o755); err != nil {
				return fmt.Errorf("failed to create connector dir: %w", err)
			}
		}
	}
	return nil
}
