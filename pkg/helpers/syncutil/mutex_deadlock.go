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

//go:build deadlock

// Package syncutil holds the mutex types used across Kaede. Building with
// -tags=deadlock swaps them for go-deadlock's detecting versions.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// DeadlockEnabled reports whether the detecting mutexes are compiled in.
const DeadlockEnabled = true

// Applies hold the service lock for at most one flatpak call.
func init() {
	deadlock.Opts.DeadlockTimeout = 45 * time.Second
}

// Mutex guards the service's apply path.
type Mutex struct {
	deadlock.Mutex
}

// RWMutex guards the preference store.
type RWMutex struct {
	deadlock.RWMutex
}
