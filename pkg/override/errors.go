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

package override

import (
	"errors"
	"fmt"
)

var (
	// ErrNoHandler is returned for an integration kind without a handler.
	ErrNoHandler = errors.New("no override handler for integration kind")
	// ErrWrongLocator is returned when an entry's locator does not match
	// the handler it was dispatched to.
	ErrWrongLocator = errors.New("locator does not match integration kind")
)

// LocateError means the target or its locator is missing or unreadable.
type LocateError struct {
	Err  error
	Path string
}

func (e *LocateError) Error() string {
	return fmt.Sprintf("locate %s: %v", e.Path, e.Err)
}

func (e *LocateError) Unwrap() error {
	return e.Err
}

// ParseError means the target's content could not be understood. Nothing
// has been written when it is returned.
type ParseError struct {
	Err  error
	Path string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CommitError means writing the target or running its command failed. A
// backup taken before the failure is left in place.
type CommitError struct {
	Err  error
	Path string
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit %s: %v", e.Path, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}
