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
	"errors"

	"github.com/SterTheStar/kaede/pkg/testing/mocks"
	"github.com/stretchr/testify/mock"
)

// ErrCommandNotFound mimics exec's error for a missing binary.
var ErrCommandNotFound = errors.New("executable file not found in $PATH")

// NewMockCommandExecutor creates a MockCommandExecutor that succeeds by default.
// Run() succeeds and Output()/OutputWithEnv() return empty output unless
// explicitly overridden with On().
//
//	cmd := helpers.NewMockCommandExecutor()
//	cmd.ExpectedCalls = nil
//	cmd.On("Output", mock.Anything, "lspci", []string{"-nn"}).Return([]byte(out), nil)
func NewMockCommandExecutor() *mocks.MockCommandExecutor {
	cmd := &mocks.MockCommandExecutor{}
	cmd.On("Run", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(nil).Maybe()
	cmd.On("Output", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return([]byte{}, nil).Maybe()
	cmd.On(
		"OutputWithEnv", mock.Anything, mock.Anything, mock.AnythingOfType("string"), mock.Anything,
	).Return([]byte{}, nil).Maybe()
	return cmd
}

// NewMissingCommandExecutor creates a MockCommandExecutor where every
// binary behaves as if it was not installed.
func NewMissingCommandExecutor() *mocks.MockCommandExecutor {
	cmd := &mocks.MockCommandExecutor{}
	cmd.On("Run", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(ErrCommandNotFound).Maybe()
	cmd.On("Output", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(nil, ErrCommandNotFound).Maybe()
	cmd.On(
		"OutputWithEnv", mock.Anything, mock.Anything, mock.AnythingOfType("string"), mock.Anything,
	).Return(nil, ErrCommandNotFound).Maybe()
	return cmd
}
