// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package protocol

import "github.com/pkg/errors"

var (
	// ErrUnauthorized indicates the caller is not allowed to perform the operation
	ErrUnauthorized = errors.New("caller is not authorized")
	// ErrInvalidAddress indicates an invalid or zero address argument
	ErrInvalidAddress = errors.New("invalid address")
	// ErrInvalidAmount indicates a zero or negative amount argument
	ErrInvalidAmount = errors.New("invalid amount")
)
