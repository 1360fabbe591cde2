// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

//go:build !linux

package log

import "os"

// redirectStderr to the file passed in
func redirectStderr(f *os.File) error {
	os.Stderr = f
	return nil
}
