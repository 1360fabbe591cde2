// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"
)

type (
	// StateConfig is the config for accessing a state
	StateConfig struct {
		Namespace string
		Key       []byte
	}

	// StateOption sets a parameter for accessing a state
	StateOption func(*StateConfig) error

	// StateReader defines the read-only interface to the ledger states
	StateReader interface {
		State(interface{}, ...StateOption) error
	}

	// StateManager defines the mutable interface to the ledger states. A snapshot taken before a
	// run of writes can be reverted to discard the whole run
	StateManager interface {
		StateReader
		Snapshot() int
		Revert(int) error
		PutState(interface{}, ...StateOption) error
		DelState(...StateOption) error
	}
)

// NamespaceOption creates an option for the given namespace
func NamespaceOption(ns string) StateOption {
	return func(cfg *StateConfig) error {
		cfg.Namespace = ns
		return nil
	}
}

// KeyOption sets the key for the call
func KeyOption(key []byte) StateOption {
	return func(cfg *StateConfig) error {
		cfg.Key = make([]byte, len(key))
		copy(cfg.Key, key)
		return nil
	}
}

// LegacyKeyOption sets the key for the call with a 20-byte key
func LegacyKeyOption(key hash.Hash160) StateOption {
	return func(cfg *StateConfig) error {
		cfg.Key = make([]byte, len(key[:]))
		copy(cfg.Key, key[:])
		return nil
	}
}

// CreateStateConfig creates a config for accessing a state
func CreateStateConfig(opts ...StateOption) (*StateConfig, error) {
	cfg := StateConfig{}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, errors.Wrap(err, "failed to execute state option")
		}
	}
	return &cfg, nil
}
