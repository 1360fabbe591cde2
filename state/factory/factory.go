// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package factory provides the working-set based state factory. A working set buffers every
// write of one call; the call either commits the whole buffer to the backing store or drops
// it, so no partially applied mutation is ever observable.
package factory

import (
	"context"

	"github.com/pkg/errors"

	"github.com/0xIntuition/intuition-core/db"
	"github.com/0xIntuition/intuition-core/pkg/lifecycle"
	"github.com/0xIntuition/intuition-core/protocol"
	"github.com/0xIntuition/intuition-core/state"
)

// StateNamespace is the default namespace the states are stored under
const StateNamespace = "State"

type (
	// WorkingSet is a StateManager whose writes stay buffered until Commit
	WorkingSet interface {
		protocol.StateManager
		// Commit persists all buffered writes into the backing store
		Commit() error
	}

	// Factory creates working sets over one backing key-value store
	Factory interface {
		lifecycle.StartStopper
		// NewWorkingSet starts a fresh working set on top of the committed states
		NewWorkingSet() WorkingSet
	}

	factory struct {
		lifecycle lifecycle.Lifecycle
		kv        db.KVStore
	}

	workingSet struct {
		kv    db.KVStore
		batch db.CachedBatch
	}
)

// NewFactory creates a state factory over the given key-value store
func NewFactory(kv db.KVStore) Factory {
	f := &factory{kv: kv}
	f.lifecycle.Add(kv)
	return f
}

func (f *factory) Start(ctx context.Context) error { return f.lifecycle.OnStart(ctx) }

func (f *factory) Stop(ctx context.Context) error { return f.lifecycle.OnStop(ctx) }

func (f *factory) NewWorkingSet() WorkingSet {
	return &workingSet{
		kv:    f.kv,
		batch: db.NewCachedBatch(),
	}
}

func (ws *workingSet) State(s interface{}, opts ...protocol.StateOption) error {
	cfg, err := processOptions(opts...)
	if err != nil {
		return err
	}
	value, err := ws.batch.Get(cfg.Namespace, cfg.Key)
	switch errors.Cause(err) {
	case nil:
	case db.ErrAlreadyDeleted:
		// deleted within this working set, the committed value must not resurface
		return errors.Wrapf(state.ErrStateNotExist, "key = %x", cfg.Key)
	default:
		value, err = ws.kv.Get(cfg.Namespace, cfg.Key)
		if err != nil {
			return errors.Wrapf(state.ErrStateNotExist, "key = %x", cfg.Key)
		}
	}
	return state.Deserialize(s, value)
}

func (ws *workingSet) PutState(s interface{}, opts ...protocol.StateOption) error {
	cfg, err := processOptions(opts...)
	if err != nil {
		return err
	}
	value, err := state.Serialize(s)
	if err != nil {
		return errors.Wrapf(err, "failed to convert %T state to bytes", s)
	}
	ws.batch.Put(cfg.Namespace, cfg.Key, value)
	return nil
}

func (ws *workingSet) DelState(opts ...protocol.StateOption) error {
	cfg, err := processOptions(opts...)
	if err != nil {
		return err
	}
	ws.batch.Delete(cfg.Namespace, cfg.Key)
	return nil
}

func (ws *workingSet) Snapshot() int { return ws.batch.Snapshot() }

func (ws *workingSet) Revert(snapshot int) error { return ws.batch.Revert(snapshot) }

func (ws *workingSet) Commit() error {
	return ws.kv.Commit(ws.batch)
}

func processOptions(opts ...protocol.StateOption) (*protocol.StateConfig, error) {
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.Namespace == "" {
		cfg.Namespace = StateNamespace
	}
	if len(cfg.Key) == 0 {
		return nil, errors.New("key is missing")
	}
	return cfg, nil
}
