// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/0xIntuition/intuition-core/pkg/lifecycle"
)

var (
	// ErrBucketNotExist indicates certain bucket does not exist in db
	ErrBucketNotExist = errors.New("bucket not exist in DB")
	// ErrNotExist indicates certain item does not exist in the database
	ErrNotExist = errors.New("not exist in DB")
	// ErrAlreadyDeleted indicates the key has been deleted in a pending batch
	ErrAlreadyDeleted = errors.New("already deleted from DB")
	// ErrAlreadyExist indicates certain item already exists in the database
	ErrAlreadyExist = errors.New("already exist in DB")
	// ErrIO indicates the generic error of DB I/O operation
	ErrIO = errors.New("DB I/O operation error")
)

type (
	// Config contains the settings for the key-value store backends
	Config struct {
		// DbPath is the path of the database file, used by the bolt backend only
		DbPath string `json:"dbPath" yaml:"dbPath"`
		// NumRetries is the number of retries of a failed write
		NumRetries uint8 `json:"numRetries" yaml:"numRetries"`
	}

	// KVStore is the interface of KV store
	KVStore interface {
		lifecycle.StartStopper

		// Put insert or update a record identified by (namespace, key)
		Put(string, []byte, []byte) error
		// Get gets a record by (namespace, key)
		Get(string, []byte) ([]byte, error)
		// Delete deletes a record by (namespace, key)
		Delete(string, []byte) error
		// Commit commits a batch
		Commit(KVStoreBatch) error
	}
)

// DefaultConfig is the default config of the key-value store
var DefaultConfig = Config{
	DbPath:     "",
	NumRetries: 3,
}

const _keyDelimiter = "."

// memKVStore is the in-memory implementation of KVStore
type memKVStore struct {
	data   sync.Map
	bucket sync.Map
}

// NewMemKVStore instantiates an in-memory KV store
func NewMemKVStore() KVStore {
	return &memKVStore{}
}

func (m *memKVStore) Start(_ context.Context) error { return nil }

func (m *memKVStore) Stop(_ context.Context) error { return nil }

// Put inserts a <key, value> record
func (m *memKVStore) Put(namespace string, key, value []byte) error {
	_, _ = m.bucket.LoadOrStore(namespace, struct{}{})
	m.data.Store(namespace+_keyDelimiter+string(key), value)
	return nil
}

// Get retrieves a record
func (m *memKVStore) Get(namespace string, key []byte) ([]byte, error) {
	if _, ok := m.bucket.Load(namespace); !ok {
		return nil, errors.Wrapf(ErrBucketNotExist, "namespace = %s doesn't exist", namespace)
	}
	value, _ := m.data.Load(namespace + _keyDelimiter + string(key))
	if value != nil {
		return value.([]byte), nil
	}
	return nil, errors.Wrapf(ErrNotExist, "key = %x doesn't exist", key)
}

// Delete deletes a record
func (m *memKVStore) Delete(namespace string, key []byte) error {
	m.data.Delete(namespace + _keyDelimiter + string(key))
	return nil
}

// Commit commits a batch, all-or-nothing for the in-memory store because single writes cannot fail
func (m *memKVStore) Commit(b KVStoreBatch) (e error) {
	succeed := false
	b.Lock()
	defer func() {
		if succeed {
			b.ClearAndUnlock()
		} else {
			b.Unlock()
		}
	}()
	for i := 0; i < b.Size(); i++ {
		write, err := b.Entry(i)
		if err != nil {
			return err
		}
		switch write.writeType {
		case Put:
			if err := m.Put(write.namespace, write.key, write.value); err != nil {
				return err
			}
		case Delete:
			if err := m.Delete(write.namespace, write.key); err != nil {
				return err
			}
		}
	}
	succeed = true
	return nil
}
