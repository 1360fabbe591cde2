// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

import (
	"sync"

	"github.com/pkg/errors"
)

type (
	// KVStoreBatch defines a batch buffer that stages Put/Delete entries in sequential order
	// To use it, first start a new batch
	// b := NewBatch()
	// keep batching Put/Delete operations into it, then call KVStore.Commit(b) to persist to
	// the underlying store. If the commit succeeds the batch is cleared, otherwise it is kept
	// intact so the caller can re-commit later
	KVStoreBatch interface {
		// Lock locks the batch
		Lock()
		// Unlock unlocks the batch
		Unlock()
		// ClearAndUnlock clears the write queue and unlocks the batch
		ClearAndUnlock()
		// Put inserts or updates a record identified by (namespace, key)
		Put(string, []byte, []byte)
		// Delete deletes a record by (namespace, key)
		Delete(string, []byte)
		// Size returns the size of the batch
		Size() int
		// Entry returns the entry at the index
		Entry(int) (*writeInfo, error)
		// Clear clears entries staged in the batch
		Clear()
	}

	// writeInfo stores a single Put/Delete operation
	writeInfo struct {
		writeType int32
		namespace string
		key       []byte
		value     []byte
	}

	baseKVStoreBatch struct {
		mutex      sync.RWMutex
		writeQueue []writeInfo
	}

	// CachedBatch derives from the KVStoreBatch interface. A local cache is added to provide
	// fast retrieval of pending entries, and snapshots allow a run of writes to be reverted
	// without touching the underlying store
	CachedBatch interface {
		KVStoreBatch
		// Get gets a record by (namespace, key)
		Get(string, []byte) ([]byte, error)
		// Snapshot takes a snapshot of the current cached batch
		Snapshot() int
		// Revert sets the cached batch back to the state at the given snapshot
		Revert(int) error
	}

	cachedBatch struct {
		lock      sync.RWMutex
		queue     []writeInfo
		cache     map[string][]byte   // pending writes, nil value marks a delete
		snapshots []cachedBatchLayer  // saved snapshots
		tag       int                 // latest snapshot + 1
	}

	cachedBatchLayer struct {
		queueLen int
		cache    map[string][]byte
	}
)

const (
	// Put indicates the type of the write operation to be Put
	Put int32 = iota
	// Delete indicates the type of the write operation to be Delete
	Delete
)

// NewBatch returns a batch
func NewBatch() KVStoreBatch {
	return &baseKVStoreBatch{}
}

func (b *baseKVStoreBatch) Lock()   { b.mutex.Lock() }
func (b *baseKVStoreBatch) Unlock() { b.mutex.Unlock() }

func (b *baseKVStoreBatch) ClearAndUnlock() {
	defer b.mutex.Unlock()
	b.writeQueue = nil
}

// Put inserts a <key, value> record
func (b *baseKVStoreBatch) Put(namespace string, key, value []byte) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.writeQueue = append(b.writeQueue, writeInfo{writeType: Put, namespace: namespace, key: key, value: value})
}

// Delete deletes a record
func (b *baseKVStoreBatch) Delete(namespace string, key []byte) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.writeQueue = append(b.writeQueue, writeInfo{writeType: Delete, namespace: namespace, key: key})
}

func (b *baseKVStoreBatch) Size() int { return len(b.writeQueue) }

func (b *baseKVStoreBatch) Entry(index int) (*writeInfo, error) {
	if index < 0 || index >= len(b.writeQueue) {
		return nil, errors.Wrap(ErrIO, "index out of range")
	}
	return &b.writeQueue[index], nil
}

func (b *baseKVStoreBatch) Clear() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.writeQueue = nil
}

// NewCachedBatch returns a new cached batch buffer
func NewCachedBatch() CachedBatch {
	return &cachedBatch{
		cache: make(map[string][]byte),
	}
}

func cacheKey(namespace string, key []byte) string {
	return namespace + _keyDelimiter + string(key)
}

func (cb *cachedBatch) Lock()   { cb.lock.Lock() }
func (cb *cachedBatch) Unlock() { cb.lock.Unlock() }

func (cb *cachedBatch) ClearAndUnlock() {
	defer cb.lock.Unlock()
	cb.clear()
}

func (cb *cachedBatch) clear() {
	cb.queue = nil
	cb.cache = make(map[string][]byte)
	cb.snapshots = nil
	cb.tag = 0
}

// Put inserts a <key, value> record
func (cb *cachedBatch) Put(namespace string, key, value []byte) {
	cb.lock.Lock()
	defer cb.lock.Unlock()
	cb.cache[cacheKey(namespace, key)] = value
	cb.queue = append(cb.queue, writeInfo{writeType: Put, namespace: namespace, key: key, value: value})
}

// Delete deletes a record
func (cb *cachedBatch) Delete(namespace string, key []byte) {
	cb.lock.Lock()
	defer cb.lock.Unlock()
	cb.cache[cacheKey(namespace, key)] = nil
	cb.queue = append(cb.queue, writeInfo{writeType: Delete, namespace: namespace, key: key})
}

// Get retrieves a pending record, ErrNotExist if it is not staged in this batch
func (cb *cachedBatch) Get(namespace string, key []byte) ([]byte, error) {
	cb.lock.RLock()
	defer cb.lock.RUnlock()
	v, ok := cb.cache[cacheKey(namespace, key)]
	if !ok {
		return nil, errors.Wrapf(ErrNotExist, "key = %x is not staged", key)
	}
	if v == nil {
		return nil, errors.Wrapf(ErrAlreadyDeleted, "key = %x has been deleted", key)
	}
	return v, nil
}

func (cb *cachedBatch) Size() int { return len(cb.queue) }

func (cb *cachedBatch) Entry(index int) (*writeInfo, error) {
	if index < 0 || index >= len(cb.queue) {
		return nil, errors.Wrap(ErrIO, "index out of range")
	}
	return &cb.queue[index], nil
}

func (cb *cachedBatch) Clear() {
	cb.lock.Lock()
	defer cb.lock.Unlock()
	cb.clear()
}

// Snapshot takes a snapshot of the current cached batch
func (cb *cachedBatch) Snapshot() int {
	cb.lock.Lock()
	defer cb.lock.Unlock()
	layer := cachedBatchLayer{
		queueLen: len(cb.queue),
		cache:    make(map[string][]byte, len(cb.cache)),
	}
	for k, v := range cb.cache {
		layer.cache[k] = v
	}
	cb.snapshots = append(cb.snapshots, layer)
	tag := cb.tag
	cb.tag++
	return tag
}

// Revert sets the cached batch back to the state at the given snapshot
func (cb *cachedBatch) Revert(snapshot int) error {
	cb.lock.Lock()
	defer cb.lock.Unlock()
	if snapshot < 0 || snapshot >= cb.tag {
		return errors.Wrapf(ErrIO, "invalid snapshot number = %d", snapshot)
	}
	layer := cb.snapshots[snapshot]
	cb.queue = cb.queue[:layer.queueLen]
	cb.cache = layer.cache
	cb.snapshots = cb.snapshots[:snapshot]
	cb.tag = snapshot
	return nil
}
