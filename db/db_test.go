// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var (
	_bucket1 = "ns1"
	_bucket2 = "ns2"
	_testK   = [3][]byte{[]byte("key_1"), []byte("key_2"), []byte("key_3")}
	_testV   = [3][]byte{[]byte("value_1"), []byte("value_2"), []byte("value_3")}
)

func testKVStorePutGet(kv KVStore, t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	require.NoError(kv.Start(ctx))
	defer func() {
		require.NoError(kv.Stop(ctx))
	}()

	require.NoError(kv.Put(_bucket1, _testK[0], _testV[0]))
	v, err := kv.Get(_bucket1, _testK[0])
	require.NoError(err)
	require.Equal(_testV[0], v)

	// wrong namespace or key
	_, err = kv.Get(_bucket2, _testK[0])
	require.Error(err)
	_, err = kv.Get(_bucket1, _testK[1])
	require.Error(err)
	require.Equal(ErrNotExist, errors.Cause(err))

	// overwrite
	require.NoError(kv.Put(_bucket1, _testK[0], _testV[1]))
	v, err = kv.Get(_bucket1, _testK[0])
	require.NoError(err)
	require.Equal(_testV[1], v)

	// delete
	require.NoError(kv.Delete(_bucket1, _testK[0]))
	_, err = kv.Get(_bucket1, _testK[0])
	require.Error(err)
}

func testKVStoreBatchCommit(kv KVStore, t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	require.NoError(kv.Start(ctx))
	defer func() {
		require.NoError(kv.Stop(ctx))
	}()

	b := NewBatch()
	b.Put(_bucket1, _testK[0], _testV[0])
	b.Put(_bucket2, _testK[1], _testV[1])
	b.Delete(_bucket1, _testK[2])
	require.NoError(kv.Commit(b))
	// a successful commit clears the batch
	require.Zero(b.Size())

	v, err := kv.Get(_bucket1, _testK[0])
	require.NoError(err)
	require.Equal(_testV[0], v)
	v, err = kv.Get(_bucket2, _testK[1])
	require.NoError(err)
	require.Equal(_testV[1], v)
}

func TestMemKVStore(t *testing.T) {
	t.Run("put-get", func(t *testing.T) {
		testKVStorePutGet(NewMemKVStore(), t)
	})
	t.Run("batch-commit", func(t *testing.T) {
		testKVStoreBatchCommit(NewMemKVStore(), t)
	})
}

func TestBoltDB(t *testing.T) {
	cfg := DefaultConfig
	t.Run("put-get", func(t *testing.T) {
		cfg.DbPath = filepath.Join(t.TempDir(), "test.db")
		testKVStorePutGet(NewBoltDB(cfg), t)
	})
	t.Run("batch-commit", func(t *testing.T) {
		cfg.DbPath = filepath.Join(t.TempDir(), "test.db")
		testKVStoreBatchCommit(NewBoltDB(cfg), t)
	})
}

func TestCachedBatchSnapshot(t *testing.T) {
	require := require.New(t)

	cb := NewCachedBatch()
	cb.Put(_bucket1, _testK[0], _testV[0])
	s0 := cb.Snapshot()
	require.Equal(0, s0)

	cb.Put(_bucket1, _testK[1], _testV[1])
	cb.Delete(_bucket1, _testK[0])
	s1 := cb.Snapshot()
	require.Equal(1, s1)

	cb.Put(_bucket2, _testK[2], _testV[2])
	require.Equal(4, cb.Size())

	// revert to snapshot 1: the delete of key 0 is still in effect
	require.NoError(cb.Revert(s1))
	_, err := cb.Get(_bucket1, _testK[0])
	require.Equal(ErrAlreadyDeleted, errors.Cause(err))
	v, err := cb.Get(_bucket1, _testK[1])
	require.NoError(err)
	require.Equal(_testV[1], v)
	_, err = cb.Get(_bucket2, _testK[2])
	require.Error(err)

	// revert to snapshot 0
	require.NoError(cb.Revert(s0))
	v, err = cb.Get(_bucket1, _testK[0])
	require.NoError(err)
	require.Equal(_testV[0], v)
	require.Equal(1, cb.Size())

	// cannot revert to a dropped snapshot
	require.Error(cb.Revert(s1))
}

func TestMemKVStoreCommitIsExactOrder(t *testing.T) {
	require := require.New(t)
	kv := NewMemKVStore()
	require.NoError(kv.Start(context.Background()))

	b := NewBatch()
	b.Put(_bucket1, _testK[0], _testV[0])
	b.Delete(_bucket1, _testK[0])
	require.NoError(kv.Commit(b))

	// the delete was staged after the put, so the key must not survive
	_, err := kv.Get(_bucket1, _testK[0])
	require.Error(err)
}
