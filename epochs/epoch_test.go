// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package epochs

import (
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestCalculator(t *testing.T) {
	require := require.New(t)

	genesis := time.Unix(1700000000, 0)
	mock := clock.NewMock()
	mock.Add(genesis.Sub(mock.Now()))
	c, err := NewCalculator(genesis, time.Hour, mock)
	require.NoError(err)

	epoch, err := c.Current()
	require.NoError(err)
	require.Zero(epoch)

	// one second before the boundary still epoch 0, at the boundary epoch 1
	mock.Add(genesis.Add(time.Hour - time.Second).Sub(mock.Now()))
	epoch, err = c.Current()
	require.NoError(err)
	require.Zero(epoch)
	require.False(c.Elapsed(0))

	mock.Add(genesis.Add(time.Hour).Sub(mock.Now()))
	epoch, err = c.Current()
	require.NoError(err)
	require.Equal(uint64(1), epoch)
	require.True(c.Elapsed(0))
	require.False(c.Elapsed(1))

	mock.Add(genesis.Add(25*time.Hour + 30*time.Minute).Sub(mock.Now()))
	epoch, err = c.Current()
	require.NoError(err)
	require.Equal(uint64(25), epoch)

	require.Equal(genesis.Add(25*time.Hour), c.StartOf(25))
	require.Equal(genesis.Add(26*time.Hour), c.EndOf(25))

	_, err = c.AtTime(genesis.Add(-time.Second))
	require.Equal(ErrBeforeGenesis, errors.Cause(err))
}

func TestCalculatorRejectsBadLength(t *testing.T) {
	_, err := NewCalculator(time.Unix(0, 0), 0, nil)
	require.Error(t, err)
}
