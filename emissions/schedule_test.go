// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package emissions

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/0xIntuition/intuition-core/config"
)

func TestEmissionDecay(t *testing.T) {
	require := require.New(t)

	// 1,000 per epoch, 10% reduction every 4 epochs
	s, err := NewSchedule(config.Emissions{
		BaseEmissionStr: "1000",
		CliffEpochs:     4,
		ReductionBps:    1000,
	})
	require.NoError(err)

	for epoch := uint64(0); epoch < 4; epoch++ {
		require.Equal(big.NewInt(1000), s.EmissionAt(epoch))
	}
	for epoch := uint64(4); epoch < 8; epoch++ {
		require.Equal(big.NewInt(900), s.EmissionAt(epoch))
	}
	for epoch := uint64(8); epoch < 12; epoch++ {
		require.Equal(big.NewInt(810), s.EmissionAt(epoch))
	}
}

func TestEmissionFloorsEachStep(t *testing.T) {
	require := require.New(t)

	s, err := NewSchedule(config.Emissions{
		BaseEmissionStr: "10",
		CliffEpochs:     1,
		ReductionBps:    3333,
	})
	require.NoError(err)

	// 10 -> 6 (floor of 6.667) -> 4 (floor of 4.0002) -> 2 -> 1 -> 0
	require.Equal(big.NewInt(10), s.EmissionAt(0))
	require.Equal(big.NewInt(6), s.EmissionAt(1))
	require.Equal(big.NewInt(4), s.EmissionAt(2))
	require.Equal(big.NewInt(2), s.EmissionAt(3))
	require.Equal(big.NewInt(1), s.EmissionAt(4))
	require.Equal(big.NewInt(0), s.EmissionAt(5))
	require.Equal(big.NewInt(0), s.EmissionAt(1000))
}

func TestTotalThrough(t *testing.T) {
	require := require.New(t)

	s, err := NewSchedule(config.Emissions{
		BaseEmissionStr: "1000",
		CliffEpochs:     4,
		ReductionBps:    1000,
	})
	require.NoError(err)

	require.Equal(big.NewInt(1000), s.TotalThrough(0))
	require.Equal(big.NewInt(4000), s.TotalThrough(3))
	require.Equal(big.NewInt(4900), s.TotalThrough(4))
	// 4*1000 + 4*900 + 2*810
	require.Equal(big.NewInt(9220), s.TotalThrough(9))

	// the running total is the exact sum of the per-epoch budgets
	sum := new(big.Int)
	for epoch := uint64(0); epoch <= 25; epoch++ {
		sum.Add(sum, s.EmissionAt(epoch))
		require.Equal(sum, s.TotalThrough(epoch))
	}
}

func TestNewScheduleRejectsBadParams(t *testing.T) {
	require := require.New(t)

	_, err := NewSchedule(config.Emissions{BaseEmissionStr: "1000", CliffEpochs: 0, ReductionBps: 100})
	require.Equal(ErrInvalidSchedule, errors.Cause(err))
	_, err = NewSchedule(config.Emissions{BaseEmissionStr: "0", CliffEpochs: 4, ReductionBps: 100})
	require.Equal(ErrInvalidSchedule, errors.Cause(err))
	_, err = NewSchedule(config.Emissions{BaseEmissionStr: "1000", CliffEpochs: 4, ReductionBps: 10001})
	require.Equal(ErrInvalidSchedule, errors.Cause(err))
}
