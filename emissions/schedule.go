// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package emissions computes the per-epoch reward budget. The base emission decays by a
// fixed basis point reduction once per cliff, with every step floored, so the schedule is
// exact integer arithmetic and every node computes the identical budget for any epoch.
package emissions

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/0xIntuition/intuition-core/config"
)

// ErrInvalidSchedule indicates a malformed schedule parameter
var ErrInvalidSchedule = errors.New("invalid emission schedule")

// Schedule is the emission decay law
type Schedule struct {
	base         *big.Int
	cliffEpochs  uint64
	reductionBps uint64
}

// NewSchedule creates an emission schedule from the config
func NewSchedule(cfg config.Emissions) (*Schedule, error) {
	base := cfg.BaseEmission()
	if base.Sign() <= 0 {
		return nil, errors.Wrap(ErrInvalidSchedule, "base emission must be positive")
	}
	if cfg.CliffEpochs == 0 {
		return nil, errors.Wrap(ErrInvalidSchedule, "cliff length must be positive")
	}
	if cfg.ReductionBps > config.FeeDenominator {
		return nil, errors.Wrap(ErrInvalidSchedule, "reduction must stay within the basis point denominator")
	}
	return &Schedule{
		base:         new(big.Int).Set(base),
		cliffEpochs:  cfg.CliffEpochs,
		reductionBps: cfg.ReductionBps,
	}, nil
}

// EmissionAt returns the reward budget of the epoch. The budget is reduced by the
// configured basis points once every cliff, flooring after each step
func (s *Schedule) EmissionAt(epoch uint64) *big.Int {
	steps := epoch / s.cliffEpochs
	emission := new(big.Int).Set(s.base)
	keep := new(big.Int).SetUint64(config.FeeDenominator - s.reductionBps)
	den := new(big.Int).SetUint64(config.FeeDenominator)
	for i := uint64(0); i < steps; i++ {
		if emission.Sign() == 0 {
			break
		}
		emission.Mul(emission, keep)
		emission.Quo(emission, den)
	}
	return emission
}

// TotalThrough returns the sum of the budgets of epochs 0 through the given epoch inclusive
func (s *Schedule) TotalThrough(epoch uint64) *big.Int {
	total := new(big.Int)
	cliff := new(big.Int).SetUint64(s.cliffEpochs)
	keep := new(big.Int).SetUint64(config.FeeDenominator - s.reductionBps)
	den := new(big.Int).SetUint64(config.FeeDenominator)
	emission := new(big.Int).Set(s.base)
	steps := epoch / s.cliffEpochs
	for i := uint64(0); i < steps; i++ {
		total.Add(total, new(big.Int).Mul(emission, cliff))
		emission.Mul(emission, keep)
		emission.Quo(emission, den)
	}
	remaining := epoch - steps*s.cliffEpochs + 1
	total.Add(total, new(big.Int).Mul(emission, new(big.Int).SetUint64(remaining)))
	return total
}
