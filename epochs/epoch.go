// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package epochs anchors the epoch index to wall-clock time. An epoch is a fixed-length window
// starting at the genesis timestamp; once its end time has passed the epoch is elapsed and all
// state recorded under it is final. There is no scheduler: finality is a read-time comparison.
package epochs

import (
	"time"

	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
)

// ErrBeforeGenesis indicates a timestamp before the genesis time
var ErrBeforeGenesis = errors.New("timestamp is before genesis")

// Calculator converts between wall-clock time and epoch indexes
type Calculator struct {
	genesis time.Time
	length  time.Duration
	clock   clock.Clock
}

// NewCalculator creates an epoch calculator. A nil clock defaults to the wall clock
func NewCalculator(genesis time.Time, length time.Duration, c clock.Clock) (*Calculator, error) {
	if length <= 0 {
		return nil, errors.New("epoch length must be positive")
	}
	if c == nil {
		c = clock.New()
	}
	return &Calculator{
		genesis: genesis,
		length:  length,
		clock:   c,
	}, nil
}

// Genesis returns the genesis timestamp
func (c *Calculator) Genesis() time.Time { return c.genesis }

// Length returns the epoch length
func (c *Calculator) Length() time.Duration { return c.length }

// Current returns the epoch index at the current time
func (c *Calculator) Current() (uint64, error) {
	return c.AtTime(c.clock.Now())
}

// AtTime returns the epoch index containing the given time
func (c *Calculator) AtTime(t time.Time) (uint64, error) {
	if t.Before(c.genesis) {
		return 0, errors.Wrapf(ErrBeforeGenesis, "time = %s", t)
	}
	return uint64(t.Sub(c.genesis) / c.length), nil
}

// StartOf returns the start time of the given epoch
func (c *Calculator) StartOf(epoch uint64) time.Time {
	return c.genesis.Add(time.Duration(epoch) * c.length)
}

// EndOf returns the end time of the given epoch, which is the start of the next one
func (c *Calculator) EndOf(epoch uint64) time.Time {
	return c.StartOf(epoch + 1)
}

// Elapsed reports whether the given epoch has fully passed, which freezes its records
func (c *Calculator) Elapsed(epoch uint64) bool {
	return !c.clock.Now().Before(c.EndOf(epoch))
}

// Now returns the current time of the underlying clock
func (c *Calculator) Now() time.Time { return c.clock.Now() }
