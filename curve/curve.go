// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package curve implements the bonding curve strategies that price vault shares. Each strategy
// is a pair of pure conversion functions between assets and shares given the vault totals. The
// conversions multiply before dividing and round down, so a depositor can never mint more value
// than was paid in and a redeemer can never drain more than the shares are worth.
package curve

import (
	"math/big"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

var (
	// ErrCurveNotFound indicates the curve id is not registered
	ErrCurveNotFound = errors.New("curve not found")
	// ErrCurveAlreadyExists indicates the curve id is already registered
	ErrCurveAlreadyExists = errors.New("curve already exists")
	// ErrInvalidCurveParams indicates a malformed curve parameter
	ErrInvalidCurveParams = errors.New("invalid curve parameters")
	// ErrNegativeAmount indicates a negative conversion input
	ErrNegativeAmount = errors.New("negative amount")
)

type (
	// Curve is one pricing law between assets and shares. Implementations are pure: they only
	// read the vault totals passed in and never mutate them
	Curve interface {
		// ID returns the registered numeric id of the curve
		ID() uint64
		// Name returns a human readable name of the pricing law
		Name() string
		// ConvertToShares converts an asset amount to the shares it mints, given the totals
		// before the deposit
		ConvertToShares(assets, totalAssets, totalShares *big.Int) (*big.Int, error)
		// ConvertToAssets converts a share amount to the assets it redeems, given the totals
		// before the redemption
		ConvertToAssets(shares, totalAssets, totalShares *big.Int) (*big.Int, error)
		// SharePrice returns the current marginal price of one share, scaled by 1e18
		SharePrice(totalAssets, totalShares *big.Int) (*big.Int, error)
	}

	// Registry is the append-only id -> curve map. Registered curves can never be replaced or
	// removed, so a vault's pricing law is fixed for its whole life
	Registry struct {
		mu     sync.RWMutex
		curves map[uint64]Curve
	}
)

// NewRegistry creates an empty curve registry
func NewRegistry() *Registry {
	return &Registry{curves: make(map[uint64]Curve)}
}

// Register adds a curve under its id, failing if the id is taken
func (r *Registry) Register(c Curve) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.curves[c.ID()]; ok {
		return errors.Wrapf(ErrCurveAlreadyExists, "id = %d", c.ID())
	}
	r.curves[c.ID()] = c
	return nil
}

// Get returns the curve registered under the id
func (r *Registry) Get(id uint64) (Curve, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.curves[id]
	if !ok {
		return nil, errors.Wrapf(ErrCurveNotFound, "id = %d", id)
	}
	return c, nil
}

// IDs returns the registered curve ids in ascending order
func (r *Registry) IDs() []uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uint64, 0, len(r.curves))
	for id := range r.curves {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func validateAmounts(amounts ...*big.Int) error {
	for _, a := range amounts {
		if a == nil || a.Sign() < 0 {
			return ErrNegativeAmount
		}
	}
	return nil
}
