// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package curve

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/0xIntuition/intuition-core/pkg/fixedpoint"
)

// Linear prices every share at a fixed amount of assets, so deposits incur no curve-induced
// slippage. Price is expressed in assets per share, scaled by 1e18.
type Linear struct {
	id    uint64
	price *big.Int
}

// NewLinear creates a linear curve with the given fixed price (assets per share, 1e18 scale)
func NewLinear(id uint64, price *big.Int) (*Linear, error) {
	if price == nil || price.Sign() <= 0 {
		return nil, errors.Wrap(ErrInvalidCurveParams, "price must be positive")
	}
	return &Linear{id: id, price: new(big.Int).Set(price)}, nil
}

func (c *Linear) ID() uint64 { return c.id }

func (c *Linear) Name() string { return "Linear" }

// ConvertToShares returns assets / price, rounded down
func (c *Linear) ConvertToShares(assets, totalAssets, totalShares *big.Int) (*big.Int, error) {
	if err := validateAmounts(assets, totalAssets, totalShares); err != nil {
		return nil, err
	}
	return fixedpoint.MulDiv(assets, fixedpoint.WAD, c.price)
}

// SharePrice returns the fixed price regardless of the vault totals
func (c *Linear) SharePrice(totalAssets, totalShares *big.Int) (*big.Int, error) {
	return new(big.Int).Set(c.price), nil
}

// ConvertToAssets returns shares * price, rounded down
func (c *Linear) ConvertToAssets(shares, totalAssets, totalShares *big.Int) (*big.Int, error) {
	if err := validateAmounts(shares, totalAssets, totalShares); err != nil {
		return nil, err
	}
	return fixedpoint.MulDiv(shares, c.price, fixedpoint.WAD)
}
