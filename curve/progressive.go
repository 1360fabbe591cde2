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

// Progressive prices shares along a linearly increasing marginal price: price(s) = slope * s,
// with the slope scaled by 1e18. The cost of moving the supply from s to s+d is the integral
// slope*((s+d)^2 - s^2)/2, which gives closed forms for both conversion directions:
//
//	shares(a)  = sqrt(s^2 + 2a/slope) - s
//	assets(d)  = slope*(s^2 - (s-d)^2)/2
//
// The square root floors, so minted shares round down; redeemed assets floor as well. Both
// directions leave any rounding dust in the vault.
type Progressive struct {
	id     uint64
	slope  *big.Int
	offset *big.Int
}

// NewProgressive creates a progressive curve with the given slope (1e18 scale)
func NewProgressive(id uint64, slope *big.Int) (*Progressive, error) {
	return newProgressive(id, slope, new(big.Int))
}

func newProgressive(id uint64, slope, offset *big.Int) (*Progressive, error) {
	if slope == nil || slope.Sign() <= 0 {
		return nil, errors.Wrap(ErrInvalidCurveParams, "slope must be positive")
	}
	if offset == nil || offset.Sign() < 0 {
		return nil, errors.Wrap(ErrInvalidCurveParams, "offset must not be negative")
	}
	return &Progressive{id: id, slope: new(big.Int).Set(slope), offset: new(big.Int).Set(offset)}, nil
}

func (c *Progressive) ID() uint64 { return c.id }

func (c *Progressive) Name() string {
	if c.offset.Sign() > 0 {
		return "OffsetProgressive"
	}
	return "Progressive"
}

// ConvertToShares solves the quadratic integral for the share delta minted by the deposit
func (c *Progressive) ConvertToShares(assets, totalAssets, totalShares *big.Int) (*big.Int, error) {
	if err := validateAmounts(assets, totalAssets, totalShares); err != nil {
		return nil, err
	}
	s := new(big.Int).Add(totalShares, c.offset)
	// sqrt(s^2 + 2*assets*WAD/slope) - s, floored by the integer sqrt
	radicand := new(big.Int).Mul(s, s)
	paid := new(big.Int).Mul(assets, fixedpoint.WAD)
	paid.Mul(paid, big.NewInt(2))
	paid.Quo(paid, c.slope)
	radicand.Add(radicand, paid)
	d := fixedpoint.Sqrt(radicand)
	d.Sub(d, s)
	if d.Sign() < 0 {
		d.SetInt64(0)
	}
	return d, nil
}

// ConvertToAssets evaluates the integral between the pre- and post-redemption supply
func (c *Progressive) ConvertToAssets(shares, totalAssets, totalShares *big.Int) (*big.Int, error) {
	if err := validateAmounts(shares, totalAssets, totalShares); err != nil {
		return nil, err
	}
	if shares.Cmp(totalShares) > 0 {
		return nil, errors.Wrap(ErrNegativeAmount, "shares exceed total supply")
	}
	s := new(big.Int).Add(totalShares, c.offset)
	after := new(big.Int).Sub(s, shares)
	// slope*(s^2 - after^2) / (2*WAD), floored
	diff := new(big.Int).Mul(s, s)
	diff.Sub(diff, new(big.Int).Mul(after, after))
	num := new(big.Int).Mul(c.slope, diff)
	den := new(big.Int).Mul(big.NewInt(2), fixedpoint.WAD)
	return num.Quo(num, den), nil
}

// SharePrice returns the marginal price slope*(totalShares+offset), scaled by 1e18
func (c *Progressive) SharePrice(totalAssets, totalShares *big.Int) (*big.Int, error) {
	if err := validateAmounts(totalAssets, totalShares); err != nil {
		return nil, err
	}
	s := new(big.Int).Add(totalShares, c.offset)
	return fixedpoint.MulDiv(c.slope, s, fixedpoint.WAD)
}

// NewOffsetProgressive creates a progressive curve shifted by a constant supply offset, which
// bootstraps a non-zero starting price without any initial supply
func NewOffsetProgressive(id uint64, slope, offset *big.Int) (*Progressive, error) {
	if offset == nil || offset.Sign() <= 0 {
		return nil, errors.Wrap(ErrInvalidCurveParams, "offset must be positive")
	}
	return newProgressive(id, slope, offset)
}
