// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package fixedpoint implements exact multiply-then-divide arithmetic on big integers with a
// controlled rounding direction. Amounts paid out to users round down, amounts charged as fees
// round up, so accumulated rounding dust always stays with the vault.
package fixedpoint

import (
	"math/big"

	"github.com/pkg/errors"
)

// WAD is the fixed-point scale for prices and slopes, 1e18
var WAD = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// ErrDivisionByZero indicates a zero denominator
var ErrDivisionByZero = errors.New("division by zero")

// MulDiv returns floor(a * b / den). The product is computed at full width before the division.
func MulDiv(a, b, den *big.Int) (*big.Int, error) {
	if den.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	r := new(big.Int).Mul(a, b)
	return r.Quo(r, den), nil
}

// MulDivRoundUp returns ceil(a * b / den)
func MulDivRoundUp(a, b, den *big.Int) (*big.Int, error) {
	if den.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	num := new(big.Int).Mul(a, b)
	q, m := new(big.Int).QuoRem(num, den, new(big.Int))
	if m.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q, nil
}

// BpsOf returns floor(amount * bps / denominator), the basis-point share of an amount
func BpsOf(amount *big.Int, bps, denominator uint64) *big.Int {
	if denominator == 0 {
		return new(big.Int)
	}
	r := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	return r.Quo(r, new(big.Int).SetUint64(denominator))
}

// BpsOfRoundUp returns ceil(amount * bps / denominator)
func BpsOfRoundUp(amount *big.Int, bps, denominator uint64) *big.Int {
	if denominator == 0 {
		return new(big.Int)
	}
	num := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	den := new(big.Int).SetUint64(denominator)
	q, m := new(big.Int).QuoRem(num, den, new(big.Int))
	if m.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// Sqrt returns the integer square root of x, the largest s with s*s <= x
func Sqrt(x *big.Int) *big.Int {
	if x.Sign() < 0 {
		panic("fixedpoint: square root of negative number")
	}
	return new(big.Int).Sqrt(x)
}

// Min returns the smaller of a and b
func Min(a, b *big.Int) *big.Int {
	if a.Cmp(b) < 0 {
		return a
	}
	return b
}
