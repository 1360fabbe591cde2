// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package multivault

import (
	"context"
	"math/big"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"

	"github.com/0xIntuition/intuition-core/protocol"
	"github.com/0xIntuition/intuition-core/state"
)

type (
	// Fund stores the balance of the protocol fee fund. The difference between total and
	// unclaimed balance is what governance has already withdrawn over the fund's lifetime
	Fund struct {
		TotalBalance     *big.Int
		UnclaimedBalance *big.Int
	}

	// walletFees is the accrued atom wallet fee balance of one atom
	walletFees struct {
		Balance *big.Int
	}
)

// Fund returns the protocol fee fund balances
func (p *Protocol) Fund(sr protocol.StateReader) (*Fund, error) {
	f, err := p.fund(sr)
	if err != nil {
		return nil, err
	}
	return &Fund{TotalBalance: clone(f.TotalBalance), UnclaimedBalance: clone(f.UnclaimedBalance)}, nil
}

// WithdrawProtocolFees pays the amount out of the fee fund to the recipient. Authorization
// is the service boundary's job, the ledger only enforces the balance
func (p *Protocol) WithdrawProtocolFees(
	ctx context.Context,
	sm protocol.StateManager,
	amount *big.Int,
) (*FeesWithdrawn, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	if amount == nil || amount.Sign() <= 0 {
		return nil, errors.Wrapf(ErrInsufficientFunds, "withdrawal = %s", amount)
	}
	f, err := p.fund(sm)
	if err != nil {
		return nil, err
	}
	if f.UnclaimedBalance.Cmp(amount) < 0 {
		return nil, errors.Wrapf(ErrInsufficientFunds, "unclaimed %s < withdrawal %s", f.UnclaimedBalance, amount)
	}
	f.UnclaimedBalance.Sub(f.UnclaimedBalance, amount)
	if err := p.putState(sm, FeesNamespace, hash.Hash160b(_fundKey), f); err != nil {
		return nil, err
	}
	return &FeesWithdrawn{Recipient: actionCtx.Caller.String(), Amount: clone(amount)}, nil
}

// AtomWalletFees returns the accrued wallet fee balance of the atom
func (p *Protocol) AtomWalletFees(sr protocol.StateReader, atomID hash.Hash256) (*big.Int, error) {
	var w walletFees
	err := p.state(sr, FeesNamespace, walletFeeKey(atomID), &w)
	switch errors.Cause(err) {
	case nil:
		return clone(w.Balance), nil
	case state.ErrStateNotExist:
		return new(big.Int), nil
	default:
		return nil, err
	}
}

// ClaimAtomWalletFees drains the atom's accrued wallet fees. The service boundary checks
// the caller against the wallet owner reported by the wallet factory
func (p *Protocol) ClaimAtomWalletFees(
	ctx context.Context,
	sm protocol.StateManager,
	atomID hash.Hash256,
) (*big.Int, *FeesWithdrawn, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	if _, err := p.Term(sm, atomID); err != nil {
		return nil, nil, err
	}
	balance, err := p.AtomWalletFees(sm, atomID)
	if err != nil {
		return nil, nil, err
	}
	if balance.Sign() == 0 {
		return nil, nil, errors.Wrapf(ErrInsufficientFunds, "no wallet fees accrued for atom %x", atomID)
	}
	if err := p.putState(sm, FeesNamespace, walletFeeKey(atomID), &walletFees{Balance: new(big.Int)}); err != nil {
		return nil, nil, err
	}
	return balance, &FeesWithdrawn{Recipient: actionCtx.Caller.String(), Amount: clone(balance)}, nil
}

func (p *Protocol) fund(sr protocol.StateReader) (*Fund, error) {
	var f Fund
	err := p.state(sr, FeesNamespace, hash.Hash160b(_fundKey), &f)
	switch errors.Cause(err) {
	case nil:
		return &f, nil
	case state.ErrStateNotExist:
		return &Fund{TotalBalance: new(big.Int), UnclaimedBalance: new(big.Int)}, nil
	default:
		return nil, err
	}
}

func (p *Protocol) creditFund(sm protocol.StateManager, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	f, err := p.fund(sm)
	if err != nil {
		return err
	}
	f.TotalBalance.Add(f.TotalBalance, amount)
	f.UnclaimedBalance.Add(f.UnclaimedBalance, amount)
	return p.putState(sm, FeesNamespace, hash.Hash160b(_fundKey), f)
}

func (p *Protocol) accrueWalletFee(sm protocol.StateManager, atomID hash.Hash256, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	balance, err := p.AtomWalletFees(sm, atomID)
	if err != nil {
		return err
	}
	return p.putState(sm, FeesNamespace, walletFeeKey(atomID), &walletFees{Balance: balance.Add(balance, amount)})
}
