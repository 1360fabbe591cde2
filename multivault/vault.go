// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package multivault

import (
	"context"
	"math/big"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/0xIntuition/intuition-core/config"
	"github.com/0xIntuition/intuition-core/pkg/fixedpoint"
	"github.com/0xIntuition/intuition-core/protocol"
	"github.com/0xIntuition/intuition-core/state"
)

type (
	// Vault is the balance sheet of one (term, curve) pair. TotalShares includes the ghost
	// share floor, TotalAssets only ever holds value contributed by depositors
	Vault struct {
		TotalAssets *big.Int
		TotalShares *big.Int
	}

	// holding is the stored share balance of one holder in one vault
	holding struct {
		Shares *big.Int
	}
)

// Deposit converts assets into vault shares for the receiver. The protocol fee is routed to
// the fee fund, the entry fee stays in the vault without minting shares and the rest mints
// through the curve. A vault's very first deposit is exempt from the entry fee
func (p *Protocol) Deposit(
	ctx context.Context,
	sm protocol.StateManager,
	receiver address.Address,
	termID hash.Hash256,
	curveID uint64,
	assets *big.Int,
	minShares *big.Int,
) (*big.Int, *Deposited, error) {
	if assets == nil || assets.Cmp(p.cfg.MinDeposit()) < 0 {
		return nil, nil, errors.Wrapf(ErrBelowMinDeposit, "deposit = %s", assets)
	}
	return p.deposit(ctx, sm, receiver, termID, curveID, assets, minShares)
}

// deposit is the fee-splitting mint path shared by Deposit, CreateAtom and the triple
// fan-out. Fan-out legs skip the minimal deposit check, everything else is identical
func (p *Protocol) deposit(
	ctx context.Context,
	sm protocol.StateManager,
	receiver address.Address,
	termID hash.Hash256,
	curveID uint64,
	assets *big.Int,
	minShares *big.Int,
) (*big.Int, *Deposited, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	if assets == nil || assets.Sign() <= 0 {
		return nil, nil, errors.Wrapf(ErrBelowMinDeposit, "deposit = %s", assets)
	}
	if _, err := p.Term(sm, termID); err != nil {
		return nil, nil, err
	}
	c, err := p.curves.Get(curveID)
	if err != nil {
		return nil, nil, err
	}
	v, err := p.vaultOrCreate(sm, termID, curveID)
	if err != nil {
		return nil, nil, err
	}

	protocolFee := fixedpoint.BpsOfRoundUp(assets, p.cfg.ProtocolFeeBps, config.FeeDenominator)
	rest := new(big.Int).Sub(assets, protocolFee)
	entryFee := new(big.Int)
	if v.TotalAssets.Sign() > 0 {
		entryFee = fixedpoint.BpsOfRoundUp(rest, p.cfg.EntryFeeBps, config.FeeDenominator)
	}
	net := new(big.Int).Sub(rest, entryFee)
	if net.Sign() <= 0 {
		return nil, nil, errors.Wrapf(ErrBelowMinDeposit, "deposit consumed by fees = %s", assets)
	}

	shares, err := c.ConvertToShares(net, v.TotalAssets, v.TotalShares)
	if err != nil {
		return nil, nil, err
	}
	if shares.Sign() == 0 {
		return nil, nil, errors.Wrapf(ErrSlippageExceeded, "deposit of %s mints no shares", assets)
	}
	if minShares != nil && shares.Cmp(minShares) < 0 {
		return nil, nil, errors.Wrapf(ErrSlippageExceeded, "minted %s < requested %s", shares, minShares)
	}

	v.TotalAssets.Add(v.TotalAssets, entryFee)
	v.TotalAssets.Add(v.TotalAssets, net)
	v.TotalShares.Add(v.TotalShares, shares)
	if err := p.putState(sm, VaultsNamespace, vaultKey(termID, curveID), v); err != nil {
		return nil, nil, err
	}
	held, err := p.holding(sm, termID, curveID, receiver)
	if err != nil {
		return nil, nil, err
	}
	held.Add(held, shares)
	if err := p.putState(sm, VaultsNamespace, sharesKey(termID, curveID, receiver.Bytes()), &holding{Shares: held}); err != nil {
		return nil, nil, err
	}
	if err := p.creditFund(sm, protocolFee); err != nil {
		return nil, nil, err
	}
	if err := p.tracker.Add(sm, actionCtx.Caller, actionCtx.Epoch, net); err != nil {
		return nil, nil, err
	}

	event := &Deposited{
		Sender:          actionCtx.Caller.String(),
		Receiver:        receiver.String(),
		TermID:          termID,
		CurveID:         curveID,
		Assets:          clone(assets),
		AssetsAfterFees: clone(net),
		Shares:          clone(shares),
		TotalAssets:     clone(v.TotalAssets),
		TotalShares:     clone(v.TotalShares),
	}
	return shares, event, nil
}

// Redeem burns the holder's shares and pays out the curve value minus fees. Draining the
// vault down to the ghost floor pays out the whole remaining TotalAssets and is exempt from
// the exit fee, so no value is ever stranded behind the unredeemable floor
func (p *Protocol) Redeem(
	ctx context.Context,
	sm protocol.StateManager,
	receiver address.Address,
	termID hash.Hash256,
	curveID uint64,
	shares *big.Int,
	minAssets *big.Int,
) (*big.Int, *Redeemed, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	if shares == nil || shares.Sign() <= 0 {
		return nil, nil, errors.Wrapf(ErrInsufficientShares, "shares = %s", shares)
	}
	if _, err := p.Term(sm, termID); err != nil {
		return nil, nil, err
	}
	c, err := p.curves.Get(curveID)
	if err != nil {
		return nil, nil, err
	}
	v, err := p.vault(sm, termID, curveID)
	if err != nil {
		return nil, nil, err
	}
	held, err := p.holding(sm, termID, curveID, actionCtx.Caller)
	if err != nil {
		return nil, nil, err
	}
	if held.Cmp(shares) < 0 {
		return nil, nil, errors.Wrapf(ErrInsufficientShares, "held %s < redeemed %s", held, shares)
	}

	nonGhost := new(big.Int).Sub(v.TotalShares, p.cfg.GhostShares())
	drainsToFloor := shares.Cmp(nonGhost) == 0
	var gross *big.Int
	if drainsToFloor {
		// the last redeemer takes every remaining asset, rounding dust included
		gross = clone(v.TotalAssets)
	} else {
		gross, err = c.ConvertToAssets(shares, v.TotalAssets, v.TotalShares)
		if err != nil {
			return nil, nil, err
		}
		gross = fixedpoint.Min(gross, v.TotalAssets)
	}

	protocolFee := fixedpoint.BpsOfRoundUp(gross, p.cfg.ProtocolFeeBps, config.FeeDenominator)
	exitFee := new(big.Int)
	if !drainsToFloor {
		exitFee = fixedpoint.BpsOfRoundUp(new(big.Int).Sub(gross, protocolFee), p.cfg.ExitFeeBps, config.FeeDenominator)
	}
	payout := new(big.Int).Sub(gross, protocolFee)
	payout.Sub(payout, exitFee)
	if payout.Sign() < 0 {
		return nil, nil, errors.Wrapf(ErrSlippageExceeded, "redemption of %s pays nothing", shares)
	}
	if minAssets != nil && payout.Cmp(minAssets) < 0 {
		return nil, nil, errors.Wrapf(ErrSlippageExceeded, "paid %s < requested %s", payout, minAssets)
	}

	// the exit fee stays behind in the vault
	v.TotalAssets.Sub(v.TotalAssets, payout)
	v.TotalAssets.Sub(v.TotalAssets, protocolFee)
	v.TotalShares.Sub(v.TotalShares, shares)
	if err := p.putState(sm, VaultsNamespace, vaultKey(termID, curveID), v); err != nil {
		return nil, nil, err
	}
	held.Sub(held, shares)
	if err := p.putState(sm, VaultsNamespace, sharesKey(termID, curveID, actionCtx.Caller.Bytes()), &holding{Shares: held}); err != nil {
		return nil, nil, err
	}
	if err := p.creditFund(sm, protocolFee); err != nil {
		return nil, nil, err
	}
	if err := p.tracker.Add(sm, actionCtx.Caller, actionCtx.Epoch, new(big.Int).Neg(payout)); err != nil {
		return nil, nil, err
	}

	event := &Redeemed{
		Sender:      actionCtx.Caller.String(),
		Receiver:    receiver.String(),
		TermID:      termID,
		CurveID:     curveID,
		Shares:      clone(shares),
		Assets:      clone(payout),
		GrossAssets: clone(gross),
		ProtocolFee: clone(protocolFee),
		ExitFee:     clone(exitFee),
		TotalAssets: clone(v.TotalAssets),
		TotalShares: clone(v.TotalShares),
	}
	return payout, event, nil
}

// PreviewDeposit computes the shares and the net amount a deposit would mint without
// touching any state
func (p *Protocol) PreviewDeposit(
	sr protocol.StateReader,
	termID hash.Hash256,
	curveID uint64,
	assets *big.Int,
) (*big.Int, *big.Int, error) {
	if assets == nil || assets.Cmp(p.cfg.MinDeposit()) < 0 {
		return nil, nil, errors.Wrapf(ErrBelowMinDeposit, "deposit = %s", assets)
	}
	c, err := p.curves.Get(curveID)
	if err != nil {
		return nil, nil, err
	}
	v, err := p.vaultOrGhost(sr, termID, curveID)
	if err != nil {
		return nil, nil, err
	}
	protocolFee := fixedpoint.BpsOfRoundUp(assets, p.cfg.ProtocolFeeBps, config.FeeDenominator)
	rest := new(big.Int).Sub(assets, protocolFee)
	entryFee := new(big.Int)
	if v.TotalAssets.Sign() > 0 {
		entryFee = fixedpoint.BpsOfRoundUp(rest, p.cfg.EntryFeeBps, config.FeeDenominator)
	}
	net := new(big.Int).Sub(rest, entryFee)
	if net.Sign() <= 0 {
		return nil, nil, errors.Wrapf(ErrBelowMinDeposit, "deposit consumed by fees = %s", assets)
	}
	shares, err := c.ConvertToShares(net, v.TotalAssets, v.TotalShares)
	if err != nil {
		return nil, nil, err
	}
	return shares, net, nil
}

// PreviewRedeem computes the assets a redemption would pay out without touching any state
func (p *Protocol) PreviewRedeem(
	sr protocol.StateReader,
	termID hash.Hash256,
	curveID uint64,
	shares *big.Int,
) (*big.Int, error) {
	if shares == nil || shares.Sign() <= 0 {
		return nil, errors.Wrapf(ErrInsufficientShares, "shares = %s", shares)
	}
	c, err := p.curves.Get(curveID)
	if err != nil {
		return nil, err
	}
	v, err := p.vault(sr, termID, curveID)
	if err != nil {
		return nil, err
	}
	nonGhost := new(big.Int).Sub(v.TotalShares, p.cfg.GhostShares())
	if shares.Cmp(nonGhost) > 0 {
		return nil, errors.Wrapf(ErrInsufficientShares, "redeemed %s > outstanding %s", shares, nonGhost)
	}
	if shares.Cmp(nonGhost) == 0 {
		return clone(v.TotalAssets), nil
	}
	gross, err := c.ConvertToAssets(shares, v.TotalAssets, v.TotalShares)
	if err != nil {
		return nil, err
	}
	gross = fixedpoint.Min(gross, v.TotalAssets)
	protocolFee := fixedpoint.BpsOfRoundUp(gross, p.cfg.ProtocolFeeBps, config.FeeDenominator)
	exitFee := fixedpoint.BpsOfRoundUp(new(big.Int).Sub(gross, protocolFee), p.cfg.ExitFeeBps, config.FeeDenominator)
	payout := new(big.Int).Sub(gross, protocolFee)
	return payout.Sub(payout, exitFee), nil
}

// GetVault returns the balance sheet of the (term, curve) vault
func (p *Protocol) GetVault(sr protocol.StateReader, termID hash.Hash256, curveID uint64) (*Vault, error) {
	return p.vault(sr, termID, curveID)
}

// GetShares returns the holder's share balance in the (term, curve) vault
func (p *Protocol) GetShares(sr protocol.StateReader, termID hash.Hash256, curveID uint64, holder address.Address) (*big.Int, error) {
	return p.holding(sr, termID, curveID, holder)
}

// CurrentSharePrice returns the vault's marginal share price under its curve
func (p *Protocol) CurrentSharePrice(sr protocol.StateReader, termID hash.Hash256, curveID uint64) (*big.Int, error) {
	c, err := p.curves.Get(curveID)
	if err != nil {
		return nil, err
	}
	v, err := p.vaultOrGhost(sr, termID, curveID)
	if err != nil {
		return nil, err
	}
	return c.SharePrice(v.TotalAssets, v.TotalShares)
}

// vault reads an existing vault record
func (p *Protocol) vault(sr protocol.StateReader, termID hash.Hash256, curveID uint64) (*Vault, error) {
	var v Vault
	err := p.state(sr, VaultsNamespace, vaultKey(termID, curveID), &v)
	switch errors.Cause(err) {
	case nil:
		return &v, nil
	case state.ErrStateNotExist:
		return nil, errors.Wrapf(ErrTermNotFound, "no vault for term %x curve %d", termID, curveID)
	default:
		return nil, err
	}
}

// vaultOrGhost reads the vault, falling back to the genesis shape for reads on a vault that
// has not seen its first deposit
func (p *Protocol) vaultOrGhost(sr protocol.StateReader, termID hash.Hash256, curveID uint64) (*Vault, error) {
	v, err := p.vault(sr, termID, curveID)
	switch errors.Cause(err) {
	case nil:
		return v, nil
	case ErrTermNotFound:
		return &Vault{TotalAssets: new(big.Int), TotalShares: p.cfg.GhostShares()}, nil
	default:
		return nil, err
	}
}

// vaultOrCreate reads the vault, minting the ghost share floor at first touch. The ghost
// shares have no owner and no backing assets and can never be redeemed
func (p *Protocol) vaultOrCreate(sm protocol.StateManager, termID hash.Hash256, curveID uint64) (*Vault, error) {
	v, err := p.vault(sm, termID, curveID)
	switch errors.Cause(err) {
	case nil:
		return v, nil
	case ErrTermNotFound:
		v = &Vault{TotalAssets: new(big.Int), TotalShares: p.cfg.GhostShares()}
		return v, p.putState(sm, VaultsNamespace, vaultKey(termID, curveID), v)
	default:
		return nil, err
	}
}

func (p *Protocol) holding(sr protocol.StateReader, termID hash.Hash256, curveID uint64, holder address.Address) (*big.Int, error) {
	var h holding
	err := p.state(sr, VaultsNamespace, sharesKey(termID, curveID, holder.Bytes()), &h)
	switch errors.Cause(err) {
	case nil:
		return h.Shares, nil
	case state.ErrStateNotExist:
		return new(big.Int), nil
	default:
		return nil, err
	}
}
