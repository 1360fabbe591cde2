// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package multivault

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/0xIntuition/intuition-core/config"
	"github.com/0xIntuition/intuition-core/curve"
	"github.com/0xIntuition/intuition-core/db"
	"github.com/0xIntuition/intuition-core/pkg/fixedpoint"
	"github.com/0xIntuition/intuition-core/protocol"
	"github.com/0xIntuition/intuition-core/state/factory"
	"github.com/0xIntuition/intuition-core/test/identityset"
	"github.com/0xIntuition/intuition-core/utilization"
)

const (
	_linearCurveID = uint64(1)
	_freshCurveID  = uint64(2)
)

func newTestProtocol(t *testing.T, cfg config.MultiVault) (*Protocol, factory.WorkingSet) {
	require := require.New(t)

	registry := curve.NewRegistry()
	lin, err := curve.NewLinear(_linearCurveID, fixedpoint.WAD)
	require.NoError(err)
	require.NoError(registry.Register(lin))
	lin2, err := curve.NewLinear(_freshCurveID, fixedpoint.WAD)
	require.NoError(err)
	require.NoError(registry.Register(lin2))

	p := NewProtocol(cfg, registry, utilization.NewTracker())
	sm := factory.NewFactory(db.NewMemKVStore()).NewWorkingSet()
	return p, sm
}

func callerCtx(i int, epoch uint64) context.Context {
	return protocol.WithActionCtx(context.Background(), protocol.ActionCtx{
		Caller:    identityset.Address(i),
		Timestamp: time.Unix(1700000000, 0),
		Epoch:     epoch,
	})
}

func TestCreateAtom(t *testing.T) {
	require := require.New(t)

	cfg := config.Default.MultiVault
	p, sm := newTestProtocol(t, cfg)
	ctx := callerCtx(1, 0)

	payload := []byte("did:intuition:alice")
	id, events, err := p.CreateAtom(ctx, sm, payload, big.NewInt(1000000))
	require.NoError(err)
	require.Equal(AtomID(payload), id)
	require.Len(events, 2)

	created, err := p.IsTermCreated(sm, id)
	require.NoError(err)
	require.True(created)
	term, err := p.Term(sm, id)
	require.NoError(err)
	require.Equal(Atom, term.Kind)
	require.Equal(payload, term.Payload)

	// wallet fee accrued, remainder in the vault minus the protocol fee
	walletFee, err := p.AtomWalletFees(sm, id)
	require.NoError(err)
	require.Equal(big.NewInt(10000), walletFee)
	v, err := p.GetVault(sm, id, cfg.DefaultCurveID)
	require.NoError(err)
	require.Equal(big.NewInt(980100), v.TotalAssets)
	require.Equal(new(big.Int).Add(cfg.GhostShares(), big.NewInt(980100)), v.TotalShares)

	// idempotent-reject on the same payload
	_, _, err = p.CreateAtom(ctx, sm, payload, big.NewInt(1000000))
	require.Equal(ErrTermAlreadyExists, errors.Cause(err))

	// payload size cap
	_, _, err = p.CreateAtom(ctx, sm, make([]byte, cfg.MaxAtomPayloadBytes+1), big.NewInt(1000000))
	require.Equal(ErrPayloadTooLarge, errors.Cause(err))
	_, _, err = p.CreateAtom(ctx, sm, nil, big.NewInt(1000000))
	require.Equal(ErrPayloadTooLarge, errors.Cause(err))

	// value too small to survive the wallet fee
	_, _, err = p.CreateAtom(ctx, sm, []byte("too-small"), big.NewInt(100))
	require.Equal(ErrBelowMinDeposit, errors.Cause(err))

	// missing and non-positive values are rejected, not dereferenced
	_, _, err = p.CreateAtom(ctx, sm, []byte("no-value"), nil)
	require.Equal(ErrBelowMinDeposit, errors.Cause(err))
	_, _, err = p.CreateAtom(ctx, sm, []byte("no-value"), big.NewInt(0))
	require.Equal(ErrBelowMinDeposit, errors.Cause(err))
	_, _, err = p.CreateAtom(ctx, sm, []byte("no-value"), big.NewInt(-5))
	require.Equal(ErrBelowMinDeposit, errors.Cause(err))
}

func TestFirstDepositOnEmptyVault(t *testing.T) {
	require := require.New(t)

	// 1,000,000-unit ghost floor, 1% protocol fee, linear 1:1
	cfg := config.Default.MultiVault
	p, sm := newTestProtocol(t, cfg)
	ctx := callerCtx(1, 0)
	alice := identityset.Address(1)

	payload := []byte("atom")
	id, _, err := p.CreateAtom(ctx, sm, payload, big.NewInt(1000000))
	require.NoError(err)

	// the second curve's vault has never seen a deposit, so the entry fee is waived
	shares, _, err := p.Deposit(ctx, sm, alice, id, _freshCurveID, big.NewInt(1000000000), nil)
	require.NoError(err)
	require.Equal(big.NewInt(990000000), shares)

	v, err := p.GetVault(sm, id, _freshCurveID)
	require.NoError(err)
	require.Equal(big.NewInt(990000000), v.TotalAssets)
	require.Equal(new(big.Int).Add(cfg.GhostShares(), big.NewInt(990000000)), v.TotalShares)

	held, err := p.GetShares(sm, id, _freshCurveID, alice)
	require.NoError(err)
	require.Equal(big.NewInt(990000000), held)

	// the second deposit pays the entry fee without minting shares for it
	shares2, _, err := p.Deposit(ctx, sm, alice, id, _freshCurveID, big.NewInt(1000000), nil)
	require.NoError(err)
	// 1,000,000 - 10,000 protocol - 4,950 entry
	require.Equal(big.NewInt(985050), shares2)
	v, err = p.GetVault(sm, id, _freshCurveID)
	require.NoError(err)
	require.Equal(big.NewInt(990990000), v.TotalAssets)
}

func TestDepositErrors(t *testing.T) {
	require := require.New(t)

	cfg := config.Default.MultiVault
	p, sm := newTestProtocol(t, cfg)
	ctx := callerCtx(1, 0)
	alice := identityset.Address(1)

	id, _, err := p.CreateAtom(ctx, sm, []byte("atom"), big.NewInt(1000000))
	require.NoError(err)

	_, _, err = p.Deposit(ctx, sm, alice, id, _linearCurveID, big.NewInt(999), nil)
	require.Equal(ErrBelowMinDeposit, errors.Cause(err))

	_, _, err = p.Deposit(ctx, sm, alice, AtomID([]byte("missing")), _linearCurveID, big.NewInt(10000), nil)
	require.Equal(ErrTermNotFound, errors.Cause(err))

	_, _, err = p.Deposit(ctx, sm, alice, id, 99, big.NewInt(10000), nil)
	require.Equal(curve.ErrCurveNotFound, errors.Cause(err))

	// minShares above what the deposit can mint
	_, _, err = p.Deposit(ctx, sm, alice, id, _linearCurveID, big.NewInt(10000), big.NewInt(10001))
	require.Equal(ErrSlippageExceeded, errors.Cause(err))
}

func TestCreateTriple(t *testing.T) {
	require := require.New(t)

	// 3% atom deposit fraction, no flat creation fee
	cfg := config.Default.MultiVault
	cfg.AtomDepositFractionBps = 300
	cfg.TripleCreationFeeStr = "0"
	p, sm := newTestProtocol(t, cfg)
	ctx := callerCtx(1, 0)

	var atomIDs [3]hash.Hash256
	for i, payload := range [][]byte{[]byte("s"), []byte("p"), []byte("o")} {
		id, _, err := p.CreateAtom(ctx, sm, payload, big.NewInt(1000000))
		require.NoError(err)
		atomIDs[i] = id
	}
	atomVaultsBefore := make([]*Vault, 3)
	for i, id := range atomIDs {
		v, err := p.GetVault(sm, id, cfg.DefaultCurveID)
		require.NoError(err)
		atomVaultsBefore[i] = v
	}

	tripleID, counterID, events, err := p.CreateTriple(ctx, sm, atomIDs[0], atomIDs[1], atomIDs[2], big.NewInt(1000000))
	require.NoError(err)
	require.Equal(TripleID(atomIDs[0], atomIDs[1], atomIDs[2]), tripleID)
	require.Equal(CounterTripleID(tripleID), counterID)
	// 2 creations + 3 fan-out legs + 1 triple deposit
	require.Len(events, 6)

	// each atom vault took a 10,000-unit leg, minus the protocol and entry fees
	for i, id := range atomIDs {
		v, err := p.GetVault(sm, id, cfg.DefaultCurveID)
		require.NoError(err)
		gained := new(big.Int).Sub(v.TotalAssets, atomVaultsBefore[i].TotalAssets)
		// 10,000 minus the 100-unit protocol fee; the entry fee stays in the vault
		require.Equal(big.NewInt(9900), gained)
	}

	// the remaining 970,000 went into the triple vault, minus its protocol fee
	v, err := p.GetVault(sm, tripleID, cfg.DefaultCurveID)
	require.NoError(err)
	require.Equal(big.NewInt(960300), v.TotalAssets)

	// the counter vault opens at the ghost floor with zero assets
	cv, err := p.GetVault(sm, counterID, cfg.DefaultCurveID)
	require.NoError(err)
	require.Equal(0, cv.TotalAssets.Sign())
	require.Equal(cfg.GhostShares(), cv.TotalShares)
	counterTerm, err := p.Term(sm, counterID)
	require.NoError(err)
	require.Equal(CounterTriple, counterTerm.Kind)

	// duplicate triple
	_, _, _, err = p.CreateTriple(ctx, sm, atomIDs[0], atomIDs[1], atomIDs[2], big.NewInt(1000000))
	require.Equal(ErrTermAlreadyExists, errors.Cause(err))

	// a triple cannot nest another triple
	_, _, _, err = p.CreateTriple(ctx, sm, tripleID, atomIDs[1], atomIDs[2], big.NewInt(1000000))
	require.Equal(ErrInvalidTermKind, errors.Cause(err))

	// all constituents must exist
	_, _, _, err = p.CreateTriple(ctx, sm, AtomID([]byte("missing")), atomIDs[1], atomIDs[2], big.NewInt(1000000))
	require.Equal(ErrTermNotFound, errors.Cause(err))

	// missing and non-positive values are rejected, not dereferenced
	_, _, _, err = p.CreateTriple(ctx, sm, atomIDs[0], atomIDs[2], atomIDs[1], nil)
	require.Equal(ErrBelowMinDeposit, errors.Cause(err))
	_, _, _, err = p.CreateTriple(ctx, sm, atomIDs[0], atomIDs[2], atomIDs[1], big.NewInt(0))
	require.Equal(ErrBelowMinDeposit, errors.Cause(err))
}

func TestTripleConservation(t *testing.T) {
	require := require.New(t)

	cfg := config.Default.MultiVault
	p, sm := newTestProtocol(t, cfg)
	ctx := callerCtx(1, 0)

	var atomIDs [3]hash.Hash256
	deposited := new(big.Int)
	for i, payload := range [][]byte{[]byte("s"), []byte("p"), []byte("o")} {
		id, _, err := p.CreateAtom(ctx, sm, payload, big.NewInt(777777))
		require.NoError(err)
		atomIDs[i] = id
		deposited.Add(deposited, big.NewInt(777777))
	}
	_, _, _, err := p.CreateTriple(ctx, sm, atomIDs[0], atomIDs[1], atomIDs[2], big.NewInt(999999))
	require.NoError(err)
	deposited.Add(deposited, big.NewInt(999999))

	// every unit is either in a vault, in the fee fund or accrued to a wallet
	total := new(big.Int)
	fund, err := p.Fund(sm)
	require.NoError(err)
	total.Add(total, fund.TotalBalance)
	for _, id := range atomIDs {
		v, err := p.GetVault(sm, id, cfg.DefaultCurveID)
		require.NoError(err)
		total.Add(total, v.TotalAssets)
		fees, err := p.AtomWalletFees(sm, id)
		require.NoError(err)
		total.Add(total, fees)
	}
	tripleID := TripleID(atomIDs[0], atomIDs[1], atomIDs[2])
	v, err := p.GetVault(sm, tripleID, cfg.DefaultCurveID)
	require.NoError(err)
	total.Add(total, v.TotalAssets)

	require.Equal(deposited, total)
}

func TestRedeem(t *testing.T) {
	require := require.New(t)

	cfg := config.Default.MultiVault
	p, sm := newTestProtocol(t, cfg)
	ctx := callerCtx(1, 0)
	alice := identityset.Address(1)

	id, _, err := p.CreateAtom(ctx, sm, []byte("atom"), big.NewInt(10000))
	require.NoError(err)
	_, _, err = p.Deposit(ctx, sm, alice, id, _freshCurveID, big.NewInt(1000000), nil)
	require.NoError(err)

	// redeeming more than held
	_, _, err = p.Redeem(ctx, sm, alice, id, _freshCurveID, big.NewInt(2000000), nil)
	require.Equal(ErrInsufficientShares, errors.Cause(err))

	// partial redemption pays the curve value minus protocol and exit fees
	payout, event, err := p.Redeem(ctx, sm, alice, id, _freshCurveID, big.NewInt(100000), nil)
	require.NoError(err)
	// 100,000 gross - 1,000 protocol - 495 exit
	require.Equal(big.NewInt(98505), payout)
	// the event carries the pre-fee value and the full fee split
	require.Equal(big.NewInt(100000), event.GrossAssets)
	require.Equal(big.NewInt(1000), event.ProtocolFee)
	require.Equal(big.NewInt(495), event.ExitFee)
	require.Equal(event.GrossAssets,
		new(big.Int).Add(event.Assets, new(big.Int).Add(event.ProtocolFee, event.ExitFee)))
	v, err := p.GetVault(sm, id, _freshCurveID)
	require.NoError(err)
	// the exit fee stays in the vault
	require.Equal(big.NewInt(890495), v.TotalAssets)

	// slippage bound on the payout
	_, _, err = p.Redeem(ctx, sm, alice, id, _freshCurveID, big.NewInt(100000), big.NewInt(98506))
	require.Equal(ErrSlippageExceeded, errors.Cause(err))

	// draining all non-ghost shares returns exactly the remaining assets minus protocol fee
	held, err := p.GetShares(sm, id, _freshCurveID, alice)
	require.NoError(err)
	payout, event, err = p.Redeem(ctx, sm, alice, id, _freshCurveID, held, nil)
	require.NoError(err)
	protocolFee := fixedpoint.BpsOfRoundUp(big.NewInt(890495), cfg.ProtocolFeeBps, config.FeeDenominator)
	require.Equal(new(big.Int).Sub(big.NewInt(890495), protocolFee), payout)
	require.Equal(big.NewInt(890495), event.GrossAssets)
	require.Equal(0, event.ExitFee.Sign())

	v, err = p.GetVault(sm, id, _freshCurveID)
	require.NoError(err)
	require.Equal(0, v.TotalAssets.Sign())
	require.Equal(cfg.GhostShares(), v.TotalShares)
	held, err = p.GetShares(sm, id, _freshCurveID, alice)
	require.NoError(err)
	require.Equal(0, held.Sign())
}

func TestPreviewsMatchExecution(t *testing.T) {
	require := require.New(t)

	cfg := config.Default.MultiVault
	p, sm := newTestProtocol(t, cfg)
	ctx := callerCtx(1, 0)
	alice := identityset.Address(1)

	id, _, err := p.CreateAtom(ctx, sm, []byte("atom"), big.NewInt(500000))
	require.NoError(err)

	previewShares, previewNet, err := p.PreviewDeposit(sm, id, cfg.DefaultCurveID, big.NewInt(250000))
	require.NoError(err)
	require.True(previewNet.Cmp(big.NewInt(250000)) < 0)
	shares, _, err := p.Deposit(ctx, sm, alice, id, cfg.DefaultCurveID, big.NewInt(250000), nil)
	require.NoError(err)
	require.Equal(previewShares, shares)

	previewAssets, err := p.PreviewRedeem(sm, id, cfg.DefaultCurveID, shares)
	require.NoError(err)
	payout, _, err := p.Redeem(ctx, sm, alice, id, cfg.DefaultCurveID, shares, nil)
	require.NoError(err)
	require.Equal(previewAssets, payout)
}

func TestUtilizationFollowsFlows(t *testing.T) {
	require := require.New(t)

	cfg := config.Default.MultiVault
	p, sm := newTestProtocol(t, cfg)
	tracker := p.tracker
	ctx := callerCtx(1, 7)
	alice := identityset.Address(1)

	id, _, err := p.CreateAtom(ctx, sm, []byte("atom"), big.NewInt(100000))
	require.NoError(err)
	// 100,000 - 1,000 wallet fee - 990 protocol fee
	net, err := tracker.Personal(sm, alice, 7)
	require.NoError(err)
	require.Equal(big.NewInt(98010), net)

	payout, _, err := p.Redeem(ctx, sm, alice, id, cfg.DefaultCurveID, big.NewInt(50000), nil)
	require.NoError(err)
	net, err = tracker.Personal(sm, alice, 7)
	require.NoError(err)
	require.Equal(new(big.Int).Sub(big.NewInt(98010), payout), net)

	system, err := tracker.System(sm, 7)
	require.NoError(err)
	require.Equal(net, system)
}

func TestFeeFund(t *testing.T) {
	require := require.New(t)

	cfg := config.Default.MultiVault
	p, sm := newTestProtocol(t, cfg)
	ctx := callerCtx(1, 0)

	id, _, err := p.CreateAtom(ctx, sm, []byte("atom"), big.NewInt(1000000))
	require.NoError(err)

	fund, err := p.Fund(sm)
	require.NoError(err)
	// 1% of the 990,000 post-wallet-fee deposit
	require.Equal(big.NewInt(9900), fund.TotalBalance)
	require.Equal(big.NewInt(9900), fund.UnclaimedBalance)

	_, err = p.WithdrawProtocolFees(ctx, sm, big.NewInt(10000))
	require.Equal(ErrInsufficientFunds, errors.Cause(err))

	event, err := p.WithdrawProtocolFees(ctx, sm, big.NewInt(9000))
	require.NoError(err)
	require.Equal(big.NewInt(9000), event.Amount)
	fund, err = p.Fund(sm)
	require.NoError(err)
	require.Equal(big.NewInt(9900), fund.TotalBalance)
	require.Equal(big.NewInt(900), fund.UnclaimedBalance)

	// wallet fee claim drains the atom's accrued balance once
	claimed, _, err := p.ClaimAtomWalletFees(ctx, sm, id)
	require.NoError(err)
	require.Equal(big.NewInt(10000), claimed)
	_, _, err = p.ClaimAtomWalletFees(ctx, sm, id)
	require.Equal(ErrInsufficientFunds, errors.Cause(err))
}
