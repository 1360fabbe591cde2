// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package bonding implements time-locked positions and the utilization-weighted reward
// engine. A position's weight decays linearly with its remaining lock time, a claim is
// settled once per (holder, epoch) against the emission budget of that epoch, scaled by the
// system-wide and the personal utilization ratios.
package bonding

import (
	"bytes"
	"context"
	"math/big"
	"time"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/0xIntuition/intuition-core/config"
	"github.com/0xIntuition/intuition-core/emissions"
	"github.com/0xIntuition/intuition-core/epochs"
	"github.com/0xIntuition/intuition-core/pkg/util/byteutil"
	"github.com/0xIntuition/intuition-core/protocol"
	"github.com/0xIntuition/intuition-core/state"
	"github.com/0xIntuition/intuition-core/utilization"
)

// Namespace is the namespace of the bonding records
const Namespace = "Bonding"

var (
	_positionKeyPrefix = []byte("position")
	_rewardsKeyPrefix  = []byte("rewards")
	_claimKeyPrefix    = []byte("claimHistory")
	_snapshotKeyPrefix = []byte("epochTotals")
	_lockersKey        = []byte("lockers")
	_totalLockedKey    = []byte("totalLocked")

	// ErrInvalidLock indicates a lock below the minimal amount or outside the duration bounds
	ErrInvalidLock = errors.New("invalid lock")
	// ErrNoLockedBalance indicates the holder has no position
	ErrNoLockedBalance = errors.New("no locked balance")
	// ErrLockNotExpired indicates a withdrawal before the unlock time
	ErrLockNotExpired = errors.New("lock not expired")
	// ErrEpochNotElapsed indicates a claim for an epoch that has not ended yet
	ErrEpochNotElapsed = errors.New("epoch not elapsed")
	// ErrAlreadyClaimed indicates the (holder, epoch) reward was already claimed
	ErrAlreadyClaimed = errors.New("already claimed")
	// ErrNoRewards indicates there is nothing to pay out
	ErrNoRewards = errors.New("no rewards")
)

type (
	// Position is one holder's locked balance. LockEpoch is the epoch the position was
	// created or last modified in, a position earns nothing for epochs before it
	Position struct {
		Amount     *big.Int
		UnlockTime time.Time
		LockEpoch  uint64
	}

	// rewards is the holder's claimed but not yet withdrawn reward balance
	rewards struct {
		Unclaimed *big.Int
	}

	// claimHistory exists solely to mark a (holder, epoch) claim as settled, only the key
	// matters
	claimHistory struct{}

	// epochTotals freezes the reward denominators of an elapsed epoch. Once written the
	// epoch settles every claim against the same totals, no matter how positions change
	// afterwards
	epochTotals struct {
		TotalWeight *big.Int
		TotalLocked *big.Int
	}

	// lockers is the set of addresses holding a position. The set stays small enough to
	// iterate because withdrawn positions are removed
	lockers struct {
		Addresses [][]byte
	}

	// totalLocked is the aggregate locked amount across all positions
	totalLocked struct {
		Amount *big.Int
	}

	// Protocol implements lock, withdraw and claim on top of the shared ledger state
	Protocol struct {
		cfg      config.Bonding
		calc     *epochs.Calculator
		schedule *emissions.Schedule
		tracker  *utilization.Tracker
	}
)

// NewProtocol instantiates the bonding protocol
func NewProtocol(
	cfg config.Bonding,
	calc *epochs.Calculator,
	schedule *emissions.Schedule,
	tracker *utilization.Tracker,
) *Protocol {
	return &Protocol{cfg: cfg, calc: calc, schedule: schedule, tracker: tracker}
}

// Lock creates or increases the caller's position. The unlock time may only move forward
// and never further than the maximal lock duration from now
func (p *Protocol) Lock(ctx context.Context, sm protocol.StateManager, amount *big.Int, unlockAt time.Time) error {
	actionCtx := protocol.MustGetActionCtx(ctx)
	if amount == nil || amount.Cmp(p.cfg.MinLockAmount()) < 0 {
		return errors.Wrapf(ErrInvalidLock, "amount = %s", amount)
	}
	now := actionCtx.Timestamp
	if !unlockAt.After(now) {
		return errors.Wrap(ErrInvalidLock, "unlock time is not in the future")
	}
	if unlockAt.Sub(now) > p.cfg.MaxLockDuration {
		return errors.Wrapf(ErrInvalidLock, "lock duration %s exceeds the maximum", unlockAt.Sub(now))
	}

	pos, err := p.position(sm, actionCtx.Caller)
	switch errors.Cause(err) {
	case nil:
		if unlockAt.Before(pos.UnlockTime) {
			return errors.Wrap(ErrInvalidLock, "unlock time may only extend")
		}
		// freeze the totals of the epochs the old position lived through, then re-base;
		// the modified position only earns from the current epoch on
		if err := p.finalizeElapsedEpochs(sm, pos, actionCtx.Epoch); err != nil {
			return err
		}
		pos.Amount.Add(pos.Amount, amount)
		pos.UnlockTime = unlockAt
		pos.LockEpoch = actionCtx.Epoch
	case ErrNoLockedBalance:
		pos = &Position{Amount: new(big.Int).Set(amount), UnlockTime: unlockAt, LockEpoch: actionCtx.Epoch}
		if err := p.addLocker(sm, actionCtx.Caller); err != nil {
			return err
		}
	default:
		return err
	}
	if err := p.putState(sm, positionKey(actionCtx.Caller), pos); err != nil {
		return err
	}
	return p.adjustTotalLocked(sm, amount)
}

// Withdraw clears the caller's expired position and returns the full locked amount
func (p *Protocol) Withdraw(ctx context.Context, sm protocol.StateManager) (*big.Int, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	pos, err := p.position(sm, actionCtx.Caller)
	if err != nil {
		return nil, err
	}
	if actionCtx.Timestamp.Before(pos.UnlockTime) {
		return nil, errors.Wrapf(ErrLockNotExpired, "unlocks at %s", pos.UnlockTime)
	}
	if err := p.finalizeElapsedEpochs(sm, pos, actionCtx.Epoch); err != nil {
		return nil, err
	}
	if err := sm.DelState(protocol.NamespaceOption(Namespace), protocol.LegacyKeyOption(positionKey(actionCtx.Caller))); err != nil {
		return nil, err
	}
	if err := p.removeLocker(sm, actionCtx.Caller); err != nil {
		return nil, err
	}
	if err := p.adjustTotalLocked(sm, new(big.Int).Neg(pos.Amount)); err != nil {
		return nil, err
	}
	return pos.Amount, nil
}

// WeightAt returns the position's voting weight at the time: amount scaled by the remaining
// lock time over the maximal duration, zero once unlocked
func (p *Protocol) WeightAt(pos *Position, t time.Time) *big.Int {
	remaining := pos.UnlockTime.Sub(t)
	if remaining <= 0 {
		return new(big.Int)
	}
	if remaining > p.cfg.MaxLockDuration {
		remaining = p.cfg.MaxLockDuration
	}
	weight := new(big.Int).Mul(pos.Amount, big.NewInt(int64(remaining/time.Second)))
	return weight.Quo(weight, big.NewInt(int64(p.cfg.MaxLockDuration/time.Second)))
}

// epochTotalsAt returns the epoch's frozen reward denominators, computing them from the
// live positions when no snapshot has been written yet. Positions locked or modified after
// the epoch are excluded
func (p *Protocol) epochTotalsAt(sr protocol.StateReader, epoch uint64) (*epochTotals, error) {
	var totals epochTotals
	err := p.state(sr, snapshotKey(epoch), &totals)
	switch errors.Cause(err) {
	case nil:
		return &totals, nil
	case state.ErrStateNotExist:
	default:
		return nil, err
	}

	set, err := p.lockers(sr)
	if err != nil {
		return nil, err
	}
	end := p.calc.EndOf(epoch)
	totals = epochTotals{TotalWeight: new(big.Int), TotalLocked: new(big.Int)}
	for _, raw := range set.Addresses {
		holder, err := address.FromBytes(raw)
		if err != nil {
			return nil, err
		}
		pos, err := p.position(sr, holder)
		if err != nil {
			return nil, err
		}
		if pos.LockEpoch > epoch {
			continue
		}
		totals.TotalWeight.Add(totals.TotalWeight, p.WeightAt(pos, end))
		totals.TotalLocked.Add(totals.TotalLocked, pos.Amount)
	}
	return &totals, nil
}

// finalizeEpoch persists the epoch's reward denominators if they were not frozen before
func (p *Protocol) finalizeEpoch(sm protocol.StateManager, epoch uint64) error {
	var totals epochTotals
	err := p.state(sm, snapshotKey(epoch), &totals)
	switch errors.Cause(err) {
	case nil:
		return nil
	case state.ErrStateNotExist:
	default:
		return err
	}
	computed, err := p.epochTotalsAt(sm, epoch)
	if err != nil {
		return err
	}
	return p.putState(sm, snapshotKey(epoch), computed)
}

// finalizeElapsedEpochs freezes every elapsed epoch the position carried weight in. It runs
// before the position is modified or removed, so the departing weight stays in the
// denominators of the epochs it earned through
func (p *Protocol) finalizeElapsedEpochs(sm protocol.StateManager, pos *Position, current uint64) error {
	for e := pos.LockEpoch; e < current; e++ {
		if !pos.UnlockTime.After(p.calc.EndOf(e)) {
			break
		}
		if err := p.finalizeEpoch(sm, e); err != nil {
			return err
		}
	}
	return nil
}

// Claim settles the holder's reward for an elapsed epoch and credits it to the unclaimed
// balance. A (holder, epoch) pair can be settled at most once
func (p *Protocol) Claim(ctx context.Context, sm protocol.StateManager, epoch uint64) (*big.Int, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	if epoch >= actionCtx.Epoch {
		return nil, errors.Wrapf(ErrEpochNotElapsed, "epoch = %d, current = %d", epoch, actionCtx.Epoch)
	}
	var history claimHistory
	err := p.state(sm, claimKey(actionCtx.Caller, epoch), &history)
	switch errors.Cause(err) {
	case nil:
		return nil, errors.Wrapf(ErrAlreadyClaimed, "holder = %s, epoch = %d", actionCtx.Caller.String(), epoch)
	case state.ErrStateNotExist:
	default:
		return nil, err
	}

	// the first claim of an epoch freezes its denominators, every later claim settles
	// against the same totals
	if err := p.finalizeEpoch(sm, epoch); err != nil {
		return nil, err
	}
	reward, err := p.eligible(sm, actionCtx.Caller, epoch)
	if err != nil {
		return nil, err
	}
	if err := p.putState(sm, claimKey(actionCtx.Caller, epoch), &claimHistory{}); err != nil {
		return nil, err
	}
	if reward.Sign() > 0 {
		balance, err := p.UnclaimedRewards(sm, actionCtx.Caller)
		if err != nil {
			return nil, err
		}
		if err := p.putState(sm, rewardsKey(actionCtx.Caller), &rewards{Unclaimed: balance.Add(balance, reward)}); err != nil {
			return nil, err
		}
	}
	return reward, nil
}

// WithdrawRewards drains the caller's unclaimed reward balance to the recipient. Paying a
// remote recipient through the bridge is the service boundary's job
func (p *Protocol) WithdrawRewards(ctx context.Context, sm protocol.StateManager, recipient address.Address) (*big.Int, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	balance, err := p.UnclaimedRewards(sm, actionCtx.Caller)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return nil, errors.Wrapf(ErrNoRewards, "holder = %s", actionCtx.Caller.String())
	}
	if err := p.putState(sm, rewardsKey(actionCtx.Caller), &rewards{Unclaimed: new(big.Int)}); err != nil {
		return nil, err
	}
	return balance, nil
}

// EligibleRewards previews the reward a claim for the epoch would settle, without writing
// the claim record
func (p *Protocol) EligibleRewards(sr protocol.StateReader, holder address.Address, epoch uint64) (*big.Int, error) {
	return p.eligible(sr, holder, epoch)
}

// Position returns the holder's locked position
func (p *Protocol) Position(sr protocol.StateReader, holder address.Address) (*Position, error) {
	return p.position(sr, holder)
}

// UnclaimedRewards returns the holder's claimed but not yet withdrawn reward balance
func (p *Protocol) UnclaimedRewards(sr protocol.StateReader, holder address.Address) (*big.Int, error) {
	var r rewards
	err := p.state(sr, rewardsKey(holder), &r)
	switch errors.Cause(err) {
	case nil:
		return r.Unclaimed, nil
	case state.ErrStateNotExist:
		return new(big.Int), nil
	default:
		return nil, err
	}
}

// TotalLocked returns the aggregate locked amount across all positions
func (p *Protocol) TotalLocked(sr protocol.StateReader) (*big.Int, error) {
	var t totalLocked
	err := p.state(sr, hash.Hash160b(_totalLockedKey), &t)
	switch errors.Cause(err) {
	case nil:
		return t.Amount, nil
	case state.ErrStateNotExist:
		return new(big.Int), nil
	default:
		return nil, err
	}
}

// eligible computes weight/totalWeight of the emission budget, scaled by the clamped system
// and personal utilization ratios. Weights are evaluated at the epoch's end against the
// epoch's frozen totals, a position locked or modified after the epoch earns nothing
func (p *Protocol) eligible(sr protocol.StateReader, holder address.Address, epoch uint64) (*big.Int, error) {
	pos, err := p.position(sr, holder)
	if err != nil {
		return nil, err
	}
	if pos.LockEpoch > epoch {
		return nil, errors.Wrapf(ErrNoLockedBalance, "holder = %s locked in epoch %d, after epoch %d", holder.String(), pos.LockEpoch, epoch)
	}
	weight := p.WeightAt(pos, p.calc.EndOf(epoch))
	if weight.Sign() == 0 {
		return nil, errors.Wrapf(ErrNoLockedBalance, "holder = %s has no weight at epoch %d end", holder.String(), epoch)
	}
	totals, err := p.epochTotalsAt(sr, epoch)
	if err != nil {
		return nil, err
	}

	base := new(big.Int).Mul(weight, p.schedule.EmissionAt(epoch))
	base.Quo(base, totals.TotalWeight)

	systemUtil, err := p.tracker.System(sr, epoch)
	if err != nil {
		return nil, err
	}
	personalUtil, err := p.tracker.Personal(sr, holder, epoch)
	if err != nil {
		return nil, err
	}

	sysBps := utilizationBps(systemUtil, totals.TotalLocked, p.cfg.SystemUtilizationLowerBoundBps)
	perBps := utilizationBps(personalUtil, pos.Amount, p.cfg.PersonalUtilizationLowerBoundBps)
	reward := base.Mul(base, new(big.Int).SetUint64(sysBps))
	reward.Quo(reward, big.NewInt(config.FeeDenominator))
	reward.Mul(reward, new(big.Int).SetUint64(perBps))
	return reward.Quo(reward, big.NewInt(config.FeeDenominator)), nil
}

// utilizationBps converts a utilization over a locked balance into basis points, clamped
// into [lowerBound, denominator]. A negative utilization counts as zero before the floor
func utilizationBps(util, locked *big.Int, lowerBound uint64) uint64 {
	if locked == nil || locked.Sign() <= 0 {
		return lowerBound
	}
	if util.Sign() <= 0 {
		return lowerBound
	}
	bps := new(big.Int).Mul(util, big.NewInt(config.FeeDenominator))
	bps.Quo(bps, locked)
	if bps.Cmp(big.NewInt(config.FeeDenominator)) >= 0 {
		return config.FeeDenominator
	}
	if bps.Uint64() < lowerBound {
		return lowerBound
	}
	return bps.Uint64()
}

func (p *Protocol) position(sr protocol.StateReader, holder address.Address) (*Position, error) {
	var pos Position
	err := p.state(sr, positionKey(holder), &pos)
	switch errors.Cause(err) {
	case nil:
		return &pos, nil
	case state.ErrStateNotExist:
		return nil, errors.Wrapf(ErrNoLockedBalance, "holder = %s", holder.String())
	default:
		return nil, err
	}
}

func (p *Protocol) lockers(sr protocol.StateReader) (*lockers, error) {
	var set lockers
	err := p.state(sr, hash.Hash160b(_lockersKey), &set)
	switch errors.Cause(err) {
	case nil:
		return &set, nil
	case state.ErrStateNotExist:
		return &lockers{}, nil
	default:
		return nil, err
	}
}

func (p *Protocol) addLocker(sm protocol.StateManager, holder address.Address) error {
	set, err := p.lockers(sm)
	if err != nil {
		return err
	}
	set.Addresses = append(set.Addresses, holder.Bytes())
	return p.putState(sm, hash.Hash160b(_lockersKey), set)
}

func (p *Protocol) removeLocker(sm protocol.StateManager, holder address.Address) error {
	set, err := p.lockers(sm)
	if err != nil {
		return err
	}
	kept := set.Addresses[:0]
	for _, raw := range set.Addresses {
		if !bytes.Equal(raw, holder.Bytes()) {
			kept = append(kept, raw)
		}
	}
	set.Addresses = kept
	return p.putState(sm, hash.Hash160b(_lockersKey), set)
}

func (p *Protocol) adjustTotalLocked(sm protocol.StateManager, delta *big.Int) error {
	total, err := p.TotalLocked(sm)
	if err != nil {
		return err
	}
	return p.putState(sm, hash.Hash160b(_totalLockedKey), &totalLocked{Amount: total.Add(total, delta)})
}

func (p *Protocol) state(sr protocol.StateReader, key hash.Hash160, value interface{}) error {
	return sr.State(value, protocol.NamespaceOption(Namespace), protocol.LegacyKeyOption(key))
}

func (p *Protocol) putState(sm protocol.StateManager, key hash.Hash160, value interface{}) error {
	return sm.PutState(value, protocol.NamespaceOption(Namespace), protocol.LegacyKeyOption(key))
}

func positionKey(holder address.Address) hash.Hash160 {
	return hash.Hash160b(append(_positionKeyPrefix, holder.Bytes()...))
}

func rewardsKey(holder address.Address) hash.Hash160 {
	return hash.Hash160b(append(_rewardsKeyPrefix, holder.Bytes()...))
}

func snapshotKey(epoch uint64) hash.Hash160 {
	return hash.Hash160b(append(_snapshotKeyPrefix, byteutil.Uint64ToBytesBigEndian(epoch)...))
}

func claimKey(holder address.Address, epoch uint64) hash.Hash160 {
	k := append(_claimKeyPrefix, holder.Bytes()...)
	return hash.Hash160b(append(k, byteutil.Uint64ToBytesBigEndian(epoch)...))
}
