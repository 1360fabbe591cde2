// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package mvservice

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/0xIntuition/intuition-core/bonding"
	"github.com/0xIntuition/intuition-core/multivault"
	"github.com/0xIntuition/intuition-core/state/factory"
)

type (
	// RewardsClaimed is emitted when a claim settles an epoch reward
	RewardsClaimed struct {
		Holder string
		Epoch  uint64
		Amount *big.Int
	}

	// RewardsWithdrawn is emitted when an unclaimed balance pays out
	RewardsWithdrawn struct {
		Holder    string
		Recipient string
		Amount    *big.Int
		Bridged   bool
	}

	// UserInfo is the bonding summary of one holder
	UserInfo struct {
		Locked        *big.Int
		UnlockTime    time.Time
		CurrentWeight *big.Int
		Unclaimed     *big.Int
	}
)

func (e *RewardsClaimed) String() string {
	return fmt.Sprintf("RewardsClaimed{holder=%s epoch=%d amount=%s}", e.Holder, e.Epoch, e.Amount)
}

func (e *RewardsWithdrawn) String() string {
	return fmt.Sprintf("RewardsWithdrawn{holder=%s recipient=%s amount=%s bridged=%t}",
		e.Holder, e.Recipient, e.Amount, e.Bridged)
}

// Lock creates or increases the caller's locked position
func (s *Service) Lock(caller address.Address, amount *big.Int, unlockAt time.Time) error {
	return s.execute("lock", caller, func(ctx context.Context, ws factory.WorkingSet) ([]multivault.Event, error) {
		return nil, s.bonding.Lock(ctx, ws, amount, unlockAt)
	})
}

// WithdrawLock clears the caller's expired position and returns the locked amount
func (s *Service) WithdrawLock(caller address.Address) (*big.Int, error) {
	var amount *big.Int
	err := s.execute("withdraw_lock", caller, func(ctx context.Context, ws factory.WorkingSet) ([]multivault.Event, error) {
		var err error
		amount, err = s.bonding.Withdraw(ctx, ws)
		return nil, err
	})
	return amount, err
}

// ClaimRewards settles the caller's reward for an elapsed epoch
func (s *Service) ClaimRewards(caller address.Address, epoch uint64) (*big.Int, error) {
	var reward *big.Int
	err := s.execute("claim_rewards", caller, func(ctx context.Context, ws factory.WorkingSet) ([]multivault.Event, error) {
		var err error
		reward, err = s.bonding.Claim(ctx, ws, epoch)
		if err != nil {
			return nil, err
		}
		return []multivault.Event{&RewardsClaimed{
			Holder: caller.String(),
			Epoch:  epoch,
			Amount: reward,
		}}, nil
	})
	return reward, err
}

// WithdrawRewards pays the caller's unclaimed reward balance to a local recipient
func (s *Service) WithdrawRewards(caller, recipient address.Address) (*big.Int, error) {
	var paid *big.Int
	err := s.execute("withdraw_rewards", caller, func(ctx context.Context, ws factory.WorkingSet) ([]multivault.Event, error) {
		var err error
		paid, err = s.bonding.WithdrawRewards(ctx, ws, recipient)
		if err != nil {
			return nil, err
		}
		return []multivault.Event{&RewardsWithdrawn{
			Holder:    caller.String(),
			Recipient: recipient.String(),
			Amount:    paid,
		}}, nil
	})
	return paid, err
}

// BridgeRewards pays the caller's unclaimed reward balance to a recipient on a remote
// chain. The ledger state is committed before the bridge transfer is attempted, so a
// failing bridge never leaves a half-settled balance behind
func (s *Service) BridgeRewards(caller address.Address, remoteRecipient string) (*big.Int, error) {
	if s.bridge == nil {
		return nil, errors.New("no bridge configured")
	}
	balance, err := s.UnclaimedRewards(caller)
	if err != nil {
		return nil, err
	}
	if balance.Sign() <= 0 {
		return nil, errors.Wrapf(bonding.ErrNoRewards, "holder = %s", caller.String())
	}
	fee, err := s.bridge.QuoteFee(context.Background(), remoteRecipient, balance)
	if err != nil {
		return nil, errors.Wrap(err, "failed to quote the bridge fee")
	}
	if fee.Cmp(balance) >= 0 {
		return nil, errors.Errorf("bridge fee %s swallows the balance %s", fee, balance)
	}
	var paid *big.Int
	err = s.execute("bridge_rewards", caller, func(ctx context.Context, ws factory.WorkingSet) ([]multivault.Event, error) {
		var err error
		paid, err = s.bonding.WithdrawRewards(ctx, ws, caller)
		if err != nil {
			return nil, err
		}
		return []multivault.Event{&RewardsWithdrawn{
			Holder:    caller.String(),
			Recipient: remoteRecipient,
			Amount:    paid,
			Bridged:   true,
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.bridge.Transfer(context.Background(), remoteRecipient, paid); err != nil {
		return nil, errors.Wrap(err, "failed to bridge withdrawn rewards")
	}
	return paid, nil
}
