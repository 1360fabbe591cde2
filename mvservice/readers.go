// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package mvservice

import (
	"math/big"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/0xIntuition/intuition-core/bonding"
	"github.com/0xIntuition/intuition-core/multivault"
)

// Read-only operations run against a fresh working set, which reads straight through to
// the committed states. They never take the service mutex.

// IsTermCreated tells whether the term id exists
func (s *Service) IsTermCreated(id hash.Hash256) (bool, error) {
	return s.mv.IsTermCreated(s.sf.NewWorkingSet(), id)
}

// GetTerm returns the stored term record
func (s *Service) GetTerm(id hash.Hash256) (*multivault.Term, error) {
	return s.mv.Term(s.sf.NewWorkingSet(), id)
}

// GetVault returns the balance sheet of the (term, curve) vault
func (s *Service) GetVault(termID hash.Hash256, curveID uint64) (*multivault.Vault, error) {
	return s.mv.GetVault(s.sf.NewWorkingSet(), termID, curveID)
}

// GetShares returns the holder's share balance in the (term, curve) vault
func (s *Service) GetShares(termID hash.Hash256, curveID uint64, holder address.Address) (*big.Int, error) {
	return s.mv.GetShares(s.sf.NewWorkingSet(), termID, curveID, holder)
}

// CurrentSharePrice returns the vault's marginal share price
func (s *Service) CurrentSharePrice(termID hash.Hash256, curveID uint64) (*big.Int, error) {
	return s.mv.CurrentSharePrice(s.sf.NewWorkingSet(), termID, curveID)
}

// PreviewDeposit returns the shares and net amount a deposit would mint
func (s *Service) PreviewDeposit(termID hash.Hash256, curveID uint64, assets *big.Int) (*big.Int, *big.Int, error) {
	return s.mv.PreviewDeposit(s.sf.NewWorkingSet(), termID, curveID, assets)
}

// PreviewRedeem returns the assets a redemption would pay out
func (s *Service) PreviewRedeem(termID hash.Hash256, curveID uint64, shares *big.Int) (*big.Int, error) {
	return s.mv.PreviewRedeem(s.sf.NewWorkingSet(), termID, curveID, shares)
}

// ProtocolFeeFund returns the fee fund balances
func (s *Service) ProtocolFeeFund() (*multivault.Fund, error) {
	return s.mv.Fund(s.sf.NewWorkingSet())
}

// AtomWalletFees returns the atom's accrued wallet fee balance
func (s *Service) AtomWalletFees(atomID hash.Hash256) (*big.Int, error) {
	return s.mv.AtomWalletFees(s.sf.NewWorkingSet(), atomID)
}

// PersonalUtilization returns the holder's net utilization in the epoch
func (s *Service) PersonalUtilization(holder address.Address, epoch uint64) (*big.Int, error) {
	return s.tracker.Personal(s.sf.NewWorkingSet(), holder, epoch)
}

// SystemUtilization returns the system-wide net utilization in the epoch
func (s *Service) SystemUtilization(epoch uint64) (*big.Int, error) {
	return s.tracker.System(s.sf.NewWorkingSet(), epoch)
}

// EmissionAt returns the emission budget of the epoch
func (s *Service) EmissionAt(epoch uint64) *big.Int {
	return s.schedule.EmissionAt(epoch)
}

// Position returns the holder's locked position
func (s *Service) Position(holder address.Address) (*bonding.Position, error) {
	return s.bonding.Position(s.sf.NewWorkingSet(), holder)
}

// UnclaimedRewards returns the holder's claimed but not yet withdrawn balance
func (s *Service) UnclaimedRewards(holder address.Address) (*big.Int, error) {
	return s.bonding.UnclaimedRewards(s.sf.NewWorkingSet(), holder)
}

// EligibleRewards previews the reward a claim for the epoch would settle
func (s *Service) EligibleRewards(holder address.Address, epoch uint64) (*big.Int, error) {
	return s.bonding.EligibleRewards(s.sf.NewWorkingSet(), holder, epoch)
}

// TotalLocked returns the aggregate locked amount
func (s *Service) TotalLocked() (*big.Int, error) {
	return s.bonding.TotalLocked(s.sf.NewWorkingSet())
}

// GetUserInfo returns the holder's bonding summary
func (s *Service) GetUserInfo(holder address.Address) (*UserInfo, error) {
	ws := s.sf.NewWorkingSet()
	unclaimed, err := s.bonding.UnclaimedRewards(ws, holder)
	if err != nil {
		return nil, err
	}
	info := &UserInfo{
		Locked:        new(big.Int),
		CurrentWeight: new(big.Int),
		Unclaimed:     unclaimed,
	}
	pos, err := s.bonding.Position(ws, holder)
	switch errors.Cause(err) {
	case nil:
		info.Locked = pos.Amount
		info.UnlockTime = pos.UnlockTime
		info.CurrentWeight = s.bonding.WeightAt(pos, s.clock.Now())
	case bonding.ErrNoLockedBalance:
	default:
		return nil, err
	}
	return info, nil
}
