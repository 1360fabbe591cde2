// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package mvservice

import (
	"context"
	"math/big"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/0xIntuition/intuition-core/multivault"
	"github.com/0xIntuition/intuition-core/protocol"
	"github.com/0xIntuition/intuition-core/state/factory"
)

type (
	// TripleSpec names the three constituents of one triple to create
	TripleSpec struct {
		Subject   hash.Hash256
		Predicate hash.Hash256
		Object    hash.Hash256
	}

	// DepositRequest is one leg of a batched deposit
	DepositRequest struct {
		Receiver  address.Address
		TermID    hash.Hash256
		CurveID   uint64
		Assets    *big.Int
		MinShares *big.Int
	}

	// RedeemRequest is one leg of a batched redemption
	RedeemRequest struct {
		Receiver  address.Address
		TermID    hash.Hash256
		CurveID   uint64
		Shares    *big.Int
		MinAssets *big.Int
	}
)

// CreateAtom creates an atom claim and seeds its default vault with the value
func (s *Service) CreateAtom(caller address.Address, payload []byte, value *big.Int) (hash.Hash256, error) {
	var id hash.Hash256
	err := s.execute("create_atom", caller, func(ctx context.Context, ws factory.WorkingSet) ([]multivault.Event, error) {
		var (
			events []multivault.Event
			err    error
		)
		id, events, err = s.mv.CreateAtom(ctx, ws, payload, value)
		return events, err
	})
	return id, err
}

// CreateAtoms creates several atoms all-or-nothing: the first failing creation discards
// every prior one in the batch
func (s *Service) CreateAtoms(caller address.Address, payloads [][]byte, values []*big.Int) ([]hash.Hash256, error) {
	if len(payloads) != len(values) {
		return nil, errors.New("payload and value counts differ")
	}
	ids := make([]hash.Hash256, len(payloads))
	err := s.execute("create_atoms", caller, func(ctx context.Context, ws factory.WorkingSet) ([]multivault.Event, error) {
		var events []multivault.Event
		for i := range payloads {
			id, evs, err := s.mv.CreateAtom(ctx, ws, payloads[i], values[i])
			if err != nil {
				return nil, errors.Wrapf(err, "batch leg %d", i)
			}
			ids[i] = id
			events = append(events, evs...)
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CreateTriple creates a triple claim and its counter claim
func (s *Service) CreateTriple(caller address.Address, spec TripleSpec, value *big.Int) (hash.Hash256, hash.Hash256, error) {
	var tripleID, counterID hash.Hash256
	err := s.execute("create_triple", caller, func(ctx context.Context, ws factory.WorkingSet) ([]multivault.Event, error) {
		var (
			events []multivault.Event
			err    error
		)
		tripleID, counterID, events, err = s.mv.CreateTriple(ctx, ws, spec.Subject, spec.Predicate, spec.Object, value)
		return events, err
	})
	return tripleID, counterID, err
}

// CreateTriples creates several triples all-or-nothing
func (s *Service) CreateTriples(caller address.Address, specs []TripleSpec, values []*big.Int) ([]hash.Hash256, error) {
	if len(specs) != len(values) {
		return nil, errors.New("spec and value counts differ")
	}
	ids := make([]hash.Hash256, len(specs))
	err := s.execute("create_triples", caller, func(ctx context.Context, ws factory.WorkingSet) ([]multivault.Event, error) {
		var events []multivault.Event
		for i, spec := range specs {
			id, _, evs, err := s.mv.CreateTriple(ctx, ws, spec.Subject, spec.Predicate, spec.Object, values[i])
			if err != nil {
				return nil, errors.Wrapf(err, "batch leg %d", i)
			}
			ids[i] = id
			events = append(events, evs...)
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Deposit mints vault shares for the receiver
func (s *Service) Deposit(
	caller, receiver address.Address,
	termID hash.Hash256,
	curveID uint64,
	assets, minShares *big.Int,
) (*big.Int, error) {
	var shares *big.Int
	err := s.execute("deposit", caller, func(ctx context.Context, ws factory.WorkingSet) ([]multivault.Event, error) {
		var (
			event *multivault.Deposited
			err   error
		)
		shares, event, err = s.mv.Deposit(ctx, ws, receiver, termID, curveID, assets, minShares)
		if err != nil {
			return nil, err
		}
		return []multivault.Event{event}, nil
	})
	return shares, err
}

// DepositBatch runs several deposits all-or-nothing
func (s *Service) DepositBatch(caller address.Address, reqs []DepositRequest) ([]*big.Int, error) {
	minted := make([]*big.Int, len(reqs))
	err := s.execute("deposit_batch", caller, func(ctx context.Context, ws factory.WorkingSet) ([]multivault.Event, error) {
		var events []multivault.Event
		for i, req := range reqs {
			shares, event, err := s.mv.Deposit(ctx, ws, req.Receiver, req.TermID, req.CurveID, req.Assets, req.MinShares)
			if err != nil {
				return nil, errors.Wrapf(err, "batch leg %d", i)
			}
			minted[i] = shares
			events = append(events, event)
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}
	return minted, nil
}

// Redeem burns the caller's shares and pays the assets to the receiver
func (s *Service) Redeem(
	caller, receiver address.Address,
	termID hash.Hash256,
	curveID uint64,
	shares, minAssets *big.Int,
) (*big.Int, error) {
	var assets *big.Int
	err := s.execute("redeem", caller, func(ctx context.Context, ws factory.WorkingSet) ([]multivault.Event, error) {
		var (
			event *multivault.Redeemed
			err   error
		)
		assets, event, err = s.mv.Redeem(ctx, ws, receiver, termID, curveID, shares, minAssets)
		if err != nil {
			return nil, err
		}
		return []multivault.Event{event}, nil
	})
	return assets, err
}

// RedeemBatch runs several redemptions all-or-nothing
func (s *Service) RedeemBatch(caller address.Address, reqs []RedeemRequest) ([]*big.Int, error) {
	paid := make([]*big.Int, len(reqs))
	err := s.execute("redeem_batch", caller, func(ctx context.Context, ws factory.WorkingSet) ([]multivault.Event, error) {
		var events []multivault.Event
		for i, req := range reqs {
			assets, event, err := s.mv.Redeem(ctx, ws, req.Receiver, req.TermID, req.CurveID, req.Shares, req.MinAssets)
			if err != nil {
				return nil, errors.Wrapf(err, "batch leg %d", i)
			}
			paid[i] = assets
			events = append(events, event)
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// WithdrawProtocolFees pays accumulated protocol fees out of the fee fund. Governor only
func (s *Service) WithdrawProtocolFees(caller address.Address, amount *big.Int) error {
	if err := s.requireGovernor(caller); err != nil {
		return err
	}
	return s.execute("withdraw_protocol_fees", caller, func(ctx context.Context, ws factory.WorkingSet) ([]multivault.Event, error) {
		event, err := s.mv.WithdrawProtocolFees(ctx, ws, amount)
		if err != nil {
			return nil, err
		}
		return []multivault.Event{event}, nil
	})
}

// ClaimAtomWalletFees pays the atom's accrued wallet fees to its wallet owner. The caller
// must be the owner reported by the wallet factory
func (s *Service) ClaimAtomWalletFees(caller address.Address, atomID hash.Hash256) (*big.Int, error) {
	if s.walletFactory == nil {
		return nil, errors.Wrap(protocol.ErrUnauthorized, "no wallet factory configured")
	}
	owner, err := s.walletFactory.OwnerOf(context.Background(), atomID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve wallet owner of atom %x", atomID)
	}
	if owner.String() != caller.String() {
		return nil, errors.Wrapf(protocol.ErrUnauthorized, "caller %s is not the wallet owner", caller.String())
	}
	var claimed *big.Int
	err = s.execute("claim_atom_wallet_fees", caller, func(ctx context.Context, ws factory.WorkingSet) ([]multivault.Event, error) {
		var (
			event *multivault.FeesWithdrawn
			err   error
		)
		claimed, event, err = s.mv.ClaimAtomWalletFees(ctx, ws, atomID)
		if err != nil {
			return nil, err
		}
		return []multivault.Event{event}, nil
	})
	return claimed, err
}

// GetAtomWalletOwner resolves the owner of the atom's wallet through the wallet factory
func (s *Service) GetAtomWalletOwner(atomID hash.Hash256) (address.Address, error) {
	if s.walletFactory == nil {
		return nil, errors.New("no wallet factory configured")
	}
	return s.walletFactory.OwnerOf(context.Background(), atomID)
}
