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

	"github.com/0xIntuition/intuition-core/config"
	"github.com/0xIntuition/intuition-core/pkg/fixedpoint"
	"github.com/0xIntuition/intuition-core/protocol"
	"github.com/0xIntuition/intuition-core/state"
)

// TermKind tells the three claim flavors apart
type TermKind uint8

const (
	// Atom is a claim over an immutable data payload
	Atom TermKind = iota
	// Triple is a claim over an ordered (subject, predicate, object) relation of terms
	Triple
	// CounterTriple is the companion claim carrying a triple's negation
	CounterTriple
)

var (
	_tripleIDPrefix  = []byte("triple")
	_counterIDPrefix = []byte("counter")
)

// Term is the stored record of one created claim. An atom keeps its payload; a triple and
// its counter both keep the three constituent term ids
type Term struct {
	Kind      TermKind
	Payload   []byte
	Subject   hash.Hash256
	Predicate hash.Hash256
	Object    hash.Hash256
}

// AtomID computes the term id of the atom payload
func AtomID(payload []byte) hash.Hash256 {
	return hash.Hash256b(payload)
}

// TripleID computes the term id of the (subject, predicate, object) triple
func TripleID(subject, predicate, object hash.Hash256) hash.Hash256 {
	b := append(_tripleIDPrefix, subject[:]...)
	b = append(b, predicate[:]...)
	b = append(b, object[:]...)
	return hash.Hash256b(b)
}

// CounterTripleID computes the term id of the triple's counter claim
func CounterTripleID(tripleID hash.Hash256) hash.Hash256 {
	return hash.Hash256b(append(_counterIDPrefix, tripleID[:]...))
}

// CreateAtom creates the atom claim for the payload, splits the wallet fee off the deposit
// and puts the rest into the atom's default-curve vault. The vault's first deposit pays no
// entry fee
func (p *Protocol) CreateAtom(
	ctx context.Context,
	sm protocol.StateManager,
	payload []byte,
	value *big.Int,
) (hash.Hash256, []Event, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	if len(payload) == 0 || uint64(len(payload)) > p.cfg.MaxAtomPayloadBytes {
		return hash.ZeroHash256, nil, errors.Wrapf(ErrPayloadTooLarge, "payload size = %d", len(payload))
	}
	if value == nil || value.Sign() <= 0 {
		return hash.ZeroHash256, nil, errors.Wrapf(ErrBelowMinDeposit, "value = %s", value)
	}
	id := AtomID(payload)
	if _, err := p.Term(sm, id); err == nil {
		return hash.ZeroHash256, nil, errors.Wrapf(ErrTermAlreadyExists, "atom id = %x", id)
	} else if errors.Cause(err) != ErrTermNotFound {
		return hash.ZeroHash256, nil, err
	}

	walletFee := fixedpoint.BpsOfRoundUp(value, p.cfg.AtomWalletDepositFeeBps, config.FeeDenominator)
	rest := new(big.Int).Sub(value, walletFee)
	if rest.Cmp(p.cfg.MinDeposit()) < 0 {
		return hash.ZeroHash256, nil, errors.Wrapf(ErrBelowMinDeposit, "deposit after wallet fee = %s", rest)
	}

	if err := p.putState(sm, TermsNamespace, termKey(id), &Term{Kind: Atom, Payload: payload}); err != nil {
		return hash.ZeroHash256, nil, err
	}
	if err := p.accrueWalletFee(sm, id, walletFee); err != nil {
		return hash.ZeroHash256, nil, err
	}
	_, dep, err := p.deposit(ctx, sm, actionCtx.Caller, id, p.cfg.DefaultCurveID, rest, nil)
	if err != nil {
		return hash.ZeroHash256, nil, err
	}
	events := []Event{
		&TermCreated{ID: id, Kind: Atom, Creator: actionCtx.Caller.String()},
		dep,
	}
	return id, events, nil
}

// CreateTriple creates the triple claim and its zero-balance counter claim. The flat
// creation fee goes to the protocol fee fund, the atom deposit fraction fans out in equal
// thirds into the three constituent atom vaults and the remainder lands in the triple
// vault. All shares go to the creator and not one unit of value is lost to rounding:
// fee + fanned + retained == value.
func (p *Protocol) CreateTriple(
	ctx context.Context,
	sm protocol.StateManager,
	subject, predicate, object hash.Hash256,
	value *big.Int,
) (hash.Hash256, hash.Hash256, []Event, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	if value == nil || value.Sign() <= 0 {
		return hash.ZeroHash256, hash.ZeroHash256, nil, errors.Wrapf(ErrBelowMinDeposit, "value = %s", value)
	}
	for _, constituent := range []hash.Hash256{subject, predicate, object} {
		term, err := p.Term(sm, constituent)
		if err != nil {
			return hash.ZeroHash256, hash.ZeroHash256, nil, err
		}
		if term.Kind != Atom {
			return hash.ZeroHash256, hash.ZeroHash256, nil,
				errors.Wrapf(ErrInvalidTermKind, "constituent %x is not an atom", constituent)
		}
	}
	id := TripleID(subject, predicate, object)
	if _, err := p.Term(sm, id); err == nil {
		return hash.ZeroHash256, hash.ZeroHash256, nil, errors.Wrapf(ErrTermAlreadyExists, "triple id = %x", id)
	} else if errors.Cause(err) != ErrTermNotFound {
		return hash.ZeroHash256, hash.ZeroHash256, nil, err
	}

	creationFee := p.cfg.TripleCreationFee()
	rest := new(big.Int).Sub(value, creationFee)
	if rest.Cmp(p.cfg.MinDeposit()) < 0 {
		return hash.ZeroHash256, hash.ZeroHash256, nil,
			errors.Wrapf(ErrBelowMinDeposit, "deposit after creation fee = %s", rest)
	}
	if err := p.creditFund(sm, creationFee); err != nil {
		return hash.ZeroHash256, hash.ZeroHash256, nil, err
	}

	counterID := CounterTripleID(id)
	triple := &Term{Kind: Triple, Subject: subject, Predicate: predicate, Object: object}
	if err := p.putState(sm, TermsNamespace, termKey(id), triple); err != nil {
		return hash.ZeroHash256, hash.ZeroHash256, nil, err
	}
	counter := &Term{Kind: CounterTriple, Subject: subject, Predicate: predicate, Object: object}
	if err := p.putState(sm, TermsNamespace, termKey(counterID), counter); err != nil {
		return hash.ZeroHash256, hash.ZeroHash256, nil, err
	}
	// the counter vault opens at the ghost floor with zero assets
	if _, err := p.vaultOrCreate(sm, counterID, p.cfg.DefaultCurveID); err != nil {
		return hash.ZeroHash256, hash.ZeroHash256, nil, err
	}

	events := []Event{
		&TermCreated{ID: id, Kind: Triple, Creator: actionCtx.Caller.String()},
		&TermCreated{ID: counterID, Kind: CounterTriple, Creator: actionCtx.Caller.String()},
	}

	atomPortion := fixedpoint.BpsOf(rest, p.cfg.AtomDepositFractionBps, config.FeeDenominator)
	perAtom := new(big.Int).Quo(atomPortion, big.NewInt(3))
	retained := new(big.Int).Set(rest)
	if perAtom.Sign() > 0 {
		for _, constituent := range []hash.Hash256{subject, predicate, object} {
			_, dep, err := p.deposit(ctx, sm, actionCtx.Caller, constituent, p.cfg.DefaultCurveID, perAtom, nil)
			if err != nil {
				return hash.ZeroHash256, hash.ZeroHash256, nil, err
			}
			retained.Sub(retained, perAtom)
			events = append(events, dep)
		}
	}
	_, dep, err := p.deposit(ctx, sm, actionCtx.Caller, id, p.cfg.DefaultCurveID, retained, nil)
	if err != nil {
		return hash.ZeroHash256, hash.ZeroHash256, nil, err
	}
	events = append(events, dep)
	return id, counterID, events, nil
}

// Term returns the stored term record
func (p *Protocol) Term(sr protocol.StateReader, id hash.Hash256) (*Term, error) {
	var term Term
	err := p.state(sr, TermsNamespace, termKey(id), &term)
	switch errors.Cause(err) {
	case nil:
		return &term, nil
	case state.ErrStateNotExist:
		return nil, errors.Wrapf(ErrTermNotFound, "term id = %x", id)
	default:
		return nil, err
	}
}

// IsTermCreated tells whether the term id has been created
func (p *Protocol) IsTermCreated(sr protocol.StateReader, id hash.Hash256) (bool, error) {
	_, err := p.Term(sr, id)
	switch errors.Cause(err) {
	case nil:
		return true, nil
	case ErrTermNotFound:
		return false, nil
	default:
		return false, err
	}
}
