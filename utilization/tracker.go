// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package utilization tracks the net deposit-minus-redemption activity per holder and per
// epoch. Every mutation carries the epoch index of the call that caused it, so records of
// elapsed epochs are frozen by construction: nothing ever writes under a past epoch index.
package utilization

import (
	"math/big"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/0xIntuition/intuition-core/pkg/util/byteutil"
	"github.com/0xIntuition/intuition-core/protocol"
	"github.com/0xIntuition/intuition-core/state"
)

// Namespace is the namespace of the utilization records
const Namespace = "Utilization"

var (
	_personalKeyPrefix = []byte("utilization")
	_systemKeyPrefix   = []byte("systemUtilization")
)

type (
	// Tracker accumulates signed utilization deltas. The system-wide record of an epoch is
	// the exact sum of all personal records of that epoch
	Tracker struct{}

	// record is the stored running net of one (holder, epoch) or one epoch system-wide
	record struct {
		Net *big.Int
	}
)

// NewTracker creates a utilization tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// Add accumulates the delta into the holder's record and the system record of the epoch
func (t *Tracker) Add(sm protocol.StateManager, holder address.Address, epoch uint64, delta *big.Int) error {
	if delta == nil || delta.Sign() == 0 {
		return nil
	}
	if err := t.add(sm, personalKey(holder, epoch), delta); err != nil {
		return errors.Wrap(err, "failed to update personal utilization")
	}
	return errors.Wrap(t.add(sm, systemKey(epoch), delta), "failed to update system utilization")
}

// Personal returns the holder's net utilization of the epoch, zero when never touched
func (t *Tracker) Personal(sr protocol.StateReader, holder address.Address, epoch uint64) (*big.Int, error) {
	return t.read(sr, personalKey(holder, epoch))
}

// System returns the system-wide net utilization of the epoch, zero when never touched
func (t *Tracker) System(sr protocol.StateReader, epoch uint64) (*big.Int, error) {
	return t.read(sr, systemKey(epoch))
}

func (t *Tracker) add(sm protocol.StateManager, key hash.Hash160, delta *big.Int) error {
	cur, err := t.read(sm, key)
	if err != nil {
		return err
	}
	return sm.PutState(
		&record{Net: cur.Add(cur, delta)},
		protocol.NamespaceOption(Namespace),
		protocol.LegacyKeyOption(key),
	)
}

func (t *Tracker) read(sr protocol.StateReader, key hash.Hash160) (*big.Int, error) {
	var r record
	err := sr.State(&r, protocol.NamespaceOption(Namespace), protocol.LegacyKeyOption(key))
	switch errors.Cause(err) {
	case nil:
		return r.Net, nil
	case state.ErrStateNotExist:
		return new(big.Int), nil
	default:
		return nil, err
	}
}

func personalKey(holder address.Address, epoch uint64) hash.Hash160 {
	k := append(_personalKeyPrefix, holder.Bytes()...)
	return hash.Hash160b(append(k, byteutil.Uint64ToBytesBigEndian(epoch)...))
}

func systemKey(epoch uint64) hash.Hash160 {
	return hash.Hash160b(append(_systemKeyPrefix, byteutil.Uint64ToBytesBigEndian(epoch)...))
}
