// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package multivault implements the term registry and the per-(term, curve) vault ledger.
// Every claim (atom, triple, counter-triple) owns one vault per registered bonding curve.
// A vault is a two-column balance sheet of TotalAssets and TotalShares; holder balances are
// tracked separately and the ghost share floor minted at vault genesis is owned by nobody.
package multivault

import (
	"math/big"

	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"

	"github.com/0xIntuition/intuition-core/config"
	"github.com/0xIntuition/intuition-core/curve"
	"github.com/0xIntuition/intuition-core/pkg/util/byteutil"
	"github.com/0xIntuition/intuition-core/protocol"
	"github.com/0xIntuition/intuition-core/utilization"
)

const (
	// TermsNamespace is the namespace of the term records
	TermsNamespace = "Terms"
	// VaultsNamespace is the namespace of the vault and holder share records
	VaultsNamespace = "Vaults"
	// FeesNamespace is the namespace of the fee fund and the atom wallet fee ledger
	FeesNamespace = "Fees"
)

var (
	_termKeyPrefix      = []byte("term")
	_vaultKeyPrefix     = []byte("vault")
	_sharesKeyPrefix    = []byte("shares")
	_walletFeeKeyPrefix = []byte("walletFee")
	_fundKey            = []byte("fund")

	// ErrTermAlreadyExists indicates the term id has already been created
	ErrTermAlreadyExists = errors.New("term already exists")
	// ErrTermNotFound indicates the term id has not been created
	ErrTermNotFound = errors.New("term not found")
	// ErrPayloadTooLarge indicates the atom payload exceeds the size cap
	ErrPayloadTooLarge = errors.New("atom payload too large")
	// ErrInvalidTermKind indicates a term of the wrong kind, e.g. a triple nested inside a triple
	ErrInvalidTermKind = errors.New("invalid term kind")
	// ErrBelowMinDeposit indicates the deposit is below the minimal amount
	ErrBelowMinDeposit = errors.New("deposit below minimal amount")
	// ErrSlippageExceeded indicates the conversion fell below the caller's bound
	ErrSlippageExceeded = errors.New("slippage exceeded")
	// ErrInsufficientShares indicates the holder owns fewer shares than requested
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrInsufficientFunds indicates the fund balance cannot cover the withdrawal
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Protocol implements all operations on terms, vaults and the protocol fee fund. It is
// stateless itself, all ledger state lives behind the StateManager passed into each call
type Protocol struct {
	cfg     config.MultiVault
	curves  *curve.Registry
	tracker *utilization.Tracker
}

// NewProtocol instantiates the multi-vault protocol
func NewProtocol(cfg config.MultiVault, curves *curve.Registry, tracker *utilization.Tracker) *Protocol {
	return &Protocol{cfg: cfg, curves: curves, tracker: tracker}
}

func termKey(id hash.Hash256) hash.Hash160 {
	return hash.Hash160b(append(_termKeyPrefix, id[:]...))
}

func vaultKey(id hash.Hash256, curveID uint64) hash.Hash160 {
	return hash.Hash160b(appendUint64(append(_vaultKeyPrefix, id[:]...), curveID))
}

func sharesKey(id hash.Hash256, curveID uint64, holder []byte) hash.Hash160 {
	k := appendUint64(append(_sharesKeyPrefix, id[:]...), curveID)
	return hash.Hash160b(append(k, holder...))
}

func walletFeeKey(id hash.Hash256) hash.Hash160 {
	return hash.Hash160b(append(_walletFeeKeyPrefix, id[:]...))
}

func (p *Protocol) state(sr protocol.StateReader, ns string, key hash.Hash160, value interface{}) error {
	return sr.State(value, protocol.NamespaceOption(ns), protocol.LegacyKeyOption(key))
}

func (p *Protocol) putState(sm protocol.StateManager, ns string, key hash.Hash160, value interface{}) error {
	return sm.PutState(value, protocol.NamespaceOption(ns), protocol.LegacyKeyOption(key))
}

func (p *Protocol) deleteState(sm protocol.StateManager, ns string, key hash.Hash160) error {
	return sm.DelState(protocol.NamespaceOption(ns), protocol.LegacyKeyOption(key))
}

func appendUint64(b []byte, v uint64) []byte {
	return append(b, byteutil.Uint64ToBytesBigEndian(v)...)
}

func clone(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
