// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package multivault

import (
	"fmt"
	"math/big"

	"github.com/iotexproject/go-pkgs/hash"
)

// Event is one ledger event produced by a committed operation. The service emits events
// only after the working set has been committed, so listeners never observe a state that
// was later discarded
type Event interface {
	fmt.Stringer
}

// TermCreated is emitted once per created term, counter-triples included
type TermCreated struct {
	ID      hash.Hash256
	Kind    TermKind
	Creator string
}

func (e *TermCreated) String() string {
	return fmt.Sprintf("TermCreated{id=%x kind=%d creator=%s}", e.ID, e.Kind, e.Creator)
}

// Deposited is emitted for every share mint, triple fan-out legs included. TotalAssets and
// TotalShares are the vault totals after the mint, so an indexer can replay the ledger from
// events alone
type Deposited struct {
	Sender          string
	Receiver        string
	TermID          hash.Hash256
	CurveID         uint64
	Assets          *big.Int
	AssetsAfterFees *big.Int
	Shares          *big.Int
	TotalAssets     *big.Int
	TotalShares     *big.Int
}

func (e *Deposited) String() string {
	return fmt.Sprintf("Deposited{term=%x curve=%d receiver=%s assets=%s net=%s shares=%s totalAssets=%s totalShares=%s}",
		e.TermID, e.CurveID, e.Receiver, e.Assets, e.AssetsAfterFees, e.Shares, e.TotalAssets, e.TotalShares)
}

// Redeemed is emitted for every share burn. GrossAssets is the burn's full asset value
// before fees, Assets the payout after them, GrossAssets = Assets + ProtocolFee + ExitFee.
// TotalAssets and TotalShares are the vault totals after the burn
type Redeemed struct {
	Sender      string
	Receiver    string
	TermID      hash.Hash256
	CurveID     uint64
	Shares      *big.Int
	Assets      *big.Int
	GrossAssets *big.Int
	ProtocolFee *big.Int
	ExitFee     *big.Int
	TotalAssets *big.Int
	TotalShares *big.Int
}

func (e *Redeemed) String() string {
	return fmt.Sprintf("Redeemed{term=%x curve=%d receiver=%s shares=%s assets=%s gross=%s protocolFee=%s exitFee=%s totalAssets=%s totalShares=%s}",
		e.TermID, e.CurveID, e.Receiver, e.Shares, e.Assets, e.GrossAssets, e.ProtocolFee, e.ExitFee, e.TotalAssets, e.TotalShares)
}

// FeesWithdrawn is emitted when the fee fund or an atom wallet fee balance pays out
type FeesWithdrawn struct {
	Recipient string
	Amount    *big.Int
}

func (e *FeesWithdrawn) String() string {
	return fmt.Sprintf("FeesWithdrawn{recipient=%s amount=%s}", e.Recipient, e.Amount)
}
