// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package mvservice

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/0xIntuition/intuition-core/bonding"
	"github.com/0xIntuition/intuition-core/config"
	"github.com/0xIntuition/intuition-core/curve"
	"github.com/0xIntuition/intuition-core/db"
	"github.com/0xIntuition/intuition-core/multivault"
	"github.com/0xIntuition/intuition-core/pkg/fixedpoint"
	"github.com/0xIntuition/intuition-core/protocol"
	"github.com/0xIntuition/intuition-core/test/identityset"
	"github.com/0xIntuition/intuition-core/test/mock/mock_mvservice"
)

type eventRecorder struct {
	events []multivault.Event
}

func (r *eventRecorder) HandleEvent(e multivault.Event) {
	r.events = append(r.events, e)
}

func newTestService(t *testing.T, opts ...Option) (*Service, *clock.Mock) {
	require := require.New(t)

	mock := clock.NewMock()
	cfg := config.Default
	cfg.Epochs.Genesis = time.Unix(0, 0)
	cfg.Epochs.Length = time.Hour

	s, err := NewService(cfg, db.NewMemKVStore(), identityset.Address(0), append(opts, WithClock(mock))...)
	require.NoError(err)
	require.NoError(s.Start(context.Background()))
	t.Cleanup(func() { require.NoError(s.Stop(context.Background())) })
	return s, mock
}

func TestServiceDepositAndEvents(t *testing.T) {
	require := require.New(t)

	s, _ := newTestService(t)
	recorder := &eventRecorder{}
	s.AddListener(recorder)
	alice := identityset.Address(1)

	id, err := s.CreateAtom(alice, []byte("did:intuition:alice"), big.NewInt(1000000))
	require.NoError(err)
	require.Equal(multivault.AtomID([]byte("did:intuition:alice")), id)
	// TermCreated plus the seeding Deposited reached the listener after commit
	require.Len(recorder.events, 2)

	created, err := s.IsTermCreated(id)
	require.NoError(err)
	require.True(created)
	v, err := s.GetVault(id, s.cfg.MultiVault.DefaultCurveID)
	require.NoError(err)
	require.True(v.TotalAssets.Sign() > 0)

	shares, err := s.Deposit(alice, alice, id, s.cfg.MultiVault.DefaultCurveID, big.NewInt(50000), nil)
	require.NoError(err)
	require.True(shares.Sign() > 0)
	require.Len(recorder.events, 3)

	held, err := s.GetShares(id, s.cfg.MultiVault.DefaultCurveID, alice)
	require.NoError(err)
	assets, err := s.Redeem(alice, alice, id, s.cfg.MultiVault.DefaultCurveID, held, nil)
	require.NoError(err)
	require.True(assets.Sign() > 0)
	require.Len(recorder.events, 4)
}

// callbackListener runs a deposit from inside the event delivery path
type callbackListener struct {
	s       *Service
	caller  address.Address
	curveID uint64
	called  bool
	err     error
}

func (l *callbackListener) HandleEvent(e multivault.Event) {
	created, ok := e.(*multivault.TermCreated)
	if !ok || l.called {
		return
	}
	l.called = true
	_, l.err = l.s.Deposit(l.caller, l.caller, created.ID, l.curveID, big.NewInt(50000), nil)
}

func TestListenerMayCallBack(t *testing.T) {
	require := require.New(t)

	s, _ := newTestService(t)
	alice := identityset.Address(1)
	cb := &callbackListener{s: s, caller: alice, curveID: s.cfg.MultiVault.DefaultCurveID}
	s.AddListener(cb)

	id, err := s.CreateAtom(alice, []byte("did:intuition:alice"), big.NewInt(1000000))
	require.NoError(err)
	require.True(cb.called)
	require.NoError(cb.err)

	// the callback's deposit landed on top of the seeding one
	held, err := s.GetShares(id, s.cfg.MultiVault.DefaultCurveID, alice)
	require.NoError(err)
	require.True(held.Cmp(big.NewInt(980100)) > 0)
}

func TestFailedOperationIsInvisible(t *testing.T) {
	require := require.New(t)

	s, _ := newTestService(t)
	recorder := &eventRecorder{}
	s.AddListener(recorder)
	alice := identityset.Address(1)

	// the deposit leg fails on the unknown term, the whole operation must vanish
	_, err := s.Deposit(alice, alice, multivault.AtomID([]byte("missing")), 1, big.NewInt(50000), nil)
	require.Equal(multivault.ErrTermNotFound, errors.Cause(err))
	require.Empty(recorder.events)

	fund, err := s.ProtocolFeeFund()
	require.NoError(err)
	require.Equal(0, fund.TotalBalance.Sign())
}

func TestBatchIsAllOrNothing(t *testing.T) {
	require := require.New(t)

	s, _ := newTestService(t)
	alice := identityset.Address(1)

	// the second leg duplicates the first, so neither atom may survive
	_, err := s.CreateAtoms(alice,
		[][]byte{[]byte("same"), []byte("same")},
		[]*big.Int{big.NewInt(1000000), big.NewInt(1000000)},
	)
	require.Equal(multivault.ErrTermAlreadyExists, errors.Cause(err))

	created, err := s.IsTermCreated(multivault.AtomID([]byte("same")))
	require.NoError(err)
	require.False(created)

	// a clean batch lands atomically
	ids, err := s.CreateAtoms(alice,
		[][]byte{[]byte("one"), []byte("two")},
		[]*big.Int{big.NewInt(1000000), big.NewInt(1000000)},
	)
	require.NoError(err)
	require.Len(ids, 2)
	for _, id := range ids {
		created, err := s.IsTermCreated(id)
		require.NoError(err)
		require.True(created)
	}
}

func TestTripleThroughService(t *testing.T) {
	require := require.New(t)

	s, _ := newTestService(t)
	alice := identityset.Address(1)

	ids, err := s.CreateAtoms(alice,
		[][]byte{[]byte("s"), []byte("p"), []byte("o")},
		[]*big.Int{big.NewInt(1000000), big.NewInt(1000000), big.NewInt(1000000)},
	)
	require.NoError(err)

	tripleID, counterID, err := s.CreateTriple(alice, TripleSpec{
		Subject:   ids[0],
		Predicate: ids[1],
		Object:    ids[2],
	}, big.NewInt(2000000))
	require.NoError(err)

	term, err := s.GetTerm(tripleID)
	require.NoError(err)
	require.Equal(multivault.Triple, term.Kind)
	cv, err := s.GetVault(counterID, s.cfg.MultiVault.DefaultCurveID)
	require.NoError(err)
	require.Equal(0, cv.TotalAssets.Sign())
}

func TestGovernance(t *testing.T) {
	require := require.New(t)

	s, _ := newTestService(t)
	governor := identityset.Address(0)
	alice := identityset.Address(1)

	require.Equal(protocol.ErrUnauthorized, errors.Cause(s.SetFees(alice, 10, 10, 10, 10)))
	require.Equal(protocol.ErrUnauthorized, errors.Cause(s.SetUtilizationLowerBounds(alice, 1000, 1000)))

	require.NoError(s.SetFees(governor, 10, 10, 10, 10))
	require.Equal(config.ErrInvalidCfg, errors.Cause(s.SetFees(governor, 10, 10, config.FeeDenominator, 10)))

	extra, err := curve.NewLinear(77, fixedpoint.WAD)
	require.NoError(err)
	require.Equal(protocol.ErrUnauthorized, errors.Cause(s.RegisterCurve(alice, extra)))
	require.NoError(s.RegisterCurve(governor, extra))
	require.Contains(s.Curves(), uint64(77))
	require.Equal(curve.ErrCurveAlreadyExists, errors.Cause(s.RegisterCurve(governor, extra)))

	require.NoError(s.WithdrawProtocolFees(governor, nonZeroFundBalance(t, s)))
}

// nonZeroFundBalance seeds the fee fund through an atom creation and returns its balance
func nonZeroFundBalance(t *testing.T, s *Service) *big.Int {
	require := require.New(t)
	_, err := s.CreateAtom(identityset.Address(1), []byte("fund-seed"), big.NewInt(1000000))
	require.NoError(err)
	fund, err := s.ProtocolFeeFund()
	require.NoError(err)
	require.True(fund.UnclaimedBalance.Sign() > 0)
	return fund.UnclaimedBalance
}

func TestRewardLifecycle(t *testing.T) {
	require := require.New(t)

	ctrl := gomock.NewController(t)
	bridge := mock_mvservice.NewMockBridge(ctrl)
	s, mock := newTestService(t, WithBridge(bridge))
	alice := identityset.Address(1)

	// activity and a locked position during epoch 0
	_, err := s.CreateAtom(alice, []byte("atom"), big.NewInt(1000000))
	require.NoError(err)
	require.NoError(s.Lock(alice, big.NewInt(500000), mock.Now().Add(200*time.Hour)))

	// claiming the running epoch fails
	_, err = s.ClaimRewards(alice, 0)
	require.Equal(bonding.ErrEpochNotElapsed, errors.Cause(err))

	// cross into epoch 1, then settle epoch 0
	mock.Add(time.Hour + time.Minute)
	epoch, err := s.CurrentEpoch()
	require.NoError(err)
	require.Equal(uint64(1), epoch)

	preview, err := s.EligibleRewards(alice, 0)
	require.NoError(err)
	reward, err := s.ClaimRewards(alice, 0)
	require.NoError(err)
	require.Equal(preview, reward)
	require.True(reward.Sign() > 0)

	balance, err := s.UnclaimedRewards(alice)
	require.NoError(err)
	require.Equal(reward, balance)

	// the bridge quotes its fee, then receives exactly the settled balance
	bridge.EXPECT().QuoteFee(gomock.Any(), "0xremote", reward).Return(big.NewInt(1), nil)
	bridge.EXPECT().Transfer(gomock.Any(), "0xremote", reward).Return(nil)
	paid, err := s.BridgeRewards(alice, "0xremote")
	require.NoError(err)
	require.Equal(reward, paid)
	balance, err = s.UnclaimedRewards(alice)
	require.NoError(err)
	require.Equal(0, balance.Sign())

	info, err := s.GetUserInfo(alice)
	require.NoError(err)
	require.Equal(big.NewInt(500000), info.Locked)
	require.True(info.CurrentWeight.Sign() > 0)
}

func TestClaimAtomWalletFees(t *testing.T) {
	require := require.New(t)

	ctrl := gomock.NewController(t)
	wf := mock_mvservice.NewMockWalletFactory(ctrl)
	s, _ := newTestService(t, WithWalletFactory(wf))
	alice := identityset.Address(1)
	bob := identityset.Address(2)

	id, err := s.CreateAtom(alice, []byte("atom"), big.NewInt(1000000))
	require.NoError(err)
	accrued, err := s.AtomWalletFees(id)
	require.NoError(err)
	require.True(accrued.Sign() > 0)

	// only the owner reported by the factory may claim
	wf.EXPECT().OwnerOf(gomock.Any(), id).Return(alice, nil)
	_, err = s.ClaimAtomWalletFees(bob, id)
	require.Equal(protocol.ErrUnauthorized, errors.Cause(err))

	wf.EXPECT().OwnerOf(gomock.Any(), id).Return(alice, nil)
	claimed, err := s.ClaimAtomWalletFees(alice, id)
	require.NoError(err)
	require.Equal(accrued, claimed)

	wf.EXPECT().OwnerOf(gomock.Any(), id).Return(alice, nil)
	owner, err := s.GetAtomWalletOwner(id)
	require.NoError(err)
	require.Equal(alice.String(), owner.String())
}
