// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package mvservice is the single entry point into the ledger. It owns the backing store,
// the curve registry and the protocols, and runs every mutating operation sequentially
// against one working set: on failure the set is discarded and nothing is observable, on
// success the set is committed before any event reaches a listener.
package mvservice

import (
	"context"
	"math/big"
	"sync"

	"github.com/facebookgo/clock"
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/0xIntuition/intuition-core/bonding"
	"github.com/0xIntuition/intuition-core/config"
	"github.com/0xIntuition/intuition-core/curve"
	"github.com/0xIntuition/intuition-core/db"
	"github.com/0xIntuition/intuition-core/emissions"
	"github.com/0xIntuition/intuition-core/epochs"
	"github.com/0xIntuition/intuition-core/multivault"
	"github.com/0xIntuition/intuition-core/pkg/lifecycle"
	"github.com/0xIntuition/intuition-core/pkg/log"
	"github.com/0xIntuition/intuition-core/protocol"
	"github.com/0xIntuition/intuition-core/state/factory"
	"github.com/0xIntuition/intuition-core/utilization"
)

var _operationMtc = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "intuition_service_operations_total",
		Help: "Total service operations by name and status",
	},
	[]string{"operation", "status"},
)

func init() {
	prometheus.MustRegister(_operationMtc)
}

type (
	// WalletFactory reports the owner of an atom's associated wallet. The factory itself
	// lives outside the ledger and is consumed as an opaque collaborator
	WalletFactory interface {
		OwnerOf(ctx context.Context, atomID hash.Hash256) (address.Address, error)
	}

	// Bridge moves withdrawn rewards to a recipient on a remote chain. QuoteFee returns
	// the fee the bridge will take from the transferred amount on delivery
	Bridge interface {
		QuoteFee(ctx context.Context, recipient string, amount *big.Int) (*big.Int, error)
		Transfer(ctx context.Context, recipient string, amount *big.Int) error
	}

	// Listener receives committed events. Events are delivered outside the execution
	// lock, so a listener may call back into the service
	Listener interface {
		HandleEvent(multivault.Event)
	}

	// Service wires the protocols, the state factory and the collaborators together
	Service struct {
		mutex sync.Mutex

		cfg      config.Config
		registry *curve.Registry
		tracker  *utilization.Tracker
		calc     *epochs.Calculator
		schedule *emissions.Schedule
		mv       *multivault.Protocol
		bonding  *bonding.Protocol
		sf       factory.Factory

		governor      address.Address
		walletFactory WalletFactory
		bridge        Bridge
		clock         clock.Clock
		listeners     []Listener
		lifecycle     lifecycle.Lifecycle
	}

	// Option sets an optional collaborator on the service
	Option func(*Service)
)

// WithWalletFactory sets the wallet factory collaborator
func WithWalletFactory(wf WalletFactory) Option {
	return func(s *Service) { s.walletFactory = wf }
}

// WithBridge sets the bridge collaborator
func WithBridge(b Bridge) Option {
	return func(s *Service) { s.bridge = b }
}

// WithClock overrides the wall clock, for tests
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// NewService assembles a service over the given store. The governor is the only address
// allowed to run governance operations
func NewService(cfg config.Config, kv db.KVStore, governor address.Address, opts ...Option) (*Service, error) {
	s := &Service{
		cfg:      cfg,
		governor: governor,
		clock:    clock.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	registry := curve.NewRegistry()
	linear, err := curve.NewLinear(1, cfg.MultiVault.LinearPrice())
	if err != nil {
		return nil, err
	}
	progressive, err := curve.NewProgressive(2, cfg.MultiVault.ProgressiveSlope())
	if err != nil {
		return nil, err
	}
	offset, err := curve.NewOffsetProgressive(3, cfg.MultiVault.ProgressiveSlope(), cfg.MultiVault.ProgressiveOffset())
	if err != nil {
		return nil, err
	}
	for _, c := range []curve.Curve{linear, progressive, offset} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	s.registry = registry

	calc, err := epochs.NewCalculator(cfg.Epochs.Genesis, cfg.Epochs.Length, s.clock)
	if err != nil {
		return nil, err
	}
	s.calc = calc
	schedule, err := emissions.NewSchedule(cfg.Emissions)
	if err != nil {
		return nil, err
	}
	s.schedule = schedule

	s.tracker = utilization.NewTracker()
	s.mv = multivault.NewProtocol(cfg.MultiVault, registry, s.tracker)
	s.bonding = bonding.NewProtocol(cfg.Bonding, calc, schedule, s.tracker)
	s.sf = factory.NewFactory(kv)
	s.lifecycle.Add(s.sf)
	return s, nil
}

// Start starts the service
func (s *Service) Start(ctx context.Context) error { return s.lifecycle.OnStart(ctx) }

// Stop stops the service
func (s *Service) Stop(ctx context.Context) error { return s.lifecycle.OnStop(ctx) }

// AddListener registers a committed-event listener
func (s *Service) AddListener(l Listener) {
	s.listeners = append(s.listeners, l)
}

// CurrentEpoch returns the epoch index at the current time
func (s *Service) CurrentEpoch() (uint64, error) {
	return s.calc.Current()
}

// execute runs one mutating operation. The mutex makes execution sequential-atomic.
// Events are emitted only after a successful commit and after the lock is released, so
// listeners can safely run further operations
func (s *Service) execute(
	name string,
	caller address.Address,
	fn func(ctx context.Context, ws factory.WorkingSet) ([]multivault.Event, error),
) error {
	events, err := s.executeLocked(name, caller, fn)
	if err != nil {
		return err
	}
	for _, event := range events {
		for _, l := range s.listeners {
			l.HandleEvent(event)
		}
	}
	if len(events) > 0 {
		log.Logger("mvservice").Debug("Committed " + name)
	}
	return nil
}

func (s *Service) executeLocked(
	name string,
	caller address.Address,
	fn func(ctx context.Context, ws factory.WorkingSet) ([]multivault.Event, error),
) ([]multivault.Event, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.clock.Now()
	epoch, err := s.calc.AtTime(now)
	if err != nil {
		_operationMtc.WithLabelValues(name, "failure").Inc()
		return nil, err
	}
	ctx := protocol.WithActionCtx(context.Background(), protocol.ActionCtx{
		Caller:    caller,
		Timestamp: now,
		Epoch:     epoch,
	})

	ws := s.sf.NewWorkingSet()
	events, err := fn(ctx, ws)
	if err != nil {
		_operationMtc.WithLabelValues(name, "failure").Inc()
		return nil, err
	}
	if err := ws.Commit(); err != nil {
		_operationMtc.WithLabelValues(name, "failure").Inc()
		return nil, errors.Wrapf(err, "failed to commit %s", name)
	}
	_operationMtc.WithLabelValues(name, "success").Inc()
	return events, nil
}

// requireGovernor rejects callers other than the governor
func (s *Service) requireGovernor(caller address.Address) error {
	if caller == nil || caller.String() != s.governor.String() {
		return errors.Wrapf(protocol.ErrUnauthorized, "caller = %s", caller)
	}
	return nil
}

// SetFees replaces the fee rates. Governor only
func (s *Service) SetFees(caller address.Address, entryBps, exitBps, protocolBps, walletBps uint64) error {
	if err := s.requireGovernor(caller); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	cfg := s.cfg
	cfg.MultiVault.EntryFeeBps = entryBps
	cfg.MultiVault.ExitFeeBps = exitBps
	cfg.MultiVault.ProtocolFeeBps = protocolBps
	cfg.MultiVault.AtomWalletDepositFeeBps = walletBps
	if err := config.ValidateFees(cfg); err != nil {
		return err
	}
	s.cfg = cfg
	s.mv = multivault.NewProtocol(cfg.MultiVault, s.registry, s.tracker)
	return nil
}

// SetUtilizationLowerBounds replaces the reward ratio floors. Governor only
func (s *Service) SetUtilizationLowerBounds(caller address.Address, systemBps, personalBps uint64) error {
	if err := s.requireGovernor(caller); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	cfg := s.cfg
	cfg.Bonding.SystemUtilizationLowerBoundBps = systemBps
	cfg.Bonding.PersonalUtilizationLowerBoundBps = personalBps
	if err := config.ValidateBonding(cfg); err != nil {
		return err
	}
	s.cfg = cfg
	s.bonding = bonding.NewProtocol(cfg.Bonding, s.calc, s.schedule, s.tracker)
	return nil
}

// RegisterCurve adds a new pricing law to the registry. Governor only; existing ids can
// never be replaced
func (s *Service) RegisterCurve(caller address.Address, c curve.Curve) error {
	if err := s.requireGovernor(caller); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.registry.Register(c)
}

// Curves returns the registered curve ids
func (s *Service) Curves() []uint64 {
	return s.registry.IDs()
}
